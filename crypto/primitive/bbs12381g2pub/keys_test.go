/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub_test

import (
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	bbs "github.com/Spike780/COMP6453-BBS/crypto/primitive/bbs12381g2pub"
)

func TestGenerateKeyPair(t *testing.T) {
	h := sha256.New

	seed := make([]byte, 32)

	pubKey, privKey, err := bbs.GenerateKeyPair(h, seed)

	require.NoError(t, err)
	require.NotNil(t, pubKey)
	require.NotNil(t, privKey)

	// the same seed must derive the same key pair
	pubKey2, privKey2, err := bbs.GenerateKeyPair(h, seed)
	require.NoError(t, err)
	require.True(t, privKey.FR.Equals(privKey2.FR))
	require.True(t, pubKey.PointG2.Equals(pubKey2.PointG2))

	// use random seed
	pubKey, privKey, err = bbs.GenerateKeyPair(h, nil)
	require.NoError(t, err)
	require.NotNil(t, pubKey)
	require.NotNil(t, privKey)

	// invalid size of seed
	pubKey, privKey, err = bbs.GenerateKeyPair(h, make([]byte, 31))
	require.Error(t, err)
	require.EqualError(t, err, "invalid size of seed")
	require.Nil(t, pubKey)
	require.Nil(t, privKey)
}

func TestPrivateKey_Marshal(t *testing.T) {
	_, privKey, err := generateKeyPairRandom()
	require.NoError(t, err)

	privKeyBytes, err := privKey.Marshal()
	require.NoError(t, err)
	require.NotNil(t, privKeyBytes)

	privKeyUnmarshalled, err := bbs.UnmarshalPrivateKey(privKeyBytes)
	require.NoError(t, err)
	require.NotNil(t, privKeyUnmarshalled)
	require.True(t, privKey.FR.Equals(privKeyUnmarshalled.FR))
}

func TestPrivateKey_PublicKey(t *testing.T) {
	pubKey, privKey, err := generateKeyPairRandom()
	require.NoError(t, err)

	require.True(t, pubKey.PointG2.Equals(privKey.PublicKey().PointG2))
}

func TestPublicKey_Marshal(t *testing.T) {
	pubKey, _, err := generateKeyPairRandom()
	require.NoError(t, err)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)
	require.NotNil(t, pubKeyBytes)

	pubKeyUnmarshalled, err := bbs.UnmarshalPublicKey(pubKeyBytes)
	require.NoError(t, err)
	require.NotNil(t, pubKeyUnmarshalled)
	require.True(t, pubKey.PointG2.Equals(pubKeyUnmarshalled.PointG2))
}

func TestMessageGenerators(t *testing.T) {
	gens := bbs.MessageGenerators(3)
	require.Len(t, gens, 4)

	// deterministic
	gens2 := bbs.MessageGenerators(3)
	for i := range gens {
		require.True(t, gens[i].Equals(gens2[i]))
	}

	// pairwise distinct
	for i := range gens {
		for j := i + 1; j < len(gens); j++ {
			require.False(t, gens[i].Equals(gens[j]))
		}
	}

	require.True(t, bbs.BlindingGenerator().Equals(gens[0]))
}

func generateKeyPairRandom() (*bbs.PublicKey, *bbs.PrivateKey, error) {
	seed := make([]byte, 32)

	_, err := rand.Read(seed)
	if err != nil {
		panic(err)
	}

	return bbs.GenerateKeyPair(sha256.New, seed)
}
