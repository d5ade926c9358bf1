/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	bbs "github.com/Spike780/COMP6453-BBS/crypto/primitive/bbs12381g2pub"
)

func TestParseSignature(t *testing.T) {
	_, privKeyBytes := generateKeyPairBytes(t)

	bls := bbs.New()

	sigBytes, err := bls.Sign([][]byte{[]byte("message1")}, privKeyBytes)
	require.NoError(t, err)

	signature, err := bbs.ParseSignature(sigBytes)
	require.NoError(t, err)

	sigBytes2, err := signature.ToBytes()
	require.NoError(t, err)
	require.Equal(t, sigBytes, sigBytes2)

	// invalid size of signature
	signature, err = bbs.ParseSignature([]byte("invalid"))
	require.Error(t, err)
	require.EqualError(t, err, "invalid size of signature")
	require.Nil(t, signature)

	// invalid G1 signature part
	invalidSigBytes := make([]byte, len(sigBytes))
	signature, err = bbs.ParseSignature(invalidSigBytes)
	require.Error(t, err)
	require.Contains(t, err.Error(), "deserialize G1 compressed signature")
	require.Nil(t, signature)
}

