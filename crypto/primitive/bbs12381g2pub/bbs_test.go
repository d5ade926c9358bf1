/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub_test

import (
	"crypto/rand"
	"crypto/sha256"
	"testing"

	ml "github.com/IBM/mathlib"
	"github.com/stretchr/testify/require"

	bbs "github.com/Spike780/COMP6453-BBS/crypto/primitive/bbs12381g2pub"
)

// nolint:gochecknoglobals
var curve = ml.Curves[ml.BLS12_381_BBS]

func TestBBSG2Pub_SignAndVerify(t *testing.T) {
	pubKeyBytes, privKeyBytes := generateKeyPairBytes(t)

	messagesBytes := [][]byte{[]byte("message1"), []byte("message2")}

	bls := bbs.New()

	signatureBytes, err := bls.Sign(messagesBytes, privKeyBytes)
	require.NoError(t, err)
	require.NotEmpty(t, signatureBytes)
	require.Len(t, signatureBytes, 112)

	require.NoError(t, bls.Verify(messagesBytes, signatureBytes, pubKeyBytes))

	t.Run("tampered message", func(t *testing.T) {
		invalidMessagesBytes := [][]byte{[]byte("message1"), []byte("tampered")}

		err = bls.Verify(invalidMessagesBytes, signatureBytes, pubKeyBytes)
		require.Error(t, err)
		require.EqualError(t, err, "invalid BLS12-381 signature")
	})

	t.Run("swapped messages order", func(t *testing.T) {
		invalidMessagesBytes := [][]byte{[]byte("message2"), []byte("message1")}

		err = bls.Verify(invalidMessagesBytes, signatureBytes, pubKeyBytes)
		require.Error(t, err)
		require.EqualError(t, err, "invalid BLS12-381 signature")
	})

	t.Run("wrong number of messages", func(t *testing.T) {
		err = bls.Verify(messagesBytes[:1], signatureBytes, pubKeyBytes)
		require.Error(t, err)
	})

	t.Run("invalid input public key", func(t *testing.T) {
		err = bls.Verify(messagesBytes, signatureBytes, []byte("invalid"))
		require.Error(t, err)
		require.EqualError(t, err, "parse public key: invalid size of public key")
	})

	t.Run("invalid input signature", func(t *testing.T) {
		err = bls.Verify(messagesBytes, []byte("invalid"), pubKeyBytes)
		require.Error(t, err)
		require.EqualError(t, err, "parse signature: invalid size of signature")
	})

	t.Run("at least one message must be passed", func(t *testing.T) {
		signatureBytes, err = bls.Sign([][]byte{}, privKeyBytes)
		require.Error(t, err)
		require.EqualError(t, err, "messages are not defined")
		require.Nil(t, signatureBytes)
	})

	t.Run("invalid private key bytes", func(t *testing.T) {
		signatureBytes, err = bls.Sign(messagesBytes, []byte("invalid"))
		require.Error(t, err)
		require.EqualError(t, err, "unmarshal private key: invalid size of private key")
		require.Nil(t, signatureBytes)
	})
}

func TestBBSG2Pub_VerifyIsDeterministic(t *testing.T) {
	pubKeyBytes, privKeyBytes := generateKeyPairBytes(t)

	messagesBytes := [][]byte{[]byte("message1")}

	bls := bbs.New()

	signatureBytes, err := bls.Sign(messagesBytes, privKeyBytes)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, bls.Verify(messagesBytes, signatureBytes, pubKeyBytes))
	}
}

func TestBBSG2Pub_RejectIdentityElement(t *testing.T) {
	pubKeyBytes, privKeyBytes := generateKeyPairBytes(t)

	messagesBytes := [][]byte{[]byte("message1")}

	bls := bbs.New()

	signatureBytes, err := bls.Sign(messagesBytes, privKeyBytes)
	require.NoError(t, err)

	signature, err := bbs.ParseSignature(signatureBytes)
	require.NoError(t, err)

	// replace A with the identity element of G1
	signature.A = curve.GenG1.Mul(curve.NewZrFromInt(0))

	infSigBytes, err := signature.ToBytes()
	require.NoError(t, err)

	err = bls.Verify(messagesBytes, infSigBytes, pubKeyBytes)
	require.Error(t, err)
}

func TestBBSG2Pub_DeriveProofAndVerifyProof(t *testing.T) {
	pubKeyBytes, privKeyBytes := generateKeyPairBytes(t)

	messagesBytes := [][]byte{
		[]byte("message1"),
		[]byte("message2"),
		[]byte("message3"),
		[]byte("message4"),
	}

	bls := bbs.New()

	signatureBytes, err := bls.Sign(messagesBytes, privKeyBytes)
	require.NoError(t, err)
	require.NoError(t, bls.Verify(messagesBytes, signatureBytes, pubKeyBytes))

	nonce := []byte("nonce")
	revealedIndexes := []int{0, 2}

	proofBytes, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, revealedIndexes)
	require.NoError(t, err)
	require.NotEmpty(t, proofBytes)

	revealedMessages := make([][]byte, len(revealedIndexes))
	for i, ind := range revealedIndexes {
		revealedMessages[i] = messagesBytes[ind]
	}

	require.NoError(t, bls.VerifyProof(revealedMessages, proofBytes, nonce, pubKeyBytes))

	t.Run("single revealed message", func(t *testing.T) {
		proofBytes, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, []int{1})
		require.NoError(t, err)

		require.NoError(t, bls.VerifyProof([][]byte{messagesBytes[1]}, proofBytes, nonce, pubKeyBytes))
	})

	t.Run("all messages revealed", func(t *testing.T) {
		proofBytes, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, []int{0, 1, 2, 3})
		require.NoError(t, err)

		require.NoError(t, bls.VerifyProof(messagesBytes, proofBytes, nonce, pubKeyBytes))
	})

	t.Run("wrong nonce", func(t *testing.T) {
		err := bls.VerifyProof(revealedMessages, proofBytes, []byte("other nonce"), pubKeyBytes)
		require.Error(t, err)
	})

	t.Run("wrong revealed message", func(t *testing.T) {
		wrongMessages := [][]byte{[]byte("message1"), []byte("tampered")}

		err := bls.VerifyProof(wrongMessages, proofBytes, nonce, pubKeyBytes)
		require.Error(t, err)
	})

	t.Run("no message to reveal", func(t *testing.T) {
		_, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, nil)
		require.Error(t, err)
		require.EqualError(t, err, "no message to reveal")
	})

	t.Run("revealed indexes larger than messages count", func(t *testing.T) {
		_, err = bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, []int{0, 2, 4, 7, 9, 11})
		require.Error(t, err)
	})

	t.Run("invalid size of signature proof payload", func(t *testing.T) {
		err := bls.VerifyProof(revealedMessages, []byte("?"), nonce, pubKeyBytes)
		require.Error(t, err)
		require.EqualError(t, err, "parse signature proof: invalid size of PoK payload")
	})

	t.Run("invalid size of signature proof", func(t *testing.T) {
		proofBytesCopy := make([]byte, 5)

		copy(proofBytesCopy, proofBytes)

		err := bls.VerifyProof(revealedMessages, proofBytesCopy, nonce, pubKeyBytes)
		require.Error(t, err)
	})
}

func generateKeyPairBytes(t *testing.T) ([]byte, []byte) {
	t.Helper()

	seed := make([]byte, 32)

	_, err := rand.Read(seed)
	require.NoError(t, err)

	pubKey, privKey, err := bbs.GenerateKeyPair(sha256.New, seed)
	require.NoError(t, err)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)

	privKeyBytes, err := privKey.Marshal()
	require.NoError(t, err)

	return pubKeyBytes, privKeyBytes
}
