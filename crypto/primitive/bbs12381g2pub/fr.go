/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"bytes"
	"errors"
	"io"

	ml "github.com/IBM/mathlib"
	"golang.org/x/crypto/blake2b"
)

// ErrNotInField is returned when a serialized scalar is not canonical mod the group order.
var ErrNotInField = errors.New("scalar not in field")

func frZero() *ml.Zr {
	return curve.NewZrFromInt(0)
}

// f2192 returns 2^192 as a field element.
func f2192() *ml.Zr {
	b := make([]byte, frCompressedSize)
	b[frCompressedSize-25] = 1

	return curve.NewZrFromBytes(b)
}

// parseFr deserializes a 32-byte big-endian scalar, rejecting values >= the group order.
func parseFr(data []byte) (*ml.Zr, error) {
	if len(data) != frCompressedSize {
		return nil, errors.New("invalid size of scalar")
	}

	fr := curve.NewZrFromBytes(data)
	fr.Mod(curve.GroupOrder)

	if !bytes.Equal(fr.Bytes(), data) {
		return nil, ErrNotInField
	}

	return fr, nil
}

// frFromOKM maps a byte string to a field element via BLAKE2b-384 output keying material.
func frFromOKM(message []byte) *ml.Zr {
	const (
		eightBytes = 8
		okmMiddle  = 24
	)

	// We pass a null key so error is impossible here.
	h, _ := blake2b.New384(nil) //nolint:errcheck

	// blake2b.digest() does not return an error.
	_, _ = h.Write(message)
	okm := h.Sum(nil)
	emptyEightBytes := make([]byte, eightBytes)

	elm := curve.NewZrFromBytes(append(emptyEightBytes, okm[:okmMiddle]...))
	elm = elm.Mul(f2192())
	elm.Mod(curve.GroupOrder)

	fr := curve.NewZrFromBytes(append(emptyEightBytes, okm[okmMiddle:]...))
	elm = elm.Plus(fr)
	elm.Mod(curve.GroupOrder)

	return elm
}

// frToRepr reduces fr to its canonical representation.
func frToRepr(fr *ml.Zr) *ml.Zr {
	frRepr := fr.Copy()
	frRepr.Mod(curve.GroupOrder)

	return frRepr
}

func createRandSignatureFr(rng io.Reader) *ml.Zr {
	fr := curve.NewRandomZr(rng)

	return frToRepr(fr)
}

// CreateRandFr samples a uniform scalar from rng.
func CreateRandFr(rng io.Reader) *ml.Zr {
	return createRandSignatureFr(rng)
}

// CreateRandNonZeroFr samples a uniform non-zero scalar from rng.
func CreateRandNonZeroFr(rng io.Reader) *ml.Zr {
	fr := createRandSignatureFr(rng)
	for fr.Equals(frZero()) {
		fr = createRandSignatureFr(rng)
	}

	return fr
}

// FrFromOKM maps a byte string to a field element. It is the deterministic
// hash-to-scalar used for signature messages and Fiat-Shamir challenges.
func FrFromOKM(message []byte) *ml.Zr {
	return frFromOKM(message)
}

// MessagesToFr maps the message vector M = (m_1, .., m_L) to scalars via the
// deterministic hash-to-scalar. Message i is signed under generator h_i; the
// mapping is positional, so callers must keep the vector order stable.
func MessagesToFr(messages [][]byte) []*ml.Zr {
	messagesFr := make([]*ml.Zr, len(messages))

	for i := range messages {
		messagesFr[i] = frFromOKM(messages[i])
	}

	return messagesFr
}

// ParseFr deserializes a 32-byte big-endian scalar with a range check.
func ParseFr(data []byte) (*ml.Zr, error) {
	return parseFr(data)
}
