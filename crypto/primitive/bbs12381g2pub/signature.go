/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"errors"
	"fmt"

	ml "github.com/IBM/mathlib"
)

// Signature defines a BBS+ signature (A, e, s).
type Signature struct {
	A *ml.G1
	E *ml.Zr
	S *ml.Zr
}

// ParseSignature parses a Signature from bytes.
func ParseSignature(sigBytes []byte) (*Signature, error) {
	if len(sigBytes) != bls12381SignatureLen {
		return nil, errors.New("invalid size of signature")
	}

	pointG1, err := curve.NewG1FromCompressed(sigBytes[:g1CompressedSize])
	if err != nil {
		return nil, fmt.Errorf("deserialize G1 compressed signature: %w", err)
	}

	e, err := parseFr(sigBytes[g1CompressedSize : g1CompressedSize+frCompressedSize])
	if err != nil {
		return nil, fmt.Errorf("deserialize signature e: %w", err)
	}

	s, err := parseFr(sigBytes[g1CompressedSize+frCompressedSize:])
	if err != nil {
		return nil, fmt.Errorf("deserialize signature s: %w", err)
	}

	return &Signature{
		A: pointG1,
		E: e,
		S: s,
	}, nil
}

// ToBytes converts signature to bytes using compression of G1 point and
// big-endian encoding of the scalars.
func (s *Signature) ToBytes() ([]byte, error) {
	bytes := make([]byte, bls12381SignatureLen)

	copy(bytes, s.A.Compressed())
	copy(bytes[g1CompressedSize:g1CompressedSize+frCompressedSize], frToRepr(s.E).Bytes())
	copy(bytes[g1CompressedSize+frCompressedSize:], frToRepr(s.S).Bytes())

	return bytes, nil
}

// Verify checks the pairing equation e(A, w * g2^e) == e(B, g2).
func (s *Signature) Verify(messages []*ml.Zr, key *PublicKeyWithGenerators) error {
	if len(messages) != key.MessagesCount {
		return fmt.Errorf("invalid number of messages: %d instead of %d", len(messages), key.MessagesCount)
	}

	if s.A.IsInfinity() {
		return errors.New("signature A is the identity element of G1")
	}

	wg2e := curve.GenG2.Mul(frToRepr(s.E))
	wg2e.Add(key.W)

	b := ComputeB(s.S, messages, key)

	if !PairingsEqual(s.A, wg2e, b, curve.GenG2) {
		return errors.New("invalid BLS12-381 signature")
	}

	return nil
}
