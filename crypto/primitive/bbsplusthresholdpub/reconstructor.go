/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbsplusthresholdpub

import (
	"fmt"

	ml "github.com/IBM/mathlib"

	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbs12381g2pub"
)

// CombineSignatureShares Lagrange-combines at least need signature shares
// from distinct parties into a full BBS+ signature (A, e, s):
//
//	e = Σ λ_i(0) e_i,  s = Σ λ_i(0) s_i,  A = ∏ A_i^{λ_i(0)}
//
// The result is NOT verified; use ReconstructSignature for the gated path.
func CombineSignatureShares(shares []*SignatureShare, need int) (*bbs12381g2pub.Signature, error) {
	if len(shares) < need {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewShares, len(shares), need)
	}

	indices := make([]uint32, len(shares))
	seen := make(map[uint32]bool, len(shares))

	for i, share := range shares {
		if seen[share.Index] {
			return nil, fmt.Errorf("%w: index %d", ErrDuplicateShare, share.Index)
		}

		seen[share.Index] = true
		indices[i] = share.Index
	}

	coefficients, err := Lagrange0Coefficients(indices)
	if err != nil {
		return nil, err
	}

	e := curve.NewZrFromInt(0)
	s := curve.NewZrFromInt(0)

	var a *ml.G1

	for i, share := range shares {
		e = e.Plus(share.EShare.Mul(coefficients[i]))
		e.Mod(curve.GroupOrder)

		s = s.Plus(share.SShare.Mul(coefficients[i]))
		s.Mod(curve.GroupOrder)

		term := share.CapitalAShare.Mul(coefficients[i])
		if a == nil {
			a = term
		} else {
			a.Add(term)
		}
	}

	return &bbs12381g2pub.Signature{
		A: a,
		E: e,
		S: s,
	}, nil
}

// ReconstructSignature combines the shares and gates the release of the
// signature on verification against the master public key. On verification
// failure it returns ErrVerifyFailed without identifying a bad share.
func ReconstructSignature(shares []*SignatureShare, need int,
	messages [][]byte, pubKeyBytes []byte) ([]byte, error) {
	signature, err := CombineSignatureShares(shares, need)
	if err != nil {
		return nil, err
	}

	sigBytes, err := signature.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize reconstructed signature: %w", err)
	}

	err = bbs12381g2pub.New().Verify(messages, sigBytes, pubKeyBytes)
	if err != nil {
		return nil, ErrVerifyFailed
	}

	return sigBytes, nil
}
