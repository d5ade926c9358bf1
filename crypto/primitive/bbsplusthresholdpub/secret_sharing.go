/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bbsplusthresholdpub contains the share-level primitives of the
// threshold BBS+ scheme: Shamir (t,n) sharing of scalars, Lagrange
// interpolation in the field and in the G1 exponent, and reconstruction of a
// complete BBS+ signature from signature shares.
package bbsplusthresholdpub

import (
	"fmt"
	"io"

	ml "github.com/IBM/mathlib"
)

// nolint:gochecknoglobals
var curve = ml.Curves[ml.BLS12_381_BBS]

// SecretShare is party Index's evaluation of a secret polynomial.
type SecretShare struct {
	Index uint32
	Value *ml.Zr
}

// ShareSecret produces a (t,n) Shamir sharing of secret. It returns the n
// shares (evaluation points 1..n) and the polynomial coefficients
// [secret, a1, .., a_{t-1}]. The caller owns the coefficients and must wipe
// them once commitments have been produced.
func ShareSecret(rng io.Reader, secret *ml.Zr, t, n int) ([]*SecretShare, []*ml.Zr, error) {
	if t < 1 || t > n {
		return nil, nil, fmt.Errorf("invalid threshold parameters (%d,%d)", t, n)
	}

	coefficients := make([]*ml.Zr, t)
	coefficients[0] = secret.Copy()

	for i := 1; i < t; i++ {
		coefficients[i] = curve.NewRandomZr(rng)
	}

	shares := make([]*SecretShare, n)
	for i := 1; i <= n; i++ {
		shares[i-1] = &SecretShare{
			Index: uint32(i),
			Value: EvaluatePoly(coefficients, uint32(i)),
		}
	}

	return shares, coefficients, nil
}

// EvaluatePoly evaluates the polynomial with the given coefficients at x
// using Horner's rule.
func EvaluatePoly(coefficients []*ml.Zr, x uint32) *ml.Zr {
	xZr := curve.NewZrFromInt(int64(x))

	result := curve.NewZrFromInt(0)
	for i := len(coefficients) - 1; i >= 0; i-- {
		result = result.Mul(xZr)
		result = result.Plus(coefficients[i])
		result.Mod(curve.GroupOrder)
	}

	return result
}

// LagrangeCoefficient computes the coefficient applied to the evaluation at
// point index for an interpolation to position at, given the available
// evaluation points indices.
func LagrangeCoefficient(indices []uint32, index uint32, at uint32) (*ml.Zr, error) {
	if err := checkIndices(indices); err != nil {
		return nil, err
	}

	found := false

	top := curve.NewZrFromInt(1)
	bot := curve.NewZrFromInt(1)

	atZr := curve.NewZrFromInt(int64(at))
	indexZr := curve.NewZrFromInt(int64(index))

	for _, j := range indices {
		if j == index {
			found = true
			continue
		}

		jZr := curve.NewZrFromInt(int64(j))

		top = top.Mul(curve.ModSub(atZr, jZr, curve.GroupOrder))
		top.Mod(curve.GroupOrder)

		bot = bot.Mul(curve.ModSub(indexZr, jZr, curve.GroupOrder))
		bot.Mod(curve.GroupOrder)
	}

	if !found {
		return nil, fmt.Errorf("index %d is not among the evaluation points", index)
	}

	botInv := bot.Copy()
	botInv.InvModP(curve.GroupOrder)

	top = top.Mul(botInv)
	top.Mod(curve.GroupOrder)

	return top, nil
}

// Lagrange0Coefficients computes all Lagrange coefficients for an
// interpolation to position 0 over the given evaluation points.
func Lagrange0Coefficients(indices []uint32) ([]*ml.Zr, error) {
	coefficients := make([]*ml.Zr, len(indices))

	for i, idx := range indices {
		c, err := LagrangeCoefficient(indices, idx, 0)
		if err != nil {
			return nil, err
		}

		coefficients[i] = c
	}

	return coefficients, nil
}

// ReconstructAtZero interpolates the sharing polynomial at 0 from the given
// shares, recovering the shared secret.
func ReconstructAtZero(shares []*SecretShare) (*ml.Zr, error) {
	indices := make([]uint32, len(shares))
	for i, sh := range shares {
		indices[i] = sh.Index
	}

	coefficients, err := Lagrange0Coefficients(indices)
	if err != nil {
		return nil, err
	}

	result := curve.NewZrFromInt(0)
	for i, sh := range shares {
		result = result.Plus(sh.Value.Mul(coefficients[i]))
		result.Mod(curve.GroupOrder)
	}

	return result, nil
}

// InterpolateG1AtZero applies Lagrange interpolation in the exponent:
// given points P_i = B^{y_i} for shares y_i of a secret y, it returns B^y.
func InterpolateG1AtZero(indices []uint32, points []*ml.G1) (*ml.G1, error) {
	if len(indices) != len(points) {
		return nil, fmt.Errorf("mismatched index and point counts: %d != %d", len(indices), len(points))
	}

	coefficients, err := Lagrange0Coefficients(indices)
	if err != nil {
		return nil, err
	}

	var result *ml.G1

	for i, p := range points {
		term := p.Mul(coefficients[i])
		if result == nil {
			result = term
		} else {
			result.Add(term)
		}
	}

	return result, nil
}

// InvertFr returns the multiplicative inverse of a mod the group order.
func InvertFr(a *ml.Zr) (*ml.Zr, error) {
	if a.Equals(curve.NewZrFromInt(0)) {
		return nil, ErrDivZero
	}

	inv := a.Copy()
	inv.InvModP(curve.GroupOrder)

	return inv, nil
}

func checkIndices(indices []uint32) error {
	seen := make(map[uint32]bool, len(indices))

	for _, idx := range indices {
		if idx == 0 || seen[idx] {
			return ErrDuplicateIndex
		}

		seen[idx] = true
	}

	return nil
}

// Zeroize overwrites the given scalars with zero. Shares and ephemeral
// protocol values are passed through here once they are no longer needed.
func Zeroize(scalars ...*ml.Zr) {
	one := curve.NewZrFromInt(1)

	for _, s := range scalars {
		if s != nil {
			s.Mod(one)
		}
	}
}
