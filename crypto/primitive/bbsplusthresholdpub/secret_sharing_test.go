/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbsplusthresholdpub_test

import (
	mathrand "math/rand"
	"testing"

	ml "github.com/IBM/mathlib"
	"github.com/stretchr/testify/require"

	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbsplusthresholdpub"
)

// nolint:gochecknoglobals
var curve = ml.Curves[ml.BLS12_381_BBS]

const rngSeed = 0x42

func testRNG() *mathrand.Rand {
	return mathrand.New(mathrand.NewSource(rngSeed)) //nolint:gosec
}

func TestShareSecretAndReconstruct(t *testing.T) {
	rng := testRNG()

	secret := curve.NewRandomZr(rng)

	shares, coefficients, err := bbsplusthresholdpub.ShareSecret(rng, secret, 3, 5)
	require.NoError(t, err)
	require.Len(t, shares, 5)
	require.Len(t, coefficients, 3)
	require.True(t, coefficients[0].Equals(secret))

	// every quorum of size >= t reconstructs the same secret
	quorums := [][]int{
		{0, 1, 2},
		{0, 1, 3},
		{2, 3, 4},
		{0, 1, 2, 3},
		{0, 1, 2, 3, 4},
	}

	for _, quorum := range quorums {
		subset := make([]*bbsplusthresholdpub.SecretShare, len(quorum))
		for i, idx := range quorum {
			subset[i] = shares[idx]
		}

		reconstructed, err := bbsplusthresholdpub.ReconstructAtZero(subset)
		require.NoError(t, err)
		require.True(t, secret.Equals(reconstructed))
	}

	// t-1 shares reconstruct garbage
	reconstructed, err := bbsplusthresholdpub.ReconstructAtZero(shares[:2])
	require.NoError(t, err)
	require.False(t, secret.Equals(reconstructed))
}

func TestShareSecret_InvalidParameters(t *testing.T) {
	rng := testRNG()
	secret := curve.NewRandomZr(rng)

	_, _, err := bbsplusthresholdpub.ShareSecret(rng, secret, 0, 5)
	require.Error(t, err)

	_, _, err = bbsplusthresholdpub.ShareSecret(rng, secret, 6, 5)
	require.Error(t, err)
}

func TestLagrangeCoefficient(t *testing.T) {
	t.Run("duplicate index", func(t *testing.T) {
		_, err := bbsplusthresholdpub.LagrangeCoefficient([]uint32{1, 2, 2}, 1, 0)
		require.ErrorIs(t, err, bbsplusthresholdpub.ErrDuplicateIndex)
	})

	t.Run("zero index", func(t *testing.T) {
		_, err := bbsplusthresholdpub.LagrangeCoefficient([]uint32{0, 1, 2}, 1, 0)
		require.ErrorIs(t, err, bbsplusthresholdpub.ErrDuplicateIndex)
	})

	t.Run("index not an evaluation point", func(t *testing.T) {
		_, err := bbsplusthresholdpub.LagrangeCoefficient([]uint32{1, 2, 3}, 4, 0)
		require.Error(t, err)
	})

	t.Run("coefficients sum to one", func(t *testing.T) {
		// interpolating the constant polynomial 1 at any point yields 1
		indices := []uint32{1, 3, 7}

		coefficients, err := bbsplusthresholdpub.Lagrange0Coefficients(indices)
		require.NoError(t, err)

		sum := curve.NewZrFromInt(0)
		for _, c := range coefficients {
			sum = sum.Plus(c)
			sum.Mod(curve.GroupOrder)
		}

		require.True(t, sum.Equals(curve.NewZrFromInt(1)))
	})
}

func TestEvaluatePoly(t *testing.T) {
	// f(x) = 2 + 3x + x^2
	coefficients := []*ml.Zr{
		curve.NewZrFromInt(2),
		curve.NewZrFromInt(3),
		curve.NewZrFromInt(1),
	}

	require.True(t, bbsplusthresholdpub.EvaluatePoly(coefficients, 0).Equals(curve.NewZrFromInt(2)))
	require.True(t, bbsplusthresholdpub.EvaluatePoly(coefficients, 1).Equals(curve.NewZrFromInt(6)))
	require.True(t, bbsplusthresholdpub.EvaluatePoly(coefficients, 4).Equals(curve.NewZrFromInt(30)))
}

func TestInterpolateG1AtZero(t *testing.T) {
	rng := testRNG()

	secret := curve.NewRandomZr(rng)

	shares, _, err := bbsplusthresholdpub.ShareSecret(rng, secret, 2, 3)
	require.NoError(t, err)

	base := curve.HashToG1([]byte("some base point"))

	indices := make([]uint32, len(shares))
	points := make([]*ml.G1, len(shares))

	for i, sh := range shares {
		indices[i] = sh.Index
		points[i] = base.Mul(sh.Value)
	}

	interpolated, err := bbsplusthresholdpub.InterpolateG1AtZero(indices, points)
	require.NoError(t, err)

	require.True(t, interpolated.Equals(base.Mul(secret)))
}

func TestInvertFr(t *testing.T) {
	rng := testRNG()

	a := curve.NewRandomZr(rng)

	inv, err := bbsplusthresholdpub.InvertFr(a)
	require.NoError(t, err)

	product := a.Mul(inv)
	product.Mod(curve.GroupOrder)
	require.True(t, product.Equals(curve.NewZrFromInt(1)))

	_, err = bbsplusthresholdpub.InvertFr(curve.NewZrFromInt(0))
	require.ErrorIs(t, err, bbsplusthresholdpub.ErrDivZero)
}

func TestZeroize(t *testing.T) {
	rng := testRNG()

	a := curve.NewRandomZr(rng)
	b := curve.NewRandomZr(rng)

	bbsplusthresholdpub.Zeroize(a, b, nil)

	require.True(t, a.Equals(curve.NewZrFromInt(0)))
	require.True(t, b.Equals(curve.NewZrFromInt(0)))
}
