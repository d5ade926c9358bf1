/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signing

import (
	mathrand "math/rand"
	"sync"
	"testing"
	"time"

	ml "github.com/IBM/mathlib"
	"github.com/stretchr/testify/require"

	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbs12381g2pub"
	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbsplusthresholdpub"
	"github.com/Spike780/COMP6453-BBS/crypto/threshold/dkg"
	"github.com/Spike780/COMP6453-BBS/crypto/threshold/transport"
)

const testSeed = 0x42

// keyGenForTest produces a (t,n) sharing of a master key without running the
// full DKG machinery.
func keyGenForTest(t *testing.T, threshold, n int) (map[uint32]*ml.Zr, *bbs12381g2pub.PublicKey) {
	t.Helper()

	rng := mathrand.New(mathrand.NewSource(testSeed)) //nolint:gosec

	x := curve.NewRandomZr(rng)

	shares, _, err := bbsplusthresholdpub.ShareSecret(rng, x, threshold, n)
	require.NoError(t, err)

	byID := make(map[uint32]*ml.Zr, n)
	for _, sh := range shares {
		byID[sh.Index] = sh.Value
	}

	return byID, (&bbs12381g2pub.PrivateKey{FR: x}).PublicKey()
}

// A zero inversion mask forces α = k·ρ = 0; the session must retry with a
// fresh mask and still produce a valid signature.
func TestSession_InversionRetryOnZeroMask(t *testing.T) {
	const (
		threshold = 2
		n         = 3
	)

	quorum := []uint32{1, 2, 3}
	messages := [][]byte{[]byte("message1")}

	keyShares, pubKey := keyGenForTest(t, threshold, n)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)

	net, err := transport.NewNetwork(quorum)
	require.NoError(t, err)

	sessionID := NewSessionID()

	shares := make([]*bbsplusthresholdpub.SignatureShare, 0, n)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, id := range quorum {
		ch, err := net.Channel(id)
		require.NoError(t, err)

		wg.Add(1)

		go func(id uint32, ch transport.Channel) {
			defer wg.Done()

			session, err := NewSession(&Params{
				T:            threshold,
				Quorum:       quorum,
				SessionID:    sessionID,
				Messages:     messages,
				PublicKey:    pubKey,
				RNG:          mathrand.New(mathrand.NewSource(testSeed + int64(id))), //nolint:gosec
				RoundTimeout: 5 * time.Second,
			}, id, keyShares[id], ch)
			require.NoError(t, err)

			// first attempt: every party's mask share is zero, so ρ = 0
			session.sampleMask = func(retry uint8) (*dkg.Result, error) {
				if retry == 0 {
					return &dkg.Result{Share: curve.NewZrFromInt(0)}, nil
				}

				return session.runSub(subMask, retry)
			}

			share, err := session.Run()
			require.NoError(t, err)

			mu.Lock()
			shares = append(shares, share)
			mu.Unlock()
		}(id, ch)
	}

	wg.Wait()

	require.Len(t, shares, n)

	sigBytes, err := bbsplusthresholdpub.ReconstructSignature(shares, 2*threshold-1, messages, pubKeyBytes)
	require.NoError(t, err)

	require.NoError(t, bbs12381g2pub.New().Verify(messages, sigBytes, pubKeyBytes))
}

// With the retry budget exhausted the session surfaces ErrInversionFailed.
func TestSession_InversionFailedAfterRetries(t *testing.T) {
	const (
		threshold = 2
		n         = 3
	)

	quorum := []uint32{1, 2, 3}
	messages := [][]byte{[]byte("message1")}

	keyShares, pubKey := keyGenForTest(t, threshold, n)

	net, err := transport.NewNetwork(quorum)
	require.NoError(t, err)

	sessionID := NewSessionID()

	var wg sync.WaitGroup

	errs := make([]error, len(quorum))

	for i, id := range quorum {
		ch, err := net.Channel(id)
		require.NoError(t, err)

		wg.Add(1)

		go func(i int, id uint32, ch transport.Channel) {
			defer wg.Done()

			session, err := NewSession(&Params{
				T:            threshold,
				Quorum:       quorum,
				SessionID:    sessionID,
				Messages:     messages,
				PublicKey:    pubKey,
				RNG:          mathrand.New(mathrand.NewSource(testSeed + int64(id))), //nolint:gosec
				RoundTimeout: 5 * time.Second,
			}, id, keyShares[id], ch)
			require.NoError(t, err)

			// the mask is zero on every attempt
			session.sampleMask = func(uint8) (*dkg.Result, error) {
				return &dkg.Result{Share: curve.NewZrFromInt(0)}, nil
			}

			_, errs[i] = session.Run()
		}(i, id, ch)
	}

	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, ErrInversionFailed)
	}
}
