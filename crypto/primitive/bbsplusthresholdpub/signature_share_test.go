/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbsplusthresholdpub_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbsplusthresholdpub"
)

func TestSignatureShare_Bytes(t *testing.T) {
	rng := testRNG()

	share := &bbsplusthresholdpub.SignatureShare{
		Index:         7,
		CapitalAShare: curve.HashToG1([]byte("share point")),
		EShare:        curve.NewRandomZr(rng),
		SShare:        curve.NewRandomZr(rng),
	}

	shareBytes, err := share.ToBytes()
	require.NoError(t, err)
	require.Len(t, shareBytes, 4+48+32+32)

	parsed, err := bbsplusthresholdpub.ParseSignatureShare(shareBytes)
	require.NoError(t, err)
	require.Equal(t, share.Index, parsed.Index)
	require.True(t, share.CapitalAShare.Equals(parsed.CapitalAShare))
	require.True(t, share.EShare.Equals(parsed.EShare))
	require.True(t, share.SShare.Equals(parsed.SShare))

	shareBytes2, err := parsed.ToBytes()
	require.NoError(t, err)
	require.Equal(t, shareBytes, shareBytes2)

	// invalid size
	_, err = bbsplusthresholdpub.ParseSignatureShare(shareBytes[:10])
	require.Error(t, err)
	require.EqualError(t, err, "invalid size of signature share")

	// invalid G1 point
	invalid := make([]byte, len(shareBytes))
	_, err = bbsplusthresholdpub.ParseSignatureShare(invalid)
	require.Error(t, err)
	require.Contains(t, err.Error(), "deserialize G1 compressed signature share")
}
