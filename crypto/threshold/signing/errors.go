/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signing

import (
	"errors"
	"fmt"
)

var (
	// ErrSubDKGAborted is returned when one of the session's sub-instances
	// (for e, s or the inversion mask) aborted.
	ErrSubDKGAborted = errors.New("signing: sub-dkg aborted")

	// ErrInversionFailed is returned when the masked product α = k·ρ came
	// out zero and the retry budget is exhausted.
	ErrInversionFailed = errors.New("signing: distributed inversion failed")

	// ErrTimeout is returned when a signing round misses its deadline.
	ErrTimeout = errors.New("signing: round deadline exceeded")
)

// InsufficientQuorumError reports a quorum below the signing threshold.
// Signing needs 2t-1 parties: the product shares α_i live on a polynomial of
// degree 2(t-1).
type InsufficientQuorumError struct {
	Have int
	Need int
}

func (e *InsufficientQuorumError) Error() string {
	return fmt.Sprintf("signing: insufficient quorum: have %d parties, need %d", e.Have, e.Need)
}
