/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package transport models the communication assumptions of the threshold
// protocols: an authenticated broadcast channel with per-sender FIFO ordering
// plus confidential point-to-point channels. The in-memory Network is used by
// the protocol simulations and tests; a production deployment substitutes its
// own Channel implementation.
package transport

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Receive when the deadline elapses before a
// message arrives.
var ErrTimeout = errors.New("transport: receive deadline exceeded")

// ErrClosed is returned when the network has been shut down.
var ErrClosed = errors.New("transport: network closed")

// Envelope wraps a delivered payload. From is stamped by the network, not by
// the sender, which is what makes the channel authenticated.
type Envelope struct {
	From      uint32
	Broadcast bool
	Payload   []byte
}

// Channel is one party's endpoint.
type Channel interface {
	// Broadcast delivers payload to every party, including the sender.
	Broadcast(payload []byte) error

	// Send delivers payload to the party with the given index only.
	Send(to uint32, payload []byte) error

	// Receive blocks until a message arrives or the timeout elapses.
	Receive(timeout time.Duration) (*Envelope, error)
}
