/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// Messages of the threshold protocols carry a length-prefixed label as the
// first payload field (u8 length || label || rest). A Demux splits one
// Channel into per-label views so that sequential sub-protocols sharing the
// channel do not consume each other's traffic: a message for a label nobody
// is currently reading is parked until its reader arrives.
type Demux struct {
	ch Channel

	mu      sync.Mutex
	pending []*Envelope
}

// NewDemux wraps a channel for label-based routing.
func NewDemux(ch Channel) *Demux {
	return &Demux{ch: ch}
}

// LabelOf extracts the label prefix of a payload.
func LabelOf(payload []byte) ([]byte, error) {
	if len(payload) < 1 || len(payload) < 1+int(payload[0]) {
		return nil, errors.New("transport: payload without label prefix")
	}

	return payload[1 : 1+int(payload[0])], nil
}

// Channel returns a view of the underlying channel restricted to the label.
func (d *Demux) Channel(label []byte) Channel {
	return &labeled{demux: d, label: append([]byte(nil), label...)}
}

type labeled struct {
	demux *Demux
	label []byte
}

func (l *labeled) Broadcast(payload []byte) error {
	return l.demux.ch.Broadcast(payload)
}

func (l *labeled) Send(to uint32, payload []byte) error {
	return l.demux.ch.Send(to, payload)
}

func (l *labeled) Receive(timeout time.Duration) (*Envelope, error) {
	deadline := time.Now().Add(timeout)

	if env := l.demux.takePending(l.label); env != nil {
		return env, nil
	}

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}

		env, err := l.demux.ch.Receive(remaining)
		if err != nil {
			return nil, err
		}

		label, err := LabelOf(env.Payload)
		if err != nil {
			return nil, err
		}

		if bytes.Equal(label, l.label) {
			return env, nil
		}

		l.demux.park(env)
	}
}

func (d *Demux) takePending(label []byte) *Envelope {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, env := range d.pending {
		got, err := LabelOf(env.Payload)
		if err != nil {
			continue
		}

		if bytes.Equal(got, label) {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)

			return env
		}
	}

	return nil
}

func (d *Demux) park(env *Envelope) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, env)
}
