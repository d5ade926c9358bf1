/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signing

import (
	"encoding/binary"
	"errors"

	ml "github.com/IBM/mathlib"
)

// Session messages share the label framing of the dkg package
// (u8 labelLen || label || u32 partyID || u8 kind || body) so that one
// transport demultiplexer serves the sub-instances and the session rounds.
// Labels are sessionID || sub, with sub identifying the phase; the mask and
// product phases append the inversion attempt number as one more byte.
const (
	subE       byte = 'e'
	subS       byte = 's'
	subMask    byte = 'r'
	subProduct byte = 'a'
	subOpening byte = 'o'
)

const (
	kindProduct uint8 = 16
	kindOpening uint8 = 17
)

const (
	frSize    = 32
	indexSize = 4
)

func sessionLabel(sessionID [16]byte, sub byte, round uint8) []byte {
	label := make([]byte, 0, len(sessionID)+2)
	label = append(label, sessionID[:]...)
	label = append(label, sub)

	if sub == subMask || sub == subProduct {
		label = append(label, round)
	}

	return label
}

// scalarMessage carries one scalar of the session rounds: a masked product
// share α_i or an opened share of s.
type scalarMessage struct {
	party uint32
	kind  uint8
	value *ml.Zr
}

func (m *scalarMessage) encode(label []byte) []byte {
	out := make([]byte, 0, 1+len(label)+indexSize+1+frSize)
	out = append(out, uint8(len(label)))
	out = append(out, label...)

	var idx [indexSize]byte
	binary.BigEndian.PutUint32(idx[:], m.party)
	out = append(out, idx[:]...)

	out = append(out, m.kind)

	return append(out, m.value.Bytes()...)
}

func parseScalarMessage(payload []byte) (*scalarMessage, []byte, error) {
	if len(payload) < 1 {
		return nil, nil, errors.New("short message")
	}

	labelLen := int(payload[0])
	if len(payload) != 1+labelLen+indexSize+1+frSize {
		return nil, nil, errors.New("invalid size of session message")
	}

	label := append([]byte(nil), payload[1:1+labelLen]...)
	rest := payload[1+labelLen:]

	value := curve.NewZrFromBytes(rest[indexSize+1:])
	value.Mod(curve.GroupOrder)

	return &scalarMessage{
		party: binary.BigEndian.Uint32(rest[:indexSize]),
		kind:  rest[indexSize],
		value: value,
	}, label, nil
}
