/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dkg

import (
	"encoding/binary"
	"errors"
	"fmt"

	ml "github.com/IBM/mathlib"
)

// Message kinds. Every payload is framed as
//
//	u8 labelLen || label || u32 partyID || u8 kind || body
//
// The label is empty for a standalone key-generation instance; threshold
// signing sessions tag their sub-instances with a session label.
const (
	kindCommitments uint8 = 0
	kindShare       uint8 = 1
	kindComplaint   uint8 = 2
	kindReady       uint8 = 3
)

const (
	frSize    = 32
	indexSize = 4
)

// nolint:gochecknoglobals
var (
	g1Size = curve.CompressedG1ByteSize
	g2Size = curve.CompressedG2ByteSize
)

type header struct {
	label []byte
	party uint32
	kind  uint8
}

func encodeHeader(label []byte, party uint32, kind uint8) []byte {
	out := make([]byte, 0, 1+len(label)+indexSize+1)
	out = append(out, uint8(len(label)))
	out = append(out, label...)

	var idx [indexSize]byte
	binary.BigEndian.PutUint32(idx[:], party)
	out = append(out, idx[:]...)

	return append(out, kind)
}

func parseHeader(payload []byte) (*header, []byte, error) {
	if len(payload) < 1 {
		return nil, nil, errors.New("short message")
	}

	labelLen := int(payload[0])
	if len(payload) < 1+labelLen+indexSize+1 {
		return nil, nil, errors.New("short message header")
	}

	h := &header{
		label: append([]byte(nil), payload[1:1+labelLen]...),
		party: binary.BigEndian.Uint32(payload[1+labelLen : 1+labelLen+indexSize]),
		kind:  payload[1+labelLen+indexSize],
	}

	return h, payload[1+labelLen+indexSize+1:], nil
}

// commitmentsMessage is the round A broadcast: the dealer's coefficient
// commitments F_k = g1^{a_k}, H_k = h0^{b_k} and the G2 image E = g2^{a_0}
// of its contribution to the secret.
type commitmentsMessage struct {
	party    uint32
	feldman  []*ml.G1
	blinding []*ml.G1
	publicG2 *ml.G2
}

func (m *commitmentsMessage) encode(label []byte) []byte {
	out := encodeHeader(label, m.party, kindCommitments)

	var t [2]byte
	binary.BigEndian.PutUint16(t[:], uint16(len(m.feldman)))
	out = append(out, t[:]...)

	for _, p := range m.feldman {
		out = append(out, p.Compressed()...)
	}

	for _, p := range m.blinding {
		out = append(out, p.Compressed()...)
	}

	return append(out, m.publicG2.Compressed()...)
}

func parseCommitmentsMessage(party uint32, body []byte) (*commitmentsMessage, error) {
	if len(body) < 2 {
		return nil, errors.New("short commitments message")
	}

	t := int(binary.BigEndian.Uint16(body[:2]))
	body = body[2:]

	if len(body) != 2*t*g1Size+g2Size {
		return nil, errors.New("invalid size of commitments message")
	}

	parseVec := func() ([]*ml.G1, error) {
		vec := make([]*ml.G1, t)

		for i := 0; i < t; i++ {
			p, err := curve.NewG1FromCompressed(body[:g1Size])
			if err != nil {
				return nil, fmt.Errorf("deserialize commitment: %w", err)
			}

			vec[i] = p
			body = body[g1Size:]
		}

		return vec, nil
	}

	feldman, err := parseVec()
	if err != nil {
		return nil, err
	}

	blinding, err := parseVec()
	if err != nil {
		return nil, err
	}

	publicG2, err := curve.NewG2FromCompressed(body)
	if err != nil {
		return nil, fmt.Errorf("deserialize G2 public point: %w", err)
	}

	return &commitmentsMessage{
		party:    party,
		feldman:  feldman,
		blinding: blinding,
		publicG2: publicG2,
	}, nil
}

// shareMessage is the round B unicast carrying f_p(q) and g_p(q).
type shareMessage struct {
	party uint32
	share *ml.Zr
	blind *ml.Zr
}

func (m *shareMessage) encode(label []byte) []byte {
	out := encodeHeader(label, m.party, kindShare)
	out = append(out, m.share.Bytes()...)

	return append(out, m.blind.Bytes()...)
}

func parseShareMessage(party uint32, body []byte) (*shareMessage, error) {
	if len(body) != 2*frSize {
		return nil, errors.New("invalid size of share message")
	}

	share := curve.NewZrFromBytes(body[:frSize])
	share.Mod(curve.GroupOrder)

	blind := curve.NewZrFromBytes(body[frSize:])
	blind.Mod(curve.GroupOrder)

	return &shareMessage{party: party, share: share, blind: blind}, nil
}

// complaintMessage names a dealer whose share failed verification.
type complaintMessage struct {
	party   uint32
	against uint32
}

func (m *complaintMessage) encode(label []byte) []byte {
	out := encodeHeader(label, m.party, kindComplaint)

	var idx [indexSize]byte
	binary.BigEndian.PutUint32(idx[:], m.against)

	return append(out, idx[:]...)
}

func parseComplaintMessage(party uint32, body []byte) (*complaintMessage, error) {
	if len(body) != indexSize {
		return nil, errors.New("invalid size of complaint message")
	}

	return &complaintMessage{party: party, against: binary.BigEndian.Uint32(body)}, nil
}

func encodeReady(label []byte, party uint32) []byte {
	return encodeHeader(label, party, kindReady)
}
