/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbsplusthresholdpub

import (
	"encoding/binary"
	"errors"
	"fmt"

	ml "github.com/IBM/mathlib"

	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbs12381g2pub"
)

const (
	frCompressedSize = 32
	indexSize        = 4
)

// nolint:gochecknoglobals
var (
	g1CompressedSize = curve.CompressedG1ByteSize

	// Signature share length: index || A_i || e_i || s_i.
	signatureShareLen = indexSize + g1CompressedSize + 2*frCompressedSize
)

// SignatureShare is party Index's contribution to a threshold BBS+ signature:
// its group-element share A_i = B^{u_i} of A together with its Shamir shares
// of the jointly sampled e and s.
type SignatureShare struct {
	Index         uint32
	CapitalAShare *ml.G1
	EShare        *ml.Zr
	SShare        *ml.Zr
}

// ParseSignatureShare parses a SignatureShare from bytes.
func ParseSignatureShare(shareBytes []byte) (*SignatureShare, error) {
	if len(shareBytes) != signatureShareLen {
		return nil, errors.New("invalid size of signature share")
	}

	index := binary.BigEndian.Uint32(shareBytes[:indexSize])

	offset := indexSize

	pointG1, err := curve.NewG1FromCompressed(shareBytes[offset : offset+g1CompressedSize])
	if err != nil {
		return nil, fmt.Errorf("deserialize G1 compressed signature share: %w", err)
	}

	offset += g1CompressedSize

	e, err := bbs12381g2pub.ParseFr(shareBytes[offset : offset+frCompressedSize])
	if err != nil {
		return nil, fmt.Errorf("deserialize share of e: %w", err)
	}

	offset += frCompressedSize

	s, err := bbs12381g2pub.ParseFr(shareBytes[offset:])
	if err != nil {
		return nil, fmt.Errorf("deserialize share of s: %w", err)
	}

	return &SignatureShare{
		Index:         index,
		CapitalAShare: pointG1,
		EShare:        e,
		SShare:        s,
	}, nil
}

// ToBytes converts the SignatureShare to bytes.
func (ss *SignatureShare) ToBytes() ([]byte, error) {
	bytes := make([]byte, signatureShareLen)

	binary.BigEndian.PutUint32(bytes[:indexSize], ss.Index)

	offset := indexSize

	copy(bytes[offset:offset+g1CompressedSize], ss.CapitalAShare.Compressed())

	offset += g1CompressedSize

	copy(bytes[offset:offset+frCompressedSize], ss.EShare.Bytes())

	offset += frCompressedSize

	copy(bytes[offset:], ss.SShare.Bytes())

	return bytes, nil
}
