/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"errors"
	"fmt"

	ml "github.com/IBM/mathlib"
)

// PoKOfSignatureProof defines BLS signature proof.
// It is the actual proof that is sent from prover to verifier.
type PoKOfSignatureProof struct {
	aPrime *ml.G1
	aBar   *ml.G1
	d      *ml.G1

	proofVC1 *ProofG1
	proofVC2 *ProofG1
}

// GetBytesForChallenge creates bytes for proof challenge.
func (sp *PoKOfSignatureProof) GetBytesForChallenge(revealedMessages map[int]*ml.Zr,
	pubKey *PublicKeyWithGenerators) []byte {
	return challengeBytes(sp.aPrime, sp.aBar, sp.d,
		sp.proofVC1.commitment, sp.proofVC2.commitment, revealedMessages)
}

// Verify verifies PoKOfSignatureProof.
func (sp *PoKOfSignatureProof) Verify(challenge *ml.Zr, pubKey *PublicKeyWithGenerators,
	revealedMessages map[int]*ml.Zr, messages []*ml.Zr) error {
	if sp.aPrime.IsInfinity() {
		return errors.New("bad signature proof: aPrime is the identity element of G1")
	}

	if !PairingsEqual(sp.aPrime, pubKey.W, sp.aBar, curve.GenG2) {
		return errors.New("bad signature proof: pairing check failed")
	}

	err := sp.verifyVC1Proof(challenge, pubKey)
	if err != nil {
		return err
	}

	return sp.verifyVC2Proof(challenge, pubKey, revealedMessages, messages)
}

// verifyVC1Proof reconstructs the first Schnorr commitment T1 from the
// responses and checks it against the prover-supplied value.
func (sp *PoKOfSignatureProof) verifyVC1Proof(challenge *ml.Zr, pubKey *PublicKeyWithGenerators) error {
	basesVC1 := []*ml.G1{sp.aPrime, pubKey.H0}

	aBarD := sp.aBar.Copy()
	aBarD.Add(NegG1(sp.d))

	err := sp.proofVC1.Verify(basesVC1, aBarD, challenge)
	if err != nil {
		return errors.New("bad signature proof: VC1 check failed")
	}

	return nil
}

// verifyVC2Proof reconstructs the second Schnorr commitment T2, folding the
// disclosed messages into the commitment target.
func (sp *PoKOfSignatureProof) verifyVC2Proof(challenge *ml.Zr, pubKey *PublicKeyWithGenerators,
	revealedMessages map[int]*ml.Zr, messages []*ml.Zr) error {
	revealedMessagesCount := len(revealedMessages)

	basesVC2 := make([]*ml.G1, 0, 2+pubKey.MessagesCount-revealedMessagesCount)
	basesVC2 = append(basesVC2, sp.d, pubKey.H0)

	basesDisclosed := make([]*ml.G1, 0, 1+revealedMessagesCount)
	exponents := make([]*ml.Zr, 0, 1+revealedMessagesCount)

	basesDisclosed = append(basesDisclosed, curve.GenG1)
	exponents = append(exponents, curve.NewZrFromInt(1))

	revealedMessagesInd := 0

	for i := range pubKey.H {
		if _, ok := revealedMessages[i]; ok {
			if revealedMessagesInd >= len(messages) {
				return errors.New("bad signature proof: not enough disclosed messages")
			}

			basesDisclosed = append(basesDisclosed, pubKey.H[i])
			exponents = append(exponents, messages[revealedMessagesInd])
			revealedMessagesInd++
		} else {
			basesVC2 = append(basesVC2, pubKey.H[i])
		}
	}

	// target = g1 * ∏_disclosed hi^mi
	pr := SumOfG1Products(basesDisclosed, exponents)

	err := sp.proofVC2.Verify(basesVC2, pr, challenge)
	if err != nil {
		return errors.New("bad signature proof: VC2 check failed")
	}

	return nil
}

// ToBytes converts PoKOfSignatureProof to bytes.
func (sp *PoKOfSignatureProof) ToBytes() []byte {
	bytes := make([]byte, 0)

	bytes = append(bytes, sp.aPrime.Compressed()...)
	bytes = append(bytes, sp.aBar.Compressed()...)
	bytes = append(bytes, sp.d.Compressed()...)

	proof1Bytes := sp.proofVC1.ToBytes()
	lenBytes := uint32ToBytes(uint32(len(proof1Bytes)))

	bytes = append(bytes, lenBytes...)
	bytes = append(bytes, proof1Bytes...)
	bytes = append(bytes, sp.proofVC2.ToBytes()...)

	return bytes
}

// ParseSignatureProof parses a signature proof.
func ParseSignatureProof(sigProofBytes []byte) (*PoKOfSignatureProof, error) {
	if len(sigProofBytes) < g1CompressedSize*3+4 {
		return nil, errors.New("invalid size of signature proof")
	}

	g1Points := make([]*ml.G1, 3)
	offset := 0

	for i := range g1Points {
		g1Point, err := curve.NewG1FromCompressed(sigProofBytes[offset : offset+g1CompressedSize])
		if err != nil {
			return nil, fmt.Errorf("parse G1 point: %w", err)
		}

		g1Points[i] = g1Point
		offset += g1CompressedSize
	}

	proof1BytesLen := int(uint32FromBytes(sigProofBytes[offset : offset+4]))
	offset += 4

	if len(sigProofBytes) < offset+proof1BytesLen {
		return nil, errors.New("invalid size of signature proof")
	}

	proofVC1, err := ParseProofG1(sigProofBytes[offset : offset+proof1BytesLen])
	if err != nil {
		return nil, fmt.Errorf("parse G1 proof: %w", err)
	}

	offset += proof1BytesLen

	proofVC2, err := ParseProofG1(sigProofBytes[offset:])
	if err != nil {
		return nil, fmt.Errorf("parse G1 proof: %w", err)
	}

	return &PoKOfSignatureProof{
		aPrime:   g1Points[0],
		aBar:     g1Points[1],
		d:        g1Points[2],
		proofVC1: proofVC1,
		proofVC2: proofVC2,
	}, nil
}

// ProofG1 is a proof of knowledge of a signature and hidden messages.
type ProofG1 struct {
	commitment *ml.G1
	responses  []*ml.Zr
}

// NewProofG1 creates a new ProofG1.
func NewProofG1(commitment *ml.G1, responses []*ml.Zr) *ProofG1 {
	return &ProofG1{
		commitment: commitment,
		responses:  responses,
	}
}

// Verify reconstructs the Schnorr commitment from bases, responses and the
// challenge, and compares it with the one carried in the proof:
//
//	T = ∏ bases[i]^responses[i] * target^-challenge
func (pg1 *ProofG1) Verify(bases []*ml.G1, target *ml.G1, challenge *ml.Zr) error {
	if len(bases) != len(pg1.responses) {
		return errors.New("invalid number of responses")
	}

	points := append(make([]*ml.G1, 0, len(bases)+1), bases...)
	points = append(points, target)

	scalars := append(make([]*ml.Zr, 0, len(bases)+1), pg1.responses...)
	scalars = append(scalars, curve.ModNeg(challenge, curve.GroupOrder))

	contribution := SumOfG1Products(points, scalars)

	if !contribution.Equals(pg1.commitment) {
		return errors.New("commitment is not equal to the contribution")
	}

	return nil
}

// ToBytes converts ProofG1 to bytes.
func (pg1 *ProofG1) ToBytes() []byte {
	bytes := make([]byte, 0)

	bytes = append(bytes, pg1.commitment.Compressed()...)

	for i := range pg1.responses {
		bytes = append(bytes, frToRepr(pg1.responses[i]).Bytes()...)
	}

	return bytes
}

// ParseProofG1 parses ProofG1 from bytes.
func ParseProofG1(bytes []byte) (*ProofG1, error) {
	if len(bytes) < g1CompressedSize || (len(bytes)-g1CompressedSize)%frCompressedSize != 0 {
		return nil, errors.New("invalid size of G1 signature proof")
	}

	commitment, err := curve.NewG1FromCompressed(bytes[:g1CompressedSize])
	if err != nil {
		return nil, fmt.Errorf("parse G1 point: %w", err)
	}

	responsesCount := (len(bytes) - g1CompressedSize) / frCompressedSize
	responses := make([]*ml.Zr, responsesCount)

	offset := g1CompressedSize

	for i := range responses {
		responses[i], err = parseFr(bytes[offset : offset+frCompressedSize])
		if err != nil {
			return nil, fmt.Errorf("parse proof response: %w", err)
		}

		offset += frCompressedSize
	}

	return &ProofG1{
		commitment: commitment,
		responses:  responses,
	}, nil
}

// pokPayload describes the payload of the proof: the overall number of
// messages and the indexes of the revealed ones (as a bitvector).
type pokPayload struct {
	messagesCount int
	revealed      []int
}

func newPoKPayload(messagesCount int, revealed []int) *pokPayload {
	return &pokPayload{
		messagesCount: messagesCount,
		revealed:      revealed,
	}
}

func (p *pokPayload) lenInBytes() int {
	return 2 + (p.messagesCount+7)/8 //nolint:gomnd
}

func (p *pokPayload) toBytes() []byte {
	bytes := make([]byte, p.lenInBytes())

	copy(bytes, uint16ToBytes(uint16(p.messagesCount)))

	bitvector := bytes[2:]

	for _, r := range p.revealed {
		idx := r / 8
		bit := r % 8

		bitvector[idx] |= 1 << bit
	}

	return bytes
}

func parsePoKPayload(bytes []byte) (*pokPayload, error) {
	if len(bytes) < 2 {
		return nil, errors.New("invalid size of PoK payload")
	}

	messagesCount := int(uint16FromBytes(bytes[:2]))

	p := newPoKPayload(messagesCount, nil)

	if len(bytes) < p.lenInBytes() {
		return nil, errors.New("invalid size of PoK payload")
	}

	p.revealed = bitvectorToIndexes(bytes[2:p.lenInBytes()])

	return p, nil
}
