/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"crypto/rand"
	"fmt"
	"sort"

	ml "github.com/IBM/mathlib"
)

// PoKOfSignature is Proof of Knowledge of a Signature that is used by the prover to construct PoKOfSignatureProof.
//
// The two vector commitments cover the relations
//
//	aBar * d^-1      = aPrime^-e * h0^r2
//	g1 * ∏_D hi^mi   = d^r3 * h0^-s' * ∏_hidden hi^-mi
//
// with s' = s - r2*r3 and r3 = 1/r1.
type PoKOfSignature struct {
	aPrime *ml.G1
	aBar   *ml.G1
	d      *ml.G1

	pokVC1   *ProverCommittedG1
	secrets1 []*ml.Zr

	pokVC2   *ProverCommittedG1
	secrets2 []*ml.Zr

	revealedMessages map[int]*ml.Zr
}

// NewPoKOfSignature creates a new PoKOfSignature.
func NewPoKOfSignature(signature *Signature, messages []*ml.Zr, revealedIndexes []int,
	pubKey *PublicKeyWithGenerators) (*PoKOfSignature, error) {
	err := signature.Verify(messages, pubKey)
	if err != nil {
		return nil, fmt.Errorf("verify input signature: %w", err)
	}

	if len(messages) < len(revealedIndexes) {
		return nil, fmt.Errorf("invalid size: %d revealed indexes is larger than %d messages", len(revealedIndexes),
			len(messages))
	}

	r1 := CreateRandNonZeroFr(rand.Reader)
	r2 := CreateRandNonZeroFr(rand.Reader)

	b := ComputeB(signature.S, messages, pubKey)

	r3 := r1.Copy()
	r3.InvModP(curve.GroupOrder)

	aPrime := signature.A.Mul(frToRepr(r1))

	aBar := b.Mul(frToRepr(r1))
	aBar.Add(NegG1(aPrime.Mul(frToRepr(signature.E))))

	d := SumOfG1Products(
		[]*ml.G1{b, pubKey.H0},
		[]*ml.Zr{r1, curve.ModNeg(r2, curve.GroupOrder)})

	// s' = s - r2*r3; the VC2 secret is -s'.
	sPrimeNeg := curve.ModSub(curve.ModMul(r2, r3, curve.GroupOrder), signature.S, curve.GroupOrder)

	pokVC1, secrets1 := newVC1Signature(aPrime, pubKey.H0, signature.E, r2)

	revealedMessages := make(map[int]*ml.Zr, len(revealedIndexes))

	for _, ind := range revealedIndexes {
		if ind < 0 || ind >= len(messages) {
			return nil, fmt.Errorf("invalid revealed index %d", ind)
		}

		revealedMessages[ind] = messages[ind]
	}

	pokVC2, secrets2 := newVC2Signature(d, r3, pubKey, sPrimeNeg, messages, revealedMessages)

	return &PoKOfSignature{
		aPrime:           aPrime,
		aBar:             aBar,
		d:                d,
		pokVC1:           pokVC1,
		secrets1:         secrets1,
		pokVC2:           pokVC2,
		secrets2:         secrets2,
		revealedMessages: revealedMessages,
	}, nil
}

func newVC1Signature(aPrime *ml.G1, h0 *ml.G1,
	e, r2 *ml.Zr) (*ProverCommittedG1, []*ml.Zr) {
	committing1 := NewProverCommittingG1()
	secrets1 := make([]*ml.Zr, 2)

	committing1.Commit(aPrime)
	secrets1[0] = curve.ModNeg(e, curve.GroupOrder)

	committing1.Commit(h0)
	secrets1[1] = r2.Copy()

	pokVC1 := committing1.Finish()

	return pokVC1, secrets1
}

func newVC2Signature(d *ml.G1, r3 *ml.Zr, pubKey *PublicKeyWithGenerators, sPrimeNeg *ml.Zr,
	messages []*ml.Zr, revealedMessages map[int]*ml.Zr) (*ProverCommittedG1, []*ml.Zr) {
	messagesCount := len(messages)
	committing2 := NewProverCommittingG1()
	baseSecretsCount := 2
	secrets2 := make([]*ml.Zr, 0, baseSecretsCount+messagesCount)

	committing2.Commit(d)
	secrets2 = append(secrets2, r3.Copy())

	committing2.Commit(pubKey.H0)
	secrets2 = append(secrets2, sPrimeNeg)

	for i := 0; i < messagesCount; i++ {
		if _, ok := revealedMessages[i]; ok {
			continue
		}

		committing2.Commit(pubKey.H[i])

		secrets2 = append(secrets2, curve.ModNeg(messages[i], curve.GroupOrder))
	}

	pokVC2 := committing2.Finish()

	return pokVC2, secrets2
}

// ToBytes converts PoKOfSignature to bytes used as the Fiat-Shamir challenge input.
func (pos *PoKOfSignature) ToBytes() []byte {
	return challengeBytes(pos.aPrime, pos.aBar, pos.d,
		pos.pokVC1.commitment, pos.pokVC2.commitment, pos.revealedMessages)
}

// GenerateProof generates PoKOfSignatureProof proof from PoKOfSignature signature.
func (pos *PoKOfSignature) GenerateProof(challengeHash *ml.Zr) *PoKOfSignatureProof {
	return &PoKOfSignatureProof{
		aPrime:   pos.aPrime,
		aBar:     pos.aBar,
		d:        pos.d,
		proofVC1: pos.pokVC1.GenerateProof(challengeHash, pos.secrets1),
		proofVC2: pos.pokVC2.GenerateProof(challengeHash, pos.secrets2),
	}
}

func challengeBytes(aPrime, aBar, d, cmt1, cmt2 *ml.G1, revealedMessages map[int]*ml.Zr) []byte {
	bytes := aPrime.Bytes()
	bytes = append(bytes, aBar.Bytes()...)
	bytes = append(bytes, d.Bytes()...)
	bytes = append(bytes, cmt1.Bytes()...)
	bytes = append(bytes, cmt2.Bytes()...)

	bytes = append(bytes, i2os8(uint64(len(revealedMessages)))...)

	for _, i := range sortedIndexes(revealedMessages) {
		bytes = append(bytes, i2os8(uint64(i))...)
		bytes = append(bytes, frToRepr(revealedMessages[i]).Bytes()...)
	}

	return bytes
}

func sortedIndexes(revealedMessages map[int]*ml.Zr) []int {
	idxs := make([]int, 0, len(revealedMessages))
	for i := range revealedMessages {
		idxs = append(idxs, i)
	}

	sort.Ints(idxs)

	return idxs
}

// ProverCommittedG1 helps to generate a ProofG1.
type ProverCommittedG1 struct {
	bases           []*ml.G1
	blindingFactors []*ml.Zr
	commitment      *ml.G1
}

// ToBytes converts ProverCommittedG1 to bytes.
func (g *ProverCommittedG1) ToBytes() []byte {
	bytes := make([]byte, 0)

	for _, base := range g.bases {
		bytes = append(bytes, base.Bytes()...)
	}

	return append(bytes, g.commitment.Bytes()...)
}

// GenerateProof generates proof ProofG1 for all secrets.
func (g *ProverCommittedG1) GenerateProof(challenge *ml.Zr, secrets []*ml.Zr) *ProofG1 {
	responses := make([]*ml.Zr, len(g.bases))

	for i := range g.blindingFactors {
		c := challenge.Mul(secrets[i])

		s := g.blindingFactors[i].Plus(c)
		s.Mod(curve.GroupOrder)
		responses[i] = s
	}

	return &ProofG1{
		commitment: g.commitment,
		responses:  responses,
	}
}

// ProverCommittingG1 is a proof of knowledge of messages in a vector commitment.
type ProverCommittingG1 struct {
	bases           []*ml.G1
	blindingFactors []*ml.Zr
}

// NewProverCommittingG1 creates a new ProverCommittingG1.
func NewProverCommittingG1() *ProverCommittingG1 {
	return &ProverCommittingG1{
		bases:           make([]*ml.G1, 0),
		blindingFactors: make([]*ml.Zr, 0),
	}
}

// Commit appends a base point and randomly generated blinding factor.
func (pc *ProverCommittingG1) Commit(base *ml.G1) {
	pc.bases = append(pc.bases, base)
	r := createRandSignatureFr(rand.Reader)
	pc.blindingFactors = append(pc.blindingFactors, r)
}

// Finish helps to generate ProverCommittedG1 after commitment of all base points.
func (pc *ProverCommittingG1) Finish() *ProverCommittedG1 {
	commitment := SumOfG1Products(pc.bases, pc.blindingFactors)

	return &ProverCommittedG1{
		bases:           pc.bases,
		blindingFactors: pc.blindingFactors,
		commitment:      commitment,
	}
}
