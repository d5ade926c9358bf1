/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bbs12381g2pub contains BBS+ signing primitives and keys over the
// BLS12-381 curve, where the public key is a point in the field of G2.
// BBS+ signature scheme (as defined in https://eprint.iacr.org/2016/663.pdf, section 4.3).
//
// The package doubles as the reference oracle for the threshold protocol in
// crypto/threshold: signatures produced there verify with the same Verify.
package bbs12381g2pub

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sort"

	ml "github.com/IBM/mathlib"
)

// nolint:gochecknoglobals
var curve = ml.Curves[ml.BLS12_381_BBS]

// BBSG2Pub defines BBS+ signature scheme where public key is a point in the field of G2.
type BBSG2Pub struct{}

// New creates a new BBSG2Pub.
func New() *BBSG2Pub {
	return &BBSG2Pub{}
}

// Number of bytes in scalar compressed form.
const frCompressedSize = 32

var (
	// nolint:gochecknoglobals
	// Signature length.
	bls12381SignatureLen = curve.CompressedG1ByteSize + 2*frCompressedSize

	// nolint:gochecknoglobals
	// Default BLS 12-381 public key length in G2 field.
	bls12381G2PublicKeyLen = curve.CompressedG2ByteSize

	// nolint:gochecknoglobals
	// Number of bytes in G1 X coordinate.
	g1CompressedSize = curve.CompressedG1ByteSize
)

// prepareKey parses a compressed public key and attaches the generator set
// for the given message count. Every public operation funnels through here.
func prepareKey(pubKeyBytes []byte, messagesCount int) (*PublicKeyWithGenerators, error) {
	pubKey, err := UnmarshalPublicKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	publicKeyWithGenerators, err := pubKey.ToPublicKeyWithGenerators(messagesCount)
	if err != nil {
		return nil, fmt.Errorf("build generators from public key: %w", err)
	}

	return publicKeyWithGenerators, nil
}

// proofChallenge derives the Fiat-Shamir challenge scalar from the proof
// transcript bytes and the verifier-chosen nonce.
func proofChallenge(transcript, nonce []byte) *ml.Zr {
	data := make([]byte, 0, len(transcript)+frCompressedSize)
	data = append(data, transcript...)
	data = append(data, frToRepr(frFromOKM(nonce)).Bytes()...)

	return frFromOKM(data)
}

// Verify makes BLS BBS12-381 signature verification.
func (bbs *BBSG2Pub) Verify(messages [][]byte, sigBytes, pubKeyBytes []byte) error {
	signature, err := ParseSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}

	publicKeyWithGenerators, err := prepareKey(pubKeyBytes, len(messages))
	if err != nil {
		return err
	}

	return signature.Verify(MessagesToFr(messages), publicKeyWithGenerators)
}

// Sign signs the one or more messages using private key in compressed form.
func (bbs *BBSG2Pub) Sign(messages [][]byte, privKeyBytes []byte) ([]byte, error) {
	privKey, err := UnmarshalPrivateKey(privKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("unmarshal private key: %w", err)
	}

	if len(messages) == 0 {
		return nil, errors.New("messages are not defined")
	}

	return bbs.SignWithKey(messages, privKey)
}

// SignWithKey signs the one or more messages using BBS+ key pair.
func (bbs *BBSG2Pub) SignWithKey(messages [][]byte, privKey *PrivateKey) ([]byte, error) {
	pubKeyWithGenerators, err := privKey.PublicKey().ToPublicKeyWithGenerators(len(messages))
	if err != nil {
		return nil, fmt.Errorf("build generators from public key: %w", err)
	}

	messagesFr := MessagesToFr(messages)

	// e is resampled on the negligible chance that x + e = 0, which has no
	// inverse.
	var e, exp *ml.Zr

	for {
		e = createRandSignatureFr(rand.Reader)

		exp = privKey.FR.Plus(e)
		exp.Mod(curve.GroupOrder)

		if !exp.Equals(frZero()) {
			break
		}
	}

	exp.InvModP(curve.GroupOrder)

	s := createRandSignatureFr(rand.Reader)

	signature := &Signature{
		A: ComputeB(s, messagesFr, pubKeyWithGenerators).Mul(frToRepr(exp)),
		E: e,
		S: s,
	}

	return signature.ToBytes()
}

// VerifyProof verifies BBS+ signature proof for one or more revealed messages.
func (bbs *BBSG2Pub) VerifyProof(messagesBytes [][]byte, proof, nonce, pubKeyBytes []byte) error {
	payload, err := parsePoKPayload(proof)
	if err != nil {
		return fmt.Errorf("parse signature proof: %w", err)
	}

	signatureProof, err := ParseSignatureProof(proof[payload.lenInBytes():])
	if err != nil {
		return fmt.Errorf("parse signature proof: %w", err)
	}

	if len(payload.revealed) > len(messagesBytes) {
		return fmt.Errorf("payload revealed bigger from messages")
	}

	publicKeyWithGenerators, err := prepareKey(pubKeyBytes, payload.messagesCount)
	if err != nil {
		return err
	}

	messages := MessagesToFr(messagesBytes)

	revealedMessages := make(map[int]*ml.Zr)
	for i := range payload.revealed {
		revealedMessages[payload.revealed[i]] = messages[i]
	}

	challenge := proofChallenge(signatureProof.GetBytesForChallenge(revealedMessages, publicKeyWithGenerators), nonce)

	return signatureProof.Verify(challenge, publicKeyWithGenerators, revealedMessages, messages)
}

// DeriveProof derives a proof of BBS+ signature with some messages disclosed.
func (bbs *BBSG2Pub) DeriveProof(messages [][]byte, sigBytes, nonce, pubKeyBytes []byte,
	revealedIndexes []int) ([]byte, error) {
	if len(revealedIndexes) == 0 {
		return nil, errors.New("no message to reveal")
	}

	sort.Ints(revealedIndexes)

	signature, err := ParseSignature(sigBytes)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}

	publicKeyWithGenerators, err := prepareKey(pubKeyBytes, len(messages))
	if err != nil {
		return nil, err
	}

	pokSignature, err := NewPoKOfSignature(signature, MessagesToFr(messages), revealedIndexes, publicKeyWithGenerators)
	if err != nil {
		return nil, fmt.Errorf("init proof of knowledge signature: %w", err)
	}

	challenge := proofChallenge(pokSignature.ToBytes(), nonce)

	proof := pokSignature.GenerateProof(challenge)

	payload := newPoKPayload(len(messages), revealedIndexes)

	return append(payload.toBytes(), proof.ToBytes()...), nil
}

// ComputeB computes the commitment B = g1 * h0^s * h1^m1 * ... * hL^mL.
func ComputeB(s *ml.Zr, messages []*ml.Zr, key *PublicKeyWithGenerators) *ml.G1 {
	bases := make([]*ml.G1, 0, len(messages)+2)
	scalars := make([]*ml.Zr, 0, len(messages)+2)

	bases = append(bases, curve.GenG1, key.H0)
	scalars = append(scalars, curve.NewZrFromInt(1), s)

	for i, m := range messages {
		bases = append(bases, key.H[i])
		scalars = append(scalars, m)
	}

	return SumOfG1Products(bases, scalars)
}

// SumOfG1Products computes the multi-scalar multiplication ∑ bases[i]^scalars[i].
func SumOfG1Products(bases []*ml.G1, scalars []*ml.Zr) *ml.G1 {
	var sum *ml.G1

	for i, base := range bases {
		term := base.Mul(frToRepr(scalars[i]))

		if sum == nil {
			sum = term
			continue
		}

		sum.Add(term)
	}

	return sum
}

// PairingsEqual reports whether e(p1, q1) == e(p2, q2). The comparison is
// done as a single product e(p1, q1) * e(-p2, q2) == 1 in GT.
func PairingsEqual(p1 *ml.G1, q1 *ml.G2, p2 *ml.G1, q2 *ml.G2) bool {
	gt := curve.Pairing2(q1, p1, q2, NegG1(p2))
	gt = curve.FExp(gt)

	return gt.IsUnity()
}

// NegG1 returns -p.
func NegG1(p *ml.G1) *ml.G1 {
	minusOne := curve.ModNeg(curve.NewZrFromInt(1), curve.GroupOrder)

	return p.Mul(minusOne)
}
