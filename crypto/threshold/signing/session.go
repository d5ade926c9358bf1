/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package signing implements the distributed BBS+ signing protocol. A quorum
// of at least 2t-1 parties holding Shamir shares of the master key jointly
// samples the signature randomness e and s through two sub-DKG instances,
// inverts x+e with a Bar-Ilan/Beaver masked product, and emits per-party
// signature shares B^{u_i} that Lagrange-combine into the signature point A.
//
// No party learns the master key, e, s before opening, or 1/(x+e).
package signing

import (
	"bytes"
	"fmt"
	"io"
	"time"

	ml "github.com/IBM/mathlib"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbs12381g2pub"
	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbsplusthresholdpub"
	"github.com/Spike780/COMP6453-BBS/crypto/threshold/dkg"
	"github.com/Spike780/COMP6453-BBS/crypto/threshold/transport"
)

// nolint:gochecknoglobals
var (
	curve  = ml.Curves[ml.BLS12_381_BBS]
	logger = log.New("threshold-bbsplus/signing")
)

const (
	defaultRoundTimeout     = 10 * time.Second
	defaultInversionRetries = 3
)

// Params configures a signing session. All quorum members must agree on
// every field.
type Params struct {
	// T is the sharing threshold of the master key.
	T int

	// Quorum lists the active parties; at least 2t-1 distinct indices.
	Quorum []uint32

	// SessionID tags all messages of this session.
	SessionID [16]byte

	// Messages is the message vector to sign.
	Messages [][]byte

	// PublicKey is the master public key W produced by key generation.
	PublicKey *bbs12381g2pub.PublicKey

	// RNG is the randomness source, crypto/rand in production.
	RNG io.Reader

	// RoundTimeout bounds the wait for each protocol round.
	RoundTimeout time.Duration

	// InversionRetries bounds how often a zero masked product is retried
	// with a fresh mask before the session gives up.
	InversionRetries int
}

// NewSessionID draws a fresh 16-byte session identifier.
func NewSessionID() [16]byte {
	return [16]byte(uuid.New())
}

func (p *Params) roundTimeout() time.Duration {
	if p.RoundTimeout == 0 {
		return defaultRoundTimeout
	}

	return p.RoundTimeout
}

func (p *Params) inversionRetries() int {
	if p.InversionRetries == 0 {
		return defaultInversionRetries
	}

	return p.InversionRetries
}

// Session is one party's view of a signing session.
type Session struct {
	params *Params
	self   uint32
	xShare *ml.Zr

	demux *transport.Demux

	// sampleMask produces the sharing of the inversion mask ρ; it is a
	// seam so that tests can force a zero mask.
	sampleMask func(retry uint8) (*dkg.Result, error)
}

// NewSession prepares a signing session for party self holding master key
// share xShare.
func NewSession(params *Params, self uint32, xShare *ml.Zr, ch transport.Channel) (*Session, error) {
	need := 2*params.T - 1
	if len(params.Quorum) < need {
		return nil, &InsufficientQuorumError{Have: len(params.Quorum), Need: need}
	}

	if len(params.Messages) == 0 {
		return nil, fmt.Errorf("signing: messages are not defined")
	}

	selfFound := false
	seen := make(map[uint32]bool, len(params.Quorum))

	for _, id := range params.Quorum {
		if id == 0 || seen[id] {
			return nil, fmt.Errorf("signing: duplicate or zero quorum index %d", id)
		}

		seen[id] = true

		if id == self {
			selfFound = true
		}
	}

	if !selfFound {
		return nil, fmt.Errorf("signing: party %d is not in the quorum", self)
	}

	s := &Session{
		params: params,
		self:   self,
		xShare: xShare,
		demux:  transport.NewDemux(ch),
	}

	s.sampleMask = func(retry uint8) (*dkg.Result, error) {
		return s.runSub(subMask, retry)
	}

	return s, nil
}

// Run executes the session and returns this party's signature share.
func (s *Session) Run() (*bbsplusthresholdpub.SignatureShare, error) {
	// Phase 1: jointly sample e and s.
	eRes, err := s.runSub(subE, 0)
	if err != nil {
		return nil, err
	}

	sRes, err := s.runSub(subS, 0)
	if err != nil {
		return nil, err
	}

	eShare, sShare := eRes.Share, sRes.Share

	// k_i = x_i + e_i is this party's share of x + e.
	kShare := s.xShare.Plus(eShare)
	kShare.Mod(curve.GroupOrder)

	defer bbsplusthresholdpub.Zeroize(kShare)

	// Phase 2: distributed inversion of x + e.
	uShare, err := s.invert(kShare)
	if err != nil {
		return nil, err
	}

	defer bbsplusthresholdpub.Zeroize(uShare)

	// Opening round: reveal the shares of s; s is public in the final
	// signature and is needed to compute the message commitment B.
	sOpen, err := s.scalarRound(subOpening, kindOpening, 0, sShare)
	if err != nil {
		return nil, err
	}

	sValue, err := bbsplusthresholdpub.ReconstructAtZero(sOpen)
	if err != nil {
		return nil, fmt.Errorf("signing: open s: %w", err)
	}

	pubKeyWithGenerators, err := s.params.PublicKey.ToPublicKeyWithGenerators(len(s.params.Messages))
	if err != nil {
		return nil, fmt.Errorf("signing: build generators: %w", err)
	}

	b := bbs12381g2pub.ComputeB(sValue, bbs12381g2pub.MessagesToFr(s.params.Messages), pubKeyWithGenerators)

	capitalAShare := b.Mul(uShare)

	logger.Debugf("party %d: emitting signature share for session %x", s.self, s.params.SessionID)

	return &bbsplusthresholdpub.SignatureShare{
		Index:         s.self,
		CapitalAShare: capitalAShare,
		EShare:        eShare,
		SShare:        sShare,
	}, nil
}

// invert produces this party's share u_i of 1/(x+e). Each attempt samples a
// fresh mask ρ, reveals α = (x+e)·ρ and sets u_i = ρ_i·α^{-1}. A zero α
// (possible only for x+e = 0 or ρ = 0) is retried with a fresh mask.
func (s *Session) invert(kShare *ml.Zr) (*ml.Zr, error) {
	for retry := 0; retry < s.params.inversionRetries(); retry++ {
		maskRes, err := s.sampleMask(uint8(retry))
		if err != nil {
			return nil, err
		}

		rhoShare := maskRes.Share

		productShare := kShare.Mul(rhoShare)
		productShare.Mod(curve.GroupOrder)

		products, err := s.scalarRound(subProduct, kindProduct, uint8(retry), productShare)
		if err != nil {
			bbsplusthresholdpub.Zeroize(rhoShare, productShare)

			return nil, err
		}

		alpha, err := bbsplusthresholdpub.ReconstructAtZero(products)
		if err != nil {
			bbsplusthresholdpub.Zeroize(rhoShare, productShare)

			return nil, fmt.Errorf("signing: reconstruct masked product: %w", err)
		}

		alphaInv, err := bbsplusthresholdpub.InvertFr(alpha)
		if err != nil {
			// α == 0: the mask (or x+e) is zero. Wipe and retry with
			// a fresh mask.
			bbsplusthresholdpub.Zeroize(rhoShare, productShare)
			logger.Warnf("party %d: masked product is zero, retrying inversion (attempt %d)", s.self, retry+1)

			continue
		}

		uShare := rhoShare.Mul(alphaInv)
		uShare.Mod(curve.GroupOrder)

		bbsplusthresholdpub.Zeroize(rhoShare, productShare, alphaInv)

		return uShare, nil
	}

	return nil, ErrInversionFailed
}

// runSub runs a sub-DKG instance among the quorum with the session label.
func (s *Session) runSub(sub byte, retry uint8) (*dkg.Result, error) {
	label := sessionLabel(s.params.SessionID, sub, retry)

	res, err := dkg.Run(&dkg.Params{
		T:            s.params.T,
		PartyIDs:     s.params.Quorum,
		Label:        label,
		RNG:          s.params.RNG,
		RoundTimeout: s.params.roundTimeout(),
	}, s.self, s.demux.Channel(label))
	if err != nil {
		return nil, fmt.Errorf("%w: sub-instance %q: %w", ErrSubDKGAborted, sub, err)
	}

	return res, nil
}

// scalarRound broadcasts this party's scalar for the round and collects one
// from every quorum member.
func (s *Session) scalarRound(sub byte, kind uint8, retry uint8, value *ml.Zr) ([]*bbsplusthresholdpub.SecretShare, error) {
	label := sessionLabel(s.params.SessionID, sub, retry)
	ch := s.demux.Channel(label)

	msg := &scalarMessage{party: s.self, kind: kind, value: value}

	if err := ch.Broadcast(msg.encode(label)); err != nil {
		return nil, fmt.Errorf("signing: broadcast round %q: %w", sub, err)
	}

	collected := make(map[uint32]*ml.Zr, len(s.params.Quorum))
	deadline := time.Now().Add(s.params.roundTimeout())

	for len(collected) < len(s.params.Quorum) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}

		env, err := ch.Receive(remaining)
		if err != nil {
			return nil, ErrTimeout
		}

		parsed, gotLabel, err := parseScalarMessage(env.Payload)
		if err != nil {
			return nil, fmt.Errorf("signing: %w", err)
		}

		if !bytes.Equal(gotLabel, label) || parsed.kind != kind {
			return nil, fmt.Errorf("signing: unexpected message in round %q", sub)
		}

		if parsed.party != env.From {
			return nil, fmt.Errorf("signing: sender %d claims to be party %d", env.From, parsed.party)
		}

		if !s.inQuorum(parsed.party) {
			return nil, fmt.Errorf("signing: party %d is not in the quorum", parsed.party)
		}

		collected[parsed.party] = parsed.value
	}

	shares := make([]*bbsplusthresholdpub.SecretShare, 0, len(collected))
	for _, id := range s.params.Quorum {
		shares = append(shares, &bbsplusthresholdpub.SecretShare{Index: id, Value: collected[id]})
	}

	return shares, nil
}

func (s *Session) inQuorum(id uint32) bool {
	for _, q := range s.params.Quorum {
		if q == id {
			return true
		}
	}

	return false
}
