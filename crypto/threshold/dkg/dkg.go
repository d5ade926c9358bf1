/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dkg implements Pedersen-VSS distributed key generation for the
// threshold BBS+ scheme. A run among n parties produces a (t,n) Shamir
// sharing of a secret x no party knows, together with the public key
// W = g2^x and its G1 image. The same code is reused by the signing protocol
// to jointly sample the per-signature secrets e, s and the inversion mask.
//
// The protocol is fail-stop: a single complaint aborts the instance.
package dkg

import (
	"bytes"
	"fmt"
	"io"
	"time"

	ml "github.com/IBM/mathlib"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbs12381g2pub"
	"github.com/Spike780/COMP6453-BBS/crypto/primitive/bbsplusthresholdpub"
	"github.com/Spike780/COMP6453-BBS/crypto/threshold/transport"
)

// nolint:gochecknoglobals
var (
	curve  = ml.Curves[ml.BLS12_381_BBS]
	logger = log.New("threshold-bbsplus/dkg")
)

const defaultRoundTimeout = 10 * time.Second

// Params configures a DKG instance.
type Params struct {
	// T is the reconstruction threshold: T shares recover the secret.
	T int

	// PartyIDs are the nonzero, distinct evaluation points of all
	// participants (typically 1..n).
	PartyIDs []uint32

	// Label tags every message of this instance. Empty for a standalone
	// key generation; signing sessions set it per sub-instance.
	Label []byte

	// RNG is the randomness source, crypto/rand in production.
	RNG io.Reader

	// RoundTimeout bounds the wait for each protocol round.
	RoundTimeout time.Duration
}

func (p *Params) roundTimeout() time.Duration {
	if p.RoundTimeout == 0 {
		return defaultRoundTimeout
	}

	return p.RoundTimeout
}

func (p *Params) validate(self uint32) error {
	if p.T < 1 || p.T > len(p.PartyIDs) {
		return fmt.Errorf("dkg: invalid threshold %d for %d parties", p.T, len(p.PartyIDs))
	}

	seen := make(map[uint32]bool, len(p.PartyIDs))
	selfFound := false

	for _, id := range p.PartyIDs {
		if id == 0 || seen[id] {
			return ErrDuplicateParty
		}

		seen[id] = true

		if id == self {
			selfFound = true
		}
	}

	if !selfFound {
		return fmt.Errorf("dkg: party %d is not a participant", self)
	}

	return nil
}

// Transcript is the public outcome of a DKG instance: every dealer's
// coefficient commitments and G2 public point. It is enough to recompute any
// party's public share and to audit the sharing.
type Transcript struct {
	T        int
	PartyIDs []uint32

	Feldman  map[uint32][]*ml.G1
	Blinding map[uint32][]*ml.G1
	PublicG2 map[uint32]*ml.G2
}

// Result is one party's outcome of a successful DKG run.
type Result struct {
	// Share is this party's secret share x_i. It must be wiped by the
	// owner once retired.
	Share *ml.Zr

	// PublicKeyG2 is W = g2^x.
	PublicKeyG2 *ml.G2

	// PublicKeyG1 is the G1 image g1^x, kept for protocol bookkeeping.
	PublicKeyG1 *ml.G1

	Transcript *Transcript
}

// Run executes the DKG as party self over the given channel and blocks until
// the instance finalizes or aborts.
func Run(params *Params, self uint32, ch transport.Channel) (*Result, error) {
	if err := params.validate(self); err != nil {
		return nil, err
	}

	p := &party{
		params: params,
		self:   self,
		ch:     ch,
		h0:     bbs12381g2pub.BlindingGenerator(),
	}

	return p.run()
}

type party struct {
	params *Params
	self   uint32
	ch     transport.Channel
	h0     *ml.G1

	pending []*inbound
}

type inbound struct {
	hdr  *header
	body []byte
}

func (p *party) run() (*Result, error) {
	n := len(p.params.PartyIDs)
	t := p.params.T

	// Sample the two polynomials f (secret) and g (blinding).
	fCoeffs := make([]*ml.Zr, t)
	gCoeffs := make([]*ml.Zr, t)

	for k := 0; k < t; k++ {
		fCoeffs[k] = curve.NewRandomZr(p.params.RNG)
		gCoeffs[k] = curve.NewRandomZr(p.params.RNG)
	}

	defer bbsplusthresholdpub.Zeroize(fCoeffs...)
	defer bbsplusthresholdpub.Zeroize(gCoeffs...)

	// Round A: broadcast coefficient commitments and the public point.
	feldman := make([]*ml.G1, t)
	blinding := make([]*ml.G1, t)

	for k := 0; k < t; k++ {
		feldman[k] = curve.GenG1.Mul(fCoeffs[k])
		blinding[k] = p.h0.Mul(gCoeffs[k])
	}

	publicG2 := curve.GenG2.Mul(fCoeffs[0])

	ownCommitments := &commitmentsMessage{
		party:    p.self,
		feldman:  feldman,
		blinding: blinding,
		publicG2: publicG2,
	}

	if err := p.ch.Broadcast(ownCommitments.encode(p.params.Label)); err != nil {
		return nil, fmt.Errorf("dkg: broadcast commitments: %w", err)
	}

	commitments, err := p.collectCommitments()
	if err != nil {
		return nil, err
	}

	// Round B: deal shares over the private channels.
	for _, q := range p.params.PartyIDs {
		msg := &shareMessage{
			party: p.self,
			share: bbsplusthresholdpub.EvaluatePoly(fCoeffs, q),
			blind: bbsplusthresholdpub.EvaluatePoly(gCoeffs, q),
		}

		if err := p.ch.Send(q, msg.encode(p.params.Label)); err != nil {
			return nil, fmt.Errorf("dkg: deal share to %d: %w", q, err)
		}
	}

	shares, blinds, err := p.collectShares()
	if err != nil {
		return nil, err
	}

	defer zeroizeMap(shares)
	defer zeroizeMap(blinds)

	// Verify every dealt share against the dealer's commitments.
	for _, dealer := range p.params.PartyIDs {
		if p.verifyShare(commitments[dealer], shares[dealer], blinds[dealer]) {
			continue
		}

		complaint := &complaintMessage{party: p.self, against: dealer}

		logger.Warnf("party %d: share from dealer %d failed verification, aborting", p.self, dealer)

		if err := p.ch.Broadcast(complaint.encode(p.params.Label)); err != nil {
			return nil, fmt.Errorf("dkg: broadcast complaint: %w", err)
		}

		return nil, &InconsistentShareError{From: dealer, To: p.self}
	}

	// Everyone announces a clean verification round; any complaint aborts.
	if err := p.ch.Broadcast(encodeReady(p.params.Label, p.self)); err != nil {
		return nil, fmt.Errorf("dkg: broadcast ready: %w", err)
	}

	if err := p.collectReady(); err != nil {
		return nil, err
	}

	// Finalize.
	share := curve.NewZrFromInt(0)
	for _, dealer := range p.params.PartyIDs {
		share = share.Plus(shares[dealer])
		share.Mod(curve.GroupOrder)
	}

	var (
		w  *ml.G2
		p1 *ml.G1
	)

	transcript := &Transcript{
		T:        t,
		PartyIDs: append([]uint32(nil), p.params.PartyIDs...),
		Feldman:  make(map[uint32][]*ml.G1, n),
		Blinding: make(map[uint32][]*ml.G1, n),
		PublicG2: make(map[uint32]*ml.G2, n),
	}

	for _, dealer := range p.params.PartyIDs {
		c := commitments[dealer]

		transcript.Feldman[dealer] = c.feldman
		transcript.Blinding[dealer] = c.blinding
		transcript.PublicG2[dealer] = c.publicG2

		if w == nil {
			w = c.publicG2.Mul(curve.NewZrFromInt(1))
			p1 = c.feldman[0].Copy()
		} else {
			w.Add(c.publicG2)
			p1.Add(c.feldman[0])
		}
	}

	logger.Debugf("party %d: finalized instance with %d parties, threshold %d", p.self, n, t)

	return &Result{
		Share:       share.Copy(),
		PublicKeyG2: w,
		PublicKeyG1: p1,
		Transcript:  transcript,
	}, nil
}

// verifyShare checks g1^s * h0^b == ∏_k (F_k * H_k)^{self^k}.
func (p *party) verifyShare(c *commitmentsMessage, share, blind *ml.Zr) bool {
	lhs := curve.GenG1.Mul(share)
	lhs.Add(p.h0.Mul(blind))

	rhs := evaluateCommitments(c.feldman, c.blinding, p.self)

	return lhs.Equals(rhs)
}

func evaluateCommitments(feldman, blinding []*ml.G1, at uint32) *ml.G1 {
	atZr := curve.NewZrFromInt(int64(at))
	pow := curve.NewZrFromInt(1)

	var acc *ml.G1

	for k := range feldman {
		ck := feldman[k].Copy()
		ck.Add(blinding[k])

		term := ck.Mul(pow)
		if acc == nil {
			acc = term
		} else {
			acc.Add(term)
		}

		pow = pow.Mul(atZr)
		pow.Mod(curve.GroupOrder)
	}

	return acc
}

// verifyDealerConsistency checks that the dealer's G2 public point matches
// the first Feldman commitment: e(F_0, g2) == e(g1, E).
func verifyDealerConsistency(c *commitmentsMessage) bool {
	return bbs12381g2pub.PairingsEqual(c.feldman[0], curve.GenG2, curve.GenG1, c.publicG2)
}

func (p *party) collectCommitments() (map[uint32]*commitmentsMessage, error) {
	collected := make(map[uint32]*commitmentsMessage, len(p.params.PartyIDs))

	err := p.collect(kindCommitments, func(hdr *header, body []byte) error {
		msg, err := parseCommitmentsMessage(hdr.party, body)
		if err != nil {
			return fmt.Errorf("dkg: %w", err)
		}

		if len(msg.feldman) != p.params.T {
			return fmt.Errorf("dkg: dealer %d committed to %d coefficients, want %d",
				hdr.party, len(msg.feldman), p.params.T)
		}

		if !verifyDealerConsistency(msg) {
			return &InconsistentShareError{From: hdr.party, To: p.self}
		}

		collected[hdr.party] = msg

		return nil
	}, func() bool { return len(collected) == len(p.params.PartyIDs) })
	if err != nil {
		return nil, p.missing(collected, err, 0)
	}

	return collected, nil
}

func (p *party) collectShares() (map[uint32]*ml.Zr, map[uint32]*ml.Zr, error) {
	shares := make(map[uint32]*ml.Zr, len(p.params.PartyIDs))
	blinds := make(map[uint32]*ml.Zr, len(p.params.PartyIDs))

	err := p.collect(kindShare, func(hdr *header, body []byte) error {
		msg, err := parseShareMessage(hdr.party, body)
		if err != nil {
			return fmt.Errorf("dkg: %w", err)
		}

		shares[hdr.party] = msg.share
		blinds[hdr.party] = msg.blind

		return nil
	}, func() bool { return len(shares) == len(p.params.PartyIDs) })
	if err != nil {
		return nil, nil, err
	}

	return shares, blinds, nil
}

func (p *party) collectReady() error {
	ready := make(map[uint32]bool, len(p.params.PartyIDs))

	return p.collect(kindReady, func(hdr *header, _ []byte) error {
		ready[hdr.party] = true

		return nil
	}, func() bool { return len(ready) == len(p.params.PartyIDs) })
}

// collect drains the channel until done() reports completion, dispatching
// messages of the wanted kind and stashing messages that belong to a later
// phase of the same instance. A complaint from any party aborts immediately.
func (p *party) collect(want uint8, handle func(*header, []byte) error, done func() bool) error {
	deadline := time.Now().Add(p.params.roundTimeout())

	for !done() {
		msg, err := p.next(want, deadline)
		if err != nil {
			return err
		}

		if msg.hdr.kind == kindComplaint {
			complaint, err := parseComplaintMessage(msg.hdr.party, msg.body)
			if err != nil {
				return fmt.Errorf("dkg: %w", err)
			}

			return &InconsistentShareError{From: complaint.against, To: complaint.party}
		}

		if err := handle(msg.hdr, msg.body); err != nil {
			return err
		}
	}

	return nil
}

// next returns the next pending or incoming message of the wanted kind (or a
// complaint, which always surfaces). Messages of other kinds are stashed.
func (p *party) next(want uint8, deadline time.Time) (*inbound, error) {
	for i, msg := range p.pending {
		if bytes.Equal(msg.hdr.label, p.params.Label) && (msg.hdr.kind == want || msg.hdr.kind == kindComplaint) {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)

			return msg, nil
		}
	}

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}

		env, err := p.ch.Receive(remaining)
		if err != nil {
			return nil, ErrTimeout
		}

		hdr, body, err := parseHeader(env.Payload)
		if err != nil {
			return nil, fmt.Errorf("dkg: %w", err)
		}

		// Authenticated channel: the header's party must match the sender.
		if hdr.party != env.From {
			return nil, fmt.Errorf("dkg: sender %d claims to be party %d", env.From, hdr.party)
		}

		if !bytes.Equal(hdr.label, p.params.Label) {
			p.pending = append(p.pending, &inbound{hdr: hdr, body: body})
			continue
		}

		if hdr.kind == want || hdr.kind == kindComplaint {
			return &inbound{hdr: hdr, body: body}, nil
		}

		p.pending = append(p.pending, &inbound{hdr: hdr, body: body})
	}
}

// missing maps a round A timeout to the first party whose broadcast is absent.
func (p *party) missing(collected map[uint32]*commitmentsMessage, err error, round uint8) error {
	if err != ErrTimeout {
		return err
	}

	for _, id := range p.params.PartyIDs {
		if _, ok := collected[id]; !ok {
			return &MissingBroadcastError{Party: id, Round: round}
		}
	}

	return err
}

func zeroizeMap(m map[uint32]*ml.Zr) {
	for _, v := range m {
		bbsplusthresholdpub.Zeroize(v)
	}
}

// PublicShare recomputes party j's public share g1^{x_j} from the transcript.
func (tr *Transcript) PublicShare(j uint32) *ml.G1 {
	var acc *ml.G1

	for _, dealer := range tr.PartyIDs {
		contribution := evaluateFeldman(tr.Feldman[dealer], j)
		if acc == nil {
			acc = contribution
		} else {
			acc.Add(contribution)
		}
	}

	return acc
}

func evaluateFeldman(feldman []*ml.G1, at uint32) *ml.G1 {
	atZr := curve.NewZrFromInt(int64(at))
	pow := curve.NewZrFromInt(1)

	var acc *ml.G1

	for k := range feldman {
		term := feldman[k].Mul(pow)
		if acc == nil {
			acc = term
		} else {
			acc.Add(term)
		}

		pow = pow.Mul(atZr)
		pow.Mod(curve.GroupOrder)
	}

	return acc
}

// VerifyConsistency audits the transcript: every party's public share must
// lie on the degree t-1 polynomial defined by the first t public shares, and
// interpolating that polynomial at 0 must yield the G1 public key.
func (tr *Transcript) VerifyConsistency(publicKeyG1 *ml.G1) error {
	sample := tr.PartyIDs[:tr.T]

	points := make([]*ml.G1, tr.T)
	for i, id := range sample {
		points[i] = tr.PublicShare(id)
	}

	for _, j := range tr.PartyIDs[tr.T:] {
		interpolated, err := interpolateG1(sample, points, j)
		if err != nil {
			return err
		}

		if !interpolated.Equals(tr.PublicShare(j)) {
			return fmt.Errorf("dkg: public share of party %d is off the sharing polynomial", j)
		}
	}

	atZero, err := interpolateG1(sample, points, 0)
	if err != nil {
		return err
	}

	if !atZero.Equals(publicKeyG1) {
		return fmt.Errorf("dkg: interpolated public key does not match")
	}

	return nil
}

func interpolateG1(indices []uint32, points []*ml.G1, at uint32) (*ml.G1, error) {
	var acc *ml.G1

	for i, idx := range indices {
		coeff, err := bbsplusthresholdpub.LagrangeCoefficient(indices, idx, at)
		if err != nil {
			return nil, err
		}

		term := points[i].Mul(coeff)
		if acc == nil {
			acc = term
		} else {
			acc.Add(term)
		}
	}

	return acc, nil
}
