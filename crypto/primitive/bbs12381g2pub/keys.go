/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"crypto/rand"
	"errors"
	"fmt"
	"hash"
	"io"

	ml "github.com/IBM/mathlib"
	"golang.org/x/crypto/hkdf"
)

const (
	seedSize        = frCompressedSize
	generateKeySalt = "BBS-SIG-KEYGEN-SALT-"

	// Domain-separation tag for the nothing-up-my-sleeve message generators.
	generatorDST = "BBS+-GEN-v1"
)

// PublicKey defines BLS Public Key.
type PublicKey struct {
	PointG2 *ml.G2
}

// PrivateKey defines BLS Private Key.
type PrivateKey struct {
	FR *ml.Zr
}

// PublicKeyWithGenerators extends PublicKey with a blinding generator H0, a
// commitment to the secret key W, and a generator for each message in H.
type PublicKeyWithGenerators struct {
	H0 *ml.G1
	H  []*ml.G1

	W *ml.G2

	MessagesCount int
}

// UnmarshalPrivateKey unmarshals PrivateKey.
func UnmarshalPrivateKey(privKeyBytes []byte) (*PrivateKey, error) {
	if len(privKeyBytes) != frCompressedSize {
		return nil, errors.New("invalid size of private key")
	}

	fr, err := parseFr(privKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("deserialize private key: %w", err)
	}

	return &PrivateKey{
		FR: fr,
	}, nil
}

// Marshal marshals PrivateKey.
func (k *PrivateKey) Marshal() ([]byte, error) {
	return frToRepr(k.FR).Bytes(), nil
}

// PublicKey returns a Public Key as G2 point generated from the Private Key.
func (k *PrivateKey) PublicKey() *PublicKey {
	pointG2 := curve.GenG2.Mul(frToRepr(k.FR))

	return &PublicKey{pointG2}
}

// UnmarshalPublicKey parses a PublicKey from bytes.
func UnmarshalPublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	if len(pubKeyBytes) != bls12381G2PublicKeyLen {
		return nil, errors.New("invalid size of public key")
	}

	pointG2, err := curve.NewG2FromCompressed(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("deserialize public key: %w", err)
	}

	return &PublicKey{
		PointG2: pointG2,
	}, nil
}

// Marshal marshals PublicKey.
func (pk *PublicKey) Marshal() ([]byte, error) {
	return pk.PointG2.Compressed(), nil
}

// ToPublicKeyWithGenerators builds the message generator set h0, h1..hL for
// messagesCount messages and attaches it to the public key.
func (pk *PublicKey) ToPublicKeyWithGenerators(messagesCount int) (*PublicKeyWithGenerators, error) {
	if messagesCount < 0 {
		return nil, errors.New("negative number of messages")
	}

	gens := MessageGenerators(messagesCount)

	return &PublicKeyWithGenerators{
		H0:            gens[0],
		H:             gens[1:],
		W:             pk.PointG2,
		MessagesCount: messagesCount,
	}, nil
}

// MessageGenerators derives the fixed generator vector h0, h1..hL from the
// domain-separation tag, hi = hash_to_curve_G1("BBS+-GEN-v1" || LE32(i)).
func MessageGenerators(messagesCount int) []*ml.G1 {
	gens := make([]*ml.G1, messagesCount+1)
	for i := range gens {
		gens[i] = curve.HashToG1WithDomain(uint32ToBytesLE(uint32(i)), []byte(generatorDST))
	}

	return gens
}

// BlindingGenerator returns h0, the generator used for the blinding factor s
// and as the second Pedersen commitment base.
func BlindingGenerator() *ml.G1 {
	return MessageGenerators(0)[0]
}

// GenerateKeyPair generates BBS+ PublicKey and PrivateKey pair.
func GenerateKeyPair(h func() hash.Hash, seed []byte) (*PublicKey, *PrivateKey, error) {
	if len(seed) != 0 && len(seed) != seedSize {
		return nil, nil, errors.New("invalid size of seed")
	}

	okm, err := generateOKM(seed, h)
	if err != nil {
		return nil, nil, err
	}

	privKeyFr := frFromOKM(okm)

	privKey := &PrivateKey{privKeyFr}
	pubKey := privKey.PublicKey()

	return pubKey, privKey, nil
}

func generateOKM(ikm []byte, h func() hash.Hash) ([]byte, error) {
	salt := []byte(generateKeySalt)
	info := make([]byte, 2)

	if ikm != nil {
		ikm = append(ikm, 0)
	} else {
		ikm = make([]byte, seedSize+1)

		_, err := rand.Read(ikm)
		if err != nil {
			return nil, err
		}

		ikm[seedSize] = 0
	}

	return newIKM(ikm, h, salt, info)
}

func newIKM(ikm []byte, h func() hash.Hash, salt, info []byte) ([]byte, error) {
	reader := hkdf.New(h, ikm, salt, info)
	result := make([]byte, frCompressedSize)

	_, err := io.ReadFull(reader, result)
	if err != nil {
		return nil, err
	}

	return result, nil
}
