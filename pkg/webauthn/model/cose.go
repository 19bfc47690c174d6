// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of webauthn-core.
//
// webauthn-core is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package model

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// COSE algorithm identifiers (RFC 8152 §8, IANA COSE registry). Required for
// this core: ES256. Decoded for interop/self-attestation algorithm checks:
// RS256/384/512, EdDSA.
const (
	AlgES256 int64 = -7
	AlgEdDSA int64 = -8
	AlgES384 int64 = -35
	AlgES512 int64 = -36
	AlgRS256 int64 = -257
	AlgRS384 int64 = -258
	AlgRS512 int64 = -259
)

// COSE key type values (label 1).
const (
	ktyOKP int64 = 1
	ktyEC2 int64 = 2
	ktyRSA int64 = 3
)

// COSE EC2/OKP curve identifiers (label -1).
const (
	crvP256    int64 = 1
	crvP384    int64 = 2
	crvP521    int64 = 3
	crvEd25519 int64 = 6
)

// COSEKey is a CBOR-encoded public key per RFC 8152 §7: label 1 = key
// type, label 3 = algorithm, plus curve/x/y for
// EC2/OKP keys or n/e for RSA keys.
type COSEKey struct {
	Algorithm int64
	Public    crypto.PublicKey

	// Raw is the exact CBOR encoding this key was decoded from. Keeping it
	// lets a credential's COSE key round-trip byte-equal through storage
	// and result objects.
	Raw []byte
}

// UnmarshalCBOR lets a COSEKey be decoded directly through a CBORReader
// (or any cbor.Unmarshal call), so the trailing COSE_Key in attested
// credential data can be consumed item-at-a-time.
func (k *COSEKey) UnmarshalCBOR(data []byte) error {
	var m map[int64]cbor.RawMessage
	if err := cbor.Unmarshal(data, &m); err != nil {
		return err
	}

	kty, err := decodeInt64Field(m, 1, true)
	if err != nil {
		return fmt.Errorf("COSE_Key: %w", err)
	}
	alg, err := decodeInt64Field(m, 3, true)
	if err != nil {
		return fmt.Errorf("COSE_Key: %w", err)
	}

	pub, err := decodeCOSEPublicKey(kty, m)
	if err != nil {
		return fmt.Errorf("COSE_Key: %w", err)
	}

	k.Algorithm = alg
	k.Public = pub
	k.Raw = append([]byte{}, data...)
	return nil
}

func decodeCOSEPublicKey(kty int64, m map[int64]cbor.RawMessage) (crypto.PublicKey, error) {
	switch kty {
	case ktyEC2:
		crv, err := decodeInt64Field(m, -1, true)
		if err != nil {
			return nil, err
		}
		x, err := decodeBytesField(m, -2, true)
		if err != nil {
			return nil, err
		}
		y, err := decodeBytesField(m, -3, true)
		if err != nil {
			return nil, err
		}

		var curve elliptic.Curve
		switch crv {
		case crvP256:
			curve = elliptic.P256()
		case crvP384:
			curve = elliptic.P384()
		case crvP521:
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("unsupported EC2 curve id %d", crv)
		}
		return &ecdsa.PublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(x),
			Y:     new(big.Int).SetBytes(y),
		}, nil

	case ktyRSA:
		n, err := decodeBytesField(m, -1, true)
		if err != nil {
			return nil, err
		}
		e, err := decodeBytesField(m, -2, true)
		if err != nil {
			return nil, err
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}, nil

	case ktyOKP:
		crv, err := decodeInt64Field(m, -1, true)
		if err != nil {
			return nil, err
		}
		if crv != crvEd25519 {
			return nil, fmt.Errorf("unsupported OKP curve id %d", crv)
		}
		x, err := decodeBytesField(m, -2, true)
		if err != nil {
			return nil, err
		}
		return ed25519.PublicKey(x), nil

	default:
		return nil, fmt.Errorf("unsupported key type %d", kty)
	}
}

func decodeInt64Field(m map[int64]cbor.RawMessage, label int64, required bool) (int64, error) {
	raw, ok := m[label]
	if !ok {
		if required {
			return 0, fmt.Errorf("missing label %d", label)
		}
		return 0, nil
	}
	var v int64
	if err := cbor.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("label %d: %w", label, err)
	}
	return v, nil
}

func decodeBytesField(m map[int64]cbor.RawMessage, label int64, required bool) ([]byte, error) {
	raw, ok := m[label]
	if !ok {
		if required {
			return nil, fmt.Errorf("missing label %d", label)
		}
		return nil, nil
	}
	var v []byte
	if err := cbor.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("label %d: %w", label, err)
	}
	return v, nil
}

// UncompressedECPoint returns 0x04 || x || y for an EC public key, the form
// the fido-u2f signed payload requires (FIDO U2F Raw Message Formats §4.3).
func UncompressedECPoint(pub *ecdsa.PublicKey) []byte {
	byteLen := (pub.Curve.Params().BitSize + 7) / 8
	out := make([]byte, 1+2*byteLen)
	out[0] = 0x04
	pub.X.FillBytes(out[1 : 1+byteLen])
	pub.Y.FillBytes(out[1+byteLen:])
	return out
}
