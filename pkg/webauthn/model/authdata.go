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
	"encoding/binary"
)

// AuthenticationDataFlags is the bit decomposition of the authenticator data
// flags byte (WebAuthn §6.1).
type AuthenticationDataFlags struct {
	UP bool // bit 0, user present
	UV bool // bit 2, user verified
	AT bool // bit 6, attested credential data included
	ED bool // bit 7, extensions included
}

func parseFlags(b byte) AuthenticationDataFlags {
	return AuthenticationDataFlags{
		UP: b&0x01 != 0,
		UV: b&0x04 != 0,
		AT: b&0x40 != 0,
		ED: b&0x80 != 0,
	}
}

// AttestationData is AAGUID + credentialId + COSE_Key, present when flags.AT
// is set.
type AttestationData struct {
	AAGUID        [16]byte
	CredentialID  []byte
	CredentialKey *COSEKey
}

// AuthenticatorData is the parsed view over the raw authenticatorData bytes
// (WebAuthn §6.1): first 32 bytes the RP-ID hash, byte 32 the
// flags, bytes 33-36 the big-endian signature counter; attested credential
// data follows if AT is set, then extensions CBOR if ED is set. Both regions
// may coexist, in that order.
type AuthenticatorData struct {
	Raw                []byte
	RPIDHash           []byte
	Flags              AuthenticationDataFlags
	SignCount          uint32
	AttestedCredential *AttestationData
	Extensions         map[string]any
}

// ParseAuthenticatorData decodes raw authenticator data. Attested credential
// data is parsed first if AT is set, then any trailing bytes are parsed as
// extensions CBOR if ED is set; stray bytes left over after that are
// MalformedInput.
func ParseAuthenticatorData(op string, raw []byte) (AuthenticatorData, error) {
	if len(raw) < 37 {
		return AuthenticatorData{}, newError(op, KindMalformedInput, "authenticatorData shorter than 37 bytes")
	}

	ad := AuthenticatorData{Raw: raw}
	ad.RPIDHash = append([]byte{}, raw[0:32]...)
	ad.Flags = parseFlags(raw[32])
	ad.SignCount = binary.BigEndian.Uint32(raw[33:37])

	cursor := raw[37:]

	if ad.Flags.AT {
		cred, rest, err := parseAttestationData(op, cursor)
		if err != nil {
			return AuthenticatorData{}, err
		}
		ad.AttestedCredential = cred
		cursor = rest
	}

	if ad.Flags.ED {
		ext, remaining, err := decodeExtensionsItem(op, cursor)
		if err != nil {
			return AuthenticatorData{}, err
		}
		ad.Extensions = ext
		cursor = remaining
	}

	if len(cursor) != 0 {
		return AuthenticatorData{}, newError(op, KindMalformedInput, "stray trailing bytes after authenticatorData")
	}

	return ad, nil
}

func parseAttestationData(op string, b []byte) (*AttestationData, []byte, error) {
	if len(b) < 18 {
		return nil, nil, newError(op, KindMalformedInput, "attested credential data shorter than 18 bytes")
	}
	var aaguid [16]byte
	copy(aaguid[:], b[0:16])
	credLen := binary.BigEndian.Uint16(b[16:18])

	if len(b) < 18+int(credLen) {
		return nil, nil, newError(op, KindMalformedInput, "credentialId length exceeds available bytes")
	}
	credID := append([]byte{}, b[18:18+int(credLen)]...)
	keyBytes := b[18+int(credLen):]

	r := NewCBORReader(keyBytes)
	var key COSEKey
	if _, err := r.ReadItem(&key); err != nil {
		return nil, nil, wrapError(op, KindMalformedInput, err)
	}

	rest := r.Remaining()
	return &AttestationData{
		AAGUID:        aaguid,
		CredentialID:  credID,
		CredentialKey: &key,
	}, rest, nil
}

func decodeExtensionsItem(op string, b []byte) (map[string]any, []byte, error) {
	if len(b) == 0 {
		return nil, nil, newError(op, KindMalformedInput, "ED flag set but no extensions bytes present")
	}
	r := NewCBORReader(b)
	var ext map[string]any
	if _, err := r.ReadItem(&ext); err != nil {
		return nil, nil, wrapError(op, KindMalformedInput, err)
	}
	return ext, r.Remaining(), nil
}

// PublicKey returns the decoded crypto.PublicKey of the attested credential,
// or nil if no attested credential data is present.
func (a AuthenticatorData) PublicKey() crypto.PublicKey {
	if a.AttestedCredential == nil || a.AttestedCredential.CredentialKey == nil {
		return nil
	}
	return a.AttestedCredential.CredentialKey.Public
}
