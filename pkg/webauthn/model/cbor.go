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
	"bytes"

	"github.com/fxamacker/cbor/v2"
)

// CBORReader decodes a sequence of concatenated CBOR items sharing one
// buffer. Authenticator data embeds attested credential data and extensions
// back-to-back rather than wrapped in an array, so the reader exposes "read
// one item, return remaining byte count" semantics: callers can tell a
// stray trailing byte (fatal) apart from a legitimate subsequent item.
type CBORReader struct {
	dec *cbor.Decoder
	all []byte
}

// NewCBORReader wraps b for sequential item-at-a-time decoding.
func NewCBORReader(b []byte) *CBORReader {
	return &CBORReader{dec: cbor.NewDecoder(bytes.NewReader(b)), all: b}
}

// ReadItem decodes exactly one CBOR item into v and reports how many bytes
// of the original buffer remain unread.
func (r *CBORReader) ReadItem(v any) (remaining int, err error) {
	if err := r.dec.Decode(v); err != nil {
		return 0, err
	}
	return len(r.all) - r.dec.NumBytesRead(), nil
}

// Remaining returns the slice of bytes not yet consumed by ReadItem.
func (r *CBORReader) Remaining() []byte {
	return r.all[r.dec.NumBytesRead():]
}

// AttestationObject is the decoded form of the CBOR-encoded attestationObject
// (WebAuthn §6.4): a map of fmt (text), authData (bytes), and
// attStmt (map, format-dependent).
type AttestationObject struct {
	Fmt      string
	AuthData []byte
	AttStmt  AttestationStatement
}

// AttestationStatement is the parsed attStmt map, format-agnostic. Each
// format's verifier (pkg/webauthn/attestation) interprets the subset of
// fields relevant to it.
type AttestationStatement struct {
	Sig        []byte
	HasSig     bool
	X5C        [][]byte
	HasX5C     bool
	Alg        int64
	HasAlg     bool
	ECDAAKeyID []byte
	HasECDAA   bool
	Empty      bool // true iff the CBOR map had zero entries (the "none" shape)
}

// DecodeAttestationObject decodes the top-level attestationObject CBOR map
// (WebAuthn §7.1 step 8).
func DecodeAttestationObject(op string, b []byte) (AttestationObject, error) {
	var raw map[string]cbor.RawMessage
	if err := cbor.Unmarshal(b, &raw); err != nil {
		return AttestationObject{}, wrapError(op, KindMalformedInput, err)
	}

	fmtMsg, ok := raw["fmt"]
	if !ok {
		return AttestationObject{}, newError(op, KindMalformedInput, "attestationObject missing \"fmt\"")
	}
	var fmtName string
	if err := cbor.Unmarshal(fmtMsg, &fmtName); err != nil {
		return AttestationObject{}, wrapError(op, KindMalformedInput, err)
	}

	authDataMsg, ok := raw["authData"]
	if !ok {
		return AttestationObject{}, newError(op, KindMalformedInput, "attestationObject missing \"authData\"")
	}
	var authData []byte
	if err := cbor.Unmarshal(authDataMsg, &authData); err != nil {
		return AttestationObject{}, wrapError(op, KindMalformedInput, err)
	}

	attStmtMsg, ok := raw["attStmt"]
	if !ok {
		return AttestationObject{}, newError(op, KindMalformedInput, "attestationObject missing \"attStmt\"")
	}
	stmt, err := decodeAttestationStatement(op, attStmtMsg)
	if err != nil {
		return AttestationObject{}, err
	}

	return AttestationObject{Fmt: fmtName, AuthData: authData, AttStmt: stmt}, nil
}

func decodeAttestationStatement(op string, raw cbor.RawMessage) (AttestationStatement, error) {
	var m map[string]cbor.RawMessage
	if err := cbor.Unmarshal(raw, &m); err != nil {
		return AttestationStatement{}, wrapError(op, KindMalformedInput, err)
	}

	stmt := AttestationStatement{Empty: len(m) == 0}
	if v, ok := m["sig"]; ok {
		if err := cbor.Unmarshal(v, &stmt.Sig); err != nil {
			return AttestationStatement{}, wrapError(op, KindMalformedInput, err)
		}
		stmt.HasSig = true
	}
	if v, ok := m["x5c"]; ok {
		if err := cbor.Unmarshal(v, &stmt.X5C); err != nil {
			return AttestationStatement{}, wrapError(op, KindMalformedInput, err)
		}
		stmt.HasX5C = true
	}
	if v, ok := m["alg"]; ok {
		if err := cbor.Unmarshal(v, &stmt.Alg); err != nil {
			return AttestationStatement{}, wrapError(op, KindMalformedInput, err)
		}
		stmt.HasAlg = true
	}
	if v, ok := m["ecdaaKeyId"]; ok {
		if err := cbor.Unmarshal(v, &stmt.ECDAAKeyID); err != nil {
			return AttestationStatement{}, wrapError(op, KindMalformedInput, err)
		}
		stmt.HasECDAA = true
	}
	return stmt, nil
}
