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
	"crypto/subtle"
	"encoding/base64"
)

// ByteArray is an immutable, opaque byte buffer with a Base64URL (unpadded)
// string form. The string form is cached only for values that
// DecodeBase64URL built from unpadded input; for all other values Base64URL
// encodes on each call. Equality is content-wise, never identity-wise; no
// ordering is defined.
type ByteArray struct {
	b       []byte
	encoded string
	hasEnc  bool
}

// NewByteArray copies b into a new immutable ByteArray.
func NewByteArray(b []byte) ByteArray {
	cp := make([]byte, len(b))
	copy(cp, b)
	return ByteArray{b: cp}
}

// Bytes returns a defensive copy of the underlying bytes.
func (a ByteArray) Bytes() []byte {
	cp := make([]byte, len(a.b))
	copy(cp, a.b)
	return cp
}

// Size returns the number of bytes.
func (a ByteArray) Size() int {
	return len(a.b)
}

// Base64URL returns the unpadded RFC 4648 §5 encoding of the bytes. Values
// decoded from an unpadded string carry that string as a cached encoding;
// otherwise the encoding is computed.
func (a ByteArray) Base64URL() string {
	if a.hasEnc {
		return a.encoded
	}
	return base64.RawURLEncoding.EncodeToString(a.b)
}

// DecodeBase64URL parses s as unpadded or padded RFC 4648 §5 Base64URL,
// failing on any non-alphabet character. Only a canonical unpadded input is
// cached as the string form, so Base64URL never reproduces padding.
func DecodeBase64URL(s string) (ByteArray, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return ByteArray{b: b, encoded: s, hasEnc: true}, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return ByteArray{}, err
	}
	return ByteArray{b: b}, nil
}

// Equal reports content equality using constant-time comparison.
func (a ByteArray) Equal(other ByteArray) bool {
	if len(a.b) != len(other.b) {
		return false
	}
	return subtle.ConstantTimeCompare(a.b, other.b) == 1
}

// Concat returns a new ByteArray holding a's bytes followed by other's.
// ByteArray.Concat is associative: (a.Concat(b)).Concat(c) == a.Concat(b.Concat(c)).
func (a ByteArray) Concat(other ByteArray) ByteArray {
	out := make([]byte, 0, len(a.b)+len(other.b))
	out = append(out, a.b...)
	out = append(out, other.b...)
	return ByteArray{b: out}
}

// ConcatBytes is the raw-[]byte convenience form used by codecs composing
// signed payloads.
func ConcatBytes(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
