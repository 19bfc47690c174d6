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

// Package attestation implements the three attestation statement formats
// this core supports (none, fido-u2f, packed) as a small closed set of
// verifiers dispatched by format string.
package attestation

import (
	"crypto/x509"

	wa "github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

// Type is one of the attestation types this core can produce. ECDAA and
// ATTCA are recognized names but have no verifier registered for them: any
// attempt to dispatch to them fails UnsupportedFormat.
type Type string

const (
	TypeNone  Type = "NONE"
	TypeSelf  Type = "SELF_ATTESTATION"
	TypeBasic Type = "BASIC"
	TypeAttCA Type = "ATTCA"
	TypeECDAA Type = "ECDAA"
)

// Verifier is the three-operation contract every attestation statement
// format implements: classify the attestation type, verify
// the attestation signature, and optionally expose an X.509 trust path.
type Verifier interface {
	// Format is the USASCII, case-sensitive fmt string this verifier
	// handles (e.g. "fido-u2f").
	Format() string

	// Classify determines the attestation type for this statement,
	// given the already-decoded authenticator data.
	Classify(obj wa.AttestationObject, authData wa.AuthenticatorData) (Type, error)

	// VerifySignature verifies the attestation signature over the
	// payload this format defines, returning a classified error on
	// failure and nil on success.
	VerifySignature(obj wa.AttestationObject, authData wa.AuthenticatorData, clientDataHash []byte) error

	// TrustPath returns the X.509 certificate chain this attestation
	// exposes, or nil for formats with no certificate (none, self
	// attestation).
	TrustPath(obj wa.AttestationObject) ([]*x509.Certificate, error)
}

var registry = map[string]Verifier{}

// Register installs v under its Format() in the package-level dispatch
// table. Verifiers self-register from an init() function.
func Register(v Verifier) {
	registry[v.Format()] = v
}

// Lookup performs USASCII case-sensitive format dispatch: "FIDO-U2F" and
// "Fido-U2F" are distinct, unsupported values from "fido-u2f".
func Lookup(format string) (Verifier, bool) {
	v, ok := registry[format]
	return v, ok
}
