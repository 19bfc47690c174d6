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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/asn1"
)

// aaguidExtensionOID is id-fido-gen-ce-aaguid.
var aaguidExtensionOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 45724, 1, 1, 4}

// ParseDERCertificate parses standard DER, wrapping any failure as
// MalformedInput.
func ParseDERCertificate(op string, der []byte) (*x509.Certificate, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, wrapError(op, KindMalformedInput, err)
	}
	return cert, nil
}

// p256Params are the NIST P-256 / secp256r1 curve parameters: order n,
// generator (Gx, Gy). Cofactor h is 1 for both P-256 and secp256k1, so order
// and generator are the discriminating parameters.
var p256Params = elliptic.P256().Params()

// IsP256EC reports whether pub is an ECDSA public key on a curve whose
// order and generator match NIST P-256 exactly, rejecting secp256k1 and any
// other curve even if coincidentally also 256 bits.
func IsP256EC(pub *ecdsa.PublicKey) bool {
	if pub == nil || pub.Curve == nil {
		return false
	}
	params := pub.Curve.Params()
	return params.N.Cmp(p256Params.N) == 0 &&
		params.Gx.Cmp(p256Params.Gx) == 0 &&
		params.Gy.Cmp(p256Params.Gy) == 0 &&
		params.P.Cmp(p256Params.P) == 0
}

// CheckPackedCertRequirements enforces the packed §7.2.1 certificate
// requirements (WebAuthn §8.2) against the leaf attestation certificate.
func CheckPackedCertRequirements(op string, cert *x509.Certificate) error {
	if cert.Version != 3 {
		return newErrorf(op, KindContractViolation, "packed attestation certificate must be X.509 v3, got v%d", cert.Version)
	}
	if len(cert.Subject.Country) != 1 || !isISO3166Alpha2(cert.Subject.Country[0]) {
		return newError(op, KindContractViolation, "packed attestation certificate Subject C must be a valid ISO 3166-1 alpha-2 code")
	}
	if len(cert.Subject.Organization) != 1 || cert.Subject.Organization[0] == "" {
		return newError(op, KindContractViolation, "packed attestation certificate Subject O must be non-empty")
	}
	if len(cert.Subject.OrganizationalUnit) != 1 || cert.Subject.OrganizationalUnit[0] != "Authenticator Attestation" {
		return newError(op, KindContractViolation, "packed attestation certificate Subject OU must be \"Authenticator Attestation\"")
	}
	// Subject CN is deliberately unconstrained.
	if cert.BasicConstraintsValid && cert.IsCA {
		return newError(op, KindContractViolation, "packed attestation certificate must not be a CA certificate")
	}
	return nil
}

// AAGUIDExtension returns the decoded AAGUID octet string from the
// id-fido-gen-ce-aaguid extension, if present (WebAuthn §8.2.1).
func AAGUIDExtension(op string, cert *x509.Certificate) (aaguid []byte, present bool, err error) {
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(aaguidExtensionOID) {
			continue
		}
		var octets []byte
		if _, uerr := asn1.Unmarshal(ext.Value, &octets); uerr != nil {
			return nil, true, wrapError(op, KindMalformedInput, uerr)
		}
		return octets, true, nil
	}
	return nil, false, nil
}

// VerifySelfSigned reports whether cert's signature verifies against its own
// public key (used to classify fido-u2f self attestation).
// CheckSignatureFrom is unsuitable here: it enforces CA basic constraints on
// the parent, and attestation leaves are never CAs.
func VerifySelfSigned(cert *x509.Certificate) bool {
	if !bytes.Equal(cert.RawSubject, cert.RawIssuer) {
		return false
	}
	return cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) == nil
}

// EqualPublicKey reports whether two crypto public keys encode to the same
// bytes, used when classifying fido-u2f self-attestation (the attestation
// cert's key must equal the credential public key).
func EqualPublicKey(a, b any) bool {
	pa, err := x509.MarshalPKIXPublicKey(a)
	if err != nil {
		return false
	}
	pb, err := x509.MarshalPKIXPublicKey(b)
	if err != nil {
		return false
	}
	return bytes.Equal(pa, pb)
}
