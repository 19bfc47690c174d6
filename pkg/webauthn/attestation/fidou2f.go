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

package attestation

import (
	"crypto/ecdsa"
	"crypto/x509"

	wa "github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

const fidoU2FFormat = "fido-u2f"

// fidou2fVerifier implements the "fido-u2f" attestation statement format
// (FIDO U2F Raw Message Formats §4.3).
type fidou2fVerifier struct{}

func (fidou2fVerifier) Format() string { return fidoU2FFormat }

func (v fidou2fVerifier) leafCert(obj wa.AttestationObject) (*x509.Certificate, error) {
	stmt := obj.AttStmt
	if !stmt.HasSig || !stmt.HasX5C {
		return nil, wa.NewError("attestation.fido-u2f", wa.KindMalformedInput, "fido-u2f attStmt requires \"sig\" and \"x5c\"")
	}
	if len(stmt.X5C) != 1 {
		return nil, wa.NewErrorf("attestation.fido-u2f", wa.KindMalformedInput, "fido-u2f x5c must contain exactly one certificate, got %d", len(stmt.X5C))
	}
	return wa.ParseDERCertificate("attestation.fido-u2f", stmt.X5C[0])
}

func (v fidou2fVerifier) Classify(obj wa.AttestationObject, authData wa.AuthenticatorData) (Type, error) {
	cert, err := v.leafCert(obj)
	if err != nil {
		return "", err
	}
	certPub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return TypeBasic, nil
	}
	credPub, ok := authData.PublicKey().(*ecdsa.PublicKey)
	if ok && wa.VerifySelfSigned(cert) && wa.EqualPublicKey(certPub, credPub) {
		return TypeSelf, nil
	}
	return TypeBasic, nil
}

func (v fidou2fVerifier) VerifySignature(obj wa.AttestationObject, authData wa.AuthenticatorData, clientDataHash []byte) error {
	const op = "attestation.fido-u2f"

	cert, err := v.leafCert(obj)
	if err != nil {
		return err
	}

	certPub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok || !wa.IsP256EC(certPub) {
		return wa.NewError(op, wa.KindUnsupportedFormat, "fido-u2f attestation certificate public key must be EC on curve P-256")
	}

	if authData.AttestedCredential == nil {
		return wa.NewError(op, wa.KindMalformedInput, "fido-u2f registration requires attested credential data")
	}
	credPub, ok := authData.PublicKey().(*ecdsa.PublicKey)
	if !ok || !wa.IsP256EC(credPub) {
		return wa.NewError(op, wa.KindUnsupportedFormat, "fido-u2f credential public key must be EC on curve P-256")
	}

	// Signed payload: 0x00 || rpIdHash (32) || clientDataHash (32) ||
	// credentialId (L) || publicKeyUncompressed (65) (FIDO U2F Raw Message Formats §4.3).
	payload := wa.ConcatBytes(
		[]byte{0x00},
		authData.RPIDHash,
		clientDataHash,
		authData.AttestedCredential.CredentialID,
		wa.UncompressedECPoint(credPub),
	)

	if err := cert.CheckSignature(x509.ECDSAWithSHA256, payload, obj.AttStmt.Sig); err != nil {
		return wa.WrapError(op, wa.KindContractViolation, err)
	}
	return nil
}

func (v fidou2fVerifier) TrustPath(obj wa.AttestationObject) ([]*x509.Certificate, error) {
	cert, err := v.leafCert(obj)
	if err != nil {
		return nil, err
	}
	return []*x509.Certificate{cert}, nil
}

func init() {
	Register(fidou2fVerifier{})
}
