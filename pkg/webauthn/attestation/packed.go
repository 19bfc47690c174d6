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
	"bytes"
	"crypto/x509"

	wa "github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

const packedFormat = "packed"

// packedVerifier implements the "packed" attestation statement format
// (WebAuthn §8.2): basic/privacy-CA (x5c present) and self attestation
// (neither x5c nor ecdaaKeyId). ECDAA is recognized but unsupported.
type packedVerifier struct{}

func (packedVerifier) Format() string { return packedFormat }

func (packedVerifier) Classify(obj wa.AttestationObject, authData wa.AuthenticatorData) (Type, error) {
	stmt := obj.AttStmt
	switch {
	case stmt.HasX5C:
		return TypeBasic, nil
	case stmt.HasECDAA:
		return TypeECDAA, nil
	default:
		return TypeSelf, nil
	}
}

func (packedVerifier) VerifySignature(obj wa.AttestationObject, authData wa.AuthenticatorData, clientDataHash []byte) error {
	const op = "attestation.packed"
	stmt := obj.AttStmt

	if !stmt.HasSig || !stmt.HasAlg {
		return wa.NewError(op, wa.KindMalformedInput, "packed attStmt requires \"sig\" and \"alg\"")
	}

	// Signed payload: authenticatorData || clientDataHash (WebAuthn §8.2).
	payload := wa.ConcatBytes(obj.AuthData, clientDataHash)

	switch {
	case stmt.HasECDAA:
		return wa.NewError(op, wa.KindUnsupportedFormat, "ECDAA attestation is not implemented")

	case stmt.HasX5C:
		return verifyPackedBasic(op, stmt, payload, authData)

	default:
		return verifyPackedSelf(op, stmt, payload, authData)
	}
}

func verifyPackedBasic(op string, stmt wa.AttestationStatement, payload []byte, authData wa.AuthenticatorData) error {
	if len(stmt.X5C) == 0 {
		return wa.NewError(op, wa.KindMalformedInput, "packed x5c must contain at least one certificate")
	}
	leaf, err := wa.ParseDERCertificate(op, stmt.X5C[0])
	if err != nil {
		return err
	}

	if err := wa.VerifyCOSESignature(op, leaf.PublicKey, stmt.Alg, payload, stmt.Sig); err != nil {
		return err
	}

	if err := wa.CheckPackedCertRequirements(op, leaf); err != nil {
		return err
	}

	if authData.AttestedCredential != nil {
		aaguidExt, present, err := wa.AAGUIDExtension(op, leaf)
		if err != nil {
			return err
		}
		if present && !bytes.Equal(aaguidExt, authData.AttestedCredential.AAGUID[:]) {
			return wa.NewError(op, wa.KindContractViolation, "id-fido-gen-ce-aaguid extension does not match authenticator data AAGUID")
		}
	}

	return nil
}

func verifyPackedSelf(op string, stmt wa.AttestationStatement, payload []byte, authData wa.AuthenticatorData) error {
	if authData.AttestedCredential == nil || authData.AttestedCredential.CredentialKey == nil {
		return wa.NewError(op, wa.KindMalformedInput, "packed self attestation requires attested credential data")
	}
	credKey := authData.AttestedCredential.CredentialKey

	if stmt.Alg != credKey.Algorithm {
		return wa.NewError(op, wa.KindContractViolation, "packed self attestation alg does not match credential public key algorithm")
	}

	return wa.VerifyCOSESignature(op, credKey.Public, stmt.Alg, payload, stmt.Sig)
}

func (packedVerifier) TrustPath(obj wa.AttestationObject) ([]*x509.Certificate, error) {
	const op = "attestation.packed"
	stmt := obj.AttStmt
	if !stmt.HasX5C {
		return nil, nil
	}
	chain := make([]*x509.Certificate, 0, len(stmt.X5C))
	for _, der := range stmt.X5C {
		cert, err := wa.ParseDERCertificate(op, der)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cert)
	}
	return chain, nil
}

func init() {
	Register(packedVerifier{})
}
