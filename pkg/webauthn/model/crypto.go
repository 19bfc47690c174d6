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
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
)

// SHA256 hashes b with SHA-256.
func SHA256(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// VerifyCOSESignature verifies sig over message under pub with the COSE
// algorithm alg. alg is honored exactly as declared; an unrecognized alg
// fails UnsupportedFormat rather than being verified against a hard-coded
// default.
func VerifyCOSESignature(op string, pub crypto.PublicKey, alg int64, message, sig []byte) error {
	switch alg {
	case AlgES256:
		sum := sha256.Sum256(message)
		return verifyECDSA(op, pub, sum[:], sig)
	case AlgES384:
		sum := sha512.Sum384(message)
		return verifyECDSA(op, pub, sum[:], sig)
	case AlgES512:
		sum := sha512.Sum512(message)
		return verifyECDSA(op, pub, sum[:], sig)
	case AlgEdDSA:
		edPub, ok := pub.(ed25519.PublicKey)
		if !ok {
			return newError(op, KindUnsupportedFormat, "EdDSA algorithm declared but key is not Ed25519")
		}
		if !ed25519.Verify(edPub, message, sig) {
			return newError(op, KindContractViolation, "invalid EdDSA signature")
		}
		return nil
	case AlgRS256:
		sum := sha256.Sum256(message)
		return verifyRSA(op, pub, crypto.SHA256, sum[:], sig)
	case AlgRS384:
		sum := sha512.Sum384(message)
		return verifyRSA(op, pub, crypto.SHA384, sum[:], sig)
	case AlgRS512:
		sum := sha512.Sum512(message)
		return verifyRSA(op, pub, crypto.SHA512, sum[:], sig)
	default:
		return newErrorf(op, KindUnsupportedFormat, "unsupported COSE algorithm %d", alg)
	}
}

func verifyECDSA(op string, pub crypto.PublicKey, digest []byte, sig []byte) error {
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return newError(op, KindUnsupportedFormat, "ECDSA algorithm declared but key is not ECDSA")
	}
	if !ecdsa.VerifyASN1(ecPub, digest, sig) {
		return newError(op, KindContractViolation, "invalid ECDSA signature")
	}
	return nil
}

func verifyRSA(op string, pub crypto.PublicKey, hash crypto.Hash, digest []byte, sig []byte) error {
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return newError(op, KindUnsupportedFormat, "RSA algorithm declared but key is not RSA")
	}
	if err := rsa.VerifyPKCS1v15(rsaPub, hash, digest, sig); err != nil {
		return newError(op, KindContractViolation, "invalid RSA signature")
	}
	return nil
}

// VerifyX509Signature verifies sig over message under a certificate's
// signature algorithm, for attestation-statement verifiers that sign
// directly with an X.509 leaf certificate's key. The fido-u2f verifier makes
// the same cert.CheckSignature call inline instead of using this helper.
func VerifyX509Signature(op string, cert *x509.Certificate, alg x509.SignatureAlgorithm, message, sig []byte) error {
	if err := cert.CheckSignature(alg, message, sig); err != nil {
		return wrapError(op, KindContractViolation, err)
	}
	return nil
}
