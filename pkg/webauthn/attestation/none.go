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
	"crypto/x509"

	wa "github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

// noneVerifier implements the "none" attestation statement format
// (WebAuthn §8.7): always classifies NONE, always verifies, no trust path.
type noneVerifier struct{}

func (noneVerifier) Format() string { return "none" }

func (noneVerifier) Classify(obj wa.AttestationObject, authData wa.AuthenticatorData) (Type, error) {
	return TypeNone, nil
}

func (noneVerifier) VerifySignature(obj wa.AttestationObject, authData wa.AuthenticatorData, clientDataHash []byte) error {
	return nil
}

func (noneVerifier) TrustPath(obj wa.AttestationObject) ([]*x509.Certificate, error) {
	return nil, nil
}

func init() {
	Register(noneVerifier{})
}
