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

package webauthn

import (
	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/attestation"
)

// RegistrationRequest is the stored pending state of a registration
// ceremony: the challenge the RP issued plus the policy knobs that were sent
// to the client. The engine only ever compares against it; challenge
// generation is the caller's concern.
type RegistrationRequest struct {
	// Challenge is the exact challenge issued to the client.
	Challenge ByteArray

	// UserVerification is the requested user-verification policy. REQUIRED
	// makes the UV flag mandatory; any other value makes UP mandatory
	// instead.
	UserVerification UserVerificationRequirement

	// Extensions is the extension identifier -> input object sent with the
	// request, or nil if none were requested.
	Extensions map[string]any

	// TokenBindingID is the RP-declared Token Binding identifier, valid
	// only when TokenBindingIDSet is true.
	TokenBindingID    string
	TokenBindingIDSet bool
}

// RegistrationResponse is the client-produced credential response from
// navigator.credentials.create.
type RegistrationResponse struct {
	// ClientDataJSON is the raw UTF-8 JSON clientDataJSON bytes.
	ClientDataJSON []byte

	// AttestationObject is the raw CBOR attestationObject bytes.
	AttestationObject []byte

	// ClientExtensionResults is the client's extension output map, or nil.
	ClientExtensionResults map[string]any
}

// RegistrationResult is the trusted outcome of a successful registration
// ceremony. The caller persists the credential; the engine only
// verifies (WebAuthn §7.1 step 18).
type RegistrationResult struct {
	// KeyID identifies the newly created credential.
	KeyID PublicKeyCredentialDescriptor

	// SignatureCount is the initial signature counter value to store with
	// the credential.
	SignatureCount uint32

	// AttestationType is the classified attestation type.
	AttestationType attestation.Type

	// AttestationTrusted reports whether the attestation chains to a
	// trusted root per the configured metadata service and policy.
	AttestationTrusted bool

	// AttestationMetadata is the vendor metadata the metadata service
	// returned, or nil.
	AttestationMetadata *Attestation

	// COSEPublicKey is the credential public key, byte-equal to the COSE
	// key embedded in the attested credential data.
	COSEPublicKey []byte

	// Warnings holds recoverable issues policy allowed through.
	Warnings []string
}

// AssertionRequest is the stored pending state of an assertion ceremony.
type AssertionRequest struct {
	// Challenge is the exact challenge issued to the client.
	Challenge ByteArray

	// Username, if non-empty, names the account being asserted. At least
	// one of Username and the response's UserHandle must be present.
	Username string

	// AllowCredentials, if non-nil, restricts which credential IDs the
	// response may use.
	AllowCredentials []PublicKeyCredentialDescriptor

	// UserVerification is the requested user-verification policy.
	UserVerification UserVerificationRequirement

	// Extensions is the requested extension set, or nil.
	Extensions map[string]any

	// TokenBindingID is the RP-declared Token Binding identifier, valid
	// only when TokenBindingIDSet is true.
	TokenBindingID    string
	TokenBindingIDSet bool
}

// AssertionResponse is the client-produced credential response from
// navigator.credentials.get.
type AssertionResponse struct {
	// CredentialID is the id of the credential the authenticator used.
	CredentialID []byte

	// UserHandle is the authenticator-returned user handle, or nil.
	UserHandle []byte

	// ClientDataJSON is the raw UTF-8 JSON clientDataJSON bytes.
	ClientDataJSON []byte

	// AuthenticatorData is the raw binary authenticator data.
	AuthenticatorData []byte

	// Signature is the assertion signature over
	// authenticatorData || SHA-256(clientDataJSON).
	Signature []byte

	// ClientExtensionResults is the client's extension output map, or nil.
	ClientExtensionResults map[string]any
}

// AssertionResult is the trusted outcome of a successful assertion
// ceremony. The caller is responsible for persisting SignatureCount.
type AssertionResult struct {
	Username              string
	UserHandle            []byte
	CredentialID          []byte
	SignatureCount        uint32
	SignatureCounterValid bool
	Success               bool
	Warnings              []string
}
