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
	"context"
	"crypto/x509"
)

// UserVerificationRequirement mirrors the three WebAuthn user-verification
// policy values.
type UserVerificationRequirement string

const (
	UserVerificationRequired    UserVerificationRequirement = "required"
	UserVerificationPreferred   UserVerificationRequirement = "preferred"
	UserVerificationDiscouraged UserVerificationRequirement = "discouraged"
)

// RegisteredCredential is the durable record a CredentialRepository
// returns: credentialId is the primary key, and one credential belongs
// to exactly one user handle.
type RegisteredCredential struct {
	CredentialID   []byte
	UserHandle     []byte
	COSEPublicKey  COSEKey
	SignatureCount uint32
}

// PublicKeyCredentialDescriptor identifies one credential by id, as used in
// allowCredentials lists.
type PublicKeyCredentialDescriptor struct {
	CredentialID []byte
}

// CredentialRepository is the user<->credential<->userHandle lookup
// capability consumed by the core. It is a pure capability: the core never
// mutates it and never caches its responses.
type CredentialRepository interface {
	Lookup(ctx context.Context, credentialID, userHandle []byte) (*RegisteredCredential, error)
	LookupAll(ctx context.Context, credentialID []byte) ([]RegisteredCredential, error)
	GetCredentialIDsForUsername(ctx context.Context, username string) ([]PublicKeyCredentialDescriptor, error)
	GetUserHandleForUsername(ctx context.Context, username string) ([]byte, error)
	GetUsernameForUserHandle(ctx context.Context, userHandle []byte) (string, error)
}

// Attestation is the vendor metadata a MetadataService reports for a given
// attestation trust path.
type Attestation struct {
	Identifier string
	IsTrusted  bool
}

// MetadataService provides attestation root certificates and vendor
// metadata. The core never embeds trust roots itself; it only ever
// consults this capability.
type MetadataService interface {
	GetAttestation(ctx context.Context, trustPath []*x509.Certificate) (*Attestation, error)
}
