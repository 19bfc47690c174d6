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

// Package webauthn is the core ceremony engine: the registration and
// assertion pipelines (WebAuthn §7.1, §7.2), built on the data model, codecs
// and attestation verifiers of pkg/webauthn/model and pkg/webauthn/attestation.
//
// The data model lives in a separate model subpackage so that the
// attestation-statement verifiers (pkg/webauthn/attestation) can depend on
// it without creating an import cycle back to this package, which is the
// one that depends on attestation to dispatch by fmt. The types below are
// re-exported here so callers of this package see one cohesive API.
package webauthn

import (
	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

type (
	ByteArray                    = model.ByteArray
	CollectedClientData          = model.CollectedClientData
	TokenBindingInfo             = model.TokenBindingInfo
	TokenBindingStatus           = model.TokenBindingStatus
	AuthenticatorData            = model.AuthenticatorData
	AuthenticationDataFlags      = model.AuthenticationDataFlags
	AttestationData              = model.AttestationData
	AttestationObject            = model.AttestationObject
	AttestationStatement         = model.AttestationStatement
	COSEKey                      = model.COSEKey
	RegisteredCredential         = model.RegisteredCredential
	PublicKeyCredentialDescriptor = model.PublicKeyCredentialDescriptor
	CredentialRepository         = model.CredentialRepository
	MetadataService              = model.MetadataService
	Attestation                  = model.Attestation
	Config                       = model.Config
	RPIdentity                   = model.RPIdentity
	ErrorKind                    = model.ErrorKind
	CeremonyError                = model.CeremonyError
	UserVerificationRequirement  = model.UserVerificationRequirement
)

const (
	TokenBindingPresent      = model.TokenBindingPresent
	TokenBindingSupported    = model.TokenBindingSupported
	TokenBindingNotSupported = model.TokenBindingNotSupported

	KindMalformedInput    = model.KindMalformedInput
	KindContractViolation = model.KindContractViolation
	KindUnsupportedFormat = model.KindUnsupportedFormat
	KindUnknownCredential = model.KindUnknownCredential
	KindUnknownUser       = model.KindUnknownUser
	KindInternal          = model.KindInternal

	UserVerificationRequired    = model.UserVerificationRequired
	UserVerificationPreferred   = model.UserVerificationPreferred
	UserVerificationDiscouraged = model.UserVerificationDiscouraged

	AlgES256 = model.AlgES256
	AlgES384 = model.AlgES384
	AlgES512 = model.AlgES512
	AlgEdDSA = model.AlgEdDSA
	AlgRS256 = model.AlgRS256
	AlgRS384 = model.AlgRS384
	AlgRS512 = model.AlgRS512
)

var (
	NewByteArray       = model.NewByteArray
	DecodeBase64URL    = model.DecodeBase64URL
	IsKind             = model.IsKind
	KindOf             = model.KindOf
)
