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
	"bytes"
	"context"
	"crypto/x509"

	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/attestation"
	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

// FinishRegistration runs the 19-step registration pipeline of WebAuthn
// §7.1 over a stored pending request and a client-produced
// credential response. Steps execute in strict numeric order; the first
// failing step aborts the ceremony and the pipeline cannot be resumed.
//
// The pipeline is a chain of step values, each carrying exactly the data
// derived by the steps before it; every step's next() either produces the
// following step or a classified error. Step numbers match the WebAuthn
// §7.1 item numbers so each contract is auditable against the spec.
func FinishRegistration(ctx context.Context, cfg *model.Config, req RegistrationRequest, resp RegistrationResponse) (*RegistrationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, model.WrapError("registration", model.KindInternal, err)
	}

	// Inputs are defensively copied so ceremony state never aliases
	// caller-owned buffers.
	resp.ClientDataJSON = append([]byte{}, resp.ClientDataJSON...)
	resp.AttestationObject = append([]byte{}, resp.AttestationObject...)

	s2 := regStep2{ctx: ctx, cfg: cfg, req: req, resp: resp}
	s3, err := s2.next()
	if err != nil {
		return nil, err
	}
	s4, err := s3.next()
	if err != nil {
		return nil, err
	}
	s5, err := s4.next()
	if err != nil {
		return nil, err
	}
	s6, err := s5.next()
	if err != nil {
		return nil, err
	}
	s7, err := s6.next()
	if err != nil {
		return nil, err
	}
	s8, err := s7.next()
	if err != nil {
		return nil, err
	}
	s9, err := s8.next()
	if err != nil {
		return nil, err
	}
	s10, err := s9.next()
	if err != nil {
		return nil, err
	}
	s11, err := s10.next()
	if err != nil {
		return nil, err
	}
	s12, err := s11.next()
	if err != nil {
		return nil, err
	}
	s13, err := s12.next()
	if err != nil {
		return nil, err
	}
	s14, err := s13.next()
	if err != nil {
		return nil, err
	}
	s15, err := s14.next()
	if err != nil {
		return nil, err
	}
	s16, err := s15.next()
	if err != nil {
		return nil, err
	}
	s17, err := s16.next()
	if err != nil {
		return nil, err
	}
	s18, err := s17.next()
	if err != nil {
		return nil, err
	}
	s19, err := s18.next()
	if err != nil {
		return nil, err
	}
	return s19.finish()
}

// regStep2 JSON-parses clientDataJSON (§7.1 steps 1-2; UTF-8 decoding is
// intrinsic to the JSON parse).
type regStep2 struct {
	ctx  context.Context
	cfg  *model.Config
	req  RegistrationRequest
	resp RegistrationResponse
}

func (s regStep2) next() (regStep3, error) {
	clientData, err := model.ParseCollectedClientData("registration.step2", s.resp.ClientDataJSON)
	if err != nil {
		return regStep3{}, err
	}
	return regStep3{regStep2: s, clientData: clientData}, nil
}

// regStep3 checks C.type == "webauthn.create", exact and case-sensitive.
type regStep3 struct {
	regStep2
	clientData model.CollectedClientData
}

func (s regStep3) next() (regStep4, error) {
	if s.clientData.Type != "webauthn.create" {
		return regStep4{}, model.NewErrorf("registration.step3", model.KindContractViolation,
			"client data type must be \"webauthn.create\", got %q", s.clientData.Type)
	}
	return regStep4{regStep3: s}, nil
}

// regStep4 checks C.challenge equals the stored request challenge,
// byte-equal after Base64URL decoding.
type regStep4 struct {
	regStep3
}

func (s regStep4) next() (regStep5, error) {
	challenge, err := model.DecodeBase64URL(s.clientData.Challenge)
	if err != nil {
		return regStep5{}, model.WrapError("registration.step4", model.KindMalformedInput, err)
	}
	if !challenge.Equal(s.req.Challenge) {
		return regStep5{}, model.NewError("registration.step4", model.KindContractViolation,
			"client data challenge does not match request challenge")
	}
	return regStep5{regStep4: s}, nil
}

// regStep5 checks C.origin against the configured origin set.
type regStep5 struct {
	regStep4
}

func (s regStep5) next() (regStep6, error) {
	if !s.cfg.OriginAllowed(s.clientData.Origin) {
		return regStep6{}, model.NewErrorf("registration.step5", model.KindContractViolation,
			"incorrect origin %q", s.clientData.Origin)
	}
	return regStep6{regStep5: s}, nil
}

// regStep6 evaluates the token-binding decision table.
type regStep6 struct {
	regStep5
}

func (s regStep6) next() (regStep7, error) {
	err := model.CheckTokenBinding("registration.step6", s.clientData.TokenBinding,
		s.req.TokenBindingID, s.req.TokenBindingIDSet)
	if err != nil {
		return regStep7{}, err
	}
	return regStep7{regStep6: s}, nil
}

// regStep7 computes clientDataHash = SHA-256(clientDataJSON bytes).
type regStep7 struct {
	regStep6
}

func (s regStep7) next() (regStep8, error) {
	return regStep8{regStep7: s, clientDataHash: model.SHA256(s.resp.ClientDataJSON)}, nil
}

// regStep8 CBOR-decodes attestationObject into (fmt, authData, attStmt) and
// parses authData as AuthenticatorData.
type regStep8 struct {
	regStep7
	clientDataHash []byte
}

func (s regStep8) next() (regStep9, error) {
	obj, err := model.DecodeAttestationObject("registration.step8", s.resp.AttestationObject)
	if err != nil {
		return regStep9{}, err
	}
	authData, err := model.ParseAuthenticatorData("registration.step8", obj.AuthData)
	if err != nil {
		return regStep9{}, err
	}
	if authData.AttestedCredential == nil {
		return regStep9{}, model.NewError("registration.step8", model.KindMalformedInput,
			"registration authenticator data must carry attested credential data")
	}
	return regStep9{regStep8: s, attObj: obj, authData: authData}, nil
}

// regStep9 checks SHA-256(rpId) equals the authenticator data RP-ID hash.
type regStep9 struct {
	regStep8
	attObj   model.AttestationObject
	authData model.AuthenticatorData
}

func (s regStep9) next() (regStep10, error) {
	if !bytes.Equal(model.SHA256([]byte(s.cfg.RPIdentity.ID)), s.authData.RPIDHash) {
		return regStep10{}, model.NewError("registration.step9", model.KindContractViolation,
			"authenticator data RP ID hash does not match SHA-256 of the configured RP ID")
	}
	return regStep10{regStep9: s}, nil
}

// regStep10 requires the UV flag when user verification is REQUIRED.
type regStep10 struct {
	regStep9
}

func (s regStep10) next() (regStep11, error) {
	if s.req.UserVerification == model.UserVerificationRequired && !s.authData.Flags.UV {
		return regStep11{}, model.NewError("registration.step10", model.KindContractViolation,
			"user verification required but UV flag not set")
	}
	return regStep11{regStep10: s}, nil
}

// regStep11 requires the UP flag when user verification is not REQUIRED.
type regStep11 struct {
	regStep10
}

func (s regStep11) next() (regStep12, error) {
	if s.req.UserVerification != model.UserVerificationRequired && !s.authData.Flags.UP {
		return regStep12{}, model.NewError("registration.step11", model.KindContractViolation,
			"user presence required but UP flag not set")
	}
	return regStep12{regStep11: s}, nil
}

// regStep12 checks both client and authenticator extension outputs are a
// subset of the requested extensions.
type regStep12 struct {
	regStep11
}

func (s regStep12) next() (regStep13, error) {
	err := model.CheckExtensionsSubset("registration.step12", s.req.Extensions,
		s.resp.ClientExtensionResults, s.authData.Extensions)
	if err != nil {
		return regStep13{}, err
	}
	return regStep13{regStep12: s}, nil
}

// regStep13 dispatches fmt to a registered attestation verifier, USASCII
// case-sensitive.
type regStep13 struct {
	regStep12
}

func (s regStep13) next() (regStep14, error) {
	verifier, ok := attestation.Lookup(s.attObj.Fmt)
	if !ok {
		return regStep14{}, model.NewErrorf("registration.step13", model.KindUnsupportedFormat,
			"unsupported attestation format %q", s.attObj.Fmt)
	}
	return regStep14{regStep13: s, verifier: verifier}, nil
}

// regStep14 verifies the attestation signature and records the attestation
// type and trust path.
type regStep14 struct {
	regStep13
	verifier attestation.Verifier
}

func (s regStep14) next() (regStep15, error) {
	if err := s.verifier.VerifySignature(s.attObj, s.authData, s.clientDataHash); err != nil {
		return regStep15{}, err
	}
	attType, err := s.verifier.Classify(s.attObj, s.authData)
	if err != nil {
		return regStep15{}, err
	}
	trustPath, err := s.verifier.TrustPath(s.attObj)
	if err != nil {
		return regStep15{}, err
	}
	return regStep15{regStep14: s, attType: attType, trustPath: trustPath}, nil
}

// regStep15 constructs a trust resolver for attestation types that carry a
// certificate chain. BASIC attestation with no configured metadata service
// is fatal unless untrusted attestation is allowed by policy.
type regStep15 struct {
	regStep14
	attType   attestation.Type
	trustPath []*x509.Certificate
}

func (s regStep15) next() (regStep16, error) {
	switch s.attType {
	case attestation.TypeBasic, attestation.TypeAttCA:
		if s.cfg.MetadataService == nil && !s.cfg.AllowUntrustedAttestation {
			return regStep16{}, model.NewError("registration.step15", model.KindContractViolation,
				"basic attestation requires a metadata service and none is configured")
		}
		resolver := attestation.NewResolver(s.cfg.MetadataService)
		metadata, err := resolver.ResolveTrustAnchor(s.ctx, "registration.step15", s.verifier, s.attObj)
		if err != nil {
			return regStep16{}, err
		}
		return regStep16{regStep15: s, metadata: metadata}, nil
	default:
		return regStep16{regStep15: s}, nil
	}
}

// regStep16 computes attestationTrusted and applies the untrusted
// attestation policy gate: NONE and SELF_ATTESTATION are trusted only as
// far as policy allows, BASIC requires vendor metadata reporting trust.
type regStep16 struct {
	regStep15
	metadata *model.Attestation
}

func (s regStep16) next() (regStep17, error) {
	var trusted bool
	switch s.attType {
	case attestation.TypeNone, attestation.TypeSelf:
		trusted = s.cfg.AllowUntrustedAttestation
	case attestation.TypeBasic, attestation.TypeAttCA:
		trusted = s.metadata != nil && s.metadata.IsTrusted
	}

	var warnings []string
	if !trusted {
		if !s.cfg.AllowUntrustedAttestation {
			return regStep17{}, model.NewError("registration.step16", model.KindContractViolation,
				"attestation is not trusted and untrusted attestation is not allowed")
		}
		warnings = append(warnings, "attestation is not trusted")
	}
	return regStep17{regStep16: s, trusted: trusted, warnings: warnings}, nil
}

// regStep17 rejects credential IDs that are already registered.
type regStep17 struct {
	regStep16
	trusted  bool
	warnings []string
}

func (s regStep17) next() (regStep18, error) {
	existing, err := s.cfg.CredentialRepository.LookupAll(s.ctx, s.authData.AttestedCredential.CredentialID)
	if err != nil {
		return regStep18{}, model.WrapError("registration.step17", model.KindInternal, err)
	}
	if len(existing) != 0 {
		return regStep18{}, model.NewError("registration.step17", model.KindContractViolation,
			"credential ID is already registered")
	}
	return regStep18{regStep17: s}, nil
}

// regStep18 is the §7.1 "register the credential" item: no verification is
// performed, the caller registers using the returned RegistrationResult.
type regStep18 struct {
	regStep17
}

func (s regStep18) next() (regStep19, error) {
	return regStep19{regStep18: s}, nil
}

// regStep19 emits the terminal result, carrying any warnings policy allowed
// through.
type regStep19 struct {
	regStep18
}

func (s regStep19) finish() (*RegistrationResult, error) {
	cred := s.authData.AttestedCredential
	return &RegistrationResult{
		KeyID:               model.PublicKeyCredentialDescriptor{CredentialID: append([]byte{}, cred.CredentialID...)},
		SignatureCount:      s.authData.SignCount,
		AttestationType:     s.attType,
		AttestationTrusted:  s.trusted,
		AttestationMetadata: s.metadata,
		COSEPublicKey:       append([]byte{}, cred.CredentialKey.Raw...),
		Warnings:            s.warnings,
	}, nil
}
