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

	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

// FinishAssertion runs the assertion pipeline of WebAuthn §7.2 over a
// stored pending request and a client-produced assertion response. Step numbering mirrors the §7.2 item numbers, starting at the
// user-handle resolution step 0.
func FinishAssertion(ctx context.Context, cfg *model.Config, req AssertionRequest, resp AssertionResponse) (*AssertionResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, model.WrapError("assertion", model.KindInternal, err)
	}

	resp.CredentialID = append([]byte{}, resp.CredentialID...)
	resp.UserHandle = append([]byte{}, resp.UserHandle...)
	resp.ClientDataJSON = append([]byte{}, resp.ClientDataJSON...)
	resp.AuthenticatorData = append([]byte{}, resp.AuthenticatorData...)
	resp.Signature = append([]byte{}, resp.Signature...)

	s0 := assertStep0{ctx: ctx, cfg: cfg, req: req, resp: resp}
	s1, err := s0.next()
	if err != nil {
		return nil, err
	}
	s2, err := s1.next()
	if err != nil {
		return nil, err
	}
	s4, err := s2.next()
	if err != nil {
		return nil, err
	}
	s6, err := s4.next()
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
	return s17.finish()
}

// assertStep0 resolves the (username, userHandle) pair: at least one must
// be supplied, and the other is derived through the credential repository
// (§7.2 step 0).
type assertStep0 struct {
	ctx  context.Context
	cfg  *model.Config
	req  AssertionRequest
	resp AssertionResponse
}

func (s assertStep0) next() (assertStep1, error) {
	const op = "assertion.step0"
	username := s.req.Username
	userHandle := s.resp.UserHandle

	switch {
	case len(userHandle) != 0:
		resolved, err := s.cfg.CredentialRepository.GetUsernameForUserHandle(s.ctx, userHandle)
		if err != nil {
			return assertStep1{}, model.WrapError(op, model.KindInternal, err)
		}
		if resolved == "" {
			return assertStep1{}, model.NewError(op, model.KindUnknownUser, "no username found for user handle")
		}
		if username != "" && username != resolved {
			return assertStep1{}, model.NewError(op, model.KindContractViolation,
				"request username does not match the response user handle")
		}
		username = resolved

	case username != "":
		resolved, err := s.cfg.CredentialRepository.GetUserHandleForUsername(s.ctx, username)
		if err != nil {
			return assertStep1{}, model.WrapError(op, model.KindInternal, err)
		}
		if len(resolved) == 0 {
			return assertStep1{}, model.NewErrorf(op, model.KindUnknownUser, "no user handle found for username %q", username)
		}
		userHandle = resolved

	default:
		return assertStep1{}, model.NewError(op, model.KindContractViolation,
			"at least one of username and response user handle must be present")
	}

	return assertStep1{assertStep0: s, username: username, userHandle: userHandle}, nil
}

// assertStep1 checks the response credential ID against allowCredentials,
// when the request restricted it.
type assertStep1 struct {
	assertStep0
	username   string
	userHandle []byte
}

func (s assertStep1) next() (assertStep2, error) {
	if s.req.AllowCredentials != nil {
		allowed := false
		for _, desc := range s.req.AllowCredentials {
			if bytes.Equal(desc.CredentialID, s.resp.CredentialID) {
				allowed = true
				break
			}
		}
		if !allowed {
			return assertStep2{}, model.NewError("assertion.step1", model.KindContractViolation,
				"credential ID is not in the allowCredentials list")
		}
	}
	return assertStep2{assertStep1: s}, nil
}

// assertStep2 retrieves the stored credential for (credentialId, userHandle)
// and checks ownership; the same lookup also satisfies §7.2 step 3, making
// the credential available to the rest of the pipeline.
type assertStep2 struct {
	assertStep1
}

func (s assertStep2) next() (assertStep4, error) {
	const op = "assertion.step2"
	cred, err := s.cfg.CredentialRepository.Lookup(s.ctx, s.resp.CredentialID, s.userHandle)
	if err != nil {
		return assertStep4{}, model.WrapError(op, model.KindInternal, err)
	}
	if cred == nil {
		return assertStep4{}, model.NewError(op, model.KindUnknownCredential,
			"no credential registered for this credential ID and user handle")
	}
	if !bytes.Equal(cred.UserHandle, s.userHandle) {
		return assertStep4{}, model.NewError(op, model.KindContractViolation,
			"stored credential belongs to a different user handle")
	}
	return assertStep4{assertStep2: s, credential: *cred}, nil
}

// assertStep4 requires clientDataJSON, authenticatorData and signature all
// be present (§7.2 step 4; step 5 is a no-op).
type assertStep4 struct {
	assertStep2
	credential model.RegisteredCredential
}

func (s assertStep4) next() (assertStep6, error) {
	const op = "assertion.step4"
	if len(s.resp.ClientDataJSON) == 0 {
		return assertStep6{}, model.NewError(op, model.KindMalformedInput, "missing clientDataJSON")
	}
	if len(s.resp.AuthenticatorData) == 0 {
		return assertStep6{}, model.NewError(op, model.KindMalformedInput, "missing authenticatorData")
	}
	if len(s.resp.Signature) == 0 {
		return assertStep6{}, model.NewError(op, model.KindMalformedInput, "missing signature")
	}
	return assertStep6{assertStep4: s}, nil
}

// assertStep6 JSON-parses clientDataJSON.
type assertStep6 struct {
	assertStep4
}

func (s assertStep6) next() (assertStep7, error) {
	clientData, err := model.ParseCollectedClientData("assertion.step6", s.resp.ClientDataJSON)
	if err != nil {
		return assertStep7{}, err
	}
	return assertStep7{assertStep6: s, clientData: clientData}, nil
}

// assertStep7 checks C.type == "webauthn.get"; a mismatch is downgraded to
// a warning when type-attribute validation is configured off.
type assertStep7 struct {
	assertStep6
	clientData model.CollectedClientData
}

func (s assertStep7) next() (assertStep8, error) {
	if s.clientData.Type != "webauthn.get" {
		if s.cfg.ValidateTypeAttribute {
			return assertStep8{}, model.NewErrorf("assertion.step7", model.KindContractViolation,
				"client data type must be \"webauthn.get\", got %q", s.clientData.Type)
		}
		warning := "client data type is not \"webauthn.get\""
		return assertStep8{assertStep7: s, warnings: []string{warning}}, nil
	}
	return assertStep8{assertStep7: s}, nil
}

// assertStep8 checks C.challenge equals the stored request challenge.
type assertStep8 struct {
	assertStep7
	warnings []string
}

func (s assertStep8) next() (assertStep9, error) {
	challenge, err := model.DecodeBase64URL(s.clientData.Challenge)
	if err != nil {
		return assertStep9{}, model.WrapError("assertion.step8", model.KindMalformedInput, err)
	}
	if !challenge.Equal(s.req.Challenge) {
		return assertStep9{}, model.NewError("assertion.step8", model.KindContractViolation,
			"client data challenge does not match request challenge")
	}
	return assertStep9{assertStep8: s}, nil
}

// assertStep9 checks C.origin against the configured origin set.
type assertStep9 struct {
	assertStep8
}

func (s assertStep9) next() (assertStep10, error) {
	if !s.cfg.OriginAllowed(s.clientData.Origin) {
		return assertStep10{}, model.NewErrorf("assertion.step9", model.KindContractViolation,
			"incorrect origin %q", s.clientData.Origin)
	}
	return assertStep10{assertStep9: s}, nil
}

// assertStep10 evaluates the token-binding decision table.
type assertStep10 struct {
	assertStep9
}

func (s assertStep10) next() (assertStep11, error) {
	err := model.CheckTokenBinding("assertion.step10", s.clientData.TokenBinding,
		s.req.TokenBindingID, s.req.TokenBindingIDSet)
	if err != nil {
		return assertStep11{}, err
	}
	return assertStep11{assertStep10: s}, nil
}

// assertStep11 parses the raw authenticator data and checks its RP-ID hash
// against SHA-256 of the configured RP ID.
type assertStep11 struct {
	assertStep10
}

func (s assertStep11) next() (assertStep12, error) {
	authData, err := model.ParseAuthenticatorData("assertion.step11", s.resp.AuthenticatorData)
	if err != nil {
		return assertStep12{}, err
	}
	if !bytes.Equal(model.SHA256([]byte(s.cfg.RPIdentity.ID)), authData.RPIDHash) {
		return assertStep12{}, model.NewError("assertion.step11", model.KindContractViolation,
			"authenticator data RP ID hash does not match SHA-256 of the configured RP ID")
	}
	return assertStep12{assertStep11: s, authData: authData}, nil
}

// assertStep12 requires the UV flag when user verification is REQUIRED.
type assertStep12 struct {
	assertStep11
	authData model.AuthenticatorData
}

func (s assertStep12) next() (assertStep13, error) {
	if s.req.UserVerification == model.UserVerificationRequired && !s.authData.Flags.UV {
		return assertStep13{}, model.NewError("assertion.step12", model.KindContractViolation,
			"user verification required but UV flag not set")
	}
	return assertStep13{assertStep12: s}, nil
}

// assertStep13 requires the UP flag when user verification is not REQUIRED.
type assertStep13 struct {
	assertStep12
}

func (s assertStep13) next() (assertStep14, error) {
	if s.req.UserVerification != model.UserVerificationRequired && !s.authData.Flags.UP {
		return assertStep14{}, model.NewError("assertion.step13", model.KindContractViolation,
			"user presence required but UP flag not set")
	}
	return assertStep14{assertStep13: s}, nil
}

// assertStep14 checks the extensions subset; a violation is downgraded to a
// warning when unrequested extensions are allowed by policy.
type assertStep14 struct {
	assertStep13
}

func (s assertStep14) next() (assertStep15, error) {
	err := model.CheckExtensionsSubset("assertion.step14", s.req.Extensions,
		s.resp.ClientExtensionResults, s.authData.Extensions)
	if err != nil {
		if !s.cfg.AllowUnrequestedExtensions {
			return assertStep15{}, err
		}
		s.warnings = append(s.warnings, "response contains unrequested extensions")
	}
	return assertStep15{assertStep14: s}, nil
}

// assertStep15 computes clientDataHash = SHA-256(clientDataJSON).
type assertStep15 struct {
	assertStep14
}

func (s assertStep15) next() (assertStep16, error) {
	return assertStep16{assertStep15: s, clientDataHash: model.SHA256(s.resp.ClientDataJSON)}, nil
}

// assertStep16 verifies the assertion signature over
// authenticatorData || clientDataHash under the stored credential public
// key, using the algorithm that key declares.
type assertStep16 struct {
	assertStep15
	clientDataHash []byte
}

func (s assertStep16) next() (assertStep17, error) {
	payload := model.ConcatBytes(s.resp.AuthenticatorData, s.clientDataHash)
	err := model.VerifyCOSESignature("assertion.step16", s.credential.COSEPublicKey.Public,
		s.credential.COSEPublicKey.Algorithm, payload, s.resp.Signature)
	if err != nil {
		return assertStep17{}, err
	}
	return assertStep17{assertStep16: s}, nil
}

// assertStep17 applies the signature-counter policy: the new counter is
// valid iff it is zero or strictly greater than the stored counter. When
// counter validation is configured off, a regression is surfaced on the
// result instead of failing the ceremony. The caller persists the new
// counter.
type assertStep17 struct {
	assertStep16
}

func (s assertStep17) finish() (*AssertionResult, error) {
	c := s.authData.SignCount
	stored := s.credential.SignatureCount
	counterValid := c == 0 || c > stored

	if !counterValid {
		if s.cfg.ValidateSignatureCounter {
			return nil, model.NewErrorf("assertion.step17", model.KindContractViolation,
				"signature counter regression: stored %d, got %d", stored, c)
		}
		s.warnings = append(s.warnings, "signature counter regression detected")
	}

	return &AssertionResult{
		Username:              s.username,
		UserHandle:            append([]byte{}, s.userHandle...),
		CredentialID:          append([]byte{}, s.resp.CredentialID...),
		SignatureCount:        c,
		SignatureCounterValid: counterValid,
		Success:               true,
		Warnings:              s.warnings,
	}, nil
}
