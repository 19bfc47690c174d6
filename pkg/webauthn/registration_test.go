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
	"context"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/attestation"
	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

func TestFinishRegistration_FidoU2FBasic(t *testing.T) {
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())

	result, err := FinishRegistration(context.Background(), cfg, vec.request(), vec.response())
	require.NoError(t, err)

	assert.Equal(t, vec.credID, result.KeyID.CredentialID)
	assert.Equal(t, attestation.TypeBasic, result.AttestationType)
	assert.False(t, result.AttestationTrusted)
	assert.Nil(t, result.AttestationMetadata)
	assert.Contains(t, result.Warnings, "attestation is not trusted")

	// The COSE public key round-trips byte-equal through the result.
	assert.Equal(t, vec.coseKey, result.COSEPublicKey)
}

func TestFinishRegistration_UntrustedAttestationRejected(t *testing.T) {
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())
	cfg.AllowUntrustedAttestation = false

	_, err := FinishRegistration(context.Background(), cfg, vec.request(), vec.response())
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
}

func TestFinishRegistration_WrongOrigin(t *testing.T) {
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())

	// Same vector with C.origin edited; the challenge still matches, so the
	// ceremony reaches the origin check and fails there.
	var m map[string]any
	require.NoError(t, json.Unmarshal(vec.clientData, &m))
	m["origin"] = "https://root.evil"
	edited, err := json.Marshal(m)
	require.NoError(t, err)

	resp := vec.response()
	resp.ClientDataJSON = edited

	_, err = FinishRegistration(context.Background(), cfg, vec.request(), resp)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
	assert.Contains(t, err.Error(), "incorrect origin")
}

func TestFinishRegistration_WrongType(t *testing.T) {
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())

	var m map[string]any
	require.NoError(t, json.Unmarshal(vec.clientData, &m))
	m["type"] = "webauthn.get"
	edited, err := json.Marshal(m)
	require.NoError(t, err)

	resp := vec.response()
	resp.ClientDataJSON = edited

	_, err = FinishRegistration(context.Background(), cfg, vec.request(), resp)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
}

func TestFinishRegistration_WrongChallenge(t *testing.T) {
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())

	req := vec.request()
	req.Challenge = model.NewByteArray([]byte("a different challenge"))

	_, err := FinishRegistration(context.Background(), cfg, req, vec.response())
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
	assert.Contains(t, err.Error(), "challenge")
}

func TestFinishRegistration_DuplicateCredentialID(t *testing.T) {
	vec := newU2FVector(t)
	repo := NewMemoryCredentialRepository()
	repo.AddUser("bob", []byte{9})
	repo.AddCredential(model.RegisteredCredential{
		CredentialID: vec.credID,
		UserHandle:   []byte{9},
	})
	cfg := testConfig(repo)

	_, err := FinishRegistration(context.Background(), cfg, vec.request(), vec.response())
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
	assert.Contains(t, err.Error(), "already registered")
}

func TestFinishRegistration_BitFlipFailsSignature(t *testing.T) {
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())

	// Flip the first credential ID byte (offset 55), which the U2F signed
	// payload covers, and rebuild the CBOR attestation object, leaving the
	// signature untouched.
	tampered := append([]byte{}, vec.authDataRaw...)
	tampered[55] ^= 0x01

	var m map[string]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(vec.attObjCBOR, &m))
	authDataCBOR, err := cbor.Marshal(tampered)
	require.NoError(t, err)
	m["authData"] = authDataCBOR
	attObj, err := cbor.Marshal(m)
	require.NoError(t, err)

	resp := vec.response()
	resp.AttestationObject = attObj

	_, err = FinishRegistration(context.Background(), cfg, vec.request(), resp)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
}

func TestFinishRegistration_NoneFormat(t *testing.T) {
	vec := newNoneVector(t, nil)
	cfg := testConfig(NewMemoryCredentialRepository())

	result, err := FinishRegistration(context.Background(), cfg, vec.request(), vec.response())
	require.NoError(t, err)
	assert.Equal(t, attestation.TypeNone, result.AttestationType)
	assert.True(t, result.AttestationTrusted)
	assert.Empty(t, result.Warnings)
}

func TestFinishRegistration_NoneFormatSurvivesBitFlip(t *testing.T) {
	// With no attestation signature there is nothing for a counter bit-flip
	// to invalidate.
	vec := newNoneVector(t, func(authData []byte) {
		authData[36] ^= 0x01
	})
	cfg := testConfig(NewMemoryCredentialRepository())

	_, err := FinishRegistration(context.Background(), cfg, vec.request(), vec.response())
	assert.NoError(t, err)
}

func TestFinishRegistration_UnsupportedFormat(t *testing.T) {
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())

	var m map[string]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(vec.attObjCBOR, &m))
	fmtCBOR, err := cbor.Marshal("FIDO-U2F")
	require.NoError(t, err)
	m["fmt"] = fmtCBOR
	attObj, err := cbor.Marshal(m)
	require.NoError(t, err)

	resp := vec.response()
	resp.AttestationObject = attObj

	_, err = FinishRegistration(context.Background(), cfg, vec.request(), resp)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindUnsupportedFormat))
}

func TestFinishRegistration_UserVerificationRequired(t *testing.T) {
	// Flags carry UP but not UV; requiring user verification must fail.
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())

	req := vec.request()
	req.UserVerification = model.UserVerificationRequired

	_, err := FinishRegistration(context.Background(), cfg, req, vec.response())
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
	assert.Contains(t, err.Error(), "UV flag")
}

func TestFinishRegistration_UserPresenceRequired(t *testing.T) {
	// AT set but neither UP nor UV.
	vec := newNoneVector(t, func(authData []byte) {
		authData[32] = 0x40
	})
	cfg := testConfig(NewMemoryCredentialRepository())

	_, err := FinishRegistration(context.Background(), cfg, vec.request(), vec.response())
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
	assert.Contains(t, err.Error(), "UP flag")
}

func TestFinishRegistration_UnrequestedClientExtension(t *testing.T) {
	vec := newNoneVector(t, nil)
	cfg := testConfig(NewMemoryCredentialRepository())

	resp := vec.response()
	resp.ClientExtensionResults = map[string]any{"appid": true}

	_, err := FinishRegistration(context.Background(), cfg, vec.request(), resp)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContractViolation))
}

func TestFinishRegistration_TokenBinding(t *testing.T) {
	build := func(t *testing.T, tb map[string]any) (*regVector, RegistrationResponse) {
		vec := newNoneVector(t, nil)
		clientData := clientDataJSON(t, "webauthn.create", vec.challenge, testOrigin, tb)
		resp := vec.response()
		resp.ClientDataJSON = clientData
		return vec, resp
	}

	t.Run("present and equal", func(t *testing.T) {
		vec, resp := build(t, map[string]any{"status": "present", "id": "ys"})
		cfg := testConfig(NewMemoryCredentialRepository())
		req := vec.request()
		req.TokenBindingID = "ys"
		req.TokenBindingIDSet = true

		_, err := FinishRegistration(context.Background(), cfg, req, resp)
		assert.NoError(t, err)
	})

	t.Run("present and mismatched", func(t *testing.T) {
		vec, resp := build(t, map[string]any{"status": "present", "id": "ys"})
		cfg := testConfig(NewMemoryCredentialRepository())
		req := vec.request()
		req.TokenBindingID = "other"
		req.TokenBindingIDSet = true

		_, err := FinishRegistration(context.Background(), cfg, req, resp)
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.KindContractViolation))
	})
}

func TestFinishRegistration_TrustedPackedAttestation(t *testing.T) {
	// Packed basic attestation chaining to a configured vendor root is
	// trusted and produces no warnings.
	rootKey := genP256(t)
	rootTemplate := attestationCertTemplate()
	rootTemplate.Subject.CommonName = "Example Vendor Root CA"
	rootTemplate.IsCA = true
	rootTemplate.KeyUsage = x509.KeyUsageCertSign
	rootTemplate.NotBefore = time.Now().Add(-24 * time.Hour)
	rootTemplate.NotAfter = time.Now().Add(10 * 365 * 24 * time.Hour)
	root := selfSignedCert(t, rootTemplate, rootKey)

	leafKey := genP256(t)
	leafDER, err := x509.CreateCertificate(rand.Reader, attestationCertTemplate(), root, &leafKey.PublicKey, rootKey)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)

	credKey := genP256(t)
	challenge := model.NewByteArray([]byte("registration-challenge-3"))
	clientData := clientDataJSON(t, "webauthn.create", challenge, testOrigin, nil)
	clientDataHash := model.SHA256(clientData)

	coseKey := coseES256(t, credKey)
	authData := rawAuthData(testRPID, 0x41, 0, make([]byte, 16), []byte{7, 7, 7}, coseKey)
	sig := signES256(t, leafKey, model.ConcatBytes(authData, clientDataHash))

	attObj, err := cbor.Marshal(map[string]any{
		"fmt":      "packed",
		"authData": authData,
		"attStmt":  map[string]any{"alg": -7, "sig": sig, "x5c": [][]byte{leaf.Raw}},
	})
	require.NoError(t, err)

	cfg := testConfig(NewMemoryCredentialRepository())
	cfg.AllowUntrustedAttestation = false
	cfg.MetadataService = attestation.NewStaticMetadataService("Example Vendor", []*x509.Certificate{root})

	result, err := FinishRegistration(context.Background(), cfg,
		RegistrationRequest{Challenge: challenge},
		RegistrationResponse{ClientDataJSON: clientData, AttestationObject: attObj})
	require.NoError(t, err)
	assert.Equal(t, attestation.TypeBasic, result.AttestationType)
	assert.True(t, result.AttestationTrusted)
	require.NotNil(t, result.AttestationMetadata)
	assert.Equal(t, "Example Vendor", result.AttestationMetadata.Identifier)
	assert.Empty(t, result.Warnings)
}

func TestFinishRegistration_MalformedInputs(t *testing.T) {
	vec := newU2FVector(t)
	cfg := testConfig(NewMemoryCredentialRepository())

	t.Run("garbage clientDataJSON", func(t *testing.T) {
		resp := vec.response()
		resp.ClientDataJSON = []byte("{not json")
		_, err := FinishRegistration(context.Background(), cfg, vec.request(), resp)
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.KindMalformedInput))
	})

	t.Run("garbage attestationObject", func(t *testing.T) {
		resp := vec.response()
		resp.AttestationObject = []byte{0xff, 0x00}
		_, err := FinishRegistration(context.Background(), cfg, vec.request(), resp)
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.KindMalformedInput))
	})
}
