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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

const (
	testRPID   = "localhost"
	testOrigin = "https://localhost"
)

func testConfig(repo model.CredentialRepository) *model.Config {
	return &model.Config{
		RPIdentity:                model.RPIdentity{ID: testRPID, Name: "Test RP"},
		Origins:                   []string{testOrigin},
		AllowUntrustedAttestation: true,
		ValidateTypeAttribute:     true,
		ValidateSignatureCounter:  true,
		CredentialRepository:      repo,
	}
}

func genP256(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return priv
}

func coseES256(t *testing.T, priv *ecdsa.PrivateKey) []byte {
	t.Helper()
	x := make([]byte, 32)
	y := make([]byte, 32)
	priv.PublicKey.X.FillBytes(x)
	priv.PublicKey.Y.FillBytes(y)
	keyBytes, err := cbor.Marshal(map[int64]any{1: 2, 3: -7, -1: 1, -2: x, -3: y})
	require.NoError(t, err)
	return keyBytes
}

func signES256(t *testing.T, key *ecdsa.PrivateKey, payload []byte) []byte {
	t.Helper()
	digest := sha256.Sum256(payload)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	require.NoError(t, err)
	return sig
}

// rawAuthData assembles raw authenticator data bytes for rpID.
func rawAuthData(rpID string, flags byte, count uint32, aaguid, credID, coseKey []byte) []byte {
	out := append([]byte{}, model.SHA256([]byte(rpID))...)
	out = append(out, flags)
	counter := make([]byte, 4)
	binary.BigEndian.PutUint32(counter, count)
	out = append(out, counter...)
	if credID != nil {
		out = append(out, aaguid...)
		credLen := make([]byte, 2)
		binary.BigEndian.PutUint16(credLen, uint16(len(credID)))
		out = append(out, credLen...)
		out = append(out, credID...)
		out = append(out, coseKey...)
	}
	return out
}

func clientDataJSON(t *testing.T, ceremonyType string, challenge model.ByteArray, origin string, tokenBinding map[string]any) []byte {
	t.Helper()
	m := map[string]any{
		"type":      ceremonyType,
		"challenge": challenge.Base64URL(),
		"origin":    origin,
	}
	if tokenBinding != nil {
		m["tokenBinding"] = tokenBinding
	}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	return raw
}

func attestationCertTemplate() *x509.Certificate {
	return &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Country:            []string{"US"},
			Organization:       []string{"Example Vendor"},
			OrganizationalUnit: []string{"Authenticator Attestation"},
			CommonName:         "Example Attestation",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		BasicConstraintsValid: true,
	}
}

func selfSignedCert(t *testing.T, template *x509.Certificate, key *ecdsa.PrivateKey) *x509.Certificate {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

// regVector is a complete registration ceremony input set: the pending
// request pieces plus a correctly signed response.
type regVector struct {
	challenge      model.ByteArray
	clientData     []byte
	authDataRaw    []byte
	attObjCBOR     []byte
	credID         []byte
	credKey        *ecdsa.PrivateKey
	coseKey        []byte
	attCert        *x509.Certificate
	clientDataHash []byte
}

// newU2FVector builds a valid fido-u2f basic attestation registration.
func newU2FVector(t *testing.T) *regVector {
	t.Helper()
	attKey := genP256(t)
	credKey := genP256(t)
	attCert := selfSignedCert(t, attestationCertTemplate(), attKey)

	challenge := model.NewByteArray([]byte("registration-challenge-1"))
	clientData := clientDataJSON(t, "webauthn.create", challenge, testOrigin, nil)
	clientDataHash := model.SHA256(clientData)

	credID := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17}
	coseKey := coseES256(t, credKey)
	authData := rawAuthData(testRPID, 0x41, 0, make([]byte, 16), credID, coseKey)

	payload := model.ConcatBytes(
		[]byte{0x00},
		model.SHA256([]byte(testRPID)),
		clientDataHash,
		credID,
		model.UncompressedECPoint(&credKey.PublicKey),
	)
	sig := signES256(t, attKey, payload)

	attObj, err := cbor.Marshal(map[string]any{
		"fmt":      "fido-u2f",
		"authData": authData,
		"attStmt":  map[string]any{"sig": sig, "x5c": [][]byte{attCert.Raw}},
	})
	require.NoError(t, err)

	return &regVector{
		challenge:      challenge,
		clientData:     clientData,
		authDataRaw:    authData,
		attObjCBOR:     attObj,
		credID:         credID,
		credKey:        credKey,
		coseKey:        coseKey,
		attCert:        attCert,
		clientDataHash: clientDataHash,
	}
}

// newNoneVector builds a registration with fmt "none" and an empty attStmt.
func newNoneVector(t *testing.T, tamper func(authData []byte)) *regVector {
	t.Helper()
	credKey := genP256(t)

	challenge := model.NewByteArray([]byte("registration-challenge-2"))
	clientData := clientDataJSON(t, "webauthn.create", challenge, testOrigin, nil)

	credID := []byte{0x20, 0x21, 0x22, 0x23}
	coseKey := coseES256(t, credKey)
	authData := rawAuthData(testRPID, 0x41, 0, make([]byte, 16), credID, coseKey)
	if tamper != nil {
		tamper(authData)
	}

	attObj, err := cbor.Marshal(map[string]any{
		"fmt":      "none",
		"authData": authData,
		"attStmt":  map[string]any{},
	})
	require.NoError(t, err)

	return &regVector{
		challenge:   challenge,
		clientData:  clientData,
		authDataRaw: authData,
		attObjCBOR:  attObj,
		credID:      credID,
		credKey:     credKey,
		coseKey:     coseKey,
	}
}

func (v *regVector) request() RegistrationRequest {
	return RegistrationRequest{Challenge: v.challenge}
}

func (v *regVector) response() RegistrationResponse {
	return RegistrationResponse{
		ClientDataJSON:    v.clientData,
		AttestationObject: v.attObjCBOR,
	}
}

// assertVector is a complete assertion ceremony input set: a stored
// credential plus a correctly signed assertion response over it.
type assertVector struct {
	challenge  model.ByteArray
	username   string
	userHandle []byte
	credID     []byte
	credKey    *ecdsa.PrivateKey
	repo       *MemoryCredentialRepository

	clientData  []byte
	authDataRaw []byte
	signature   []byte
}

// newAssertVector stores a credential with storedCount and signs an
// assertion carrying newCount.
func newAssertVector(t *testing.T, storedCount, newCount uint32) *assertVector {
	t.Helper()
	credKey := genP256(t)
	credID := []byte{0x30, 0x31, 0x32, 0x33, 0x34, 0x35}
	userHandle := []byte{0x40, 0x41, 0x42, 0x43}
	username := "alice"

	var coseKey model.COSEKey
	require.NoError(t, coseKey.UnmarshalCBOR(coseES256(t, credKey)))

	repo := NewMemoryCredentialRepository()
	repo.AddUser(username, userHandle)
	repo.AddCredential(model.RegisteredCredential{
		CredentialID:   credID,
		UserHandle:     userHandle,
		COSEPublicKey:  coseKey,
		SignatureCount: storedCount,
	})

	challenge := model.NewByteArray([]byte("assertion-challenge-1"))
	clientData := clientDataJSON(t, "webauthn.get", challenge, testOrigin, nil)
	authData := rawAuthData(testRPID, 0x01, newCount, nil, nil, nil)
	sig := signES256(t, credKey, model.ConcatBytes(authData, model.SHA256(clientData)))

	return &assertVector{
		challenge:   challenge,
		username:    username,
		userHandle:  userHandle,
		credID:      credID,
		credKey:     credKey,
		repo:        repo,
		clientData:  clientData,
		authDataRaw: authData,
		signature:   sig,
	}
}

func (v *assertVector) request() AssertionRequest {
	return AssertionRequest{Challenge: v.challenge, Username: v.username}
}

func (v *assertVector) response() AssertionResponse {
	return AssertionResponse{
		CredentialID:      v.credID,
		ClientDataJSON:    v.clientData,
		AuthenticatorData: v.authDataRaw,
		Signature:         v.signature,
	}
}
