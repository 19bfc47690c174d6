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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"math/big"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	wa "github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

func genP256(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return priv
}

// coseES256 encodes priv's public key as an ES256 COSE_Key.
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

// testAuthData builds raw authenticator data with attested credential data
// for rpID and the given credential key, then parses it.
func testAuthData(t *testing.T, rpID string, credID []byte, coseKey []byte) wa.AuthenticatorData {
	t.Helper()
	raw := rawAuthData(rpID, 0x41, 0, make([]byte, 16), credID, coseKey)
	ad, err := wa.ParseAuthenticatorData("test", raw)
	require.NoError(t, err)
	return ad
}

func rawAuthData(rpID string, flags byte, count uint32, aaguid, credID, coseKey []byte) []byte {
	out := append([]byte{}, wa.SHA256([]byte(rpID))...)
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

// attestationCertTemplate satisfies the packed §7.2.1 subject requirements,
// which the fido-u2f format tolerates as well.
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

// selfSignedCert issues template self-signed with key.
func selfSignedCert(t *testing.T, template *x509.Certificate, key *ecdsa.PrivateKey) *x509.Certificate {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func signES256(t *testing.T, key *ecdsa.PrivateKey, payload []byte) []byte {
	t.Helper()
	digest := sha256.Sum256(payload)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	require.NoError(t, err)
	return sig
}

func u2fPayload(authData wa.AuthenticatorData, clientDataHash []byte, credPub *ecdsa.PublicKey) []byte {
	return wa.ConcatBytes(
		[]byte{0x00},
		authData.RPIDHash,
		clientDataHash,
		authData.AttestedCredential.CredentialID,
		wa.UncompressedECPoint(credPub),
	)
}
