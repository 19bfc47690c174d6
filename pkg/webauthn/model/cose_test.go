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
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCOSEKey_ES256(t *testing.T) {
	keyBytes, priv := testCOSEKeyES256(t)

	var key COSEKey
	require.NoError(t, key.UnmarshalCBOR(keyBytes))
	assert.Equal(t, AlgES256, key.Algorithm)

	pub, ok := key.Public.(*ecdsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, 0, pub.X.Cmp(priv.PublicKey.X))
	assert.Equal(t, 0, pub.Y.Cmp(priv.PublicKey.Y))
	assert.Equal(t, keyBytes, key.Raw)
}

func TestCOSEKey_RS256(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keyBytes, err := cbor.Marshal(map[int64]any{
		1: 3, 3: -257, -1: priv.PublicKey.N.Bytes(), -2: []byte{0x01, 0x00, 0x01},
	})
	require.NoError(t, err)

	var key COSEKey
	require.NoError(t, key.UnmarshalCBOR(keyBytes))
	assert.Equal(t, AlgRS256, key.Algorithm)

	pub, ok := key.Public.(*rsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, 0, pub.N.Cmp(priv.PublicKey.N))
	assert.Equal(t, 65537, pub.E)
}

func TestCOSEKey_EdDSA(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	keyBytes, err := cbor.Marshal(map[int64]any{
		1: 1, 3: -8, -1: 6, -2: []byte(pub),
	})
	require.NoError(t, err)

	var key COSEKey
	require.NoError(t, key.UnmarshalCBOR(keyBytes))
	assert.Equal(t, AlgEdDSA, key.Algorithm)

	edPub, ok := key.Public.(ed25519.PublicKey)
	require.True(t, ok)
	assert.Equal(t, []byte(pub), []byte(edPub))
}

func TestCOSEKey_Malformed(t *testing.T) {
	tests := []struct {
		name string
		m    map[int64]any
	}{
		{name: "missing kty", m: map[int64]any{3: -7, -1: 1, -2: make([]byte, 32), -3: make([]byte, 32)}},
		{name: "missing alg", m: map[int64]any{1: 2, -1: 1, -2: make([]byte, 32), -3: make([]byte, 32)}},
		{name: "missing x", m: map[int64]any{1: 2, 3: -7, -1: 1, -3: make([]byte, 32)}},
		{name: "unsupported kty", m: map[int64]any{1: 99, 3: -7}},
		{name: "unsupported EC2 curve", m: map[int64]any{1: 2, 3: -7, -1: 8, -2: make([]byte, 32), -3: make([]byte, 32)}},
		{name: "unsupported OKP curve", m: map[int64]any{1: 1, 3: -8, -1: 1, -2: make([]byte, 32)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyBytes, err := cbor.Marshal(tt.m)
			require.NoError(t, err)
			var key COSEKey
			assert.Error(t, key.UnmarshalCBOR(keyBytes))
		})
	}
}

func TestCOSEKey_NotAMap(t *testing.T) {
	keyBytes, err := cbor.Marshal([]int{1, 2, 3})
	require.NoError(t, err)
	var key COSEKey
	assert.Error(t, key.UnmarshalCBOR(keyBytes))
}

func TestUncompressedECPoint(t *testing.T) {
	_, priv := testCOSEKeyES256(t)
	point := UncompressedECPoint(&priv.PublicKey)
	require.Len(t, point, 65)
	assert.Equal(t, byte(0x04), point[0])

	x := make([]byte, 32)
	y := make([]byte, 32)
	priv.PublicKey.X.FillBytes(x)
	priv.PublicKey.Y.FillBytes(y)
	assert.Equal(t, x, point[1:33])
	assert.Equal(t, y, point[33:])
}
