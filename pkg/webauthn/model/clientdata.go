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

import "encoding/json"

// TokenBindingStatus is the three-valued status of the Token Binding
// Protocol negotiation: present, supported, or not-supported.
type TokenBindingStatus string

const (
	TokenBindingPresent      TokenBindingStatus = "present"
	TokenBindingSupported    TokenBindingStatus = "supported"
	TokenBindingNotSupported TokenBindingStatus = "not-supported"
)

// TokenBindingInfo mirrors clientDataJSON's optional tokenBinding member. Id
// is present if and only if Status is TokenBindingPresent.
type TokenBindingInfo struct {
	Status TokenBindingStatus
	ID     string
	hasID  bool
}

// HasID reports whether an id was present on the wire.
func (t TokenBindingInfo) HasID() bool { return t.hasID }

// CollectedClientData is the parsed form of clientDataJSON (WebAuthn §5.10.1).
// Challenge, Origin, and Type are mandatory; all others are optional.
type CollectedClientData struct {
	Type                    string
	Challenge               string
	Origin                  string
	TokenBinding            *TokenBindingInfo
	ClientExtensionResults  map[string]any
	AuthenticatorExtensions map[string]any
}

// rawClientData is the wire-shape used for json.Unmarshal before field
// presence/required-ness is enforced by ParseCollectedClientData.
type rawClientData struct {
	Type         *string `json:"type"`
	Challenge    *string `json:"challenge"`
	Origin       *string `json:"origin"`
	TokenBinding *struct {
		Status string  `json:"status"`
		ID     *string `json:"id"`
	} `json:"tokenBinding"`
	ClientExtensionResults  map[string]any `json:"clientExtensionResults"`
	AuthenticatorExtensions map[string]any `json:"authenticatorExtensions"`
}

// ParseCollectedClientData UTF-8/JSON-decodes raw clientDataJSON bytes.
// Constructing a CollectedClientData without challenge, origin, or type
// fails MalformedInput; those three members are mandatory in WebAuthn
// §5.10.1.
func ParseCollectedClientData(op string, raw []byte) (CollectedClientData, error) {
	var rcd rawClientData
	if err := json.Unmarshal(raw, &rcd); err != nil {
		return CollectedClientData{}, wrapError(op, KindMalformedInput, err)
	}
	if rcd.Type == nil {
		return CollectedClientData{}, newError(op, KindMalformedInput, "clientData missing required field \"type\"")
	}
	if rcd.Challenge == nil {
		return CollectedClientData{}, newError(op, KindMalformedInput, "clientData missing required field \"challenge\"")
	}
	if rcd.Origin == nil {
		return CollectedClientData{}, newError(op, KindMalformedInput, "clientData missing required field \"origin\"")
	}

	ccd := CollectedClientData{
		Type:                    *rcd.Type,
		Challenge:               *rcd.Challenge,
		Origin:                  *rcd.Origin,
		ClientExtensionResults:  rcd.ClientExtensionResults,
		AuthenticatorExtensions: rcd.AuthenticatorExtensions,
	}
	if rcd.TokenBinding != nil {
		tb := &TokenBindingInfo{Status: TokenBindingStatus(rcd.TokenBinding.Status)}
		if rcd.TokenBinding.ID != nil {
			tb.ID = *rcd.TokenBinding.ID
			tb.hasID = true
		}
		ccd.TokenBinding = tb
	}
	return ccd, nil
}
