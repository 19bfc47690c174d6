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

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/webauthn-core/pkg/webauthn"
	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

// assertionVector is the JSON test-vector shape for an assertion ceremony:
// the stored pending request, the stored credential being asserted, and the
// recorded client response. All byte fields are Base64URL.
type assertionVector struct {
	Challenge        string         `json:"challenge"`
	Username         string         `json:"username"`
	UserVerification string         `json:"userVerification,omitempty"`
	Extensions       map[string]any `json:"extensions,omitempty"`

	StoredCredential struct {
		CredentialID   string `json:"credentialId"`
		UserHandle     string `json:"userHandle"`
		COSEPublicKey  string `json:"cosePublicKey"`
		SignatureCount uint32 `json:"signatureCount"`
	} `json:"storedCredential"`

	CredentialID      string `json:"credentialId"`
	UserHandle        string `json:"userHandle,omitempty"`
	ClientDataJSON    string `json:"clientDataJSON"`
	AuthenticatorData string `json:"authenticatorData"`
	Signature         string `json:"signature"`
}

// assertCmd verifies a recorded assertion response
var assertCmd = &cobra.Command{
	Use:   "assert <vector.json>",
	Short: "Verify a recorded assertion response",
	Long: `Runs the assertion pipeline (WebAuthn §7.2) over a JSON test vector
containing the issued challenge, the stored credential, and the
authenticator's assertion response, then prints the verified result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var vec assertionVector
		if err := json.Unmarshal(raw, &vec); err != nil {
			return fmt.Errorf("malformed test vector: %w", err)
		}

		fields := map[string]string{
			"challenge":                      vec.Challenge,
			"storedCredential.credentialId":  vec.StoredCredential.CredentialID,
			"storedCredential.userHandle":    vec.StoredCredential.UserHandle,
			"storedCredential.cosePublicKey": vec.StoredCredential.COSEPublicKey,
			"credentialId":                   vec.CredentialID,
			"clientDataJSON":                 vec.ClientDataJSON,
			"authenticatorData":              vec.AuthenticatorData,
			"signature":                      vec.Signature,
		}
		decoded := map[string]model.ByteArray{}
		for name, value := range fields {
			b, err := model.DecodeBase64URL(value)
			if err != nil {
				return fmt.Errorf("malformed %s: %w", name, err)
			}
			decoded[name] = b
		}

		var coseKey model.COSEKey
		if err := coseKey.UnmarshalCBOR(decoded["storedCredential.cosePublicKey"].Bytes()); err != nil {
			return fmt.Errorf("malformed stored COSE public key: %w", err)
		}

		repo := webauthn.NewMemoryCredentialRepository()
		repo.AddUser(vec.Username, decoded["storedCredential.userHandle"].Bytes())
		repo.AddCredential(model.RegisteredCredential{
			CredentialID:   decoded["storedCredential.credentialId"].Bytes(),
			UserHandle:     decoded["storedCredential.userHandle"].Bytes(),
			COSEPublicKey:  coseKey,
			SignatureCount: vec.StoredCredential.SignatureCount,
		})

		svc, err := newService(repo)
		if err != nil {
			return err
		}

		var userHandle []byte
		if vec.UserHandle != "" {
			b, err := model.DecodeBase64URL(vec.UserHandle)
			if err != nil {
				return fmt.Errorf("malformed userHandle: %w", err)
			}
			userHandle = b.Bytes()
		}

		result, err := svc.FinishAssertion(context.Background(),
			webauthn.AssertionRequest{
				Challenge:        decoded["challenge"],
				Username:         vec.Username,
				UserVerification: model.UserVerificationRequirement(vec.UserVerification),
				Extensions:       vec.Extensions,
			},
			webauthn.AssertionResponse{
				CredentialID:      decoded["credentialId"].Bytes(),
				UserHandle:        userHandle,
				ClientDataJSON:    decoded["clientDataJSON"].Bytes(),
				AuthenticatorData: decoded["authenticatorData"].Bytes(),
				Signature:         decoded["signature"].Bytes(),
			})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(map[string]any{
			"username":              result.Username,
			"credentialId":          model.NewByteArray(result.CredentialID).Base64URL(),
			"signatureCount":        result.SignatureCount,
			"signatureCounterValid": result.SignatureCounterValid,
			"warnings":              result.Warnings,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
