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

// registrationVector is the JSON test-vector shape for a registration
// ceremony: the stored pending request plus the recorded client response.
// All byte fields are Base64URL.
type registrationVector struct {
	Challenge         string         `json:"challenge"`
	UserVerification  string         `json:"userVerification,omitempty"`
	Extensions        map[string]any `json:"extensions,omitempty"`
	ClientDataJSON    string         `json:"clientDataJSON"`
	AttestationObject string         `json:"attestationObject"`
}

// registerCmd verifies a recorded registration response
var registerCmd = &cobra.Command{
	Use:   "register <vector.json>",
	Short: "Verify a recorded registration response",
	Long: `Runs the 19-step registration pipeline (WebAuthn §7.1) over a JSON
test vector containing the issued challenge and the authenticator's
clientDataJSON and attestationObject, then prints the verified result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var vec registrationVector
		if err := json.Unmarshal(raw, &vec); err != nil {
			return fmt.Errorf("malformed test vector: %w", err)
		}

		challenge, err := model.DecodeBase64URL(vec.Challenge)
		if err != nil {
			return fmt.Errorf("malformed challenge: %w", err)
		}
		clientDataJSON, err := model.DecodeBase64URL(vec.ClientDataJSON)
		if err != nil {
			return fmt.Errorf("malformed clientDataJSON: %w", err)
		}
		attObj, err := model.DecodeBase64URL(vec.AttestationObject)
		if err != nil {
			return fmt.Errorf("malformed attestationObject: %w", err)
		}

		svc, err := newService(webauthn.NewMemoryCredentialRepository())
		if err != nil {
			return err
		}

		result, err := svc.FinishRegistration(context.Background(),
			webauthn.RegistrationRequest{
				Challenge:        challenge,
				UserVerification: model.UserVerificationRequirement(vec.UserVerification),
				Extensions:       vec.Extensions,
			},
			webauthn.RegistrationResponse{
				ClientDataJSON:    clientDataJSON.Bytes(),
				AttestationObject: attObj.Bytes(),
			})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(map[string]any{
			"credentialId":       model.NewByteArray(result.KeyID.CredentialID).Base64URL(),
			"attestationType":    result.AttestationType,
			"attestationTrusted": result.AttestationTrusted,
			"signatureCount":     result.SignatureCount,
			"warnings":           result.Warnings,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
