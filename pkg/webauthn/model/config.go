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

import "fmt"

// RPIdentity names the Relying Party in registration ceremonies.
type RPIdentity struct {
	ID   string `yaml:"id" json:"id" mapstructure:"id"`
	Name string `yaml:"name" json:"name" mapstructure:"name"`
}

// Config is the single immutable configuration struct every ceremony takes
// as an explicit argument. There is no global or ambient state.
type Config struct {
	// RPIdentity is the Relying Party's id/name pair.
	RPIdentity RPIdentity `yaml:"rp" json:"rp" mapstructure:"rp"`

	// Origins is the ordered set of strings compared verbatim to
	// C.origin.
	Origins []string `yaml:"origins" json:"origins" mapstructure:"origins"`

	// PreferredPublicKeyAlgorithms is advisory for request construction;
	// it is never enforced by verification.
	PreferredPublicKeyAlgorithms []int64 `yaml:"preferred_algorithms" json:"preferred_algorithms" mapstructure:"preferred_algorithms"`

	// AllowUntrustedAttestation, when true, lets NONE/SELF_ATTESTATION and
	// BASIC-without-metadata still succeed, with attestationTrusted=false.
	AllowUntrustedAttestation bool `yaml:"allow_untrusted_attestation" json:"allow_untrusted_attestation" mapstructure:"allow_untrusted_attestation"`

	// AllowUnrequestedExtensions governs whether an extensions-subset
	// violation during assertion is downgraded to a warning.
	AllowUnrequestedExtensions bool `yaml:"allow_unrequested_extensions" json:"allow_unrequested_extensions" mapstructure:"allow_unrequested_extensions"`

	// ValidateTypeAttribute governs §7.2 step 7: warning vs. error.
	ValidateTypeAttribute bool `yaml:"validate_type_attribute" json:"validate_type_attribute" mapstructure:"validate_type_attribute"`

	// ValidateSignatureCounter governs §7.2 step 17: warning vs. error.
	ValidateSignatureCounter bool `yaml:"validate_signature_counter" json:"validate_signature_counter" mapstructure:"validate_signature_counter"`

	// MetadataService is the optional attestation trust capability. Nil
	// means BASIC attestation can never be trusted.
	MetadataService MetadataService `yaml:"-" json:"-" mapstructure:"-"`

	// CredentialRepository is the required user/credential lookup
	// capability.
	CredentialRepository CredentialRepository `yaml:"-" json:"-" mapstructure:"-"`

	// Debug enables verbose per-step logging.
	Debug bool `yaml:"debug" json:"debug" mapstructure:"debug"`
}

// Validate checks the configuration is complete enough to run ceremonies.
func (c *Config) Validate() error {
	if c.RPIdentity.ID == "" {
		return fmt.Errorf("RPIdentity.ID is required")
	}
	if c.RPIdentity.Name == "" {
		return fmt.Errorf("RPIdentity.Name is required")
	}
	if len(c.Origins) == 0 {
		return fmt.Errorf("at least one origin is required")
	}
	if c.CredentialRepository == nil {
		return fmt.Errorf("CredentialRepository is required")
	}
	return nil
}

// SetDefaults fills in PreferredPublicKeyAlgorithms (ES256, then RS256) when
// it is empty. It leaves the boolean policy fields untouched, so an unset
// ValidateTypeAttribute or ValidateSignatureCounter stays false.
func (c *Config) SetDefaults() {
	if len(c.PreferredPublicKeyAlgorithms) == 0 {
		c.PreferredPublicKeyAlgorithms = []int64{AlgES256, AlgRS256}
	}
}

// OriginAllowed reports whether origin is one of the configured origins,
// compared verbatim.
func (c *Config) OriginAllowed(origin string) bool {
	for _, o := range c.Origins {
		if o == origin {
			return true
		}
	}
	return false
}
