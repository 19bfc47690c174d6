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

// Package cli implements the webauthnctl command tree: demonstration
// tooling that loads a Relying Party configuration and runs one ceremony
// against a JSON test-vector file. The ceremony engine itself lives in
// pkg/webauthn; this package is wiring only.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/webauthn-core/pkg/logging"
	"github.com/jeremyhahn/webauthn-core/pkg/webauthn"
	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "webauthnctl",
	Short: "webauthnctl - WebAuthn ceremony verification tool",
	Long: `webauthnctl runs the server-side WebAuthn ceremony engine against
recorded credential responses: it verifies a registration
(navigator.credentials.create) or assertion (navigator.credentials.get)
response from a JSON test-vector file and prints the verified result or
the precise rejection reason.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.webauthnctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().String("rp-id", "localhost", "Relying Party ID")
	rootCmd.PersistentFlags().String("rp-name", "webauthn-core", "Relying Party display name")
	rootCmd.PersistentFlags().StringSlice("origin", []string{"https://localhost"},
		"allowed origin (repeatable)")
	rootCmd.PersistentFlags().Bool("allow-untrusted-attestation", true,
		"accept NONE/SELF/unverifiable BASIC attestation with attestationTrusted=false")
	rootCmd.PersistentFlags().Bool("validate-signature-counter", true,
		"treat a signature counter regression as fatal")

	_ = viper.BindPFlag("rp.id", rootCmd.PersistentFlags().Lookup("rp-id"))
	_ = viper.BindPFlag("rp.name", rootCmd.PersistentFlags().Lookup("rp-name"))
	_ = viper.BindPFlag("origins", rootCmd.PersistentFlags().Lookup("origin"))
	_ = viper.BindPFlag("allow_untrusted_attestation", rootCmd.PersistentFlags().Lookup("allow-untrusted-attestation"))
	_ = viper.BindPFlag("validate_signature_counter", rootCmd.PersistentFlags().Lookup("validate-signature-counter"))

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(assertCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in the config file and environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".webauthnctl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("$HOME")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("WEBAUTHNCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// newService builds a ceremony service from the resolved viper config and
// the given repository.
func newService(repo model.CredentialRepository) (*webauthn.Service, error) {
	cfg := &model.Config{
		RPIdentity: model.RPIdentity{
			ID:   viper.GetString("rp.id"),
			Name: viper.GetString("rp.name"),
		},
		Origins:                   viper.GetStringSlice("origins"),
		AllowUntrustedAttestation: viper.GetBool("allow_untrusted_attestation"),
		ValidateTypeAttribute:     true,
		ValidateSignatureCounter:  viper.GetBool("validate_signature_counter"),
		CredentialRepository:      repo,
		Debug:                     verbose,
	}
	return webauthn.NewService(webauthn.ServiceParams{
		Config: cfg,
		Logger: logging.NewLogger(verbose),
	})
}
