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
	"errors"
	"fmt"
	"time"

	"github.com/jeremyhahn/webauthn-core/pkg/correlation"
	"github.com/jeremyhahn/webauthn-core/pkg/logging"
	"github.com/jeremyhahn/webauthn-core/pkg/metrics"
	"github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

// Service wraps the two ceremony pipelines with logging, metrics and
// correlation-ID plumbing. The pipelines themselves are pure; everything
// observable about a ceremony goes through here.
type Service struct {
	config *model.Config
	logger *logging.Logger
}

// ServiceParams contains dependencies for creating a ceremony service.
type ServiceParams struct {
	// Config is the Relying Party configuration (required).
	Config *model.Config

	// Logger is optional; a default stderr logger is used when nil.
	Logger *logging.Logger
}

// NewService validates the configuration and creates a ceremony service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := params.Logger
	if logger == nil {
		logger = logging.NewLogger(params.Config.Debug)
	}
	return &Service{config: params.Config, logger: logger}, nil
}

// Config returns the service's immutable configuration.
func (s *Service) Config() *model.Config {
	return s.config
}

// FinishRegistration runs the registration pipeline (WebAuthn §7.1) and
// records the outcome.
func (s *Service) FinishRegistration(ctx context.Context, req RegistrationRequest, resp RegistrationResponse) (*RegistrationResult, error) {
	ctx = s.ensureCorrelation(ctx)
	start := time.Now()

	result, err := FinishRegistration(ctx, s.config, req, resp)
	s.record(ctx, metrics.CeremonyRegistration, start, err)
	if err != nil {
		return nil, err
	}

	metrics.RecordWarnings(metrics.CeremonyRegistration, len(result.Warnings))
	s.logger.Debugf("registration succeeded correlation_id=%s credential_id=%s attestation_type=%s trusted=%t",
		correlation.GetCorrelationID(ctx), model.NewByteArray(result.KeyID.CredentialID).Base64URL(),
		result.AttestationType, result.AttestationTrusted)
	return result, nil
}

// FinishAssertion runs the assertion pipeline (WebAuthn §7.2) and records
// the outcome.
func (s *Service) FinishAssertion(ctx context.Context, req AssertionRequest, resp AssertionResponse) (*AssertionResult, error) {
	ctx = s.ensureCorrelation(ctx)
	start := time.Now()

	result, err := FinishAssertion(ctx, s.config, req, resp)
	s.record(ctx, metrics.CeremonyAssertion, start, err)
	if err != nil {
		return nil, err
	}

	metrics.RecordWarnings(metrics.CeremonyAssertion, len(result.Warnings))
	s.logger.Debugf("assertion succeeded correlation_id=%s username=%s counter=%d counter_valid=%t",
		correlation.GetCorrelationID(ctx), result.Username, result.SignatureCount, result.SignatureCounterValid)
	return result, nil
}

func (s *Service) ensureCorrelation(ctx context.Context) context.Context {
	if correlation.GetCorrelationID(ctx) == "" {
		ctx = correlation.WithCorrelationID(ctx, correlation.NewID())
	}
	return ctx
}

func (s *Service) record(ctx context.Context, ceremony string, start time.Time, err error) {
	if err == nil {
		metrics.RecordCeremony(ceremony, metrics.StatusSuccess, time.Since(start))
		return
	}
	metrics.RecordCeremony(ceremony, metrics.StatusError, time.Since(start))

	step, kind := "unknown", model.KindInternal
	var ce *model.CeremonyError
	if errors.As(err, &ce) {
		step, kind = ce.Op, ce.Kind
	}
	metrics.RecordStepFailure(ceremony, step, kind.String())
	s.logger.Warnf("%s rejected at %s correlation_id=%s kind=%s: %v",
		ceremony, step, correlation.GetCorrelationID(ctx), kind, err)
}
