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
	"bytes"
	"context"
	"crypto/x509"

	"github.com/pkg/errors"

	wa "github.com/jeremyhahn/webauthn-core/pkg/webauthn/model"
)

// Resolver consults a caller-supplied MetadataService to decide whether an
// attestation trust path chains to a trusted root. It never embeds trust
// roots itself.
type Resolver struct {
	metadata wa.MetadataService
}

// NewResolver builds a Resolver over the given metadata service capability.
// A nil metadata service is valid: ResolveTrustAnchor then returns
// (nil, nil), meaning "no vendor metadata available," for every statement
// whose trust path parses; a trust-path parse error is still returned.
func NewResolver(metadata wa.MetadataService) *Resolver {
	return &Resolver{metadata: metadata}
}

// ResolveTrustAnchor parses x5c from the attestation statement via the
// format's Verifier, consults the metadata service with the parsed chain,
// and returns its answer unchanged.
func (r *Resolver) ResolveTrustAnchor(ctx context.Context, op string, v Verifier, obj wa.AttestationObject) (*wa.Attestation, error) {
	trustPath, err := v.TrustPath(obj)
	if err != nil {
		return nil, err
	}
	if r.metadata == nil {
		return nil, nil
	}
	result, err := r.metadata.GetAttestation(ctx, trustPath)
	if err != nil {
		return nil, wa.WrapError(op, wa.KindInternal, err)
	}
	return result, nil
}

// StaticMetadataService is an in-memory MetadataService reference
// implementation backed by a fixed root-certificate set: it reports a
// trust path as trusted when its top certificate chains to one of the
// configured roots.
type StaticMetadataService struct {
	roots      []*x509.Certificate
	identifier string
}

// NewStaticMetadataService builds a StaticMetadataService over a fixed set
// of trusted root certificates. identifier is the human-readable vendor
// name reported on a trusted match.
func NewStaticMetadataService(identifier string, roots []*x509.Certificate) *StaticMetadataService {
	return &StaticMetadataService{identifier: identifier, roots: roots}
}

// GetAttestation implements wa.MetadataService.
func (s *StaticMetadataService) GetAttestation(ctx context.Context, trustPath []*x509.Certificate) (*wa.Attestation, error) {
	if len(trustPath) == 0 {
		return nil, errors.New("empty attestation trust path")
	}
	top := trustPath[len(trustPath)-1]

	for _, root := range s.roots {
		if err := top.CheckSignatureFrom(root); err != nil {
			continue
		}
		if !bytes.Equal(root.RawSubject, top.RawIssuer) {
			continue
		}
		if top.NotBefore.Before(root.NotBefore) || top.NotAfter.After(root.NotAfter) {
			continue
		}
		return &wa.Attestation{Identifier: s.identifier, IsTrusted: true}, nil
	}

	return &wa.Attestation{Identifier: s.identifier, IsTrusted: false}, nil
}
