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

// CheckExtensionsSubset validates that both the client and authenticator
// extension identifiers are a subset of the requested extension
// identifiers. Absent authenticator extensions count as the empty set.
func CheckExtensionsSubset(op string, requested map[string]any, clientExtensionResults map[string]any, authenticatorExtensions map[string]any) error {
	requestedIDs := map[string]struct{}{}
	for id := range requested {
		requestedIDs[id] = struct{}{}
	}

	for id := range clientExtensionResults {
		if _, ok := requestedIDs[id]; !ok {
			return newErrorf(op, KindContractViolation, "client extension %q was not requested", id)
		}
	}
	for id := range authenticatorExtensions {
		if _, ok := requestedIDs[id]; !ok {
			return newErrorf(op, KindContractViolation, "authenticator extension %q was not requested", id)
		}
	}
	return nil
}
