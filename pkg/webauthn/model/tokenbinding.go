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

// CheckTokenBinding evaluates the token-binding decision table: both client and RP
// binding are optional; the table is total, so every input pair yields
// either nil (accept) or a ContractViolation error (reject).
func CheckTokenBinding(op string, client *TokenBindingInfo, rpBindingID string, rpBindingPresent bool) error {
	if client == nil {
		if rpBindingPresent {
			return newError(op, KindContractViolation, "RP set but client absent")
		}
		return nil
	}

	switch client.Status {
	case TokenBindingSupported, TokenBindingNotSupported:
		if rpBindingPresent {
			return newError(op, KindContractViolation, "RP set but client does not use TB")
		}
		return nil

	case TokenBindingPresent:
		if !client.HasID() {
			return newError(op, KindContractViolation, "missing id")
		}
		if !rpBindingPresent {
			return newError(op, KindContractViolation, "client set but RP absent")
		}
		if client.ID != rpBindingID {
			return newError(op, KindContractViolation, "mismatch")
		}
		return nil

	default:
		return newErrorf(op, KindContractViolation, "unrecognized token binding status %q", client.Status)
	}
}
