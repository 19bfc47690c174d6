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
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the ceremony engine can produce. Every
// step either succeeds silently or fails with exactly one kind.
type ErrorKind int

const (
	// KindMalformedInput covers JSON/CBOR/Base64URL/X.509 decode failures,
	// structurally invalid fields, and missing required fields.
	KindMalformedInput ErrorKind = iota

	// KindContractViolation covers a step contract that was evaluated but
	// not satisfied: wrong type, wrong challenge, wrong origin, bad token
	// binding, non-subset extensions, counter regression, signature
	// mismatch, duplicate credential ID, untrusted attestation when not
	// permitted.
	KindContractViolation

	// KindUnsupportedFormat covers an attestation fmt outside the
	// supported set, an ECDAA arm, or a non-P-256 key in fido-u2f.
	KindUnsupportedFormat

	// KindUnknownCredential covers an assertion lookup that could not
	// resolve a credential.
	KindUnknownCredential

	// KindUnknownUser covers an assertion lookup that could not resolve a
	// username or user handle.
	KindUnknownUser

	// KindInternal covers programmer errors that should be impossible on
	// a well-configured deployment (e.g. a cryptographic provider call
	// that itself failed for reasons unrelated to the input).
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedInput:
		return "MalformedInput"
	case KindContractViolation:
		return "ContractViolation"
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindUnknownCredential:
		return "UnknownCredential"
	case KindUnknownUser:
		return "UnknownUser"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// CeremonyError is the sole error type the ceremony engine returns. Op names
// the pipeline step that raised it (e.g. "registration.step5") so failures
// are auditable against the WebAuthn section they implement.
type CeremonyError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *CeremonyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CeremonyError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a CeremonyError against another CeremonyError with
// the same Kind, or against its wrapped error.
func (e *CeremonyError) Is(target error) bool {
	var ce *CeremonyError
	if errors.As(target, &ce) {
		return e.Kind == ce.Kind
	}
	return errors.Is(e.Err, target)
}

// newError builds a classified CeremonyError from a step name and message.
func newError(op string, kind ErrorKind, msg string) error {
	return &CeremonyError{Op: op, Kind: kind, Err: errors.New(msg)}
}

// newErrorf is newError with fmt.Sprintf-style formatting.
func newErrorf(op string, kind ErrorKind, format string, args ...any) error {
	return &CeremonyError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// wrapError classifies an existing error without discarding it, used when a
// codec or crypto primitive already returned a Go error we need to surface
// with a pipeline-step-qualified kind.
func wrapError(op string, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &CeremonyError{Op: op, Kind: kind, Err: err}
}

// NewError is the exported form of newError, for use by sibling packages
// (e.g. pkg/webauthn/attestation) that need to raise classified errors
// without reaching into this package's internals.
func NewError(op string, kind ErrorKind, msg string) error {
	return newError(op, kind, msg)
}

// NewErrorf is the exported form of newErrorf.
func NewErrorf(op string, kind ErrorKind, format string, args ...any) error {
	return newErrorf(op, kind, format, args...)
}

// WrapError is the exported form of wrapError.
func WrapError(op string, kind ErrorKind, err error) error {
	return wrapError(op, kind, err)
}

// KindOf reports the ErrorKind of err, or KindInternal if err is not a
// CeremonyError (which should never happen for errors returned by this
// package).
func KindOf(err error) ErrorKind {
	var ce *CeremonyError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a CeremonyError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *CeremonyError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}
