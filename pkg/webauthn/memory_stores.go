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
	"encoding/hex"
	"sync"
)

// MemoryCredentialRepository is an in-memory CredentialRepository intended
// for development, demos and tests only. Indexing is by hex-encoded byte
// keys behind a single RWMutex.
type MemoryCredentialRepository struct {
	mu               sync.RWMutex
	byCredentialID   map[string]RegisteredCredential
	byUserHandle     map[string][]string // userHandle hex -> credentialID hex list
	usernameToHandle map[string]string
	handleToUsername map[string]string
}

// NewMemoryCredentialRepository creates an empty in-memory repository.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{
		byCredentialID:   make(map[string]RegisteredCredential),
		byUserHandle:     make(map[string][]string),
		usernameToHandle: make(map[string]string),
		handleToUsername: make(map[string]string),
	}
}

// AddUser registers a username <-> opaque user-handle mapping; this is the
// only user-account semantics this core retains.
func (s *MemoryCredentialRepository) AddUser(username string, userHandle []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handleKey := hex.EncodeToString(userHandle)
	s.usernameToHandle[username] = handleKey
	s.handleToUsername[handleKey] = username
}

// AddCredential stores a new RegisteredCredential, as a caller would after a
// successful registration ceremony.
func (s *MemoryCredentialRepository) AddCredential(cred RegisteredCredential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credKey := hex.EncodeToString(cred.CredentialID)
	handleKey := hex.EncodeToString(cred.UserHandle)
	s.byCredentialID[credKey] = cred
	s.byUserHandle[handleKey] = append(s.byUserHandle[handleKey], credKey)
}

// UpdateSignatureCount persists a new signature counter value for a
// credential; the caller is responsible for calling this after a
// successful assertion (WebAuthn §7.2 step 17).
func (s *MemoryCredentialRepository) UpdateSignatureCount(credentialID []byte, count uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credKey := hex.EncodeToString(credentialID)
	if cred, ok := s.byCredentialID[credKey]; ok {
		cred.SignatureCount = count
		s.byCredentialID[credKey] = cred
	}
}

func (s *MemoryCredentialRepository) Lookup(ctx context.Context, credentialID, userHandle []byte) (*RegisteredCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byCredentialID[hex.EncodeToString(credentialID)]
	if !ok {
		return nil, nil
	}
	if hex.EncodeToString(cred.UserHandle) != hex.EncodeToString(userHandle) {
		return nil, nil
	}
	out := cred
	return &out, nil
}

func (s *MemoryCredentialRepository) LookupAll(ctx context.Context, credentialID []byte) ([]RegisteredCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byCredentialID[hex.EncodeToString(credentialID)]
	if !ok {
		return nil, nil
	}
	return []RegisteredCredential{cred}, nil
}

func (s *MemoryCredentialRepository) GetCredentialIDsForUsername(ctx context.Context, username string) ([]PublicKeyCredentialDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handleKey, ok := s.usernameToHandle[username]
	if !ok {
		return nil, nil
	}
	var out []PublicKeyCredentialDescriptor
	for _, credKey := range s.byUserHandle[handleKey] {
		cred := s.byCredentialID[credKey]
		out = append(out, PublicKeyCredentialDescriptor{CredentialID: cred.CredentialID})
	}
	return out, nil
}

func (s *MemoryCredentialRepository) GetUserHandleForUsername(ctx context.Context, username string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handleKey, ok := s.usernameToHandle[username]
	if !ok {
		return nil, nil
	}
	b, err := hex.DecodeString(handleKey)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *MemoryCredentialRepository) GetUsernameForUserHandle(ctx context.Context, userHandle []byte) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username, ok := s.handleToUsername[hex.EncodeToString(userHandle)]
	if !ok {
		return "", nil
	}
	return username, nil
}
