package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cloudclip/auth/enums"
	"github.com/cloudclip/auth/errors"
	"github.com/cloudclip/auth/models"
	"github.com/google/uuid"
)

// In memory store implementations with the same contracts as the redis and
// postgres backed ones. Intended for development and testing only.

// MemoryChallenge is an in memory challenge store
type MemoryChallenge struct {
	mu      sync.Mutex
	records map[string]challengeRecord
}

// NewMemoryChallenge creates a new in memory challenge store
func NewMemoryChallenge() *MemoryChallenge {
	return &MemoryChallenge{
		records: make(map[string]challengeRecord),
	}
}

// Issue records value as the single live challenge of the user
func (s *MemoryChallenge) Issue(_ context.Context, userID string, purpose enums.ChallengePurpose, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[userID] = challengeRecord{
		Value:     value,
		Purpose:   purpose,
		CreatedAt: time.Now().UTC(),
	}

	return nil
}

// Consume removes and returns the live challenge of the user
func (s *MemoryChallenge) Consume(_ context.Context, userID string, purpose enums.ChallengePurpose) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[userID]
	if !ok {
		return "", errors.ErrChallengeMissing
	}
	delete(s.records, userID)

	if record.Purpose != purpose || record.Value == "" {
		return "", errors.ErrChallengeMismatch
	}

	return record.Value, nil
}

// MemoryCredentials is an in memory credential store
type MemoryCredentials struct {
	mu      sync.Mutex
	records map[string]map[string]models.Credential
}

// NewMemoryCredentials creates a new in memory credential store
func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{
		records: make(map[string]map[string]models.Credential),
	}
}

// ListForUser returns every passkey registered by the given user
func (s *MemoryCredentials) ListForUser(_ context.Context, userID uuid.UUID) ([]models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var credentials []models.Credential
	for _, credential := range s.records[userID.String()] {
		credentials = append(credentials, credential)
	}

	return credentials, nil
}

// Get returns the passkey of the user with the given credential ID
func (s *MemoryCredentials) Get(_ context.Context, userID uuid.UUID, credentialID string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.records[userID.String()][credentialID]
	if !ok {
		return nil, errors.ErrCredentialNotFound
	}

	return &credential, nil
}

// Put creates or overwrites the passkey record keyed by credential ID
func (s *MemoryCredentials) Put(_ context.Context, credential models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := credential.UserID.String()
	if s.records[userID] == nil {
		s.records[userID] = make(map[string]models.Credential)
	}
	s.records[userID][credential.CredentialID] = credential

	return nil
}

// UpdateCounter overwrites the signature counter of the stored passkey
func (s *MemoryCredentials) UpdateCounter(_ context.Context, userID uuid.UUID, credentialID string, counter uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.records[userID.String()][credentialID]
	if !ok {
		return errors.ErrCredentialNotFound
	}

	credential.Counter = counter
	now := time.Now().UTC()
	credential.UpdatedAt = &now
	s.records[userID.String()][credentialID] = credential

	return nil
}

// MemoryUsers is an in memory user directory
type MemoryUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	byID    map[string]models.User
}

// NewMemoryUsers creates a new in memory user directory
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byEmail: make(map[string]models.User),
		byID:    make(map[string]models.User),
	}
}

// Add seeds a user into the directory
func (s *MemoryUsers) Add(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	s.byEmail[user.Email] = user
	s.byID[user.ID.String()] = user
}

// ByEmail is a function that is used to get the user with the given email address
func (s *MemoryUsers) ByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, errors.ErrUserNotFound
	}

	return &user, nil
}

// EnsureEmail merges the lower cased email onto the stored user record
func (s *MemoryUsers) EnsureEmail(_ context.Context, userID uuid.UUID, email string) error {
	email = strings.ToLower(email)
	if email == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID.String()]
	if !ok {
		user = models.User{ID: &userID}
	}
	if user.Email != "" && user.Email != email {
		delete(s.byEmail, user.Email)
	}
	user.Email = email

	s.byID[userID.String()] = user
	s.byEmail[email] = user

	return nil
}
