package services

import (
	"context"
	"time"

	"github.com/cloudclip/auth/connect"
	"github.com/cloudclip/auth/errors"
	"github.com/cloudclip/auth/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialStore persists the passkeys registered by each user, keyed by
// credential ID so that re-registering an authenticator is an upsert
type CredentialStore interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Credential, error)
	Get(ctx context.Context, userID uuid.UUID, credentialID string) (*models.Credential, error)
	Put(ctx context.Context, credential models.Credential) error
	UpdateCounter(ctx context.Context, userID uuid.UUID, credentialID string, counter uint32) error
}

// Credentials is the postgres backed credential store
type Credentials struct {
	Conn *connect.Connector
}

// ListForUser returns every passkey registered by the given user
func (s *Credentials) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Credential, error) {
	var credentials []models.Credential
	err := s.Conn.DB.WithContext(ctx).Where(&models.Credential{
		UserID: &userID,
	}).Find(&credentials).Error
	if err != nil {
		return nil, err
	}

	return credentials, nil
}

// Get returns the passkey of the user with the given credential ID
func (s *Credentials) Get(ctx context.Context, userID uuid.UUID, credentialID string) (*models.Credential, error) {
	var credential models.Credential
	err := s.Conn.DB.WithContext(ctx).Where(&models.Credential{
		CredentialID: credentialID,
		UserID:       &userID,
	}).First(&credential).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCredentialNotFound
		}

		return nil, err
	}

	return &credential, nil
}

// Put creates or overwrites the passkey record keyed by credential ID
func (s *Credentials) Put(ctx context.Context, credential models.Credential) error {
	return s.Conn.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "credential_id"},
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"public_key", "counter", "transports", "updated_at"}),
	}).Create(&credential).Error
}

// UpdateCounter overwrites the signature counter of the stored passkey; the
// monotonicity check belongs to the login flow, not the store
func (s *Credentials) UpdateCounter(ctx context.Context, userID uuid.UUID, credentialID string, counter uint32) error {
	return s.Conn.DB.WithContext(ctx).Model(&models.Credential{}).Where(&models.Credential{
		CredentialID: credentialID,
		UserID:       &userID,
	}).Updates(map[string]interface{}{
		"counter":    counter,
		"updated_at": time.Now().UTC(),
	}).Error
}
