package models

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// Credential represents a registered passkey in the relational database.
// CredentialID and PublicKey hold base64url encoded authenticator bytes and
// the composite primary key makes re-registering the same authenticator an
// overwrite instead of a duplicate.
type Credential struct {
	CredentialID string     `gorm:"type:varchar(1024);primaryKey"`
	UserID       *uuid.UUID `gorm:"type:uuid;primaryKey"`
	PublicKey    string     `gorm:"type:text;not null"`
	Counter      uint32     `gorm:"not null;default:0"`
	Transports   string     `gorm:"type:text;default:null"`
	CreatedAt    *time.Time `gorm:"not null;default:now()"`
	UpdatedAt    *time.Time `gorm:"not null;default:now()"`
}

// SetTransportHints stores the client reported transport hints as JSON
func (c *Credential) SetTransportHints(hints []string) {
	if len(hints) == 0 {
		c.Transports = ""
		return
	}

	val, err := json.Marshal(hints)
	if err != nil {
		return
	}

	c.Transports = string(val)
}

// TransportHints returns the stored transport hints
func (c *Credential) TransportHints() []string {
	if c.Transports == "" {
		return nil
	}

	var hints []string
	if err := json.Unmarshal([]byte(c.Transports), &hints); err != nil {
		return nil
	}

	return hints
}

// ToWebAuthn converts the stored record to the verification engine credential format
func (c *Credential) ToWebAuthn() (webauthn.Credential, error) {
	credentialID, err := base64.RawURLEncoding.DecodeString(c.CredentialID)
	if err != nil {
		return webauthn.Credential{}, err
	}

	publicKey, err := base64.RawURLEncoding.DecodeString(c.PublicKey)
	if err != nil {
		return webauthn.Credential{}, err
	}

	var transports []protocol.AuthenticatorTransport
	for _, hint := range c.TransportHints() {
		transports = append(transports, protocol.AuthenticatorTransport(hint))
	}

	return webauthn.Credential{
		ID:        credentialID,
		PublicKey: publicKey,
		Transport: transports,
		Authenticator: webauthn.Authenticator{
			SignCount: c.Counter,
		},
	}, nil
}

// Descriptor converts the stored record to an exclusion or allow list entry
func (c *Credential) Descriptor() (protocol.CredentialDescriptor, error) {
	credentialID, err := base64.RawURLEncoding.DecodeString(c.CredentialID)
	if err != nil {
		return protocol.CredentialDescriptor{}, err
	}

	var transports []protocol.AuthenticatorTransport
	for _, hint := range c.TransportHints() {
		transports = append(transports, protocol.AuthenticatorTransport(hint))
	}

	return protocol.CredentialDescriptor{
		Type:         protocol.PublicKeyCredentialType,
		CredentialID: credentialID,
		Transport:    transports,
	}, nil
}
