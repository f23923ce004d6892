package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudclip/auth/enums"
	"github.com/cloudclip/auth/errors"
	"github.com/cloudclip/auth/models"
	"github.com/cloudclip/auth/schemas"
	"github.com/cloudclip/auth/verify"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// TokenMinter mints the session token handed out after a verified login
type TokenMinter interface {
	MintSessionToken(ctx context.Context, userID string) (string, error)
}

// PassKeys orchestrates the registration and login ceremonies on top of the
// challenge store, the credential store and the verification engine
type PassKeys struct {
	RPName      string
	Origins     []string
	Challenges  ChallengeStore
	Credentials CredentialStore
	Users       UserDirectory
	Engine      verify.Engine
	Tokens      TokenMinter
}

func (p *PassKeys) relyingParty(rpc RPContext) verify.RelyingParty {
	return verify.RelyingParty{
		Name:    p.RPName,
		ID:      rpc.RPID,
		Origins: p.Origins,
	}
}

// BeginRegistration builds the attestation options for an authenticated
// principal and records the embedded challenge as the user's live challenge
func (p *PassKeys) BeginRegistration(ctx context.Context, principal schemas.Principal, rpc RPContext) (*protocol.CredentialCreation, error) {
	userID, err := uuid.Parse(principal.ID)
	if err != nil {
		return nil, errors.ErrUnauthenticated
	}

	if principal.Email != "" {
		if err := p.Users.EnsureEmail(ctx, userID, principal.Email); err != nil {
			return nil, err
		}
	}

	credentials, err := p.Credentials.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	exclude := make([]protocol.CredentialDescriptor, 0, len(credentials))
	for i := range credentials {
		descriptor, err := credentials[i].Descriptor()
		if err != nil {
			return nil, err
		}
		exclude = append(exclude, descriptor)
	}

	name := principal.Email
	if name == "" {
		name = principal.ID
	}

	options, challenge, err := p.Engine.RegistrationOptions(p.relyingParty(rpc), verify.User{
		ID:          []byte(principal.ID),
		Name:        name,
		DisplayName: principal.Name,
	}, exclude)
	if err != nil {
		return nil, err
	}

	err = p.Challenges.Issue(ctx, principal.ID, enums.ChallengeRegistration, challenge)
	if err != nil {
		return nil, err
	}

	return options, nil
}

// FinishRegistration consumes the pending registration challenge, verifies
// the attestation response and persists the new credential. The challenge is
// burned whether or not verification succeeds; only a missing payload leaves
// it intact for a retry.
func (p *PassKeys) FinishRegistration(ctx context.Context, principal schemas.Principal, rpc RPContext, credential []byte, transports []string) error {
	if len(credential) == 0 {
		return errors.ErrInvalidRequest
	}

	userID, err := uuid.Parse(principal.ID)
	if err != nil {
		return errors.ErrUnauthenticated
	}

	expected, err := p.Challenges.Consume(ctx, principal.ID, enums.ChallengeRegistration)
	if err != nil {
		return err
	}

	registration, err := p.Engine.VerifyRegistration(credential, expected, p.relyingParty(rpc), verify.User{
		ID: []byte(principal.ID),
	})
	if err != nil {
		return err
	}

	if len(transports) == 0 {
		transports = registration.Transports
	}

	record := models.Credential{
		CredentialID: base64.RawURLEncoding.EncodeToString(registration.CredentialID),
		UserID:       &userID,
		PublicKey:    base64.RawURLEncoding.EncodeToString(registration.PublicKey),
		Counter:      registration.Counter,
	}
	record.SetTransportHints(transports)

	return p.Credentials.Put(ctx, record)
}

// BeginAuthentication builds the assertion options for the account registered
// under the given email and records the embedded challenge
func (p *PassKeys) BeginAuthentication(ctx context.Context, email string, rpc RPContext) (*protocol.CredentialAssertion, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, errors.ErrMissingEmail
	}

	user, err := p.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	credentials, err := p.Credentials.ListForUser(ctx, *user.ID)
	if err != nil {
		return nil, err
	}
	if len(credentials) == 0 {
		return nil, errors.ErrCredentialNotFound
	}

	allowed := make([]webauthn.Credential, 0, len(credentials))
	for i := range credentials {
		converted, err := credentials[i].ToWebAuthn()
		if err != nil {
			return nil, err
		}
		allowed = append(allowed, converted)
	}

	options, challenge, err := p.Engine.AuthenticationOptions(p.relyingParty(rpc), verify.User{
		ID:          []byte(user.ID.String()),
		Name:        user.Email,
		DisplayName: user.Name,
		Credentials: allowed,
	})
	if err != nil {
		return nil, err
	}

	err = p.Challenges.Issue(ctx, user.ID.String(), enums.ChallengeAuthentication, challenge)
	if err != nil {
		return nil, err
	}

	return options, nil
}

// FinishAuthentication consumes the pending login challenge, verifies the
// assertion response against the stored credential, enforces the signature
// counter monotonicity and mints the session token for the user
func (p *PassKeys) FinishAuthentication(ctx context.Context, email, credentialID string, rpc RPContext, credential []byte) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || len(credential) == 0 {
		return "", errors.ErrInvalidRequest
	}

	if credentialID == "" {
		return "", errors.ErrInvalidCredentialID
	}
	credentialIDRaw, err := base64.RawURLEncoding.DecodeString(credentialID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidCredentialID, err)
	}

	user, err := p.Users.ByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	expected, err := p.Challenges.Consume(ctx, user.ID.String(), enums.ChallengeAuthentication)
	if err != nil {
		return "", err
	}

	record, err := p.Credentials.Get(ctx, *user.ID, credentialID)
	if err != nil {
		return "", err
	}

	publicKey, err := base64.RawURLEncoding.DecodeString(record.PublicKey)
	if err != nil {
		return "", err
	}

	authentication, err := p.Engine.VerifyAuthentication(credential, expected, p.relyingParty(rpc), verify.User{
		ID:          []byte(user.ID.String()),
		Name:        user.Email,
		DisplayName: user.Name,
	}, verify.Authenticator{
		CredentialID: credentialIDRaw,
		PublicKey:    publicKey,
		Counter:      record.Counter,
		Transports:   record.TransportHints(),
	})
	if err != nil {
		return "", err
	}

	// A non increasing counter means the response was produced by a clone of
	// the registered authenticator; the stored counter is never lowered and
	// the login is rejected.
	if authentication.CloneWarning {
		return "", fmt.Errorf("%w: counter %d did not advance past %d",
			errors.ErrCounterRegression, authentication.NewCounter, record.Counter)
	}

	err = p.Credentials.UpdateCounter(ctx, *user.ID, credentialID, authentication.NewCounter)
	if err != nil {
		return "", err
	}

	return p.Tokens.MintSessionToken(ctx, user.ID.String())
}
