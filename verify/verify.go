// Package verify wraps the WebAuthn cryptographic checks behind a narrow
// engine interface so that the ceremony flows never touch attestation or
// assertion internals
package verify

import (
	"bytes"
	errs "errors"
	"fmt"
	"strings"

	"github.com/cloudclip/auth/errors"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// RelyingParty describes the relying party a ceremony is bound to
type RelyingParty struct {
	Name    string
	ID      string
	Origins []string
}

// User identifies the account a ceremony belongs to along with the
// credentials already bound to it
type User struct {
	ID          []byte
	Name        string
	DisplayName string
	Credentials []webauthn.Credential
}

// Registration is the verified outcome of a registration ceremony
type Registration struct {
	CredentialID []byte
	PublicKey    []byte
	Counter      uint32
	Transports   []string
}

// Authentication is the verified outcome of a login ceremony
type Authentication struct {
	NewCounter   uint32
	CloneWarning bool
}

// Authenticator is the stored credential state a login response is checked against
type Authenticator struct {
	CredentialID []byte
	PublicKey    []byte
	Counter      uint32
	Transports   []string
}

// Engine verifies attestation and assertion responses and builds the
// ceremony options that embed a fresh challenge
type Engine interface {
	RegistrationOptions(rp RelyingParty, user User, exclude []protocol.CredentialDescriptor) (*protocol.CredentialCreation, string, error)
	AuthenticationOptions(rp RelyingParty, user User) (*protocol.CredentialAssertion, string, error)
	VerifyRegistration(response []byte, expectedChallenge string, rp RelyingParty, user User) (*Registration, error)
	VerifyAuthentication(response []byte, expectedChallenge string, rp RelyingParty, user User, stored Authenticator) (*Authentication, error)
}

// WebAuthn is the production engine backed by the go-webauthn library
type WebAuthn struct{}

func (WebAuthn) instance(rp RelyingParty) (*webauthn.WebAuthn, error) {
	return webauthn.New(&webauthn.Config{
		RPDisplayName: rp.Name,
		RPID:          rp.ID,
		RPOrigins:     rp.Origins,
	})
}

type ceremonyUser struct {
	user User
}

func (c ceremonyUser) WebAuthnID() []byte {
	return c.user.ID
}

func (c ceremonyUser) WebAuthnName() string {
	return c.user.Name
}

func (c ceremonyUser) WebAuthnDisplayName() string {
	if c.user.DisplayName != "" {
		return c.user.DisplayName
	}

	return c.user.Name
}

func (c ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	return c.user.Credentials
}

func (c ceremonyUser) WebAuthnIcon() string {
	return ""
}

// RegistrationOptions builds attestation options with a fresh challenge; the
// returned challenge value is what the caller must persist for the finish step
func (w WebAuthn) RegistrationOptions(rp RelyingParty, user User, exclude []protocol.CredentialDescriptor) (*protocol.CredentialCreation, string, error) {
	wa, err := w.instance(rp)
	if err != nil {
		return nil, "", err
	}

	opts := []webauthn.RegistrationOption{
		webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
	}
	if len(exclude) > 0 {
		opts = append(opts, webauthn.WithExclusions(exclude))
	}

	creation, session, err := wa.BeginRegistration(ceremonyUser{user}, opts...)
	if err != nil {
		return nil, "", err
	}

	return creation, session.Challenge, nil
}

// AuthenticationOptions builds assertion options with a fresh challenge; the
// allow list is derived from the credentials carried on the user
func (w WebAuthn) AuthenticationOptions(rp RelyingParty, user User) (*protocol.CredentialAssertion, string, error) {
	wa, err := w.instance(rp)
	if err != nil {
		return nil, "", err
	}

	assertion, session, err := wa.BeginLogin(ceremonyUser{user},
		webauthn.WithUserVerification(protocol.VerificationPreferred),
	)
	if err != nil {
		return nil, "", err
	}

	return assertion, session.Challenge, nil
}

// VerifyRegistration checks an attestation response against the expected
// challenge, origins and relying party ID
func (w WebAuthn) VerifyRegistration(response []byte, expectedChallenge string, rp RelyingParty, user User) (*Registration, error) {
	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(response))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}

	wa, err := w.instance(rp)
	if err != nil {
		return nil, err
	}

	session := webauthn.SessionData{
		Challenge: expectedChallenge,
		UserID:    user.ID,
	}

	credential, err := wa.CreateCredential(ceremonyUser{user}, session, parsed)
	if err != nil {
		return nil, categorize(err)
	}

	var transports []string
	for _, transport := range credential.Transport {
		transports = append(transports, string(transport))
	}

	return &Registration{
		CredentialID: credential.ID,
		PublicKey:    credential.PublicKey,
		Counter:      credential.Authenticator.SignCount,
		Transports:   transports,
	}, nil
}

// VerifyAuthentication checks an assertion response against the expected
// challenge, origins, relying party ID and the stored credential state
func (w WebAuthn) VerifyAuthentication(response []byte, expectedChallenge string, rp RelyingParty, user User, stored Authenticator) (*Authentication, error) {
	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(response))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}

	wa, err := w.instance(rp)
	if err != nil {
		return nil, err
	}

	var transports []protocol.AuthenticatorTransport
	for _, hint := range stored.Transports {
		transports = append(transports, protocol.AuthenticatorTransport(hint))
	}

	user.Credentials = append(user.Credentials, webauthn.Credential{
		ID:        stored.CredentialID,
		PublicKey: stored.PublicKey,
		Transport: transports,
		Authenticator: webauthn.Authenticator{
			SignCount: stored.Counter,
		},
	})

	session := webauthn.SessionData{
		Challenge:        expectedChallenge,
		UserID:           user.ID,
		UserVerification: protocol.VerificationPreferred,
	}

	credential, err := wa.ValidateLogin(ceremonyUser{user}, session, parsed)
	if err != nil {
		return nil, categorize(err)
	}

	return &Authentication{
		NewCounter:   credential.Authenticator.SignCount,
		CloneWarning: credential.Authenticator.CloneWarning,
	}, nil
}

// categorize maps a library verification failure to a stable error kind by
// inspecting the failure reason
func categorize(err error) error {
	text := err.Error()

	var pErr *protocol.Error
	if errs.As(err, &pErr) {
		text = pErr.Details + " " + pErr.DevInfo
	}
	text = strings.ToLower(text)

	var kind error
	switch {
	case strings.Contains(text, "origin"):
		kind = errors.ErrExpectedOriginMismatch
	case strings.Contains(text, "rp hash") || strings.Contains(text, "rp id"):
		kind = errors.ErrExpectedRPIDMismatch
	case strings.Contains(text, "challenge"):
		kind = errors.ErrChallengeMismatch
	case strings.Contains(text, "user verification"):
		kind = errors.ErrUserVerificationFailed
	default:
		kind = errors.ErrVerificationFailed
	}

	return fmt.Errorf("%w: %v", kind, err)
}
