package verify

import (
	"encoding/json"
	"testing"

	"github.com/cloudclip/auth/errors"
	"github.com/descope/virtualwebauthn"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRPID   = "example.com"
	testRPName = "Example"
	testOrigin = "https://example.com"
)

func testRP() RelyingParty {
	return RelyingParty{
		Name:    testRPName,
		ID:      testRPID,
		Origins: []string{testOrigin},
	}
}

func testUser() User {
	return User{
		ID:          []byte("f2b4f3a0-21a5-4b8e-9be2-2f6d6fa9f001"),
		Name:        "user@example.com",
		DisplayName: "Test User",
	}
}

// register runs a complete registration ceremony against the engine with a
// virtual authenticator and returns the verified outcome
func register(t *testing.T, engine WebAuthn, authenticator *virtualwebauthn.Authenticator, credential *virtualwebauthn.Credential) *Registration {
	t.Helper()

	rp := virtualwebauthn.RelyingParty{
		Name:   testRPName,
		ID:     testRPID,
		Origin: testOrigin,
	}

	options, challenge, err := engine.RegistrationOptions(testRP(), testUser(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, challenge)
	require.Equal(t, challenge, options.Response.Challenge.String())

	optionsJSON, err := json.Marshal(options.Response)
	require.NoError(t, err)

	parsedOptions, err := virtualwebauthn.ParseAttestationOptions(string(optionsJSON))
	require.NoError(t, err)

	attestation := virtualwebauthn.CreateAttestationResponse(rp, *authenticator, *credential, *parsedOptions)

	registration, err := engine.VerifyRegistration([]byte(attestation), challenge, testRP(), testUser())
	require.NoError(t, err)

	authenticator.AddCredential(*credential)
	return registration
}

func TestRegistrationAndAuthentication(t *testing.T) {
	engine := WebAuthn{}
	authenticator := virtualwebauthn.NewAuthenticator()
	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)

	registration := register(t, engine, &authenticator, &credential)
	assert.Equal(t, credential.ID, registration.CredentialID)
	assert.NotEmpty(t, registration.PublicKey)

	user := testUser()
	user.Credentials = []webauthn.Credential{{
		ID:        registration.CredentialID,
		PublicKey: registration.PublicKey,
	}}

	options, challenge, err := engine.AuthenticationOptions(testRP(), user)
	require.NoError(t, err)
	require.Equal(t, challenge, options.Response.Challenge.String())

	optionsJSON, err := json.Marshal(options.Response)
	require.NoError(t, err)

	parsedOptions, err := virtualwebauthn.ParseAssertionOptions(string(optionsJSON))
	require.NoError(t, err)

	rp := virtualwebauthn.RelyingParty{
		Name:   testRPName,
		ID:     testRPID,
		Origin: testOrigin,
	}
	credential.Counter++
	assertion := virtualwebauthn.CreateAssertionResponse(rp, authenticator, credential, *parsedOptions)

	authentication, err := engine.VerifyAuthentication([]byte(assertion), challenge, testRP(), testUser(), Authenticator{
		CredentialID: registration.CredentialID,
		PublicKey:    registration.PublicKey,
		Counter:      registration.Counter,
	})
	require.NoError(t, err)
	assert.False(t, authentication.CloneWarning)
	assert.Equal(t, uint32(1), authentication.NewCounter)
}

func TestVerifyRegistrationMalformedResponse(t *testing.T) {
	engine := WebAuthn{}

	_, err := engine.VerifyRegistration([]byte("not json"), "challenge", testRP(), testUser())
	assert.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestVerifyRegistrationChallengeMismatch(t *testing.T) {
	engine := WebAuthn{}
	authenticator := virtualwebauthn.NewAuthenticator()
	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)

	rp := virtualwebauthn.RelyingParty{
		Name:   testRPName,
		ID:     testRPID,
		Origin: testOrigin,
	}

	options, _, err := engine.RegistrationOptions(testRP(), testUser(), nil)
	require.NoError(t, err)

	optionsJSON, err := json.Marshal(options.Response)
	require.NoError(t, err)

	parsedOptions, err := virtualwebauthn.ParseAttestationOptions(string(optionsJSON))
	require.NoError(t, err)

	attestation := virtualwebauthn.CreateAttestationResponse(rp, authenticator, credential, *parsedOptions)

	// verify against a challenge from a different ceremony
	_, other, err := engine.RegistrationOptions(testRP(), testUser(), nil)
	require.NoError(t, err)

	_, err = engine.VerifyRegistration([]byte(attestation), other, testRP(), testUser())
	assert.ErrorIs(t, err, errors.ErrChallengeMismatch)
}

func TestVerifyRegistrationOriginMismatch(t *testing.T) {
	engine := WebAuthn{}
	authenticator := virtualwebauthn.NewAuthenticator()
	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)

	// the response is produced for an origin the relying party does not expect
	rp := virtualwebauthn.RelyingParty{
		Name:   testRPName,
		ID:     testRPID,
		Origin: "https://evil.example.net",
	}

	options, challenge, err := engine.RegistrationOptions(testRP(), testUser(), nil)
	require.NoError(t, err)

	optionsJSON, err := json.Marshal(options.Response)
	require.NoError(t, err)

	parsedOptions, err := virtualwebauthn.ParseAttestationOptions(string(optionsJSON))
	require.NoError(t, err)

	attestation := virtualwebauthn.CreateAttestationResponse(rp, authenticator, credential, *parsedOptions)

	_, err = engine.VerifyRegistration([]byte(attestation), challenge, testRP(), testUser())
	assert.ErrorIs(t, err, errors.ErrExpectedOriginMismatch)
}

func TestVerifyAuthenticationRPIDMismatch(t *testing.T) {
	engine := WebAuthn{}
	authenticator := virtualwebauthn.NewAuthenticator()
	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)

	registration := register(t, engine, &authenticator, &credential)

	user := testUser()
	user.Credentials = []webauthn.Credential{{
		ID:        registration.CredentialID,
		PublicKey: registration.PublicKey,
	}}

	options, challenge, err := engine.AuthenticationOptions(testRP(), user)
	require.NoError(t, err)

	optionsJSON, err := json.Marshal(options.Response)
	require.NoError(t, err)

	parsedOptions, err := virtualwebauthn.ParseAssertionOptions(string(optionsJSON))
	require.NoError(t, err)

	// the assertion is signed over a different relying party identifier
	rp := virtualwebauthn.RelyingParty{
		Name:   testRPName,
		ID:     "other.example.net",
		Origin: testOrigin,
	}
	assertion := virtualwebauthn.CreateAssertionResponse(rp, authenticator, credential, *parsedOptions)

	_, err = engine.VerifyAuthentication([]byte(assertion), challenge, testRP(), testUser(), Authenticator{
		CredentialID: registration.CredentialID,
		PublicKey:    registration.PublicKey,
		Counter:      registration.Counter,
	})
	assert.ErrorIs(t, err, errors.ErrExpectedRPIDMismatch)
}
