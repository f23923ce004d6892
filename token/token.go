// Package token is used to validate identity tokens and to mint session tokens
package token

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cloudclip/auth/config"
	"github.com/cloudclip/auth/connect"
	"github.com/cloudclip/auth/errors"
	"github.com/cloudclip/auth/schemas"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Details is a struct that contains the data that need to be used when creating tokens
type Details struct {
	Token     *string
	ExpiresIn *int64
	TokenUUID string
	UserID    string
}

// IDToken is a struct that is used to validate the identity tokens that callers present
type IDToken struct {
	Conn *connect.Connector
	Env  *config.Env
}

// Validate parses and verifies an identity token and returns the principal it carries
func (i *IDToken) Validate(ctx context.Context, tokenStr string) (principal *schemas.Principal, err error) {
	decodedPublicKey, err := base64.StdEncoding.DecodeString(i.Env.IDTokenPublicKey)
	if err != nil {
		return nil, err
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(decodedPublicKey)
	if err != nil {
		return nil, err
	}

	parsedToken, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected method : %s", t.Header["alg"])
		}

		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrUnauthenticated, err)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, errors.ErrUnauthenticated
	}

	principal = &schemas.Principal{
		ID:    fmt.Sprint(claims["sub"]),
		Email: fmt.Sprint(claims["email"]),
		Name:  fmt.Sprint(claims["name"]),
	}
	if _, err := uuid.Parse(principal.ID); err != nil {
		return nil, errors.ErrUnauthenticated
	}
	if claims["email"] == nil {
		principal.Email = ""
	}
	if claims["name"] == nil {
		principal.Name = ""
	}

	if tokenUUID, ok := claims["token_uuid"].(string); ok && tokenUUID != "" {
		val := i.Conn.R.Session.Get(ctx, tokenUUID).Val()
		if val == "" {
			return nil, errors.ErrUnauthenticated
		}
	}

	return principal, nil
}

// SessionToken is struct that manages the session token minted after a verified login
type SessionToken struct {
	Env *config.Env
}

// Create is a function that is used to create a new session token
func (s *SessionToken) Create(userID string) (tokenDetails *Details, err error) {
	uid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tokenDetails = &Details{
		ExpiresIn: new(int64),
		Token:     new(string),
	}
	*tokenDetails.ExpiresIn = now.Add(s.Env.SessionTokenExpires).Unix()
	tokenDetails.TokenUUID = uid.String()
	tokenDetails.UserID = userID

	claims := make(jwt.MapClaims)
	claims["sub"] = userID
	claims["purpose"] = "login"
	claims["token_uuid"] = tokenDetails.TokenUUID
	claims["exp"] = *tokenDetails.ExpiresIn
	claims["iat"] = now.Unix()
	claims["nbf"] = now.Unix()

	*tokenDetails.Token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Env.SessionSecret))
	if err != nil {
		return nil, err
	}

	return tokenDetails, nil
}

// Validate is a function that is used to validate the session token
func (s *SessionToken) Validate(tokenStr string) (token *jwt.Token, err error) {
	token, err = jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}

		return []byte(s.Env.SessionSecret), nil
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// MintSessionToken creates a session token for the given user
func (s *SessionToken) MintSessionToken(_ context.Context, userID string) (string, error) {
	tokenDetails, err := s.Create(userID)
	if err != nil {
		return "", err
	}

	return *tokenDetails.Token, nil
}
