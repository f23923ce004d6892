// Package errors contians the error kinds of the passkey service and their http responders
package errors

import (
	errs "errors"
	"fmt"

	"github.com/cloudclip/auth/schemas"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//revive:disable

var (
	ErrInternalServerError    = fmt.Errorf("internal")
	ErrUnauthenticated        = fmt.Errorf("unauthenticated")
	ErrOriginUnresolvable     = fmt.Errorf("originUnresolvable")
	ErrOriginNotAllowed       = fmt.Errorf("originNotAllowed")
	ErrInvalidRequest         = fmt.Errorf("invalidRequest")
	ErrMissingEmail           = fmt.Errorf("missingEmail")
	ErrInvalidCredentialID    = fmt.Errorf("invalidCredentialId")
	ErrChallengeMissing       = fmt.Errorf("challengeMissing")
	ErrChallengeMismatch      = fmt.Errorf("challengeMismatch")
	ErrUserNotFound           = fmt.Errorf("userNotFound")
	ErrCredentialNotFound     = fmt.Errorf("credentialNotFound")
	ErrExpectedOriginMismatch = fmt.Errorf("expectedOriginMismatch")
	ErrExpectedRPIDMismatch   = fmt.Errorf("expectedRPIDMismatch")
	ErrUserVerificationFailed = fmt.Errorf("userVerificationFailed")
	ErrVerificationFailed     = fmt.Errorf("verificationFailed")
	ErrCounterRegression      = fmt.Errorf("counterRegression")
)

//revive:enable

type kind struct {
	status  int
	message string
}

var kinds = map[error]kind{
	ErrUnauthenticated:        {fiber.StatusUnauthorized, "Sign in before performing this action."},
	ErrOriginUnresolvable:     {fiber.StatusBadRequest, "The request origin could not be determined."},
	ErrOriginNotAllowed:       {fiber.StatusForbidden, "The request origin is not allowed."},
	ErrInvalidRequest:         {fiber.StatusBadRequest, "The passkey payload is missing or malformed."},
	ErrMissingEmail:           {fiber.StatusBadRequest, "An email address is required."},
	ErrInvalidCredentialID:    {fiber.StatusBadRequest, "The provided credential ID is not valid."},
	ErrChallengeMissing:       {fiber.StatusBadRequest, "No pending challenge was found, restart the ceremony."},
	ErrChallengeMismatch:      {fiber.StatusBadRequest, "The pending challenge is not valid, restart the ceremony."},
	ErrUserNotFound:           {fiber.StatusNotFound, "No account was found for the given email."},
	ErrCredentialNotFound:     {fiber.StatusNotFound, "No passkey is registered for this account."},
	ErrExpectedOriginMismatch: {fiber.StatusBadRequest, "The response was created for a different origin."},
	ErrExpectedRPIDMismatch:   {fiber.StatusBadRequest, "The response was created for a different relying party."},
	ErrUserVerificationFailed: {fiber.StatusBadRequest, "The passkey could not be verified."},
	ErrVerificationFailed:     {fiber.StatusBadRequest, "The passkey response failed verification."},
	ErrCounterRegression:      {fiber.StatusUnauthorized, "The passkey reported a stale signature counter."},
	ErrInternalServerError:    {fiber.StatusInternalServerError, "Internal server error."},
}

// verification kinds surfaced by the engine; login responses report these
// with an unauthorized status while registration responses use a bad request
var verificationKinds = []error{
	ErrExpectedOriginMismatch,
	ErrExpectedRPIDMismatch,
	ErrUserVerificationFailed,
	ErrVerificationFailed,
	ErrChallengeMismatch,
}

func kindOf(err error) (error, kind) {
	for sentinel, k := range kinds {
		if errs.Is(err, sentinel) {
			return sentinel, k
		}
	}

	return ErrInternalServerError, kinds[ErrInternalServerError]
}

func respond(c *fiber.Ctx, status int, sentinel error, message string) error {
	return c.Status(status).JSON(schemas.Res{
		OK:      false,
		Code:    sentinel.Error(),
		Message: message,
	})
}

// Respond is a function that maps a failure to its error envelope
func Respond(c *fiber.Ctx, err error) error {
	sentinel, k := kindOf(err)
	return respond(c, k.status, sentinel, k.message)
}

// RespondLogin is a function that maps a failure on the login path to its
// error envelope; verification failures on login are reported as unauthorized
func RespondLogin(c *fiber.Ctx, err error) error {
	sentinel, k := kindOf(err)
	for _, verification := range verificationKinds {
		if sentinel == verification {
			return respond(c, fiber.StatusUnauthorized, sentinel, k.message)
		}
	}

	return respond(c, k.status, sentinel, k.message)
}

// InternalServerErr is a function that responds with an internal server error
func InternalServerErr(c *fiber.Ctx) error {
	return Respond(c, ErrInternalServerError)
}

// Unauthenticated is a function that responds with an unauthenticated error
func Unauthenticated(c *fiber.Ctx) error {
	return Respond(c, ErrUnauthenticated)
}

// BadRequest is a function that responds with a generic malformed request error
func BadRequest(c *fiber.Ctx) error {
	return Respond(c, ErrInvalidRequest)
}

// CheckDBError is a struct that is used to identify the database errors
type CheckDBError struct{}

// DuplicateKey is a function that is used to find wether the the returned postgres error
// is due to a duplicate key entry (A unique key constraint)
func (CheckDBError) DuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errs.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return true
		}
	}

	return false
}

// CheckTokenError is a struct that is used to handle token related errors
type CheckTokenError struct{}

// Expired is a function that is used to identify wether the token is expired or not
func (CheckTokenError) Expired(err error) bool {
	return errs.Is(err, jwt.ErrTokenExpired)
}
