// Package middleware contains the middlewares used by the router
package middleware

import (
	"strings"

	"github.com/cloudclip/auth/config"
	"github.com/cloudclip/auth/connect"
	"github.com/cloudclip/auth/errors"
	"github.com/cloudclip/auth/session"
	"github.com/cloudclip/auth/token"
	"github.com/gofiber/fiber/v2"
)

// Auth contains auth related middlewares
type Auth struct {
	Conn *connect.Connector
	Env  *config.Env
}

// Check is a function that is used to check wether the caller is authenticated
func (a *Auth) Check(c *fiber.Ctx) error {
	var idToken string
	authorization := c.Get("Authorization")

	if strings.HasPrefix(authorization, "Bearer ") {
		idToken = strings.TrimPrefix(authorization, "Bearer ")
	} else {
		return errors.Unauthenticated(c)
	}

	idTokenS := token.IDToken{
		Conn: a.Conn,
		Env:  a.Env,
	}

	principal, err := idTokenS.Validate(c.Context(), idToken)
	if err != nil {
		if isExpired := (errors.CheckTokenError{}.Expired(err)); isExpired {
			return errors.Unauthenticated(c)
		}

		return errors.Respond(c, err)
	}

	session.Add(c, principal)
	return c.Next()
}
