// Package controllers contains the route handlers of the passkey service
package controllers

import (
	"encoding/json"

	"github.com/VinukaThejana/go-utils/logger"
	"github.com/cloudclip/auth/config"
	"github.com/cloudclip/auth/errors"
	"github.com/cloudclip/auth/schemas"
	"github.com/cloudclip/auth/services"
	"github.com/cloudclip/auth/session"
	"github.com/cloudclip/auth/validate"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PassKeys struct contains all the passkey ceremony controllers
type PassKeys struct {
	Env *config.Env
	RP  *services.RP
	Svc *services.PassKeys
}

// resolve computes the relying party context of the request and enforces the
// origin allow list
func (p *PassKeys) resolve(c *fiber.Ctx, explicitOrigin, explicitRPID string) (services.RPContext, error) {
	rpc, err := p.RP.Resolve(
		explicitOrigin,
		c.Get("Origin"),
		c.Get("X-Forwarded-Host"),
		c.Hostname(),
		explicitRPID,
	)
	if err != nil {
		return services.RPContext{}, err
	}

	if err := p.RP.Allowed(rpc.Origin); err != nil {
		return services.RPContext{}, err
	}

	return rpc, nil
}

// RegistrationOptions issues the attestation options for the signed in user
func (p *PassKeys) RegistrationOptions(c *fiber.Ctx) error {
	principal := session.Get(c)
	if principal == nil {
		return errors.Unauthenticated(c)
	}

	rpc, err := p.resolve(c, c.Query("origin"), c.Query("rp_id"))
	if err != nil {
		logger.Error(err)
		return errors.Respond(c, err)
	}

	options, err := p.Svc.BeginRegistration(c.Context(), *principal, rpc)
	if err != nil {
		logger.Error(err)
		return errors.Respond(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":      true,
		"options": options,
	})
}

// RegistrationVerify verifies the attestation response and stores the new passkey
func (p *PassKeys) RegistrationVerify(c *fiber.Ctx) error {
	principal := session.Get(c)
	if principal == nil {
		return errors.Unauthenticated(c)
	}

	var payload schemas.RegistrationVerify
	if err := c.BodyParser(&payload); err != nil {
		logger.Error(err)
		return errors.BadRequest(c)
	}

	rpc, err := p.resolve(c, payload.Origin, payload.RPID)
	if err != nil {
		logger.Error(err)
		return errors.Respond(c, err)
	}

	var client schemas.ClientCredential
	if len(payload.Credential) != 0 {
		if err := json.Unmarshal(payload.Credential, &client); err != nil {
			logger.Error(err)
			return errors.BadRequest(c)
		}
	}

	err = p.Svc.FinishRegistration(c.Context(), *principal, rpc, payload.Credential, client.Response.Transports)
	if err != nil {
		logger.Error(err)
		return errors.Respond(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":       true,
		"verified": true,
	})
}

// AuthenticationOptions issues the assertion options for the given email
func (p *PassKeys) AuthenticationOptions(c *fiber.Ctx) error {
	rpc, err := p.resolve(c, c.Query("origin"), c.Query("rp_id"))
	if err != nil {
		logger.Error(err)
		return errors.Respond(c, err)
	}

	options, err := p.Svc.BeginAuthentication(c.Context(), c.Query("email"), rpc)
	if err != nil {
		logger.Error(err)
		return errors.Respond(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":      true,
		"options": options,
	})
}

// AuthenticationVerify verifies the assertion response and mints the session token
func (p *PassKeys) AuthenticationVerify(c *fiber.Ctx) error {
	var payload schemas.AuthenticationVerify
	if err := c.BodyParser(&payload); err != nil {
		logger.Error(err)
		return errors.BadRequest(c)
	}

	rpc, err := p.resolve(c, payload.Origin, payload.RPID)
	if err != nil {
		logger.Error(err)
		return errors.Respond(c, err)
	}

	var client schemas.ClientCredential
	if len(payload.Credential) != 0 {
		if err := json.Unmarshal(payload.Credential, &client); err != nil {
			logger.Error(err)
			return errors.BadRequest(c)
		}

		v := validator.New()
		v.RegisterValidation("validate_base64url", validate.Base64URL)
		if err := v.Struct(client); err != nil {
			logger.Error(err)
			return errors.RespondLogin(c, errors.ErrInvalidCredentialID)
		}
	}

	token, err := p.Svc.FinishAuthentication(c.Context(), payload.Email, client.ID, rpc, payload.Credential)
	if err != nil {
		logger.Error(err)
		return errors.RespondLogin(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":       true,
		"verified": true,
		"token":    token,
	})
}
