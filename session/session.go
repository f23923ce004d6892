// Package session contains session related activity
package session

import (
	"github.com/cloudclip/auth/schemas"
	"github.com/gofiber/fiber/v2"
)

// Add is a function that is used to add the principal details to the session
func Add(c *fiber.Ctx, principal *schemas.Principal) {
	if principal == nil {
		return
	}

	c.Locals("id", principal.ID)
	c.Locals("email", principal.Email)
	c.Locals("name", principal.Name)
}

// Get the principal details from the session
func Get(c *fiber.Ctx) *schemas.Principal {
	id, ok := c.Locals("id").(string)
	if !ok {
		return nil
	}

	email, _ := c.Locals("email").(string)
	name, _ := c.Locals("name").(string)

	return &schemas.Principal{
		ID:    id,
		Email: email,
		Name:  name,
	}
}
