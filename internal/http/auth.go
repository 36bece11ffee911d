package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordBody struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *handlers) signup(c *fiber.Ctx) error {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Users.Register(ctx, body.Username, body.Password); err != nil {
		return fail(c, err)
	}
	log.Info().Str("user", body.Username).Msg("User registered")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "registered"})
}

func (h *handlers) login(c *fiber.Ctx) error {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Users.Verify(ctx, body.Username, body.Password); err != nil {
		return fail(c, err)
	}
	token := h.Sessions.Issue(strings.TrimSpace(body.Username))
	return c.JSON(fiber.Map{"token": token, "phase": h.App.Phase()})
}

func (h *handlers) logout(c *fiber.Ctx) error {
	h.Sessions.Logout(c.Locals("token").(string))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) changePassword(c *fiber.Ctx) error {
	var body passwordBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.NewPassword != body.ConfirmPassword {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "passwords do not match"})
	}
	user := c.Locals("user").(string)
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Users.ChangePassword(ctx, user, body.OldPassword, body.NewPassword); err != nil {
		return fail(c, err)
	}
	h.Sessions.LogoutUser(user, c.Locals("token").(string))
	return c.JSON(fiber.Map{"message": "password changed"})
}
