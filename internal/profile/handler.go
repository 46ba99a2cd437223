package profile

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes profile HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a profile HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type profileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar,omitempty"`
}

type updateRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
}

// Me returns the caller's profile, creating a default on first access.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	p, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(profileResponse{
		ID:          p.UserID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Avatar:      p.Avatar,
	})
}

// Update edits the caller's display fields.
func (h *Handler) Update(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing"})
	}
	p, err := h.service.Update(c.UserContext(), Profile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Avatar:      req.Avatar,
	})
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(profileResponse{
		ID:          p.UserID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Avatar:      p.Avatar,
	})
}
