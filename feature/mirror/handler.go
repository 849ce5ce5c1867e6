package mirror

import (
	"encoding/json"

	"deck-mirror/core/logger"
	"deck-mirror/feature/mirror/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the mirror.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the mirror routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/mirror")
	group.Get("/tree", h.HandleGetTree)
	group.Get("/next", h.HandleGetNextDue)
	group.Get("/status", h.HandleGetStatus)
	group.Post("/refresh", h.HandleRefresh)
}

// HandleGetTree returns the full mirrored board hierarchy.
func (h *Handler) HandleGetTree(c *fiber.Ctx) error {
	// Marshalling happens inside View so the read cannot interleave with
	// a reconciliation pass.
	var body []byte
	err := h.service.View(func(t *models.Tree) error {
		var err error
		body, err = json.Marshal(t)
		return err
	})
	if err != nil {
		l := logger.WithRayID(h.service.log, c)
		l.Error("Tree encoding failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// HandleGetNextDue returns the due event currently armed.
func (h *Handler) HandleGetNextDue(c *fiber.Ctx) error {
	ev, ok := h.service.NextDue()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no upcoming due card",
		})
	}
	return c.JSON(ev)
}

// HandleGetStatus returns poll counters and the armed deadline.
func (h *Handler) HandleGetStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleRefresh requests an immediate poll cycle.
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	h.service.ForceRefresh()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "refresh scheduled",
	})
}
