package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"go-portscout/manager"
	"go-portscout/models"
)

const defaultHistoryLimit = 20

// Handler defines an HTTP handler.
type Handler struct {
	m *manager.Manager // m defines the *manager.Manager used in operations.
}

func invalid(ctx fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(response{
		Error:   true,
		Message: message,
	})
}

// ScanHandler defines the handler for the /scan endpoint.
func (h *Handler) ScanHandler(ctx fiber.Ctx) error {
	var data ScanRequestAPI

	if err := ctx.Bind().Body(&data); err != nil {
		return invalid(ctx, fiber.StatusUnprocessableEntity, "Invalid data provided.")
	}

	// Simple data validation
	if !data.Validate() {
		return invalid(ctx, fiber.StatusUnprocessableEntity, "Invalid data provided.")
	}

	// The request context is canceled when the server shuts down.
	result, err := h.m.Scan(ctx.RequestCtx(), data.Target)
	if errors.Is(err, manager.ErrInvalidTarget) {
		return invalid(ctx, fiber.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		logrus.Errorf("scan of %s failed: %v", data.Target, err)
		return invalid(ctx, fiber.StatusInternalServerError, "Unexpected internal error occurred.")
	}

	return ctx.Status(fiber.StatusOK).JSON(result)
}

// HistoryHandler defines the handler for the /scans endpoint.
func (h *Handler) HistoryHandler(ctx fiber.Ctx) error {
	limit, err := strconv.Atoi(ctx.Query("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit < 1 {
		return invalid(ctx, fiber.StatusUnprocessableEntity, "Invalid limit provided.")
	}

	results, err := h.m.History(limit)
	if errors.Is(err, manager.ErrNoStore) {
		return invalid(ctx, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		logrus.Errorf("failed to list scans: %v", err)
		return invalid(ctx, fiber.StatusInternalServerError, "Unexpected internal error occurred.")
	}

	return ctx.Status(fiber.StatusOK).JSON(ScanHistory{Results: results})
}

// ResultHandler defines the handler for the /scans/:id endpoint.
func (h *Handler) ResultHandler(ctx fiber.Ctx) error {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return invalid(ctx, fiber.StatusUnprocessableEntity, "Invalid scan id provided.")
	}

	result, err := h.m.Result(uint(id))
	switch {
	case errors.Is(err, manager.ErrNotFound), errors.Is(err, manager.ErrNoStore):
		return invalid(ctx, fiber.StatusNotFound, "Scan not found.")
	case err != nil:
		logrus.Errorf("failed to fetch scan %d: %v", id, err)
		return invalid(ctx, fiber.StatusInternalServerError, "Unexpected internal error occurred.")
	}

	return ctx.Status(fiber.StatusOK).JSON(result)
}

// SettingsHandler defines the handler for POST /settings.
func (h *Handler) SettingsHandler(ctx fiber.Ctx) error {
	var data models.SettingsAPI

	if err := ctx.Bind().Body(&data); err != nil {
		return invalid(ctx, fiber.StatusUnprocessableEntity, "Invalid data provided.")
	}

	// Reconfigure settings based on user preferences
	if err := h.m.Settings(data); err != nil {
		if errors.Is(err, manager.ErrInvalidSettings) {
			return invalid(ctx, fiber.StatusUnprocessableEntity, err.Error())
		}
		logrus.Errorf("failed to apply settings: %v", err)
		return invalid(ctx, fiber.StatusInternalServerError, "An error occurred during applying settings.")
	}

	return ctx.Status(fiber.StatusOK).JSON(h.m.CurrentSettings())
}

// CurrentSettingsHandler defines the handler for GET /settings.
func (h *Handler) CurrentSettingsHandler(ctx fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(h.m.CurrentSettings())
}
