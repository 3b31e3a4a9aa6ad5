package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/services"
)

type RequestHandler struct {
	service requestApplicationService
}

type requestApplicationService interface {
	CreateRequest(ctx context.Context, requesterID int64, input services.CreateRequestInput) (*models.ChangeRequest, error)
	ListMyRequests(ctx context.Context, requesterID int64) ([]models.ChangeRequest, error)
	ListPendingForTutor(ctx context.Context, tutorID int64) ([]models.ChangeRequest, error)
	Resolve(ctx context.Context, tutorID, requestID int64, decision string) (*models.ChangeRequest, error)
	ChangeTargetForClass(ctx context.Context, studentID, classID int64) (*services.ChangeTarget, error)
}

func NewRequestHandler(service *services.RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

type createRequestRequest struct {
	SessionID            int64   `json:"session_id"`
	Type                 string  `json:"type"`
	Reason               string  `json:"reason"`
	PreferredStart       *string `json:"preferred_start"`
	PreferredEnd         *string `json:"preferred_end"`
	AlternativeSessionID *int64  `json:"alternative_session_id"`
}

type resolveRequestRequest struct {
	Decision string `json:"decision"`
}

func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "student" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	requesterID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.SessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	input := services.CreateRequestInput{
		SessionID:            req.SessionID,
		Type:                 req.Type,
		Reason:               req.Reason,
		AlternativeSessionID: req.AlternativeSessionID,
	}
	if req.PreferredStart != nil {
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.PreferredStart))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "preferred_start must be a valid RFC3339 timestamp"})
		}
		input.PreferredStart = &start
	}
	if req.PreferredEnd != nil {
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.PreferredEnd))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "preferred_end must be a valid RFC3339 timestamp"})
		}
		input.PreferredEnd = &end
	}

	request, err := h.service.CreateRequest(c.Context(), requesterID, input)
	if err != nil {
		return mapRequestError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

func (h *RequestHandler) ListRequests(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "student" && role != "tutor") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if role == "tutor" {
		requests, err := h.service.ListPendingForTutor(c.Context(), actorID)
		if err != nil {
			return mapRequestError(c, err)
		}
		return c.JSON(fiber.Map{"requests": requests})
	}

	requests, err := h.service.ListMyRequests(c.Context(), actorID)
	if err != nil {
		return mapRequestError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

func (h *RequestHandler) ResolveRequest(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "tutor" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	tutorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	requestID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req resolveRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := h.service.Resolve(c.Context(), tutorID, requestID, req.Decision)
	if err != nil {
		return mapRequestError(c, err)
	}

	return c.JSON(fiber.Map{"request": request})
}

// ChangeTarget tells a student which session of a class their change request
// should point at.
func (h *RequestHandler) ChangeTarget(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "student" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	studentID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	classID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || classID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	target, err := h.service.ChangeTargetForClass(c.Context(), studentID, classID)
	if err != nil {
		return mapRequestError(c, err)
	}

	return c.JSON(fiber.Map{"target": target})
}

func mapRequestError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrReasonTooShort),
		errors.Is(err, services.ErrSlotInPast):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, services.ErrClassNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	case errors.Is(err, services.ErrRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Request not found"})
	case errors.Is(err, services.ErrAlternativeNotEligible),
		errors.Is(err, services.ErrSessionFull),
		errors.Is(err, services.ErrDuplicateRequest):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Requested time conflicts with another session"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process change request"})
	}
}
