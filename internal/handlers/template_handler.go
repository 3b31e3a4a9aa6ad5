package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/repository"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/services"
)

type TemplateHandler struct {
	service templateApplicationService
}

type templateApplicationService interface {
	CreateTemplate(ctx context.Context, tutorID int64, input services.CreateTemplateInput) (*models.ClassTemplate, error)
	GetTemplate(ctx context.Context, classID int64) (*models.ClassTemplate, error)
	ListMyTemplates(ctx context.Context, tutorID int64) ([]models.ClassTemplate, error)
	ListCatalog(ctx context.Context) ([]models.ClassTemplate, error)
	UpdateTemplate(ctx context.Context, tutorID, classID int64, input repository.UpdateClassTemplateInput) (*models.ClassTemplate, error)
	DeactivateTemplate(ctx context.Context, tutorID, classID int64) (int64, error)
	Enroll(ctx context.Context, studentID, classID int64) (*models.Enrollment, error)
	Unenroll(ctx context.Context, studentID, classID int64) error
}

func NewTemplateHandler(service *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

type createTemplateRequest struct {
	Subject     string  `json:"subject"`
	Weekday     string  `json:"weekday"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	TermStart   string  `json:"term_start"`
	TermEnd     string  `json:"term_end"`
	Location    *string `json:"location"`
	Online      bool    `json:"online"`
	MaxStudents int     `json:"max_students"`
}

type updateTemplateRequest struct {
	Subject     *string `json:"subject"`
	Location    *string `json:"location"`
	Online      *bool   `json:"online"`
	MaxStudents *int    `json:"max_students"`
}

func (h *TemplateHandler) CreateTemplate(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "tutor" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	tutorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	termStart, err := time.Parse("2006-01-02", strings.TrimSpace(req.TermStart))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "term_start must be a YYYY-MM-DD date"})
	}
	termEnd, err := time.Parse("2006-01-02", strings.TrimSpace(req.TermEnd))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "term_end must be a YYYY-MM-DD date"})
	}

	template, err := h.service.CreateTemplate(c.Context(), tutorID, services.CreateTemplateInput{
		Subject:     req.Subject,
		Weekday:     req.Weekday,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		TermStart:   termStart,
		TermEnd:     termEnd,
		Location:    req.Location,
		Online:      req.Online,
		MaxStudents: req.MaxStudents,
	})
	if err != nil {
		return mapTemplateError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"class": template})
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "student" && role != "tutor") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	classID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || classID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	template, err := h.service.GetTemplate(c.Context(), classID)
	if err != nil {
		return mapTemplateError(c, err)
	}

	return c.JSON(fiber.Map{"class": template})
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "student" && role != "tutor") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if role == "tutor" {
		templates, err := h.service.ListMyTemplates(c.Context(), actorID)
		if err != nil {
			return mapTemplateError(c, err)
		}
		return c.JSON(fiber.Map{"classes": templates})
	}

	templates, err := h.service.ListCatalog(c.Context())
	if err != nil {
		return mapTemplateError(c, err)
	}
	return c.JSON(fiber.Map{"classes": templates})
}

func (h *TemplateHandler) UpdateTemplate(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "tutor" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	tutorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	classID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || classID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	var req updateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	template, err := h.service.UpdateTemplate(c.Context(), tutorID, classID, repository.UpdateClassTemplateInput{
		Subject:     req.Subject,
		Location:    req.Location,
		Online:      req.Online,
		MaxStudents: req.MaxStudents,
	})
	if err != nil {
		return mapTemplateError(c, err)
	}

	return c.JSON(fiber.Map{"class": template})
}

func (h *TemplateHandler) DeactivateTemplate(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "tutor" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	tutorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	classID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || classID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	cancelled, err := h.service.DeactivateTemplate(c.Context(), tutorID, classID)
	if err != nil {
		return mapTemplateError(c, err)
	}

	return c.JSON(fiber.Map{"cancelled_sessions": cancelled})
}

func (h *TemplateHandler) Enroll(c *fiber.Ctx) error {
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

	enrollment, err := h.service.Enroll(c.Context(), studentID, classID)
	if err != nil {
		return mapTemplateError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"enrollment": enrollment})
}

func (h *TemplateHandler) Unenroll(c *fiber.Ctx) error {
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

	if err := h.service.Unenroll(c.Context(), studentID, classID); err != nil {
		return mapTemplateError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func mapTemplateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrClassNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	case errors.Is(err, services.ErrClassFull),
		errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrCapacityBelowEnrollment):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotEnrolled):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process class request"})
	}
}
