package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/scheduling"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/services"
)

type ScheduleHandler struct {
	schedule scheduleApplicationService
	sessions sessionApplicationService
}

type scheduleApplicationService interface {
	GenerateTermSessions(ctx context.Context, tutorID, classID int64) (*services.GenerationResult, error)
	EnumerateSlots(ctx context.Context, tutorID, excludeSessionID int64, durationMinutes int) ([]scheduling.CandidateSlot, error)
}

func NewScheduleHandler(
	schedule *services.ScheduleService,
	sessions *services.BookingService,
) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule, sessions: sessions}
}

// GenerateSessions materializes a class template's term into dated sessions.
func (h *ScheduleHandler) GenerateSessions(c *fiber.Ctx) error {
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

	result, err := h.schedule.GenerateTermSessions(c.Context(), tutorID, classID)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"generation": result})
}

// TutorSlots lists bookable slots on a tutor's published availability.
func (h *ScheduleHandler) TutorSlots(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "student" && role != "tutor") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	tutorID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || tutorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	durationMinutes := c.QueryInt("duration_minutes", 60)
	if durationMinutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_minutes must be greater than 0"})
	}

	slots, err := h.schedule.EnumerateSlots(c.Context(), tutorID, 0, durationMinutes)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

// SessionSlots lists the reschedule targets for one session. The session's
// own time is not counted as a conflict, and the slot length matches the
// session's current duration.
func (h *ScheduleHandler) SessionSlots(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "student" && role != "tutor") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.sessions.GetSession(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	durationMinutes := int(session.EndTime.Sub(session.StartTime).Minutes())
	slots, err := h.schedule.EnumerateSlots(c.Context(), session.TutorID, session.ID, durationMinutes)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

func mapScheduleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrClassNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process schedule request"})
	}
}
