package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/models"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/repository"
	"go.uber.org/zap"
)

func TestScheduleServiceGenerationSupersedesPriorBatch(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	scheduleService := newIntegrationScheduleService(pool)
	templateService := NewTemplateService(
		pool,
		repository.NewClassTemplateRepository(pool),
		repository.NewEnrollmentRepository(pool),
	)

	tutorID := createTestAccount(t, ctx, pool, "tutor")
	studentID := createTestAccount(t, ctx, pool, "student")
	t.Cleanup(func() { cleanupTestClasses(t, ctx, pool, tutorID, studentID) })

	// Four mondays: Jan 6, 13, 20, 27 of 2031.
	template, err := templateService.CreateTemplate(ctx, tutorID, CreateTemplateInput{
		Subject:     "algebra",
		Weekday:     "monday",
		StartTime:   "15:00",
		EndTime:     "16:00",
		TermStart:   time.Date(2031, 1, 6, 0, 0, 0, 0, time.UTC),
		TermEnd:     time.Date(2031, 1, 27, 0, 0, 0, 0, time.UTC),
		MaxStudents: 5,
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if _, err := templateService.Enroll(ctx, studentID, template.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	first, err := scheduleService.GenerateTermSessions(ctx, tutorID, template.ID)
	if err != nil {
		t.Fatalf("first GenerateTermSessions: %v", err)
	}
	if first.Generated != 4 {
		t.Fatalf("expected 4 generated sessions, got %d", first.Generated)
	}
	if first.Superseded != 0 {
		t.Fatalf("expected nothing superseded on first run, got %d", first.Superseded)
	}

	confirmed := listClassSessions(t, ctx, pool, tutorID, template.ID, models.SessionStatusConfirmed)
	if len(confirmed) != 4 {
		t.Fatalf("expected 4 confirmed sessions, got %d", len(confirmed))
	}
	for _, session := range confirmed {
		if !session.HasParticipant(studentID) {
			t.Fatalf("expected student %d on session %d, got %v", studentID, session.ID, session.ParticipantIDs)
		}
	}

	second, err := scheduleService.GenerateTermSessions(ctx, tutorID, template.ID)
	if err != nil {
		t.Fatalf("second GenerateTermSessions: %v", err)
	}
	if second.Generated != 4 {
		t.Fatalf("expected 4 regenerated sessions, got %d", second.Generated)
	}
	if second.Superseded != 4 {
		t.Fatalf("expected first batch superseded, got %d", second.Superseded)
	}
	if second.BatchID == first.BatchID {
		t.Fatalf("expected a fresh batch id, got %s twice", second.BatchID)
	}

	confirmed = listClassSessions(t, ctx, pool, tutorID, template.ID, models.SessionStatusConfirmed)
	if len(confirmed) != 4 {
		t.Fatalf("expected 4 confirmed sessions after regeneration, got %d", len(confirmed))
	}
	for _, session := range confirmed {
		if session.GenerationBatch == nil || *session.GenerationBatch != second.BatchID {
			t.Fatalf("expected session %d stamped with batch %s, got %v", session.ID, second.BatchID, session.GenerationBatch)
		}
	}

	cancelled := listClassSessions(t, ctx, pool, tutorID, template.ID, models.SessionStatusCancelled)
	if len(cancelled) != 4 {
		t.Fatalf("expected 4 cancelled sessions from the first batch, got %d", len(cancelled))
	}
}

func newIntegrationScheduleService(pool *pgxpool.Pool) *ScheduleService {
	return NewScheduleService(
		pool,
		repository.NewClassTemplateRepository(pool),
		repository.NewEnrollmentRepository(pool),
		repository.NewAvailabilityRepository(pool),
		repository.NewSessionRepository(pool),
		zap.NewNop(),
	)
}

func listClassSessions(
	t *testing.T,
	ctx context.Context,
	pool *pgxpool.Pool,
	tutorID int64,
	classID int64,
	status string,
) []models.Session {
	t.Helper()

	sessions, err := repository.NewSessionRepository(pool).List(ctx, repository.SessionListFilter{
		ActorID: tutorID,
		Role:    "tutor",
		Status:  status,
		ClassID: &classID,
	})
	if err != nil {
		t.Fatalf("List(%s): %v", status, err)
	}
	return sessions
}

func cleanupTestClasses(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM change_requests WHERE requester_id = ANY($1) OR session_id IN (SELECT id FROM sessions WHERE tutor_id = ANY($1))", userIDs); err != nil {
		t.Fatalf("cleanup change requests: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM session_participants WHERE student_id = ANY($1) OR session_id IN (SELECT id FROM sessions WHERE tutor_id = ANY($1))", userIDs); err != nil {
		t.Fatalf("cleanup session participants: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM sessions WHERE tutor_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup sessions: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM class_enrollments WHERE student_id = ANY($1) OR class_id IN (SELECT id FROM class_templates WHERE tutor_id = ANY($1))", userIDs); err != nil {
		t.Fatalf("cleanup enrollments: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM class_templates WHERE tutor_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup templates: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
