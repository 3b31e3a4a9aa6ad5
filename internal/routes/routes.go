package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/config"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/handlers"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/middleware"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/repository"
	"github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/services"
	chatws "github.com/Tuancoolboy/website-tutor-student-chat-sub003/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, log *zap.Logger) {
	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewClassTemplateRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	requestRepo := repository.NewChangeRequestRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	hub := chatws.NewHub(log)
	go hub.Run()

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	templateService := services.NewTemplateService(db, templateRepo, enrollmentRepo)
	templateHandler := handlers.NewTemplateHandler(templateService)
	availabilityService := services.NewAvailabilityService(availabilityRepo)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	bookingService := services.NewBookingService(db, sessionRepo, userRepo)
	sessionHandler := handlers.NewSessionHandler(bookingService)
	scheduleService := services.NewScheduleService(
		db, templateRepo, enrollmentRepo, availabilityRepo, sessionRepo, log,
	)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, bookingService)
	requestService := services.NewRequestService(
		db, sessionRepo, requestRepo, templateRepo, enrollmentRepo, hub, log,
	)
	requestHandler := handlers.NewRequestHandler(requestService)
	chatService := services.NewChatService(db, conversationRepo, messageRepo, userRepo)
	chatHandler := handlers.NewChatHandler(chatService, hub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	classes := authProtected.Group("/classes")
	classes.Post("", templateHandler.CreateTemplate)
	classes.Get("", templateHandler.ListTemplates)
	classes.Get("/:id", templateHandler.GetTemplate)
	classes.Put("/:id", templateHandler.UpdateTemplate)
	classes.Delete("/:id", templateHandler.DeactivateTemplate)
	classes.Post("/:id/enroll", templateHandler.Enroll)
	classes.Delete("/:id/enroll", templateHandler.Unenroll)
	classes.Post("/:id/generate", scheduleHandler.GenerateSessions)
	classes.Get("/:id/change-target", requestHandler.ChangeTarget)

	tutors := authProtected.Group("/tutors")
	tutors.Get("/:id/availability", availabilityHandler.ListWindows)
	tutors.Get("/:id/slots", scheduleHandler.TutorSlots)

	availability := authProtected.Group("/availability")
	availability.Post("", availabilityHandler.CreateWindow)
	availability.Delete("/:id", availabilityHandler.DeleteWindow)

	sessions := authProtected.Group("/sessions")
	sessions.Post("/book", sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/status", sessionHandler.UpdateStatus)
	sessions.Get("/:id/slots", scheduleHandler.SessionSlots)

	requests := authProtected.Group("/requests")
	requests.Post("", requestHandler.CreateRequest)
	requests.Get("", requestHandler.ListRequests)
	requests.Put("/:id/resolve", requestHandler.ResolveRequest)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
