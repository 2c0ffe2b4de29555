package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/isdelr/microlearn-be/internal/api/handlers"
	"github.com/isdelr/microlearn-be/internal/auth"
	"github.com/isdelr/microlearn-be/internal/models"
	"github.com/isdelr/microlearn-be/internal/services"
)

// Dependencies are the collaborators the router dispatches to.
type Dependencies struct {
	UserService   services.UserServiceProvider
	LessonService services.LessonServiceProvider
	EventService  services.EventServiceProvider
	Guard         *auth.Guard
	DB            handlers.Pinger
	Registry      *prometheus.Registry

	AllowedOrigins []string
	MaxUploadBytes int64
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()
	metrics := NewMetrics(deps.Registry)

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB)
	userHandler := handlers.NewUserHandler(deps.UserService)
	lessonHandler := handlers.NewLessonHandler(deps.LessonService, deps.MaxUploadBytes)
	eventHandler := handlers.NewEventHandler(deps.EventService)

	guard := deps.Guard
	tutorOnly := guard.RequireRole(models.RoleTutor)

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuth)
				r.Get("/me", userHandler.GetMe)
				r.Post("/logout", userHandler.Logout)
			})
		})

		r.Route("/lessons", func(r chi.Router) {
			// Browsing is public
			r.Get("/", lessonHandler.List)
			r.Get("/by_tutor/{tutorID}", lessonHandler.ListByTutor)
			r.Get("/text", lessonHandler.ListText)
			r.Get("/text/{id}", lessonHandler.GetText)
			r.Get("/{id}", lessonHandler.Get)
			r.Get("/{id}/file", lessonHandler.GetFile)

			// Authoring is restricted to tutors
			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuth, tutorOnly)
				r.Post("/upload_video", lessonHandler.UploadVideo)
				r.Post("/upload_text", lessonHandler.UploadText)
				r.Post("/upload_quiz", lessonHandler.UploadQuiz)
				r.Post("/add_test_data", lessonHandler.AddTestData)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAuth, tutorOnly)
			r.Get("/events", eventHandler.GetRecent)
		})
	})

	return r
}
