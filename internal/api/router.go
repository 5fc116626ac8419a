package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hg9336099029/survey-be/internal/api/handlers"
	"github.com/hg9336099029/survey-be/internal/auth"
	"github.com/hg9336099029/survey-be/internal/services"
	"github.com/hg9336099029/survey-be/internal/upload"
	"github.com/hg9336099029/survey-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	pollService services.PollServiceProvider,
	eventService services.EventServiceProvider,
	uploads *upload.Store,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	pollHandler := handlers.NewPollHandler(pollService, uploads)
	eventHandler := handlers.NewEventHandler(eventService)
	uploadHandler := handlers.NewUploadHandler(uploads)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket connection endpoint for live poll results
		r.Get("/ws", wsHandler.Serve)

		// Recent activity feed
		r.Get("/events", eventHandler.GetRecent)

		// The dashboard mounts everything under /auth, public routes included.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Get("/getpolls", pollHandler.GetAll)
			r.Get("/trendingpolls", pollHandler.GetTrending)

			r.Group(func(r chi.Router) {
				r.Use(auth.JWTMiddleware())

				r.Post("/logout", userHandler.Logout)
				r.Get("/getuser", userHandler.GetMe)
				r.Put("/update-profile", userHandler.UpdateProfile)
				r.Put("/change-password", userHandler.ChangePassword)

				r.Post("/create-poll", pollHandler.Create)
				r.Get("/userpoll", pollHandler.GetMine)
				r.Delete("/delete-poll/{id}", pollHandler.Delete)
				r.Patch("/votepoll/{pollId}", pollHandler.Vote)
				r.Get("/getvotedpolls", pollHandler.GetVoted)
				r.Post("/bookmarkpoll/{pollId}", pollHandler.Bookmark)
				r.Get("/getbookmarkedpolls", pollHandler.GetBookmarked)
			})
		})

		r.Route("/image", func(r chi.Router) {
			r.Use(auth.JWTMiddleware())
			r.Post("/upload-image", uploadHandler.UploadImage)
		})
	})

	// Uploaded images are served as static files.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir())))
	r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		fileServer.ServeHTTP(w, r)
	})

	return r
}
