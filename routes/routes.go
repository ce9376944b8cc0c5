package routes

import (
	"net/http"

	"github.com/bolaenmano/tournament-api/auth"
	"github.com/bolaenmano/tournament-api/handlers"
	"github.com/bolaenmano/tournament-api/middleware"
	"github.com/bolaenmano/tournament-api/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	Admin      *handlers.AdminHandler
	WebSocket  *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, tokens *auth.TokenManager, allowlist *auth.Allowlist, userService services.UserService) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(tokens)
	requireAdmin := middleware.RequireAdmin(userService, allowlist)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/auth/google", func(r chi.Router) {
		r.Post("/", h.Auth.GoogleSignInHandler)
		r.Post("/exchange", h.Auth.GoogleExchangeHandler)
		r.Post("/exchange/ios", h.Auth.GoogleExchangeIOSHandler)
		r.Post("/exchange/desktop", h.Auth.GoogleExchangeDesktopHandler)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", h.User.GetMeHandler)
		r.Post("/me/push-token", h.User.SetPushTokenHandler)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/current", h.Tournament.GetCurrentHandler)
		r.Get("/history", h.Tournament.GetHistoryHandler)
		r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
		r.Get("/{tournamentID}/bracket", h.Tournament.GetBracketHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/join", h.Tournament.JoinHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", h.Match.ListHandler)
		r.Get("/{matchID}", h.Match.GetByIDHandler)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(requireAdmin)

		r.Get("/users", h.Admin.ListUsersHandler)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Admin.ListTournamentsHandler)
			r.Post("/", h.Admin.CreateTournamentHandler)
			r.Patch("/{tournamentID}", h.Admin.UpdateTournamentHandler)
			r.Post("/{tournamentID}/logo", h.Admin.UploadLogoHandler)
			r.Post("/{tournamentID}/bracket/generate", h.Admin.GenerateBracketHandler)
			r.Delete("/{tournamentID}/bracket", h.Admin.DeleteBracketHandler)
			r.Post("/{tournamentID}/participants", h.Admin.AddParticipantHandler)
			r.Delete("/{tournamentID}/participants/{userID}", h.Admin.RemoveParticipantHandler)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Post("/", h.Match.CreateHandler)
			r.Patch("/{matchID}", h.Match.UpdateHandler)
			r.Delete("/{matchID}", h.Match.DeleteHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.SubscribeHandler)

	return router
}
