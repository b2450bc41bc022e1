package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the application services the router exposes.
type Services struct {
	Presence interface {
		PresenceConfirmer
		PresenceSummarizer
	}
	Events interface {
		EventReader
		EventWriter
	}
	Users interface {
		Authenticator
		UserAccounts
	}
}

// NewRouter wires every route of the API. Routes that act on behalf of
// a user sit behind RequireAuth; reads and login stay public.
func NewRouter(svcs Services, verifier TokenVerifier, corsOrigins []string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(RequestLogger(logger))
	r.Use(CORS(corsOrigins))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method-not-allowed", "method not allowed")
	})

	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/login", HandleLogin(svcs.Users))
	r.Post("/users", HandleRegisterUser(svcs.Users))

	r.Get("/events", HandleListEvents(svcs.Events))
	r.Get("/events/{eventID}", HandleGetEvent(svcs.Events))
	r.Get("/events/{eventID}/presence", HandlePresenceSummary(svcs.Presence))
	r.Get("/categories/events", HandleEventsByCategory(svcs.Events, false))
	r.Get("/categories/events/future", HandleEventsByCategory(svcs.Events, true))

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(verifier))

		r.Get("/users", HandleSearchUsers(svcs.Users))
		r.Delete("/users", HandleDeleteUser(svcs.Users))
		r.Put("/me", HandleUpdateProfile(svcs.Users))
		r.Put("/me/avatar", HandleUpdateAvatar(svcs.Users))
		r.Get("/me/events", HandleMyEvents(svcs.Users))

		r.Post("/events", HandleCreateEvent(svcs.Events))
		r.Put("/events/{eventID}", HandleUpdateEvent(svcs.Events))
		r.Post("/events/{eventID}/presence", HandleConfirmPresence(svcs.Presence))
	})

	return r
}
