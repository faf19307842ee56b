package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/tinyu/internal/auth"
	"github.com/MikhailRaia/tinyu/internal/logger"
	"github.com/MikhailRaia/tinyu/internal/metrics"
	"github.com/MikhailRaia/tinyu/internal/middleware"
	"github.com/MikhailRaia/tinyu/internal/model"
	"github.com/MikhailRaia/tinyu/internal/resolver"
	"github.com/MikhailRaia/tinyu/internal/service"
)

// LinkService is the owner-scoped link API used by the handlers.
type LinkService interface {
	Create(ctx context.Context, ownerID, longURL string) (string, error)
	Get(ctx context.Context, ownerID, shortCode string) (model.Link, error)
	Update(ctx context.Context, ownerID, shortCode, newLongURL string) (model.Link, error)
	Delete(ctx context.Context, ownerID, shortCode string) error
	ListForOwner(ctx context.Context, ownerID string) ([]model.Link, error)
}

// LinkResolver maps a short code to its redirect target.
type LinkResolver interface {
	Resolve(ctx context.Context, shortCode string) (string, error)
}

// Accounts registers users, checks credentials and loads session users.
type Accounts interface {
	Register(ctx context.Context, reg auth.Registration) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, error)
	User(ctx context.Context, id string) (model.User, error)
}

type DBPinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups everything the HTTP handler needs. Pinger and
// Metrics are optional.
type Dependencies struct {
	Links    LinkService
	Resolver LinkResolver
	Accounts Accounts
	Sessions *auth.JWTService
	Pinger   DBPinger
	Metrics  *metrics.HTTP
	BaseURL  string
}

type Handler struct {
	links    LinkService
	resolver LinkResolver
	accounts Accounts
	sessions *auth.JWTService
	session  *middleware.AuthMiddleware
	dbPinger DBPinger
	metrics  *metrics.HTTP
	baseURL  string
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		links:    deps.Links,
		resolver: deps.Resolver,
		accounts: deps.Accounts,
		sessions: deps.Sessions,
		session:  middleware.NewAuthMiddleware(deps.Sessions, deps.Accounts),
		dbPinger: deps.Pinger,
		metrics:  deps.Metrics,
		baseURL:  strings.TrimRight(deps.BaseURL, "/"),
	}
}

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}

	r.Use(middleware.MethodOverride)
	r.Use(middleware.DecompressRequest)
	r.Use(chimiddleware.Compress(5, "application/json", "text/plain"))

	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/u/{code}", h.handleRedirect)
	r.Get("/ping", h.handlePing)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(h.session.RequireSession)

		r.Get("/", h.handleList)
		r.Get("/urls", h.handleList)
		r.Post("/urls", h.handleCreate)
		r.Get("/urls/{code}", h.handleGet)
		r.Put("/urls/{code}", h.handleUpdate)
		r.Delete("/urls/{code}", h.handleDelete)
	})

	return r
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func newUserResponse(u model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		DisplayName: u.DisplayName(),
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Register(r.Context(), auth.Registration{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusConflict, err)
		default:
			log.Error().Err(err).Msg("Failed to register user")
			writeError(w, http.StatusInternalServerError, errInternal)
		}
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusForbidden, err)
			return
		}
		log.Error().Err(err).Msg("Failed to log in")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	token, err := h.sessions.GenerateToken(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate token")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	middleware.SetSessionCookie(w, token, h.sessions.TTL())
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetUserIDFromContext(r.Context())

	links, err := h.links.ListForOwner(r.Context(), owner)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	views := make([]model.LinkView, 0, len(links))
	for _, link := range links {
		views = append(views, h.view(link))
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetUserIDFromContext(r.Context())
	longURL := r.FormValue("longURL")

	code, err := h.links.Create(r.Context(), owner, longURL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.view(model.Link{
		ShortCode: code,
		LongURL:   longURL,
		OwnerID:   owner,
	}))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetUserIDFromContext(r.Context())

	link, err := h.links.Get(r.Context(), owner, chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.view(link))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetUserIDFromContext(r.Context())

	link, err := h.links.Update(r.Context(), owner, chi.URLParam(r, "code"), r.FormValue("longURL"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.view(link))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetUserIDFromContext(r.Context())

	if err := h.links.Delete(r.Context(), owner, chi.URLParam(r, "code")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.resolver.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		switch {
		case errors.Is(err, resolver.ErrNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, resolver.ErrInvalidTarget):
			writeError(w, http.StatusBadRequest, err)
		default:
			log.Error().Err(err).Msg("Failed to resolve link")
			writeError(w, http.StatusInternalServerError, errInternal)
		}
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if h.dbPinger == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := h.dbPinger.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("Storage ping failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) view(link model.Link) model.LinkView {
	return model.LinkView{
		ShortCode: link.ShortCode,
		ShortURL:  h.baseURL + "/u/" + link.ShortCode,
		LongURL:   link.LongURL,
		OwnerID:   link.OwnerID,
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, service.ErrNoOwner):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, service.ErrExhaustedNamespace):
		log.Error().Err(err).Msg("Short code namespace exhausted")
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		log.Error().Err(err).Msg("Link operation failed")
		writeError(w, http.StatusInternalServerError, errInternal)
	}
}
