package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/DKhorkov/FastApi/internal/export"
	"github.com/DKhorkov/FastApi/internal/middleware"
	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/DKhorkov/FastApi/internal/service"
	"github.com/DKhorkov/FastApi/internal/utils"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc          *service.Service
	log          *logrus.Logger
	cookieSecure bool
}

func NewHandler(svc *service.Service, log *logrus.Logger, cookieSecure bool) *Handler {
	return &Handler{svc: svc, log: log, cookieSecure: cookieSecure}
}

// Routes registers public and protected routes on r
func (h *Handler) Routes(r *mux.Router) {
	// Public routes
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	// Protected routes
	tasks := r.PathPrefix("/tasks").Subrouter()
	tasks.Use(middleware.AuthMiddleware(h.svc, h.log))
	tasks.HandleFunc("", h.ListTasks).Methods(http.MethodGet)
	tasks.HandleFunc("", h.CreateTask).Methods(http.MethodPost)
	tasks.HandleFunc("/export.xml", h.ExportTasks).Methods(http.MethodGet)
	tasks.HandleFunc("/{id:[0-9]+}/toggle", h.ToggleTask).Methods(http.MethodPost)
	tasks.HandleFunc("/{id:[0-9]+}", h.DeleteTask).Methods(http.MethodDelete)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Register(r.Context(), r.FormValue("username"), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expires     time.Time `json:"expires"`
}

// Login handles user authentication. The form field "username" carries the email.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	token, err := h.svc.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     utils.AccessTokenCookie,
		Value:    utils.BearerValue(token.Token),
		Path:     "/",
		Expires:  token.Expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token.Token,
		TokenType:   token.TokenType(),
		Expires:     token.Expires,
	})
}

// Logout clears the cookie. The token row stays valid until it expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     utils.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	tasks, err := h.svc.ListTasks(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	task, err := h.svc.CreateTask(r.Context(), user, r.FormValue("title"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := taskID(r)
	if err != nil {
		h.writeServiceError(w, r, service.ErrNotFound)
		return
	}
	task, err := h.svc.ToggleTask(r.Context(), user, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := taskID(r)
	if err != nil {
		h.writeServiceError(w, r, service.ErrNotFound)
		return
	}
	if err := h.svc.DeleteTask(r.Context(), user, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportTasks renders the caller's tasks as an XML document
func (h *Handler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	tasks, err := h.svc.ListTasks(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	body, err := export.TasksXML(user, tasks)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func mustUser(r *http.Request) *models.User {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		// routes without AuthMiddleware must not call this
		panic("handler: no user in request context")
	}
	return user
}

func taskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInactiveAccount),
		errors.Is(err, service.ErrDuplicateRegistration),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		h.log.WithError(err).Errorf("%s %s failed", r.Method, r.URL.Path)
		msg = "internal error"
	case status == http.StatusNotFound:
		// the same body for missing and foreign tasks
		msg = "task not found"
	case status == http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
