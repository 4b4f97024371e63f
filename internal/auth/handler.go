package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gatehq/gatehouse/internal/observability"
	"github.com/gatehq/gatehouse/internal/platform/httpx"
	"github.com/gatehq/gatehouse/internal/shared"
	"github.com/gatehq/gatehouse/internal/token"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	issuer      *token.Issuer
	broadcaster LoginBroadcaster
	metrics     *observability.Metrics
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance. broadcaster and metrics may
// be nil, in which case login events and counters are simply skipped.
func NewHandler(logger *slog.Logger, service *Service, issuer *token.Issuer, broadcaster LoginBroadcaster, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		issuer:      issuer,
		broadcaster: broadcaster,
		metrics:     metrics,
		validator:   validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(RequireUser(h.issuer))
		r.Get("/me", h.handleMe)
	})
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", "request body is not valid JSON")
		return
	}
	if fields := h.validate(req); len(fields) > 0 {
		httpx.ValidationProblem(w, fields)
		return
	}

	user, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrEmailTaken) {
			h.logger.Error("register user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	h.metrics.IncRegistration()
	h.logger.Info("user registered", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", "request body is not valid JSON")
		return
	}
	if fields := h.validate(req); len(fields) > 0 {
		httpx.ValidationProblem(w, fields)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	signed, err := h.issuer.Issue(user.ID, user.Name)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastLogin(r.Context(), LoginEvent{
			EventID: uuid.NewString(),
			UserID:  user.ID,
			Name:    user.Name,
			At:      time.Now().UTC(),
		})
	}

	h.metrics.IncLogin()
	h.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusOK, loginResponse{Token: signed, User: user})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidToken)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		// A valid token for a vanished account reads as unauthorized,
		// not as a missing resource.
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, shared.ErrInvalidToken)
			return
		}
		h.logger.Error("load current user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) validate(form any) map[string]string {
	err := h.validator.Struct(form)
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["body"] = "invalid"
		return fields
	}
	for _, fieldErr := range verrs {
		fields[fieldErr.Field()] = fieldErr.Tag()
	}
	return fields
}
