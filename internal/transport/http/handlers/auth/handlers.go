package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"planivo/internal/domain/auth"
	"planivo/internal/transport/http/api"
	"planivo/internal/transport/http/middleware"
	"planivo/internal/transport/http/shared"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	Store  *auth.Store
	Secret string
}

func NewHandler(store *auth.Store, secret string) *Handler {
	return &Handler{Store: store, Secret: secret}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if !shared.ValidateStruct(w, payload, reqID) {
		return
	}

	token, user, err := h.Store.Authenticate(r.Context(), h.Secret, payload.Email, payload.Password, tokenTTL)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", reqID)
		return
	}

	api.Success(w, map[string]any{
		"token":          token,
		"staffId":        user.StaffID,
		"organizationId": user.OrganizationID,
		"role":           user.Role,
	}, reqID)
}
