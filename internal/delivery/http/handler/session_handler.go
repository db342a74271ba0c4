package handler

import (
	"net/http"

	"workshop-scheduler/internal/usecase"
	"workshop-scheduler/pkg/response"
)

// SessionHandler exposes the caller's identity. Tokens are issued by the
// identity provider and only verified here.
type SessionHandler struct {
	sessionUsecase usecase.SessionUsecase
}

func NewSessionHandler(sessionUsecase usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{
		sessionUsecase: sessionUsecase,
	}
}

func (h *SessionHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessionUsecase.GetCurrentUser(r.Context())
	if err != nil {
		writeError(w, err, "Failed to get current user")
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionUsecase.Logout(r.Context()); err != nil {
		writeError(w, err, "Failed to logout")
		return
	}

	response.Success(w, http.StatusOK, "Logout successful", nil)
}
