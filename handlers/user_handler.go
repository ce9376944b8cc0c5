package handlers

import (
	"net/http"

	"github.com/bolaenmano/tournament-api/auth"
	"github.com/bolaenmano/tournament-api/middleware"
	"github.com/bolaenmano/tournament-api/services"
)

type UserHandler struct {
	userService services.UserService
	admins      *auth.Allowlist
}

func NewUserHandler(userService services.UserService, admins *auth.Allowlist) *UserHandler {
	return &UserHandler{userService: userService, admins: admins}
}

// GetMeHandler returns the caller's profile with tournament history.
func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "Unauthorized")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := adminUser{User: user, IsAdmin: h.admins.IsAdmin(user.Email)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetPushTokenHandler stores or clears the caller's Expo push token.
func (h *UserHandler) SetPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "Unauthorized")
		return
	}

	var input struct {
		ExpoPushToken *string `json:"expoPushToken"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.userService.SetExpoPushToken(r.Context(), userID, input.ExpoPushToken); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
