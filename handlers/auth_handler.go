package handlers

import (
	"errors"
	"net/http"

	"github.com/bolaenmano/tournament-api/auth"
	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/services"
)

type AuthHandler struct {
	verifier    *auth.GoogleVerifier
	tokens      *auth.TokenManager
	userService services.UserService
	admins      *auth.Allowlist
}

func NewAuthHandler(verifier *auth.GoogleVerifier, tokens *auth.TokenManager, userService services.UserService, admins *auth.Allowlist) *AuthHandler {
	return &AuthHandler{verifier: verifier, tokens: tokens, userService: userService, admins: admins}
}

// adminUser adds the computed admin flag to user payloads that describe the
// caller themselves.
type adminUser struct {
	*models.User
	IsAdmin bool `json:"isAdmin"`
}

type signInResponse struct {
	Token string    `json:"token"`
	User  adminUser `json:"user"`
}

// GoogleSignInHandler accepts an ID token from the web client, verifies it
// with Google and issues a session token.
func (h *AuthHandler) GoogleSignInHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDToken string `json:"idToken"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.IDToken == "" {
		badRequestResponse(w, r, errors.New("idToken is required"))
		return
	}

	profile, err := h.verifier.VerifyIDToken(r.Context(), input.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidGoogleToken) {
			unauthorizedResponse(w, r, services.ErrAuthInvalidToken.Error())
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	h.signIn(w, r, profile)
}

// GoogleExchangeHandler redeems a PKCE authorization code from the web
// client; the iOS and desktop variants use their own OAuth clients.
func (h *AuthHandler) GoogleExchangeHandler(w http.ResponseWriter, r *http.Request) {
	h.exchange(w, r, h.verifier.Web())
}

func (h *AuthHandler) GoogleExchangeIOSHandler(w http.ResponseWriter, r *http.Request) {
	h.exchange(w, r, h.verifier.IOS())
}

func (h *AuthHandler) GoogleExchangeDesktopHandler(w http.ResponseWriter, r *http.Request) {
	h.exchange(w, r, h.verifier.Desktop())
}

func (h *AuthHandler) exchange(w http.ResponseWriter, r *http.Request, client auth.GoogleClientConfig) {
	var input struct {
		Code         string `json:"code"`
		CodeVerifier string `json:"codeVerifier"`
		RedirectURI  string `json:"redirectUri"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Code == "" || input.CodeVerifier == "" {
		badRequestResponse(w, r, errors.New("code and codeVerifier are required"))
		return
	}

	profile, err := h.verifier.ExchangeCode(r.Context(), client, input.Code, input.CodeVerifier, input.RedirectURI)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidGoogleToken) {
			unauthorizedResponse(w, r, services.ErrAuthInvalidToken.Error())
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	h.signIn(w, r, profile)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, profile *auth.GoogleProfile) {
	user, err := h.userService.UpsertFromGoogle(r.Context(), profile.GoogleID, profile.Email, profile.DisplayName, profile.AvatarURL)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := signInResponse{
		Token: token,
		User:  adminUser{User: user, IsAdmin: h.admins.IsAdmin(user.Email)},
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
