package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleProfile is the verified identity extracted from a Google ID token.
type GoogleProfile struct {
	GoogleID    string
	Email       string
	DisplayName string
	AvatarURL   *string
}

// GoogleClientConfig identifies one OAuth client of the app. iOS installed
// apps have no client secret; the desktop and web clients do.
type GoogleClientConfig struct {
	ClientID     string
	ClientSecret string
}

type GoogleVerifierConfig struct {
	Web     GoogleClientConfig
	IOS     GoogleClientConfig
	Desktop GoogleClientConfig
}

// GoogleVerifier validates Google sign-ins: direct ID tokens from the web
// flow and PKCE authorization codes from the native apps.
type GoogleVerifier struct {
	cfg          GoogleVerifierConfig
	client       *http.Client
	tokenInfoURL string
}

type GoogleVerifierOption func(*GoogleVerifier)

// WithHTTPClient overrides the HTTP client, used by tests together with
// WithTokenInfoURL to point verification at a local server.
func WithHTTPClient(client *http.Client) GoogleVerifierOption {
	return func(v *GoogleVerifier) { v.client = client }
}

func WithTokenInfoURL(u string) GoogleVerifierOption {
	return func(v *GoogleVerifier) { v.tokenInfoURL = u }
}

func NewGoogleVerifier(cfg GoogleVerifierConfig, opts ...GoogleVerifierOption) *GoogleVerifier {
	v := &GoogleVerifier{
		cfg:          cfg,
		client:       &http.Client{Timeout: 10 * time.Second},
		tokenInfoURL: tokenInfoURL,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type tokenInfoResponse struct {
	Audience      string `json:"aud"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyIDToken checks the token with Google's tokeninfo endpoint and
// confirms it was issued to one of this app's OAuth clients.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*GoogleProfile, error) {
	endpoint := v.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidGoogleToken
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if !v.audienceAllowed(info.Audience) {
		return nil, ErrInvalidGoogleToken
	}
	if info.Subject == "" || info.Email == "" || info.EmailVerified != "true" {
		return nil, ErrInvalidGoogleToken
	}

	profile := &GoogleProfile{
		GoogleID:    info.Subject,
		Email:       info.Email,
		DisplayName: info.Name,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = info.Email
	}
	if info.Picture != "" {
		profile.AvatarURL = &info.Picture
	}
	return profile, nil
}

// ExchangeCode redeems a PKCE authorization code from one of the native
// clients and verifies the resulting ID token.
func (v *GoogleVerifier) ExchangeCode(ctx context.Context, client GoogleClientConfig, code, codeVerifier, redirectURI string) (*GoogleProfile, error) {
	if client.ClientID == "" {
		return nil, fmt.Errorf("oauth client is not configured")
	}

	conf := &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURI,
	}

	token, err := conf.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %v", ErrInvalidGoogleToken, err)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return nil, ErrInvalidGoogleToken
	}
	return v.VerifyIDToken(ctx, idToken)
}

// Web, IOS and Desktop expose the configured clients for the exchange routes.
func (v *GoogleVerifier) Web() GoogleClientConfig     { return v.cfg.Web }
func (v *GoogleVerifier) IOS() GoogleClientConfig     { return v.cfg.IOS }
func (v *GoogleVerifier) Desktop() GoogleClientConfig { return v.cfg.Desktop }

func (v *GoogleVerifier) audienceAllowed(aud string) bool {
	if aud == "" {
		return false
	}
	for _, id := range []string{v.cfg.Web.ClientID, v.cfg.IOS.ClientID, v.cfg.Desktop.ClientID} {
		if id != "" && id == aud {
			return true
		}
	}
	return false
}
