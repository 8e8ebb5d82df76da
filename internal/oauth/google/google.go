// Package google реализует вход через Google по протоколу OpenID Connect.
//
// Provider строит ссылку на страницу согласия, обменивает код авторизации на
// токены и проверяет подпись id_token по ключам Google.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/magabrotheeeer/driving-school/internal/config"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

const (
	// ProviderName — имя провайдера в событиях и логах.
	ProviderName = "google"

	issuerURL = "https://accounts.google.com"
	jwksURL   = "https://www.googleapis.com/oauth2/v3/certs"
)

// ErrMissingIDToken возвращается, если ответ токен-эндпоинта не содержит id_token.
var ErrMissingIDToken = errors.New("missing id_token in token response")

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// Provider — клиент OAuth2 с проверкой id_token.
type Provider struct {
	oauth2   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// New создаёт провайдер с эндпоинтами и ключами Google.
func New(ctx context.Context, cfg config.GoogleOAuth) *Provider {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	verifier := oidc.NewVerifier(issuerURL, keySet, &oidc.Config{ClientID: cfg.ClientID})
	return NewWithVerifier(oauthCfg, verifier)
}

// NewWithVerifier создаёт провайдер с произвольными эндпоинтами и проверкой подписи.
func NewWithVerifier(oauthCfg *oauth2.Config, verifier *oidc.IDTokenVerifier) *Provider {
	return &Provider{oauth2: oauthCfg, verifier: verifier}
}

// AuthCodeURL возвращает ссылку на страницу согласия Google.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// Exchange обменивает код авторизации на подтверждённую личность пользователя.
func (p *Provider) Exchange(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	const op = "google.Exchange"

	token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to exchange code: %w", op, err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingIDToken)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to verify id_token: %w", op, err)
	}
	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: failed to parse claims: %w", op, err)
	}

	return &models.ExternalIdentity{
		Provider:      ProviderName,
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		FirstName:     claims.GivenName,
		LastName:      claims.FamilyName,
	}, nil
}
