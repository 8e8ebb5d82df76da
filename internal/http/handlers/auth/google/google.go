// Package google реализует вход через Google по протоколу OAuth2 / OpenID Connect.
package google

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/driving-school/internal/http/response"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

// StateCookie — имя cookie с параметром state.
const StateCookie = "oauth_state"

const stateTTL = 10 * time.Minute

// Provider описывает внешний провайдер идентификации.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*models.ExternalIdentity, error)
}

// Service описывает выдачу токенов по внешней идентичности.
type Service interface {
	LoginWithGoogle(ctx context.Context, identity models.ExternalIdentity) (*models.TokenPair, error)
}

// LoginHandler перенаправляет пользователя на страницу согласия Google.
type LoginHandler struct {
	log      *slog.Logger
	provider Provider
}

// NewLogin создает новый экземпляр LoginHandler.
func NewLogin(log *slog.Logger, provider Provider) *LoginHandler {
	return &LoginHandler{log: log, provider: provider}
}

// ServeHTTP godoc
// @Summary Вход через Google
// @Description Перенаправляет на страницу авторизации Google.
// @Tags Auth
// @Success 307 "Redirect"
// @Router /auth/google [get]
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler принимает код авторизации и выдает пару токенов.
type CallbackHandler struct {
	log      *slog.Logger
	provider Provider
	service  Service
}

// NewCallback создает новый экземпляр CallbackHandler.
func NewCallback(log *slog.Logger, provider Provider, service Service) *CallbackHandler {
	return &CallbackHandler{log: log, provider: provider, service: service}
}

// ServeHTTP godoc
// @Summary Callback входа через Google
// @Description Обменивает код авторизации на токены. Аккаунт связывается по подтверждённому email или создаётся с ролью student.
// @Tags Auth
// @Produce  json
// @Param code query string true "Код авторизации"
// @Param state query string true "Параметр state"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/google/callback [get]
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.google.callback"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(StateCookie)
	if err != nil || state == "" || cookie.Value != state {
		log.Warn("oauth state mismatch")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid oauth state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: StateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing authorization code"))
		return
	}

	identity, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		log.Warn("failed to exchange authorization code", sl.Err(err))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.ErrorWithCode("Google authentication failed", response.CodeInvalidCredentials))
		return
	}

	pair, err := h.service.LoginWithGoogle(r.Context(), *identity)
	if err != nil {
		log.Warn("google login rejected", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user logged in with google")
	render.JSON(w, r, response.StatusOKWithData(pair))
}
