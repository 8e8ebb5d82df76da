package drivingschool

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/driving-school/internal/access"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/auth/changepassword"
	googlehandler "github.com/magabrotheeeer/driving-school/internal/http/handlers/auth/google"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/auth/verify"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/health"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/profiles"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/school"
	"github.com/magabrotheeeer/driving-school/internal/http/handlers/users"
	"github.com/magabrotheeeer/driving-school/internal/http/middlewarectx"
)

// AuthService — операции аутентификации, нужные HTTP-слою.
type AuthService interface {
	login.Service
	refresh.Service
	verify.Service
	logout.Service
	changepassword.Service
	register.Service
	googlehandler.Service
}

// UserService — операции над учётными записями.
type UserService interface {
	users.SelfService
	users.Service
}

// SchoolService — операции над справочниками и группами.
type SchoolService interface {
	school.FilialService
	school.CategoryService
	school.GroupService
}

// ProfileService — операции над профилями.
type ProfileService interface {
	profiles.TeacherService
	profiles.StudentService
}

// Deps — зависимости маршрутов.
type Deps struct {
	Auth     AuthService
	Users    UserService
	School   SchoolService
	Profiles ProfileService
	// Google равен nil, если вход через Google не настроен.
	Google  googlehandler.Provider
	Limiter *middlewarectx.IPRateLimiter
	// Metrics оборачивает каждый запрос; /metrics отдаёт MetricsHandler.
	Metrics        func(http.Handler) http.Handler
	MetricsHandler http.Handler
	DB             health.Pinger
}

type resourceHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)
	if d.Metrics != nil {
		r.Use(d.Metrics)
	}

	authz := func(kind access.ResourceKind, action access.Action) func(http.Handler) http.Handler {
		return middlewarectx.Authorize(kind, action, logger)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Выдача токенов и регистрация: заголовок Authorization не разбирается.
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, logger))
			}
			obtain := authz(access.ResourceAuth, access.ActionAuthenticate)

			r.With(obtain).Post("/auth/token", login.New(logger, d.Auth).ServeHTTP)
			r.With(obtain).Post("/auth/token/refresh", refresh.New(logger, d.Auth).ServeHTTP)
			r.With(obtain).Post("/auth/token/verify", verify.New(logger, d.Auth).ServeHTTP)
			if d.Google != nil {
				r.With(obtain).Get("/auth/google", googlehandler.NewLogin(logger, d.Google).ServeHTTP)
				r.With(obtain).Get("/auth/google/callback", googlehandler.NewCallback(logger, d.Google, d.Auth).ServeHTTP)
			}
			r.With(authz(access.ResourceUser, access.ActionRegister)).Post("/users", register.New(logger, d.Auth).ServeHTTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(d.Auth, logger))

			readSelf := authz(access.ResourceSelfProfile, access.ActionRead)
			updateSelf := authz(access.ResourceSelfProfile, access.ActionUpdate)

			r.With(updateSelf).Post("/auth/logout", logout.New(logger, d.Auth).ServeHTTP)
			r.With(updateSelf).Patch("/auth/change-password", changepassword.New(logger, d.Auth).ServeHTTP)

			me := users.NewMe(logger, d.Users)
			r.With(readSelf).Get("/users/me", me.Get)
			r.With(updateSelf).Put("/users/me", me.Update)
			r.With(updateSelf).Patch("/users/me", me.Update)

			admin := users.NewAdmin(logger, d.Users)
			r.With(authz(access.ResourceUser, access.ActionList)).Get("/users", admin.List)

			mountResource(r, "/admin/users", access.ResourceUser, admin, authz)
			mountResource(r, "/groups", access.ResourceGroup, school.NewGroups(logger, d.School), authz)
			mountResource(r, "/filials", access.ResourceFilial, school.NewFilials(logger, d.School), authz)
			mountResource(r, "/driving-categories", access.ResourceDrivingCategory, school.NewDrivingCategories(logger, d.School), authz)
			mountResource(r, "/profiles/students", access.ResourceStudentProfile, profiles.NewStudents(logger, d.Profiles), authz)
			mountResource(r, "/profiles/teachers", access.ResourceTeacherProfile, profiles.NewTeachers(logger, d.Profiles), authz)
		})
	})

	if d.DB != nil {
		r.Get("/health", health.New(logger, d.DB).ServeHTTP)
	}
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func mountResource(
	r chi.Router,
	pattern string,
	kind access.ResourceKind,
	h resourceHandler,
	authz func(access.ResourceKind, access.Action) func(http.Handler) http.Handler,
) {
	r.Route(pattern, func(r chi.Router) {
		r.With(authz(kind, access.ActionList)).Get("/", h.List)
		r.With(authz(kind, access.ActionCreate)).Post("/", h.Create)
		r.With(authz(kind, access.ActionRead)).Get("/{id}", h.Get)
		r.With(authz(kind, access.ActionUpdate)).Put("/{id}", h.Update)
		r.With(authz(kind, access.ActionUpdate)).Patch("/{id}", h.Update)
		r.With(authz(kind, access.ActionDelete)).Delete("/{id}", h.Delete)
	})
}
