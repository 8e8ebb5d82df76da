// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков: ошибки с машиночитаемым
// кодом, ошибки валидации по полям и сопоставление доменных ошибок со статусами.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Машиночитаемые коды ошибок, по которым клиент различает случаи.
const (
	CodeTokenNotValid      = "token_not_valid"
	CodeInvalidCredentials = "invalid_credentials"
	CodeNotAuthenticated   = "not_authenticated"
	CodePermissionDenied   = "permission_denied"
	CodeNotFound           = "not_found"
	CodeInvalid            = "invalid"
	CodeThrottled          = "throttled"
	CodeServerError        = "server_error"
)

// Response описывает стандартную структуру успешного JSON-ответа сервера.
// Status содержит "OK", Data данные ответа.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// ErrorResponse — тело ответа с ошибкой.
// Fields заполняется только для ошибок валидации.
type ErrorResponse struct {
	Status string              `json:"status" example:"Error"`
	Error  string              `json:"error" example:"invalid request body"`
	Code   string              `json:"code,omitempty" example:"invalid"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Detail возвращает успешный ответ с одним сообщением в поле data.detail.
func Detail(msg string) Response {
	return StatusOKWithData(map[string]string{"detail": msg})
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Error: msg}
}

// ErrorWithCode возвращает ErrorResponse с сообщением и кодом.
func ErrorWithCode(msg, code string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Error: msg, Code: code}
}

// Fields возвращает ошибку валидации по полям.
func Fields(fields map[string][]string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  "validation failed",
		Code:   CodeInvalid,
		Fields: fields,
	}
}

// NewValidator создаёт валидатор, который называет поля по их json-тегам.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError формирует ответ на основе ошибок валидации.
// Каждое нарушение превращается в человекочитаемый текст для своего поля.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	fields := make(map[string][]string, len(errs))
	for _, err := range errs {
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = "This field is required."
		case "email":
			msg = "Enter a valid email address."
		case "min":
			msg = fmt.Sprintf("Ensure this field has at least %s characters.", err.Param())
		case "max":
			msg = fmt.Sprintf("Ensure this field has no more than %s characters.", err.Param())
		case "oneof":
			msg = fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(err.Value()))
		case "gt", "gte":
			msg = fmt.Sprintf("Ensure this value is greater than %s.", err.Param())
		default:
			msg = fmt.Sprintf("field %s is not valid", err.Field())
		}
		fields[err.Field()] = append(fields[err.Field()], msg)
	}
	return Fields(fields)
}

// FromError сопоставляет ошибку со статусом HTTP и телом ответа.
// Неизвестные ошибки дают 500 без подробностей.
func FromError(err error) (int, ErrorResponse) {
	var verr *models.ValidationError
	var vErrs validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, Fields(verr.Fields)
	case errors.As(err, &vErrs):
		return http.StatusBadRequest, ValidationError(vErrs)
	case errors.Is(err, models.ErrTokenRevoked),
		errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenMalformed):
		return http.StatusUnauthorized, ErrorWithCode(tokenMessage(err), CodeTokenNotValid)
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorWithCode(models.ErrInvalidCredentials.Error(), CodeInvalidCredentials)
	case errors.Is(err, models.ErrPermissionDenied):
		return http.StatusForbidden, ErrorWithCode(models.ErrPermissionDenied.Error(), CodePermissionDenied)
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, ErrorWithCode("not found", CodeNotFound)
	}
	return http.StatusInternalServerError, ErrorWithCode("internal server error", CodeServerError)
}

func tokenMessage(err error) string {
	if errors.Is(err, models.ErrTokenRevoked) {
		return "Token is blacklisted"
	}
	return "Token is invalid or expired"
}

// RenderError записывает ответ для ошибки err и возвращает выбранный статус.
func RenderError(w http.ResponseWriter, r *http.Request, err error) int {
	status, body := FromError(err)
	render.Status(r, status)
	render.JSON(w, r, body)
	return status
}

// NotAuthenticated записывает ответ 401 для анонимного запроса к закрытому ресурсу.
func NotAuthenticated(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, ErrorWithCode("Authentication credentials were not provided.", CodeNotAuthenticated))
}

// Forbidden записывает ответ 403.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusForbidden)
	render.JSON(w, r, ErrorWithCode(models.ErrPermissionDenied.Error(), CodePermissionDenied))
}
