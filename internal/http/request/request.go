// Package request разбирает общие части HTTP-запросов: ID из пути и параметры пагинации.
package request

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
)

// ErrInvalidID возвращается, если параметр {id} не является положительным числом.
var ErrInvalidID = errors.New("invalid id in url")

// ErrInvalidPage возвращается при некорректных limit или offset.
var ErrInvalidPage = errors.New("limit and offset must be non-negative integers")

// ID возвращает числовой параметр {id} из пути запроса.
func ID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// Page возвращает limit и offset из строки запроса. Отсутствующий limit
// означает выборку всех записей.
func Page(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, ErrInvalidPage
		}
	}
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, ErrInvalidPage
		}
	}
	return limit, offset, nil
}
