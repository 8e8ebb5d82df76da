// Package users содержит HTTP-обработчики учётных записей: собственный
// профиль (/users/me) и администрирование пользователей.
package users

import (
	"encoding/json"
	"time"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

const dateLayout = "2006-01-02"

// NullableBool различает отсутствие поля, явный null и значение.
type NullableBool struct {
	Set   bool
	Value *bool
}

// UnmarshalJSON вызывается и для null, поэтому Set выставляется всегда.
func (n *NullableBool) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// PatchRequest — тело PUT/PATCH запроса. Отсутствующие поля не изменяются.
type PatchRequest struct {
	Email       *string      `json:"email"`
	Password    *string      `json:"password"`
	FirstName   *string      `json:"first_name"`
	LastName    *string      `json:"last_name"`
	Role        *models.Role `json:"role"`
	BirthDate   *string      `json:"birth_date" example:"2000-01-31"`
	Phone       *string      `json:"phone"`
	Address     *string      `json:"address"`
	IsActive    *bool        `json:"is_active"`
	IsStaff     *bool        `json:"is_staff"`
	IsSuperuser *bool        `json:"is_superuser"`
	IsPaid      NullableBool `json:"is_paid" swaggertype:"boolean"`
}

// CreateRequest — тело запроса на создание пользователя администратором.
type CreateRequest struct {
	Email       string       `json:"email" validate:"required,email"`
	Password    string       `json:"password" validate:"required"`
	FirstName   string       `json:"first_name" validate:"required,max=50"`
	LastName    string       `json:"last_name" validate:"required,max=50"`
	Role        models.Role  `json:"role" validate:"omitempty,oneof=admin teacher student"`
	BirthDate   *string      `json:"birth_date" example:"2000-01-31"`
	Phone       *string      `json:"phone" validate:"omitempty,max=20"`
	Address     *string      `json:"address"`
	IsActive    *bool        `json:"is_active"`
	IsStaff     bool         `json:"is_staff"`
	IsSuperuser bool         `json:"is_superuser"`
	IsPaid      NullableBool `json:"is_paid" swaggertype:"boolean"`
}

// Patch преобразует запрос в models.UserPatch.
func (p PatchRequest) Patch() (models.UserPatch, *models.ValidationError) {
	patch := models.UserPatch{
		Email:       p.Email,
		Password:    p.Password,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Role:        p.Role,
		Phone:       p.Phone,
		Address:     p.Address,
		IsActive:    p.IsActive,
		IsStaff:     p.IsStaff,
		IsSuperuser: p.IsSuperuser,
		IsPaid:      p.IsPaid.Value,
		IsPaidSet:   p.IsPaid.Set,
	}
	if p.BirthDate != nil {
		d, err := parseDate(*p.BirthDate)
		if err != nil {
			return patch, err
		}
		patch.BirthDate = d
	}
	return patch, nil
}

// requireFull проверяет наличие обязательных полей при полном обновлении (PUT).
func (p PatchRequest) requireFull() *models.ValidationError {
	verr := &models.ValidationError{}
	if p.Email == nil {
		verr.Add("email", "This field is required.")
	}
	if p.FirstName == nil {
		verr.Add("first_name", "This field is required.")
	}
	if p.LastName == nil {
		verr.Add("last_name", "This field is required.")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// NewUser преобразует запрос в models.NewUser.
func (c CreateRequest) NewUser() (models.NewUser, *models.ValidationError) {
	in := models.NewUser{
		Email:       c.Email,
		Password:    c.Password,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Role:        c.Role,
		Phone:       c.Phone,
		Address:     c.Address,
		IsActive:    c.IsActive,
		IsStaff:     c.IsStaff,
		IsSuperuser: c.IsSuperuser,
		IsPaid:      c.IsPaid.Value,
	}
	if c.BirthDate != nil {
		d, err := parseDate(*c.BirthDate)
		if err != nil {
			return in, err
		}
		in.BirthDate = d
	}
	return in, nil
}

func parseDate(s string) (*time.Time, *models.ValidationError) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, models.NewValidationError("birth_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	return &d, nil
}
