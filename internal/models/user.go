// Package models содержит доменные структуры автошколы: пользователей,
// профили преподавателей и студентов, группы, филиалы и категории прав,
// а также типы токенов и ошибки бизнес-уровня.
package models

import (
	"strings"
	"time"
)

// Role — роль пользователя. Набор значений закрыт: admin, teacher, student.
type Role string

const (
	// RoleAdmin — администратор автошколы.
	RoleAdmin Role = "admin"
	// RoleTeacher — преподаватель или инструктор.
	RoleTeacher Role = "teacher"
	// RoleStudent — студент, роль по умолчанию при регистрации.
	RoleStudent Role = "student"
)

// Valid сообщает, входит ли роль в допустимый набор.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// ParseRole разбирает строковое представление роли.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// User представляет учётную запись в системе.
//
// IsPaid имеет три состояния: true, false и nil. Значение отлично от nil
// только у студентов, см. ApplyPaidRule.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         Role       `json:"role"`
	BirthDate    *time.Time `json:"birth_date"`
	Phone        *string    `json:"phone"`
	Address      *string    `json:"address"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	IsPaid       *bool      `json:"is_paid"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ApplyPaidRule приводит поле IsPaid в соответствие с ролью.
// Для всех ролей, кроме студента, значение сбрасывается в nil независимо от входных данных.
// Студент без значения получает false.
func (u *User) ApplyPaidRule() {
	if u.Role != RoleStudent {
		u.IsPaid = nil
		return
	}
	if u.IsPaid == nil {
		paid := false
		u.IsPaid = &paid
	}
}

// FullName возвращает имя и фамилию через пробел.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail приводит email к нижнему регистру и убирает пробелы по краям.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicUser — представление пользователя для самообслуживания и регистрации.
type PublicUser struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Public возвращает усечённое представление пользователя.
func (u *User) Public() PublicUser {
	return PublicUser{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// UserPatch описывает частичное обновление пользователя.
// Поле равное nil не изменяется.
type UserPatch struct {
	Email       *string
	Password    *string
	FirstName   *string
	LastName    *string
	Role        *Role
	BirthDate   *time.Time
	Phone       *string
	Address     *string
	IsActive    *bool
	IsStaff     *bool
	IsSuperuser *bool
	IsPaid      *bool
	// IsPaidSet отличает явный null в запросе от отсутствия поля.
	IsPaidSet bool
}

// NewUser описывает данные для создания пользователя.
type NewUser struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        Role
	BirthDate   *time.Time
	Phone       *string
	Address     *string
	IsActive    *bool
	IsStaff     bool
	IsSuperuser bool
	IsPaid      *bool
}
