// Package access реализует ролевую проверку доступа к ресурсам автошколы.
//
// Allow не хранит состояния. Правила проверяются в фиксированном
// порядке, срабатывает первое подходящее:
//
//  1. Анонимный субъект может только зарегистрироваться и войти.
//  2. Собственный профиль доступен владельцу на чтение и изменение.
//  3. Администратору разрешено всё.
//  4. Всё остальное запрещено.
package access

import "github.com/magabrotheeeer/driving-school/internal/models"

// ResourceKind — вид ресурса, к которому обращается запрос.
type ResourceKind string

const (
	ResourceAuth            ResourceKind = "auth"
	ResourceUser            ResourceKind = "user"
	ResourceGroup           ResourceKind = "group"
	ResourceFilial          ResourceKind = "filial"
	ResourceDrivingCategory ResourceKind = "driving_category"
	ResourceStudentProfile  ResourceKind = "student_profile"
	ResourceTeacherProfile  ResourceKind = "teacher_profile"
	ResourceSelfProfile     ResourceKind = "self_profile"
)

// Action — действие над ресурсом.
type Action string

const (
	ActionRegister     Action = "register"
	ActionAuthenticate Action = "authenticate"
	ActionRead         Action = "read"
	ActionList         Action = "list"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
)

// Subject — аутентифицированный субъект запроса.
type Subject struct {
	UserID int64
	Email  string
	Role   models.Role
}

// Allow решает, может ли субъект выполнить действие над ресурсом.
// subject равный nil означает анонимный запрос.
func Allow(subject *Subject, isSelf bool, kind ResourceKind, action Action) bool {
	if subject == nil {
		return action == ActionRegister || action == ActionAuthenticate
	}
	if kind == ResourceSelfProfile && isSelf {
		// Свой профиль ограничен чтением и изменением для всех ролей, включая администратора.
		return action == ActionRead || action == ActionUpdate
	}
	switch subject.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher, models.RoleStudent:
		return false
	}
	return false
}
