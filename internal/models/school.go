package models

import "fmt"

// TeachingType — тип занятий группы или преподавателя.
type TeachingType string

const (
	// TeachingTheory — теоретические занятия.
	TeachingTheory TeachingType = "theory"
	// TeachingPractice — практическое вождение.
	TeachingPractice TeachingType = "practice"
)

// Valid сообщает, входит ли тип в допустимый набор.
func (t TeachingType) Valid() bool {
	return t == TeachingTheory || t == TeachingPractice
}

// Display возвращает человекочитаемое название типа.
func (t TeachingType) Display() string {
	switch t {
	case TeachingTheory:
		return "Theory"
	case TeachingPractice:
		return "Practice"
	}
	return string(t)
}

// Filial — филиал автошколы.
type Filial struct {
	ID          int64  `json:"id"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (f Filial) String() string {
	return fmt.Sprintf("%s - %s", f.City, f.Address)
}

// DrivingCategory — категория водительских прав (A, B, C...).
type DrivingCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TeacherProfile — профиль преподавателя, один к одному с пользователем роли teacher.
type TeacherProfile struct {
	ID     int64        `json:"id"`
	UserID int64        `json:"user"`
	Type   TeachingType `json:"type"`
}

// StudentProfile — профиль студента, один к одному с пользователем роли student.
// GroupID становится nil при удалении группы.
type StudentProfile struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user"`
	GroupID *int64 `json:"group"`
}

// Group — учебная группа.
// TeacherID становится nil при удалении преподавателя; удаление категории
// или филиала удаляет группу.
type Group struct {
	ID                int64        `json:"id"`
	Name              string       `json:"name"`
	DrivingCategoryID int64        `json:"driving_category"`
	TeacherID         *int64       `json:"teacher"`
	FilialID          int64        `json:"filial"`
	Type              TeachingType `json:"type"`
}

// GroupView — представление группы для чтения с вложенными сущностями.
type GroupView struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	DrivingCategory DrivingCategory `json:"driving_category"`
	Teacher         *string         `json:"teacher"`
	Filial          Filial          `json:"filial"`
	Type            TeachingType    `json:"type"`
}

// TeacherDisplay формирует строку преподавателя вида "Имя Фамилия (Theory)".
func TeacherDisplay(u *User, p *TeacherProfile) string {
	return fmt.Sprintf("%s (%s)", u.FullName(), p.Type.Display())
}
