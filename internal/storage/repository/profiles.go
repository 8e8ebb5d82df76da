package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

// CreateTeacherProfile сохраняет профиль преподавателя. У пользователя может быть один профиль.
func (s *Storage) CreateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error {
	const op = "storage.CreateTeacherProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO teacher_profiles (user_id, type) VALUES ($1, $2) RETURNING id`,
		p.UserID, string(p.Type),
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetTeacherProfile возвращает профиль преподавателя по ID.
func (s *Storage) GetTeacherProfile(ctx context.Context, id int64) (*models.TeacherProfile, error) {
	const op = "storage.GetTeacherProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		p           models.TeacherProfile
		teacherType string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, type FROM teacher_profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &teacherType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	p.Type = models.TeachingType(teacherType)
	return &p, nil
}

// ListTeacherProfiles возвращает профили преподавателей по возрастанию ID.
func (s *Storage) ListTeacherProfiles(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error) {
	const op = "storage.ListTeacherProfiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, type FROM teacher_profiles ORDER BY id LIMIT $1 OFFSET $2`,
		limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.TeacherProfile, 0)
	for rows.Next() {
		var (
			p           models.TeacherProfile
			teacherType string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &teacherType); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.Type = models.TeachingType(teacherType)
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTeacherProfile перезаписывает пользователя и тип занятий профиля.
func (s *Storage) UpdateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error {
	const op = "storage.UpdateTeacherProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE teacher_profiles SET user_id = $1, type = $2 WHERE id = $3`,
		p.UserID, string(p.Type), p.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteTeacherProfile удаляет профиль; в группах преподаватель обнуляется.
func (s *Storage) DeleteTeacherProfile(ctx context.Context, id int64) error {
	const op = "storage.DeleteTeacherProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM teacher_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateStudentProfile сохраняет профиль студента. Группа необязательна.
func (s *Storage) CreateStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	const op = "storage.CreateStudentProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO student_profiles (user_id, group_id) VALUES ($1, $2) RETURNING id`,
		p.UserID, p.GroupID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetStudentProfile возвращает профиль студента по ID.
func (s *Storage) GetStudentProfile(ctx context.Context, id int64) (*models.StudentProfile, error) {
	const op = "storage.GetStudentProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		p       models.StudentProfile
		groupID sql.NullInt64
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, group_id FROM student_profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if groupID.Valid {
		p.GroupID = &groupID.Int64
	}
	return &p, nil
}

// ListStudentProfiles возвращает профили студентов по возрастанию ID.
func (s *Storage) ListStudentProfiles(ctx context.Context, limit, offset int) ([]*models.StudentProfile, error) {
	const op = "storage.ListStudentProfiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, group_id FROM student_profiles ORDER BY id LIMIT $1 OFFSET $2`,
		limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.StudentProfile, 0)
	for rows.Next() {
		var (
			p       models.StudentProfile
			groupID sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.UserID, &groupID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if groupID.Valid {
			p.GroupID = &groupID.Int64
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateStudentProfile перезаписывает пользователя и группу профиля.
func (s *Storage) UpdateStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	const op = "storage.UpdateStudentProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE student_profiles SET user_id = $1, group_id = $2 WHERE id = $3`,
		p.UserID, p.GroupID, p.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteStudentProfile удаляет профиль студента.
func (s *Storage) DeleteStudentProfile(ctx context.Context, id int64) error {
	const op = "storage.DeleteStudentProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM student_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
