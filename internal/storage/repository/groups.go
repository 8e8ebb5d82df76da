package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

const groupViewQuery = `SELECT g.id, g.name, g.type,
			      dc.id, dc.name,
			      f.id, f.city, f.address, f.description,
			      tu.first_name, tu.last_name, tp.type
			  FROM groups g
			  JOIN driving_categories dc ON dc.id = g.driving_category_id
			  JOIN filials f ON f.id = g.filial_id
			  LEFT JOIN teacher_profiles tp ON tp.id = g.teacher_id
			  LEFT JOIN users tu ON tu.id = tp.user_id`

func scanGroupView(row scanner) (*models.GroupView, error) {
	var (
		g                   models.GroupView
		groupType           string
		firstName, lastName sql.NullString
		teacherType         sql.NullString
	)
	if err := row.Scan(&g.ID, &g.Name, &groupType,
		&g.DrivingCategory.ID, &g.DrivingCategory.Name,
		&g.Filial.ID, &g.Filial.City, &g.Filial.Address, &g.Filial.Description,
		&firstName, &lastName, &teacherType); err != nil {
		return nil, err
	}
	g.Type = models.TeachingType(groupType)
	if teacherType.Valid {
		display := models.TeacherDisplay(
			&models.User{FirstName: firstName.String, LastName: lastName.String},
			&models.TeacherProfile{Type: models.TeachingType(teacherType.String)},
		)
		g.Teacher = &display
	}
	return &g, nil
}

// CreateGroup сохраняет группу и заполняет её ID.
func (s *Storage) CreateGroup(ctx context.Context, g *models.Group) error {
	const op = "storage.CreateGroup"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO groups (name, driving_category_id, teacher_id, filial_id, type)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query,
		g.Name, g.DrivingCategoryID, g.TeacherID, g.FilialID, string(g.Type),
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetGroup возвращает группу со ссылками в виде ID.
func (s *Storage) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	const op = "storage.GetGroup"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		g         models.Group
		teacherID sql.NullInt64
		groupType string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, driving_category_id, teacher_id, filial_id, type FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.DrivingCategoryID, &teacherID, &g.FilialID, &groupType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	g.Type = models.TeachingType(groupType)
	if teacherID.Valid {
		g.TeacherID = &teacherID.Int64
	}
	return &g, nil
}

// GetGroupView возвращает группу с вложенными категорией, филиалом и преподавателем.
func (s *Storage) GetGroupView(ctx context.Context, id int64) (*models.GroupView, error) {
	const op = "storage.GetGroupView"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	g, err := scanGroupView(s.DB.QueryRowContext(ctx, groupViewQuery+` WHERE g.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return g, nil
}

// ListGroupViews возвращает группы по возрастанию ID.
func (s *Storage) ListGroupViews(ctx context.Context, limit, offset int) ([]*models.GroupView, error) {
	const op = "storage.ListGroupViews"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, groupViewQuery+` ORDER BY g.id LIMIT $1 OFFSET $2`,
		limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.GroupView, 0)
	for rows.Next() {
		g, err := scanGroupView(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateGroup перезаписывает поля группы.
func (s *Storage) UpdateGroup(ctx context.Context, g *models.Group) error {
	const op = "storage.UpdateGroup"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE groups
		 SET name = $1, driving_category_id = $2, teacher_id = $3, filial_id = $4, type = $5
		 WHERE id = $6`,
		g.Name, g.DrivingCategoryID, g.TeacherID, g.FilialID, string(g.Type), g.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteGroup удаляет группу; у студентов ссылка на неё обнуляется.
func (s *Storage) DeleteGroup(ctx context.Context, id int64) error {
	const op = "storage.DeleteGroup"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
