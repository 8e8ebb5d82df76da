package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

// CreateFilial сохраняет филиал и заполняет его ID.
func (s *Storage) CreateFilial(ctx context.Context, f *models.Filial) error {
	const op = "storage.CreateFilial"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO filials (city, address, description)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, f.City, f.Address, f.Description).Scan(&f.ID); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetFilial возвращает филиал по ID.
func (s *Storage) GetFilial(ctx context.Context, id int64) (*models.Filial, error) {
	const op = "storage.GetFilial"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var f models.Filial
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, city, address, description FROM filials WHERE id = $1`, id,
	).Scan(&f.ID, &f.City, &f.Address, &f.Description)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &f, nil
}

// ListFilials возвращает филиалы по возрастанию ID.
func (s *Storage) ListFilials(ctx context.Context, limit, offset int) ([]*models.Filial, error) {
	const op = "storage.ListFilials"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, city, address, description FROM filials ORDER BY id LIMIT $1 OFFSET $2`,
		limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Filial, 0)
	for rows.Next() {
		var f models.Filial
		if err := rows.Scan(&f.ID, &f.City, &f.Address, &f.Description); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateFilial перезаписывает поля филиала.
func (s *Storage) UpdateFilial(ctx context.Context, f *models.Filial) error {
	const op = "storage.UpdateFilial"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE filials SET city = $1, address = $2, description = $3 WHERE id = $4`,
		f.City, f.Address, f.Description, f.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteFilial удаляет филиал; его группы удаляются каскадно.
func (s *Storage) DeleteFilial(ctx context.Context, id int64) error {
	const op = "storage.DeleteFilial"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM filials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateDrivingCategory сохраняет категорию. Имя уникально.
func (s *Storage) CreateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error {
	const op = "storage.CreateDrivingCategory"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO driving_categories (name) VALUES ($1) RETURNING id`, c.Name,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetDrivingCategory возвращает категорию по ID.
func (s *Storage) GetDrivingCategory(ctx context.Context, id int64) (*models.DrivingCategory, error) {
	const op = "storage.GetDrivingCategory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var c models.DrivingCategory
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name FROM driving_categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &c, nil
}

// ListDrivingCategories возвращает категории по возрастанию ID.
func (s *Storage) ListDrivingCategories(ctx context.Context, limit, offset int) ([]*models.DrivingCategory, error) {
	const op = "storage.ListDrivingCategories"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name FROM driving_categories ORDER BY id LIMIT $1 OFFSET $2`,
		limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.DrivingCategory, 0)
	for rows.Next() {
		var c models.DrivingCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateDrivingCategory переименовывает категорию.
func (s *Storage) UpdateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error {
	const op = "storage.UpdateDrivingCategory"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE driving_categories SET name = $1 WHERE id = $2`, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteDrivingCategory удаляет категорию; её группы удаляются каскадно.
func (s *Storage) DeleteDrivingCategory(ctx context.Context, id int64) error {
	const op = "storage.DeleteDrivingCategory"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM driving_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
