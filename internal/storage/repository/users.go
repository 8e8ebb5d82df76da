package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, birth_date, phone, address,
			      is_active, is_staff, is_superuser, is_paid, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var (
		u          models.User
		role       string
		birthDate  sql.NullTime
		phone, adr sql.NullString
		isPaid     sql.NullBool
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role,
		&birthDate, &phone, &adr, &u.IsActive, &u.IsStaff, &u.IsSuperuser, &isPaid,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if birthDate.Valid {
		u.BirthDate = &birthDate.Time
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if adr.Valid {
		u.Address = &adr.String
	}
	if isPaid.Valid {
		u.IsPaid = &isPaid.Bool
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя и заполняет ID и временные метки.
// Перед записью применяется правило is_paid.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u.ApplyPaidRule()
	query := `INSERT INTO users (email, password_hash, first_name, last_name, role, birth_date,
			      phone, address, is_active, is_staff, is_superuser, is_paid)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id, created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.BirthDate,
		u.Phone, u.Address, u.IsActive, u.IsStaff, u.IsSuperuser, u.IsPaid,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email. Email должен быть нормализован.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// ListUsers возвращает пользователей по возрастанию ID. Пустая role не фильтрует,
// limit <= 0 возвращает все записи.
func (s *Storage) ListUsers(ctx context.Context, role models.Role, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE ($1 = '' OR role = $1)
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, string(role), limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser перезаписывает изменяемые поля пользователя. Email не меняется.
// Перед записью применяется правило is_paid.
func (s *Storage) UpdateUser(ctx context.Context, u *models.User) error {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u.ApplyPaidRule()
	query := `UPDATE users
			  SET password_hash = $1, first_name = $2, last_name = $3, role = $4, birth_date = $5,
			      phone = $6, address = $7, is_active = $8, is_staff = $9, is_superuser = $10,
			      is_paid = $11, updated_at = NOW()
			  WHERE id = $12
			  RETURNING updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.BirthDate,
		u.Phone, u.Address, u.IsActive, u.IsStaff, u.IsSuperuser,
		u.IsPaid, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// UpdatePassword сохраняет новый хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const op = "storage.UpdatePassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteUser удаляет пользователя; профили удаляются каскадно.
func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
