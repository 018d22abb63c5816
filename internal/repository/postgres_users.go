package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postcare/internal/models"
)

// PostgresUsersRepository 用户Repository实现
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository 创建用户Repository
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

// GetUser 根据 user_id 获取用户
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	var email sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, name, email, role FROM users WHERE user_id = $1`,
		userID,
	).Scan(&u.UserID, &u.Name, &email, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}

// ListPatientsByDoctor 医生负责过的患者
func (r *PostgresUsersRepository) ListPatientsByDoctor(ctx context.Context, doctorID string) ([]*models.User, error) {
	query := `
		SELECT DISTINCT u.user_id, u.name, u.email, u.role
		FROM users u
		JOIN treatment_plans tp ON tp.patient_id = u.user_id
		WHERE tp.doctor_id = $1
		ORDER BY u.name, u.user_id
	`
	rows, err := r.db.QueryContext(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	out := []*models.User{}
	for rows.Next() {
		var u models.User
		var email sql.NullString
		if err := rows.Scan(&u.UserID, &u.Name, &email, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		if email.Valid {
			u.Email = &email.String
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}
	return out, nil
}
