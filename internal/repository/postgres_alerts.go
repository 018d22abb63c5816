package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"postcare/internal/models"

	"github.com/google/uuid"
)

const alertColumns = `
	a.alert_id, a.patient_id, a.doctor_id, a.plan_id, a.type, a.level,
	a.message, a.is_read, a.risk_score, a.status, a.created_at, a.updated_at`

// PostgresAlertsRepository 报警Repository实现
type PostgresAlertsRepository struct {
	db *sql.DB
}

// NewPostgresAlertsRepository 创建报警Repository
func NewPostgresAlertsRepository(db *sql.DB) *PostgresAlertsRepository {
	return &PostgresAlertsRepository{db: db}
}

var _ AlertsRepository = (*PostgresAlertsRepository)(nil)

func scanAlert(row rowScanner, extra ...interface{}) (*models.Alert, error) {
	var a models.Alert
	var doctorID, planID sql.NullString
	var riskScore sql.NullInt64

	dest := []interface{}{
		&a.AlertID,
		&a.PatientID,
		&doctorID,
		&planID,
		&a.Type,
		&a.Level,
		&a.Message,
		&a.IsRead,
		&riskScore,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if doctorID.Valid {
		a.DoctorID = &doctorID.String
	}
	if planID.Valid {
		a.PlanID = &planID.String
	}
	if riskScore.Valid {
		score := int(riskScore.Int64)
		a.RiskScore = &score
	}
	return &a, nil
}

// CreateAlert 创建报警
func (r *PostgresAlertsRepository) CreateAlert(ctx context.Context, a *models.Alert) error {
	if a.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if a.AlertID == "" {
		a.AlertID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = models.AlertStatusActive
	}
	if a.Level == "" {
		a.Level = models.AlertLevelWarning
	}

	query := `
		INSERT INTO alerts (
			alert_id, patient_id, doctor_id, plan_id, type, level,
			message, is_read, risk_score, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.AlertID,
		a.PatientID,
		a.DoctorID,
		a.PlanID,
		a.Type,
		a.Level,
		a.Message,
		a.IsRead,
		a.RiskScore,
		a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetAlert 根据 alert_id 获取报警
func (r *PostgresAlertsRepository) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	query := `SELECT` + alertColumns + ` FROM alerts a WHERE a.alert_id = $1`
	a, err := scanAlert(r.db.QueryRowContext(ctx, query, alertID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

// FindActiveAlert 患者某类型最近一条 ACTIVE 报警
func (r *PostgresAlertsRepository) FindActiveAlert(ctx context.Context, patientID, alertType string) (*models.Alert, error) {
	query := `SELECT` + alertColumns + `
		FROM alerts a
		WHERE a.patient_id = $1 AND a.type = $2 AND a.status = $3
		ORDER BY a.created_at DESC
		LIMIT 1
	`
	a, err := scanAlert(r.db.QueryRowContext(ctx, query, patientID, alertType, models.AlertStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active alert: %w", err)
	}
	return a, nil
}

// ResolveActiveAlerts 批量关闭患者某类型的 ACTIVE 报警
func (r *PostgresAlertsRepository) ResolveActiveAlerts(ctx context.Context, patientID, alertType string) (int64, error) {
	query := `
		UPDATE alerts
		SET status = $4, updated_at = NOW()
		WHERE patient_id = $1 AND type = $2 AND status = $3
	`
	res, err := r.db.ExecContext(ctx, query, patientID, alertType, models.AlertStatusActive, models.AlertStatusResolved)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve active alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to resolve active alerts: %w", err)
	}
	return n, nil
}

// UpdateAlertStatus 更新报警状态
func (r *PostgresAlertsRepository) UpdateAlertStatus(ctx context.Context, alertID, status string, markRead bool) error {
	query := `
		UPDATE alerts
		SET status = $2, is_read = (is_read OR $3), updated_at = NOW()
		WHERE alert_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, alertID, status, markRead)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
	}
	return nil
}

// ListAlertsByDoctor 医生的报警列表
func (r *PostgresAlertsRepository) ListAlertsByDoctor(ctx context.Context, doctorID string, filters AlertFilters) ([]*models.Alert, error) {
	where := []string{"a.doctor_id = $1"}
	args := []interface{}{doctorID}
	argN := 2

	if filters.Status != "" {
		where = append(where, fmt.Sprintf("a.status = $%d", argN))
		args = append(args, filters.Status)
		argN++
	}
	if filters.Type != "" {
		where = append(where, fmt.Sprintf("a.type = $%d", argN))
		args = append(args, filters.Type)
		argN++
	}
	if filters.Unread != nil {
		where = append(where, fmt.Sprintf("a.is_read = $%d", argN))
		args = append(args, !*filters.Unread)
		argN++
	}

	query := `SELECT` + alertColumns + `, COALESCE(u.name, '')
		FROM alerts a
		LEFT JOIN users u ON u.user_id = a.patient_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY a.created_at DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argN)
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	out := []*models.Alert{}
	for rows.Next() {
		var name string
		a, err := scanAlert(rows, &name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.PatientName = name
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return out, nil
}
