package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postcare/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const checkInColumns = `
	checkin_id, patient_id, checkin_date, pain_level, temperature,
	medications_taken, symptoms, notes, risk_score, risk_level,
	risk_reasons, created_at, updated_at`

// PostgresCheckInsRepository 每日打卡Repository实现
type PostgresCheckInsRepository struct {
	db *sql.DB
}

// NewPostgresCheckInsRepository 创建每日打卡Repository
func NewPostgresCheckInsRepository(db *sql.DB) *PostgresCheckInsRepository {
	return &PostgresCheckInsRepository{db: db}
}

// 确保实现了接口
var _ CheckInsRepository = (*PostgresCheckInsRepository)(nil)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCheckIn(row rowScanner) (*models.CheckIn, error) {
	var c models.CheckIn
	var notes sql.NullString
	var symptoms, reasons pq.StringArray
	var level string

	if err := row.Scan(
		&c.CheckInID,
		&c.PatientID,
		&c.CheckInDate,
		&c.PainLevel,
		&c.Temperature,
		&c.MedicationsTaken,
		&symptoms,
		&notes,
		&c.RiskScore,
		&level,
		&reasons,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	c.Symptoms = []string(symptoms)
	if c.Symptoms == nil {
		c.Symptoms = []string{}
	}
	c.RiskReasons = []string(reasons)
	if c.RiskReasons == nil {
		c.RiskReasons = []string{}
	}
	c.RiskLevel = models.RiskLevel(level)
	if notes.Valid {
		c.Notes = &notes.String
	}
	return &c, nil
}

func (r *PostgresCheckInsRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.CheckIn, error) {
	c, err := scanCheckIn(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresCheckInsRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*models.CheckIn, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.CheckIn{}
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCheckIn 创建打卡
func (r *PostgresCheckInsRepository) CreateCheckIn(ctx context.Context, c *models.CheckIn) error {
	if c.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if c.CheckInID == "" {
		c.CheckInID = uuid.New().String()
	}
	if c.Symptoms == nil {
		c.Symptoms = []string{}
	}
	if c.RiskReasons == nil {
		c.RiskReasons = []string{}
	}

	query := `
		INSERT INTO daily_checkins (
			checkin_id, patient_id, checkin_date, pain_level, temperature,
			medications_taken, symptoms, notes, risk_score, risk_level, risk_reasons
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.CheckInID,
		c.PatientID,
		c.CheckInDate.Format("2006-01-02"),
		c.PainLevel,
		c.Temperature,
		c.MedicationsTaken,
		pq.Array(c.Symptoms),
		c.Notes,
		c.RiskScore,
		string(c.RiskLevel),
		pq.Array(c.RiskReasons),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateCheckIn
		}
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

// FindCheckInInRange 查询时间范围内的打卡
func (r *PostgresCheckInsRepository) FindCheckInInRange(ctx context.Context, patientID string, start, end time.Time) (*models.CheckIn, error) {
	query := `SELECT` + checkInColumns + `
		FROM daily_checkins
		WHERE patient_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	c, err := r.queryOne(ctx, query, patientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to find check-in in range: %w", err)
	}
	return c, nil
}

// FindPreviousCheckIn 查询 before 之前最近的打卡
func (r *PostgresCheckInsRepository) FindPreviousCheckIn(ctx context.Context, patientID string, before time.Time) (*models.CheckIn, error) {
	query := `SELECT` + checkInColumns + `
		FROM daily_checkins
		WHERE patient_id = $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	c, err := r.queryOne(ctx, query, patientID, before)
	if err != nil {
		return nil, fmt.Errorf("failed to find previous check-in: %w", err)
	}
	return c, nil
}

// FindFirstCheckInSince 查询 since 之后最早的打卡
func (r *PostgresCheckInsRepository) FindFirstCheckInSince(ctx context.Context, patientID string, since time.Time) (*models.CheckIn, error) {
	query := `SELECT` + checkInColumns + `
		FROM daily_checkins
		WHERE patient_id = $1 AND created_at >= $2
		ORDER BY created_at ASC
		LIMIT 1
	`
	c, err := r.queryOne(ctx, query, patientID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to find first check-in: %w", err)
	}
	return c, nil
}

// ListRecentCheckIns 最近 limit 条打卡
func (r *PostgresCheckInsRepository) ListRecentCheckIns(ctx context.Context, patientID string, limit int) ([]*models.CheckIn, error) {
	if limit <= 0 {
		return []*models.CheckIn{}, nil
	}
	query := `SELECT` + checkInColumns + `
		FROM daily_checkins
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	out, err := r.queryMany(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent check-ins: %w", err)
	}
	return out, nil
}

// ListCheckInsByPatient 患者全部打卡（倒序）
func (r *PostgresCheckInsRepository) ListCheckInsByPatient(ctx context.Context, patientID string) ([]*models.CheckIn, error) {
	query := `SELECT` + checkInColumns + `
		FROM daily_checkins
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	out, err := r.queryMany(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return out, nil
}

// ListLatestCheckInPerPatient 每位患者最近一次打卡，附带患者姓名
func (r *PostgresCheckInsRepository) ListLatestCheckInPerPatient(ctx context.Context) ([]*models.PatientStatus, error) {
	query := `
		SELECT DISTINCT ON (c.patient_id)
			c.checkin_id, c.patient_id, c.checkin_date, c.pain_level, c.temperature,
			c.medications_taken, c.symptoms, c.notes, c.risk_score, c.risk_level,
			c.risk_reasons, c.created_at, c.updated_at,
			u.name, u.email
		FROM daily_checkins c
		JOIN users u ON u.user_id = c.patient_id
		ORDER BY c.patient_id, c.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest check-ins: %w", err)
	}
	defer rows.Close()

	out := []*models.PatientStatus{}
	for rows.Next() {
		var c models.CheckIn
		var notes, email sql.NullString
		var symptoms, reasons pq.StringArray
		var level, name string
		if err := rows.Scan(
			&c.CheckInID, &c.PatientID, &c.CheckInDate, &c.PainLevel, &c.Temperature,
			&c.MedicationsTaken, &symptoms, &notes, &c.RiskScore, &level,
			&reasons, &c.CreatedAt, &c.UpdatedAt,
			&name, &email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan latest check-in: %w", err)
		}
		c.Symptoms = []string(symptoms)
		c.RiskReasons = []string(reasons)
		c.RiskLevel = models.RiskLevel(level)
		if notes.Valid {
			c.Notes = &notes.String
		}
		status := &models.PatientStatus{
			PatientID:     c.PatientID,
			PatientName:   name,
			LatestCheckIn: &c,
		}
		if email.Valid {
			status.PatientEmail = &email.String
		}
		out = append(out, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate latest check-ins: %w", err)
	}
	return out, nil
}

// GetLastCheckInTime 最近一次打卡时间
func (r *PostgresCheckInsRepository) GetLastCheckInTime(ctx context.Context, patientID string) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM daily_checkins WHERE patient_id = $1`,
		patientID,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to get last check-in time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}
