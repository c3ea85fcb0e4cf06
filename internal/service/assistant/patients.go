package assistant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"medichat/internal/models"
)

const defaultPatientListLimit = 100

// CreatePatient inserts a new patient record and returns it with its id.
func (s *Service) CreatePatient(ctx context.Context, p *models.Patient) (*models.Patient, error) {
	if p.Name == "" {
		return nil, errors.New("patient name is required")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO patients (name, date_of_birth, diagnosis, prescription, confidence_score, raw_text, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.DateOfBirth, p.Diagnosis, p.Prescription, p.ConfidenceScore, p.RawText, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("patient id: %w", err)
	}

	created := *p
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// ListPatients returns up to limit patients, newest first. An empty table
// yields an empty slice, not an error.
func (s *Service) ListPatients(ctx context.Context, limit int) ([]models.Patient, error) {
	if limit <= 0 {
		limit = defaultPatientListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, date_of_birth, diagnosis, prescription, confidence_score, raw_text, created_at, updated_at
		 FROM patients ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()
	return scanPatients(rows)
}

// GetPatient returns one patient or sql.ErrNoRows.
func (s *Service) GetPatient(ctx context.Context, id int64) (*models.Patient, error) {
	var p models.Patient
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, date_of_birth, diagnosis, prescription, confidence_score, raw_text, created_at, updated_at
		 FROM patients WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.DateOfBirth, &p.Diagnosis, &p.Prescription, &p.ConfidenceScore, &p.RawText, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	return &p, nil
}

// UpdatePatient overwrites the record's fields. sql.ErrNoRows when absent.
func (s *Service) UpdatePatient(ctx context.Context, id int64, p *models.Patient) (*models.Patient, error) {
	if p.Name == "" {
		return nil, errors.New("patient name is required")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE patients SET name = ?, date_of_birth = ?, diagnosis = ?, prescription = ?, confidence_score = ?, raw_text = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.DateOfBirth, p.Diagnosis, p.Prescription, p.ConfidenceScore, p.RawText, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update patient %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update patient %d: %w", id, err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return s.GetPatient(ctx, id)
}

// DeletePatient removes the record. sql.ErrNoRows when absent.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SearchPatients matches the term against name, diagnosis, and prescription.
func (s *Service) SearchPatients(ctx context.Context, term string, limit int) ([]models.Patient, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, date_of_birth, diagnosis, prescription, confidence_score, raw_text, created_at, updated_at
		 FROM patients
		 WHERE name LIKE ? OR diagnosis LIKE ? OR prescription LIKE ?
		 ORDER BY created_at DESC LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()
	return scanPatients(rows)
}

// PatientStats summarizes the table for the overview endpoint.
func (s *Service) PatientStats(ctx context.Context) (*models.PatientStats, error) {
	var stats models.PatientStats
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN diagnosis <> '' THEN 1 END),
		        COUNT(CASE WHEN prescription <> '' THEN 1 END),
		        COUNT(CASE WHEN created_at >= ? THEN 1 END)
		 FROM patients`, weekAgo,
	).Scan(&stats.Total, &stats.Diagnosed, &stats.Prescribed, &stats.RecentWeek)
	if err != nil {
		return nil, fmt.Errorf("patient stats: %w", err)
	}
	return &stats, nil
}

// Ping verifies database connectivity for the health endpoint.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetPatientsByIDs returns the records for the given ids in order, silently
// skipping ids with no record behind them.
func (s *Service) GetPatientsByIDs(ctx context.Context, ids []int64) ([]models.Patient, error) {
	patients := make([]models.Patient, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetPatient(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		patients = append(patients, *p)
	}
	return patients, nil
}

// PatientContext renders the verbose record context served to callers that
// build their own prompts. A non-empty ids list selects specific records;
// otherwise the most recent records up to limit are used.
func (s *Service) PatientContext(ctx context.Context, ids []int64, limit int) (string, []models.Patient, error) {
	var (
		patients []models.Patient
		err      error
	)
	if len(ids) > 0 {
		patients, err = s.GetPatientsByIDs(ctx, ids)
	} else {
		patients, err = s.ListPatients(ctx, limit)
	}
	if err != nil {
		return "", nil, err
	}
	return s.assembler.FormatPatientRecords(patients), patients, nil
}

func scanPatients(rows *sql.Rows) ([]models.Patient, error) {
	patients := make([]models.Patient, 0)
	for rows.Next() {
		var p models.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.DateOfBirth, &p.Diagnosis, &p.Prescription,
			&p.ConfidenceScore, &p.RawText, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
