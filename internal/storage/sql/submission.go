package sql

import (
	"database/sql"
	"errors"
	"time"

	"mailcapture/backend/internal/domain"
)

// ErrSubmissionNotFound 投递记录不存在
var ErrSubmissionNotFound = errors.New("submission not found")

// ========== Submission Repository ==========

// SaveSubmission 保存一条投递记录。
func (s *Store) SaveSubmission(submission *domain.Submission) error {
	query := s.rebind(`
		INSERT INTO submissions (id, email, ip_source, outcome, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.Exec(query,
		submission.ID,
		submission.Email,
		submission.IPSource,
		string(submission.Outcome),
		submission.Message,
		submission.CreatedAt,
	)
	return err
}

// GetSubmission 按 ID 获取投递记录。
func (s *Store) GetSubmission(id string) (*domain.Submission, error) {
	query := s.rebind(`
		SELECT id, email, ip_source, outcome, message, created_at
		FROM submissions
		WHERE id = ?
	`)

	var submission domain.Submission
	var outcome string

	err := s.db.QueryRow(query, id).Scan(
		&submission.ID,
		&submission.Email,
		&submission.IPSource,
		&outcome,
		&submission.Message,
		&submission.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	submission.Outcome = domain.SubmissionOutcome(outcome)
	return &submission, nil
}

// ListSubmissions 按创建时间倒序分页返回投递记录及总数。
func (s *Store) ListSubmissions(limit, offset int) ([]domain.Submission, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = total
	}

	query := s.rebind(`
		SELECT id, email, ip_source, outcome, message, created_at
		FROM submissions
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`)

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	submissions := make([]domain.Submission, 0, limit)
	for rows.Next() {
		var submission domain.Submission
		var outcome string
		if err := rows.Scan(
			&submission.ID,
			&submission.Email,
			&submission.IPSource,
			&outcome,
			&submission.Message,
			&submission.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		submission.Outcome = domain.SubmissionOutcome(outcome)
		submissions = append(submissions, submission)
	}

	return submissions, total, rows.Err()
}

// DeleteSubmissionsBefore 删除给定时刻之前的记录。
func (s *Store) DeleteSubmissionsBefore(cutoff time.Time) (int, error) {
	query := s.rebind(`DELETE FROM submissions WHERE created_at < ?`)
	result, err := s.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
