package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/radoslav1992/ai-help-center/internal/model/contact"
)

// ErrDuplicate means the row already exists.
var ErrDuplicate = errors.New("already exists")

type ContactRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db, now: time.Now}
}

// CreateSubmission stores s and fills in its ID and CreatedAt.
func (r *ContactRepository) CreateSubmission(ctx context.Context, s *contact.Submission) error {
	id, createdAt := uuid.NewString(), r.timestamp()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO contact_submissions (id, name, email, company, industry, service, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, id, s.Name, s.Email, s.Company, s.Industry, s.Service, s.Message, createdAt)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}

	s.ID, s.CreatedAt = id, createdAt
	return nil
}

// CreateSubscription stores s and fills in its ID and CreatedAt. Signing
// up the same address from the same source twice yields ErrDuplicate.
func (r *ContactRepository) CreateSubscription(ctx context.Context, s *contact.Subscription) error {
	id, createdAt := uuid.NewString(), r.timestamp()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO email_subscriptions (id, email, source_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, id, s.Email, s.SourceID, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert email subscription: %w", err)
	}

	s.ID, s.CreatedAt = id, createdAt
	return nil
}

// RecentSubmissions returns up to limit submissions, newest first.
func (r *ContactRepository) RecentSubmissions(ctx context.Context, limit int) ([]contact.Submission, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, email, company, industry, service, message, created_at
        FROM contact_submissions
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query contact submissions: %w", err)
	}
	defer rows.Close()

	var out []contact.Submission
	for rows.Next() {
		var s contact.Submission
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Company, &s.Industry, &s.Service, &s.Message, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact submission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ContactRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// isUniqueViolation recognizes unique constraint errors of both backends.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed")
}
