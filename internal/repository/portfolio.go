package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radoslav1992/ai-help-center/internal/model/portfolio"
)

const projectColumns = `id, created_at, title, title_bg, description, description_bg, image_url, website_url, tags, featured, sort_order`

type PortfolioRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db, now: time.Now}
}

// List returns every project in display order.
func (r *PortfolioRepository) List(ctx context.Context) ([]portfolio.Project, error) {
	return r.query(ctx, `SELECT `+projectColumns+` FROM portfolio_projects ORDER BY sort_order ASC, created_at ASC`)
}

// Featured returns the featured projects in display order.
func (r *PortfolioRepository) Featured(ctx context.Context) ([]portfolio.Project, error) {
	return r.query(ctx, `SELECT `+projectColumns+` FROM portfolio_projects WHERE featured = $1 ORDER BY sort_order ASC, created_at ASC`, true)
}

// Create stores p and fills in its ID and CreatedAt.
func (r *PortfolioRepository) Create(ctx context.Context, p *portfolio.Project) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	id, createdAt := uuid.NewString(), r.now().UTC().Truncate(time.Microsecond)
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO portfolio_projects (`+projectColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, id, createdAt, p.Title, p.TitleBG, p.Description, p.DescriptionBG, p.ImageURL, p.WebsiteURL, string(encoded), p.Featured, p.Order)
	if err != nil {
		return fmt.Errorf("insert portfolio project: %w", err)
	}

	p.ID, p.CreatedAt, p.Tags = id, createdAt, tags
	return nil
}

func (r *PortfolioRepository) query(ctx context.Context, query string, args ...any) ([]portfolio.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query portfolio projects: %w", err)
	}
	defer rows.Close()

	out := []portfolio.Project{}
	for rows.Next() {
		var (
			p    portfolio.Project
			tags string
		)
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Title, &p.TitleBG, &p.Description, &p.DescriptionBG,
			&p.ImageURL, &p.WebsiteURL, &tags, &p.Featured, &p.Order); err != nil {
			return nil, fmt.Errorf("scan portfolio project: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of project %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio projects: %w", err)
	}
	return out, nil
}
