package cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for cases.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const caseColumns = `id, case_number, title, description, status, owner_id, law_firm_id, created_at, updated_at`

func scanCase(row pgx.Row) (Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.CaseNumber, &c.Title, &c.Description, &c.Status, &c.OwnerID, &c.LawFirmID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, ErrNotFound
		}
		return Case{}, fmt.Errorf("cases: scan: %w", err)
	}
	return c, nil
}

// Get fetches a case by id.
func (r *Repository) Get(ctx context.Context, id string) (Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	return scanCase(r.pool.QueryRow(ctx, query, id))
}

// Create inserts a new case.
func (r *Repository) Create(ctx context.Context, c Case) (Case, error) {
	query := `INSERT INTO cases (id, case_number, title, description, status, owner_id, law_firm_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + caseColumns
	return scanCase(r.pool.QueryRow(ctx, query, c.ID, c.CaseNumber, c.Title, c.Description, c.Status, c.OwnerID, c.LawFirmID, c.CreatedAt))
}

// Update replaces the mutable fields of a case.
func (r *Repository) Update(ctx context.Context, c Case) (Case, error) {
	query := `UPDATE cases SET title = $2, description = $3, status = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + caseColumns
	return scanCase(r.pool.QueryRow(ctx, query, c.ID, c.Title, c.Description, c.Status, c.UpdatedAt))
}

// Delete removes a case. Returns ErrNotFound when nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("cases: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns cases matching the filters, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases
		WHERE ($1 = '' OR law_firm_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, filters.LawFirmID, filters.Status, filters.Limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("cases: list: %w", err)
	}
	defer rows.Close()
	return collectCases(rows)
}

// Search matches the query against case number, title and description.
func (r *Repository) Search(ctx context.Context, term string, filters ListFilters) ([]Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases
		WHERE (case_number ILIKE '%' || $1 || '%'
			OR title ILIKE '%' || $1 || '%'
			OR description ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR law_firm_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, term, filters.LawFirmID, filters.Limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("cases: search: %w", err)
	}
	defer rows.Close()
	return collectCases(rows)
}

func collectCases(rows pgx.Rows) ([]Case, error) {
	var out []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
