package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists subject permission records in the
// subject_permissions table. Grants and restrictions are stored as
// JSONB documents; Put replaces the whole row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a store backed by the provided pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get fetches the record for a subject.
func (s *PostgresStore) Get(ctx context.Context, subjectID string) (SubjectRecord, error) {
	const query = `SELECT subject_id, role, granted_permissions, restrictions, updated_at
		FROM subject_permissions WHERE subject_id = $1`

	var (
		record        SubjectRecord
		grantsJSON    []byte
		restrictsJSON []byte
	)
	row := s.pool.QueryRow(ctx, query, subjectID)
	if err := row.Scan(&record.SubjectID, &record.Role, &grantsJSON, &restrictsJSON, &record.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SubjectRecord{}, ErrSubjectNotFound
		}
		return SubjectRecord{}, fmt.Errorf("authz: get subject record: %w", err)
	}
	if err := json.Unmarshal(grantsJSON, &record.Grants); err != nil {
		return SubjectRecord{}, fmt.Errorf("authz: decode grants: %w", err)
	}
	if err := json.Unmarshal(restrictsJSON, &record.Restricts); err != nil {
		return SubjectRecord{}, fmt.Errorf("authz: decode restrictions: %w", err)
	}
	return record, nil
}

// Put replaces the subject's record wholesale.
func (s *PostgresStore) Put(ctx context.Context, record SubjectRecord) error {
	grantsJSON, err := json.Marshal(orEmptyPerms(record.Grants))
	if err != nil {
		return fmt.Errorf("authz: encode grants: %w", err)
	}
	restrictsJSON, err := json.Marshal(orEmptyRestricts(record.Restricts))
	if err != nil {
		return fmt.Errorf("authz: encode restrictions: %w", err)
	}
	const query = `INSERT INTO subject_permissions (subject_id, role, granted_permissions, restrictions, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject_id) DO UPDATE SET
			role = EXCLUDED.role,
			granted_permissions = EXCLUDED.granted_permissions,
			restrictions = EXCLUDED.restrictions,
			updated_at = EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, query, record.SubjectID, record.Role, grantsJSON, restrictsJSON, record.UpdatedAt); err != nil {
		return fmt.Errorf("authz: put subject record: %w", err)
	}
	return nil
}

func orEmptyPerms(perms []Permission) []Permission {
	if perms == nil {
		return []Permission{}
	}
	return perms
}

func orEmptyRestricts(restricts []Restriction) []Restriction {
	if restricts == nil {
		return []Restriction{}
	}
	return restricts
}
