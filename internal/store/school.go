package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SchoolStore struct {
	db *pgxpool.Pool
}

func NewSchoolStore(db *pgxpool.Pool) *SchoolStore {
	return &SchoolStore{db: db}
}

func (s *SchoolStore) Create(ctx context.Context, sc *domain.School) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO schools (name, api_key_hash) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		sc.Name, sc.APIKeyHash,
	).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *SchoolStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.School, error) {
	sc := &domain.School{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at, updated_at
		 FROM schools WHERE api_key_hash = $1`,
		apiKeyHash,
	).Scan(&sc.ID, &sc.Name, &sc.APIKeyHash, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sc, nil
}

func (s *SchoolStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM schools ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
