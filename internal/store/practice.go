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

type PracticeStore struct {
	db *pgxpool.Pool
}

func NewPracticeStore(db *pgxpool.Pool) *PracticeStore {
	return &PracticeStore{db: db}
}

const practiceColumns = `id, school_id, name, description, tier, strength_score, contradicts, classified_at, created_at, updated_at`

func scanPractice(row pgx.Row) (*domain.Practice, error) {
	p := &domain.Practice{}
	var tier *string
	err := row.Scan(&p.ID, &p.SchoolID, &p.Name, &p.Description, &tier, &p.StrengthScore,
		&p.Contradicts, &p.ClassifiedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tier != nil {
		t := domain.Tier(*tier)
		p.Tier = &t
	}
	return p, nil
}

func (s *PracticeStore) Create(ctx context.Context, p *domain.Practice) error {
	var tier *string
	if p.Tier != nil {
		t := string(*p.Tier)
		tier = &t
	}
	contradicts := p.Contradicts
	if contradicts == nil {
		contradicts = []string{}
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO practices (school_id, name, description, tier, contradicts)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		p.SchoolID, p.Name, p.Description, tier, contradicts,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *PracticeStore) GetByName(ctx context.Context, schoolID uuid.UUID, name string) (*domain.Practice, error) {
	p, err := scanPractice(s.db.QueryRow(ctx,
		`SELECT `+practiceColumns+`
		 FROM practices WHERE school_id = $1 AND name = $2`,
		schoolID, name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PracticeStore) List(ctx context.Context, schoolID uuid.UUID) ([]domain.Practice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+practiceColumns+`
		 FROM practices WHERE school_id = $1
		 ORDER BY name`,
		schoolID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var practices []domain.Practice
	for rows.Next() {
		p, err := scanPractice(rows)
		if err != nil {
			return nil, err
		}
		practices = append(practices, *p)
	}
	return practices, rows.Err()
}

func (s *PracticeStore) UpdateClassification(ctx context.Context, id uuid.UUID, tier domain.Tier, score float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE practices
		 SET tier = $2, strength_score = $3, classified_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		id, string(tier), score,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
