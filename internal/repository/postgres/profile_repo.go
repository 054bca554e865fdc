package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inclusive-matching-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, child_age, city, strengths, needs, notes`

type profileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) domain.ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	query := `INSERT INTO profiles (child_age, city, strengths, needs, notes)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRow(ctx, query,
		profile.ChildAge, profile.City, profile.Strengths, profile.Needs, profile.Notes,
	).Scan(&profile.ID)
}

func (r *profileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

func (r *profileRepo) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	var p domain.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.ChildAge, &p.City, &p.Strengths, &p.Needs, &p.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.Profile, error) {
	query, args := candidateQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return collectProfiles(rows)
}

// candidateQuery renders the prefilter as SQL. The age corridor is inclusive
// on both ends and the city comparison is exact.
func candidateQuery(filter domain.CandidateFilter) (string, []any) {
	conditions := []string{"id <> $1", "child_age BETWEEN $2 AND $3"}
	args := []any{filter.ExcludeID, filter.MinAge, filter.MaxAge}

	if filter.City != "" {
		args = append(args, filter.City)
		conditions = append(conditions, fmt.Sprintf("city = $%d", len(args)))
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

func collectProfiles(rows pgx.Rows) ([]domain.Profile, error) {
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.ChildAge, &p.City, &p.Strengths, &p.Needs, &p.Notes); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
