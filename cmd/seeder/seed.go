package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"inclusive-matching-api/internal/domain"
	"inclusive-matching-api/internal/repository/postgres"
	"inclusive-matching-api/pkg/validation"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type fixtureProfile struct {
	ChildAge  int     `yaml:"child_age"`
	City      string  `yaml:"city"`
	Strengths *string `yaml:"strengths"`
	Needs     *string `yaml:"needs"`
	Notes     *string `yaml:"notes"`
}

type fixture struct {
	Profiles []fixtureProfile `yaml:"profiles"`
}

// loadFixture reads path and validates every profile with the same rules the
// API applies to POST /profiles/.
func loadFixture(path string) ([]domain.CreateProfileRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return parseFixture(raw)
}

func parseFixture(raw []byte) ([]domain.CreateProfileRequest, error) {
	var f fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, errors.New("fixture has no profiles")
	}

	validate := validation.New()
	out := make([]domain.CreateProfileRequest, 0, len(f.Profiles))
	var problems []string
	for i, p := range f.Profiles {
		req := domain.CreateProfileRequest{
			ChildAge:  p.ChildAge,
			City:      p.City,
			Strengths: p.Strengths,
			Needs:     p.Needs,
			Notes:     p.Notes,
		}
		if err := validate.Struct(req); err != nil {
			for _, msg := range validation.FormatValidationErrors(err) {
				problems = append(problems, fmt.Sprintf("profiles[%d].%s", i, msg))
			}
			continue
		}
		out = append(out, req)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid fixture:\n  %s", strings.Join(problems, "\n  "))
	}
	return out, nil
}

// seedStore is what Seed needs from the database.
type seedStore interface {
	Exec(ctx context.Context, query string) error
	InsertProfile(ctx context.Context, profile domain.CreateProfileRequest) (int64, error)
}

const insertProfileSQL = `INSERT INTO profiles (child_age, city, strengths, needs, notes)
VALUES ($1, $2, $3, $4, $5) RETURNING id`

const truncateProfilesSQL = `TRUNCATE profiles RESTART IDENTITY`

// sqlSeedStore runs the seeder statements through database/sql (lib/pq).
type sqlSeedStore struct {
	db *sql.DB
}

func (s *sqlSeedStore) Exec(ctx context.Context, query string) error {
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *sqlSeedStore) InsertProfile(ctx context.Context, profile domain.CreateProfileRequest) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, insertProfileSQL,
		profile.ChildAge, profile.City, profile.Strengths, profile.Needs, profile.Notes,
	).Scan(&id)
	return id, err
}

type seeder struct {
	store   seedStore
	workers int
	log     *zap.Logger
}

// Seed ensures the schema, optionally truncates, then inserts profiles with
// at most s.workers concurrent statements. The returned ids are sorted.
func (s *seeder) Seed(ctx context.Context, profiles []domain.CreateProfileRequest, truncate bool) ([]int64, error) {
	if err := s.store.Exec(ctx, postgres.SchemaSQL); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if truncate {
		if err := s.store.Exec(ctx, truncateProfilesSQL); err != nil {
			return nil, fmt.Errorf("truncate: %w", err)
		}
		s.log.Info("Truncated profiles")
	}

	workers := s.workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		ids = make([]int64, 0, len(profiles))
	)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(workers)
	for i := range profiles {
		profile := profiles[i]
		p.Go(func(ctx context.Context) error {
			id, err := s.store.InsertProfile(ctx, profile)
			if err != nil {
				return fmt.Errorf("insert profile (city %q, age %d): %w", profile.City, profile.ChildAge, err)
			}
			s.log.Debug("Inserted profile", zap.Int64("id", id))

			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
