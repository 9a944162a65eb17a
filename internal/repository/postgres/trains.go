package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/repository"
)

type TrainRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TrainRepo) With(db DB) *TrainRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TrainRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert stores a new train document keyed by PRN.
//
// Returns:
//   - error: repository.ErrConflict when a train with the PRN exists.
func (r *TrainRepo) Insert(ctx context.Context, t *domain.Train) error {
	const op = "postgres.TrainRepo.Insert"

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO trains(prn, doc)
       	 VALUES ($1, $2)`,
		t.Prn, doc,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Get loads a train document together with its version for a later
// compare-and-swap Update.
//
// Returns:
//   - *domain.Train: the train when found.
//   - int64: the current document version.
//   - error: repository.ErrNotFound when no train has the PRN.
func (r *TrainRepo) Get(ctx context.Context, prn string) (*domain.Train, int64, error) {
	const op = "postgres.TrainRepo.Get"

	var (
		doc     []byte
		version int64
	)
	if err := r.handle().QueryRow(ctx,
		`SELECT doc, version
       	 FROM trains WHERE prn = $1`,
		prn,
	).Scan(&doc, &version); err != nil {
		return nil, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var t domain.Train
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, 0, fmt.Errorf("%s:%w", op, err)
	}

	return &t, version, nil
}

// Update persists a train document if and only if nobody else has written
// it since version was read. Seat-map mutations rely on this together with
// the in-process per-(prn,date) lock.
//
// Returns:
//   - error: repository.ErrVersionConflict when the stored version moved,
//     repository.ErrNotFound when the train vanished.
func (r *TrainRepo) Update(ctx context.Context, t *domain.Train, version int64) error {
	const op = "postgres.TrainRepo.Update"

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE trains
        	SET doc = $2, version = version + 1
      	 WHERE prn = $1 AND version = $3`,
		t.Prn, doc, version,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.handle().QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM trains WHERE prn = $1)`, t.Prn,
		).Scan(&exists); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		if !exists {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		return fmt.Errorf("%s:%w", op, repository.ErrVersionConflict)
	}

	return nil
}

// Upsert writes a train document unconditionally, bumping its version.
// Catalog edits go through here; seat maps use Update.
func (r *TrainRepo) Upsert(ctx context.Context, t *domain.Train) error {
	const op = "postgres.TrainRepo.Upsert"

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO trains(prn, doc)
       	 VALUES ($1, $2)
      	 ON CONFLICT (prn) DO UPDATE
        	SET doc = EXCLUDED.doc, version = trains.version + 1`,
		t.Prn, doc,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// All returns every train document, ordered by PRN.
func (r *TrainRepo) All(ctx context.Context) ([]domain.Train, error) {
	const op = "postgres.TrainRepo.All"

	rows, err := r.handle().Query(ctx,
		`SELECT doc FROM trains ORDER BY prn`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	var trains []domain.Train
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		var t domain.Train
		if err := json.Unmarshal(doc, &t); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		trains = append(trains, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return trains, nil
}
