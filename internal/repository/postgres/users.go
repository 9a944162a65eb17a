package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/repository"
)

type UserRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *UserRepo) With(db DB) *UserRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *UserRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert stores a new user document. The email lives in its own column
// under a unique index so duplicates fail at the store.
//
// Returns:
//   - error: repository.ErrConflict when the ID or email is taken.
func (r *UserRepo) Insert(ctx context.Context, u *domain.User) error {
	const op = "postgres.UserRepo.Insert"

	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO users(id, email, doc)
       	 VALUES ($1, $2, $3)`,
		u.UserID, u.UserEmail, doc,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Get loads one user document by ID.
//
// Returns:
//   - error: repository.ErrNotFound when the ID does not exist.
func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	const op = "postgres.UserRepo.Get"

	var doc []byte
	if err := r.handle().QueryRow(ctx,
		`SELECT doc FROM users WHERE id = $1`,
		id,
	).Scan(&doc); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var u domain.User
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &u, nil
}

// GetByEmail loads one user document by its case-folded email.
//
// Returns:
//   - error: repository.ErrNotFound when no user has the email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "postgres.UserRepo.GetByEmail"

	var doc []byte
	if err := r.handle().QueryRow(ctx,
		`SELECT doc FROM users WHERE email = $1`,
		email,
	).Scan(&doc); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var u domain.User
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &u, nil
}

// Update overwrites an existing user document. The email column is not
// touched; addresses are immutable once registered.
//
// Returns:
//   - error: repository.ErrNotFound when the ID does not exist.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	const op = "postgres.UserRepo.Update"

	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE users SET doc = $2 WHERE id = $1`,
		u.UserID, doc,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
