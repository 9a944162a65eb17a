package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/repository"
)

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert stores a new ticket document keyed by ticket ID.
//
// Returns:
//   - error: repository.ErrConflict when the ID is already taken.
func (r *TicketRepo) Insert(ctx context.Context, t *domain.Ticket) error {
	const op = "postgres.TicketRepo.Insert"

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO tickets(id, doc)
       	 VALUES ($1, $2)`,
		t.TicketID, doc,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Get loads one ticket document.
//
// Returns:
//   - error: repository.ErrNotFound when the ID does not exist.
func (r *TicketRepo) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.Get"

	var doc []byte
	if err := r.handle().QueryRow(ctx,
		`SELECT doc FROM tickets WHERE id = $1`,
		id,
	).Scan(&doc); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var t domain.Ticket
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &t, nil
}

// GetMany loads the tickets for the given IDs. Unknown IDs are skipped, so
// the result may be shorter than ids.
func (r *TicketRepo) GetMany(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.GetMany"

	if len(ids) == 0 {
		return []domain.Ticket{}, nil
	}

	rows, err := r.handle().Query(ctx,
		`SELECT doc FROM tickets WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0, len(ids))
	byID := make(map[string]domain.Ticket, len(ids))
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		var t domain.Ticket
		if err := json.Unmarshal(doc, &t); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		byID[t.TicketID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	// keep the caller's order (a user's booking order is significant)
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tickets = append(tickets, t)
		}
	}

	return tickets, nil
}

// Update overwrites an existing ticket document.
//
// Returns:
//   - error: repository.ErrNotFound when the ID does not exist.
func (r *TicketRepo) Update(ctx context.Context, t *domain.Ticket) error {
	const op = "postgres.TicketRepo.Update"

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE tickets SET doc = $2 WHERE id = $1`,
		t.TicketID, doc,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes a ticket document.
//
// Returns:
//   - error: repository.ErrNotFound when the ID does not exist.
func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	const op = "postgres.TicketRepo.Delete"

	tag, err := r.handle().Exec(ctx,
		`DELETE FROM tickets WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
