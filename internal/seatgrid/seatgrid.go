// Package seatgrid holds the seat-selection algebra for one train on one
// travel date. A grid is rows x columns of 0 (free) and 1 (booked) cells.
// The package is pure bookkeeping: callers own locking and persistence.
package seatgrid

import (
	"errors"

	"github.com/railgo/railgo/internal/domain"
)

var (
	ErrNotEnoughSeats = errors.New("not enough seats available")
	ErrOutOfRange     = errors.New("seat index out of range")
	ErrRagged         = errors.New("seat grid rows have unequal lengths")
)

// Rectangular reports whether every row of the grid has the same column
// count. The empty grid is rectangular.
func Rectangular(grid [][]int) bool {
	if len(grid) == 0 {
		return true
	}
	cols := len(grid[0])
	for _, row := range grid[1:] {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// Booked counts the occupied cells of the grid.
func Booked(grid [][]int) int {
	n := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell != 0 {
				n++
			}
		}
	}
	return n
}

// Allocate picks count seats and marks them booked, returning the picked
// cells in allocation order.
//
// Selection is two-pass: first the earliest run of count adjacent free seats
// within a single row, scanning rows in order; if no row holds such a run,
// the earliest count free cells in row-major order, wherever they sit. A
// request for zero seats returns an empty list and leaves the grid alone.
//
// Returns:
//   - []domain.Seat: the booked cells, len == count.
//   - error: ErrNotEnoughSeats when fewer than count cells are free (the
//     grid is left unchanged), ErrRagged on a malformed grid.
func Allocate(grid [][]int, count int) ([]domain.Seat, error) {
	if !Rectangular(grid) {
		return nil, ErrRagged
	}
	if count == 0 {
		return []domain.Seat{}, nil
	}

	total := 0
	if len(grid) > 0 {
		total = len(grid) * len(grid[0])
	}
	if count > total {
		return nil, ErrNotEnoughSeats
	}

	picked := contiguousRun(grid, count)
	if picked == nil {
		picked = scatter(grid, count)
	}
	if picked == nil {
		return nil, ErrNotEnoughSeats
	}

	for _, s := range picked {
		grid[s.Row][s.Col] = 1
	}
	return picked, nil
}

// contiguousRun finds the earliest run of count adjacent free cells inside
// one row. The run counter resets on a booked cell and at each row start:
// seats split across a row boundary are not adjacent.
func contiguousRun(grid [][]int, count int) []domain.Seat {
	for r, row := range grid {
		run := make([]domain.Seat, 0, count)
		for c, cell := range row {
			if cell != 0 {
				run = run[:0]
				continue
			}
			run = append(run, domain.Seat{Row: r, Col: c})
			if len(run) == count {
				return run
			}
		}
	}
	return nil
}

// scatter collects the earliest count free cells in row-major order.
func scatter(grid [][]int, count int) []domain.Seat {
	picked := make([]domain.Seat, 0, count)
	for r, row := range grid {
		for c, cell := range row {
			if cell != 0 {
				continue
			}
			picked = append(picked, domain.Seat{Row: r, Col: c})
			if len(picked) == count {
				return picked
			}
		}
	}
	return nil
}

// Free marks every listed cell free. Freeing an already-free cell is a
// no-op, so replaying a free is safe. Indices are bounds-checked up front;
// on ErrOutOfRange the grid is left untouched.
func Free(grid [][]int, seats []domain.Seat) error {
	for _, s := range seats {
		if s.Row < 0 || s.Row >= len(grid) || s.Col < 0 || s.Col >= len(grid[s.Row]) {
			return ErrOutOfRange
		}
	}
	for _, s := range seats {
		grid[s.Row][s.Col] = 0
	}
	return nil
}

// Clone deep-copies a grid. Used where a caller mutates a grid it may have
// to throw away.
func Clone(grid [][]int) [][]int {
	if grid == nil {
		return nil
	}
	out := make([][]int, len(grid))
	for i, row := range grid {
		out[i] = append([]int(nil), row...)
	}
	return out
}
