package seatgrid_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/seatgrid"
)

func TestAllocate(t *testing.T) {
	t.Run("should fill the first row of an empty grid", func(t *testing.T) {
		grid := [][]int{{0, 0, 0}, {0, 0, 0}}

		seats, err := seatgrid.Allocate(grid, 3)
		require.NoError(t, err)

		assert.Equal(t, []domain.Seat{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}}, seats)
		assert.Equal(t, [][]int{{1, 1, 1}, {0, 0, 0}}, grid)
	})

	t.Run("should prefer the first full run over scattered earlier cells", func(t *testing.T) {
		grid := [][]int{{0, 1, 0}, {0, 0, 0}}

		seats, err := seatgrid.Allocate(grid, 3)
		require.NoError(t, err)

		assert.Equal(t, []domain.Seat{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}}, seats)
		assert.Equal(t, [][]int{{0, 1, 0}, {1, 1, 1}}, grid)
	})

	t.Run("should fall back to scattered cells when no run exists", func(t *testing.T) {
		grid := [][]int{{1, 0, 1}, {0, 1, 0}}

		seats, err := seatgrid.Allocate(grid, 3)
		require.NoError(t, err)

		assert.Equal(t, []domain.Seat{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 2}}, seats)
		assert.Equal(t, [][]int{{1, 1, 1}, {1, 1, 1}}, grid)
	})

	t.Run("should fail without mutating when the request exceeds the grid", func(t *testing.T) {
		grid := [][]int{{0, 0}}

		_, err := seatgrid.Allocate(grid, 3)
		require.ErrorIs(t, err, seatgrid.ErrNotEnoughSeats)

		assert.Equal(t, [][]int{{0, 0}}, grid)
	})

	t.Run("should fail without mutating when free cells run out", func(t *testing.T) {
		grid := [][]int{{1, 0}, {1, 1}}

		_, err := seatgrid.Allocate(grid, 2)
		require.ErrorIs(t, err, seatgrid.ErrNotEnoughSeats)

		assert.Equal(t, [][]int{{1, 0}, {1, 1}}, grid)
	})

	t.Run("should return an empty list for a zero-seat request", func(t *testing.T) {
		grid := [][]int{{1, 1}}

		seats, err := seatgrid.Allocate(grid, 0)
		require.NoError(t, err)

		assert.Empty(t, seats)
		assert.Equal(t, [][]int{{1, 1}}, grid)
	})

	t.Run("should reject a ragged grid", func(t *testing.T) {
		grid := [][]int{{0, 0}, {0}}

		_, err := seatgrid.Allocate(grid, 1)
		assert.ErrorIs(t, err, seatgrid.ErrRagged)
	})
}

// Whenever some row still holds a run of K adjacent free cells, the
// allocator must come back with K cells that are adjacent in one row.
func TestAllocate_ContiguityPreference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		rows := 1 + rng.Intn(6)
		cols := 1 + rng.Intn(8)
		grid := make([][]int, rows)
		for r := range grid {
			grid[r] = make([]int, cols)
			for c := range grid[r] {
				if rng.Intn(3) == 0 {
					grid[r][c] = 1
				}
			}
		}
		count := 1 + rng.Intn(cols)

		hasRun := longestRowRun(grid) >= count
		before := seatgrid.Booked(grid)

		seats, err := seatgrid.Allocate(grid, count)
		if err != nil {
			require.ErrorIs(t, err, seatgrid.ErrNotEnoughSeats)
			assert.Equal(t, before, seatgrid.Booked(grid), "failed allocation must not mutate")
			continue
		}

		require.Len(t, seats, count)
		assert.Equal(t, before+count, seatgrid.Booked(grid), "seat conservation")
		for _, s := range seats {
			assert.Equal(t, 1, grid[s.Row][s.Col])
		}

		if hasRun {
			for i := 1; i < len(seats); i++ {
				require.Equal(t, seats[0].Row, seats[i].Row, "run must stay in one row")
				require.Equal(t, seats[i-1].Col+1, seats[i].Col, "run must be adjacent")
			}
		}
	}
}

func TestFree(t *testing.T) {
	t.Run("should free listed cells", func(t *testing.T) {
		grid := [][]int{{1, 1, 0}, {0, 1, 0}}

		err := seatgrid.Free(grid, []domain.Seat{{Row: 0, Col: 0}, {Row: 1, Col: 1}})
		require.NoError(t, err)

		assert.Equal(t, [][]int{{0, 1, 0}, {0, 0, 0}}, grid)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		grid := [][]int{{1, 1}}
		seats := []domain.Seat{{Row: 0, Col: 0}}

		require.NoError(t, seatgrid.Free(grid, seats))
		once := seatgrid.Clone(grid)
		require.NoError(t, seatgrid.Free(grid, seats))

		assert.Equal(t, once, grid)
	})

	t.Run("should reject out-of-range indices without mutating", func(t *testing.T) {
		grid := [][]int{{1, 1}}

		err := seatgrid.Free(grid, []domain.Seat{{Row: 0, Col: 0}, {Row: 0, Col: 5}})
		require.ErrorIs(t, err, seatgrid.ErrOutOfRange)

		assert.Equal(t, [][]int{{1, 1}}, grid)
	})
}

func longestRowRun(grid [][]int) int {
	best := 0
	for _, row := range grid {
		run := 0
		for _, cell := range row {
			if cell != 0 {
				run = 0
				continue
			}
			run++
			if run > best {
				best = run
			}
		}
	}
	return best
}
