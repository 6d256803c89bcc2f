package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineMasks are the 8 winning lines as 9-bit masks, bit = row*3+col
var lineMasks = []int{
	0b000000111, 0b000111000, 0b111000000,
	0b001001001, 0b010010010, 0b100100100,
	0b100010001, 0b001010100,
}

func gridFromMask(mask int, symbol Cell) Grid {
	g := NewGrid()
	for i := 0; i < Size*Size; i++ {
		if mask&(1<<i) != 0 {
			g[i/Size][i%Size] = symbol
		}
	}
	return g
}

func TestCheckWinner_Matches_Exactly_The_Eight_Lines(t *testing.T) {
	for mask := 0; mask < 1<<(Size*Size); mask++ {
		want := false
		for _, line := range lineMasks {
			if mask&line == line {
				want = true
				break
			}
		}
		grid := gridFromMask(mask, X)
		require.Equal(t, want, CheckWinner(grid, X), "mask %09b", mask)
		require.False(t, CheckWinner(grid, O), "mask %09b", mask)
	}
}

func TestCheckWinner_Zero_Or_One_Mark(t *testing.T) {
	assert.False(t, CheckWinner(NewGrid(), X))
	assert.False(t, CheckWinner(NewGrid(), Empty))

	for i := 0; i < Size*Size; i++ {
		grid := gridFromMask(1<<i, O)
		assert.False(t, CheckWinner(grid, O))
	}
}

func TestApplyMove(t *testing.T) {
	grid := NewGrid()

	next, err := ApplyMove(grid, X, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, X, next[1][2])
	assert.Equal(t, Empty, grid[1][2], "input grid must not change")
	assert.Equal(t, 1, next.Marks())

	_, err = ApplyMove(next, O, 1, 2)
	assert.ErrorIs(t, err, ErrCellOccupied)

	for _, pos := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		_, err = ApplyMove(next, O, pos[0], pos[1])
		assert.ErrorIs(t, err, ErrOutOfBounds)
	}
}

func TestIsFull(t *testing.T) {
	assert.False(t, IsFull(NewGrid()))
	assert.True(t, IsFull(gridFromMask(0b111111111, O)))
	assert.False(t, IsFull(gridFromMask(0b011111111, O)))
}

func TestGrid_String(t *testing.T) {
	grid := NewGrid()
	grid[0][0] = X
	grid[2][1] = O

	assert.Equal(t, "X| | \n | | \n |O| ", grid.String())
}

func TestGame_Turns_Alternate(t *testing.T) {
	g := NewGame("alice", "bob")
	assert.Equal(t, "alice", g.CurrentTurn())

	res, err := g.Move("alice", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, X, res.Symbol)
	assert.Equal(t, "bob", res.Next)
	assert.Equal(t, InProgress, res.Outcome)
	assert.Equal(t, 1, g.Moves())

	_, err = g.Move("alice", 1, 1)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.Move("mallory", 1, 1)
	assert.ErrorIs(t, err, ErrNotAPlayer)
}

func TestGame_Rejected_Move_Changes_Nothing(t *testing.T) {
	g := NewGame("alice", "bob")
	_, err := g.Move("alice", 0, 0)
	require.NoError(t, err)

	before := g.Grid()
	_, err = g.Move("bob", 0, 0)
	assert.ErrorIs(t, err, ErrCellOccupied)
	_, err = g.Move("bob", 5, 5)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.Equal(t, before, g.Grid())
	assert.Equal(t, "bob", g.CurrentTurn())
	assert.Equal(t, 1, g.Moves())
}

func TestGame_Win(t *testing.T) {
	g := NewGame("alice", "bob")
	moves := []struct {
		player   string
		row, col int
	}{
		{"alice", 0, 0}, {"bob", 1, 0},
		{"alice", 0, 1}, {"bob", 1, 1},
	}
	for _, m := range moves {
		_, err := g.Move(m.player, m.row, m.col)
		require.NoError(t, err)
	}

	res, err := g.Move("alice", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, Win, res.Outcome)
	assert.True(t, CheckWinner(res.Grid, X))

	_, err = g.Move("bob", 2, 2)
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestGame_Draw(t *testing.T) {
	g := NewGame("alice", "bob")
	// X O X
	// X O O
	// O X X
	moves := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 0}}
	players := []string{"alice", "bob"}
	for i, m := range moves {
		res, err := g.Move(players[i%2], m[0], m[1])
		require.NoError(t, err)
		require.Equal(t, InProgress, res.Outcome)
	}

	res, err := g.Move("alice", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, Draw, res.Outcome)
	assert.True(t, IsFull(res.Grid))
}
