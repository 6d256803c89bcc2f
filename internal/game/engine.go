// Package game implements tic-tac-toe rules and the per-pair game state machine
package game

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds  = errors.New("move out of bounds")
	ErrCellOccupied = errors.New("cell already occupied")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrNotAPlayer   = errors.New("not a player in this game")
	ErrGameOver     = errors.New("game is over")
)

// winLines lists the 8 winning lines: 3 rows, 3 columns, 2 diagonals
var winLines = [8][Size][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// ApplyMove places symbol at (row, col) and returns the new grid.
// The input grid is never modified.
func ApplyMove(grid Grid, symbol Cell, row, col int) (Grid, error) {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return grid, fmt.Errorf("(%d,%d): %w", row, col, ErrOutOfBounds)
	}
	if grid[row][col] != Empty {
		return grid, fmt.Errorf("(%d,%d): %w", row, col, ErrCellOccupied)
	}
	grid[row][col] = symbol
	return grid, nil
}

// CheckWinner reports whether any full line is uniformly symbol
func CheckWinner(grid Grid, symbol Cell) bool {
	if symbol == Empty {
		return false
	}
	for _, line := range winLines {
		won := true
		for _, p := range line {
			if grid[p[0]][p[1]] != symbol {
				won = false
				break
			}
		}
		if won {
			return true
		}
	}
	return false
}

// IsFull reports whether no empty cell remains
func IsFull(grid Grid) bool {
	return grid.Marks() == Size*Size
}

// Game is one two-player instance. The first player is X and moves first.
// Game is not safe for concurrent use; callers hold their own lock.
type Game struct {
	first       string
	second      string
	grid        Grid
	currentTurn string
	moves       int
	outcome     Outcome
}

// NewGame starts a game with first playing X and second playing O
func NewGame(first, second string) *Game {
	return &Game{
		first:       first,
		second:      second,
		grid:        NewGrid(),
		currentTurn: first,
		outcome:     InProgress,
	}
}

// Move validates and applies a move by player. A rejected move changes nothing.
func (g *Game) Move(player string, row, col int) (MoveResult, error) {
	if g.outcome != InProgress {
		return MoveResult{}, ErrGameOver
	}
	symbol, ok := g.SymbolOf(player)
	if !ok {
		return MoveResult{}, ErrNotAPlayer
	}
	if g.currentTurn != player {
		return MoveResult{}, ErrNotYourTurn
	}

	next, err := ApplyMove(g.grid, symbol, row, col)
	if err != nil {
		return MoveResult{}, err
	}

	g.grid = next
	g.moves++
	g.switchTurn()

	switch {
	case CheckWinner(g.grid, symbol):
		g.outcome = Win
	case IsFull(g.grid):
		g.outcome = Draw
	}

	return MoveResult{
		Mover:   player,
		Symbol:  symbol,
		Row:     row,
		Col:     col,
		Outcome: g.outcome,
		Grid:    g.grid,
		Next:    g.currentTurn,
	}, nil
}

// switchTurn hands the turn to the other player
func (g *Game) switchTurn() {
	if g.currentTurn == g.first {
		g.currentTurn = g.second
	} else {
		g.currentTurn = g.first
	}
}

// SymbolOf returns the mark assigned to player
func (g *Game) SymbolOf(player string) (Cell, bool) {
	switch player {
	case g.first:
		return X, true
	case g.second:
		return O, true
	default:
		return Empty, false
	}
}

// Opponent returns the other player
func (g *Game) Opponent(player string) string {
	if player == g.first {
		return g.second
	}
	return g.first
}

func (g *Game) First() string       { return g.first }
func (g *Game) Second() string      { return g.second }
func (g *Game) Grid() Grid          { return g.grid }
func (g *Game) CurrentTurn() string { return g.currentTurn }
func (g *Game) Moves() int          { return g.moves }
func (g *Game) Outcome() Outcome    { return g.outcome }
