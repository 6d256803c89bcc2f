package game

import "strings"

// Size is the width and height of the board
const Size = 3

// Cell is the content of one board square
type Cell string

const (
	Empty Cell = " "
	X     Cell = "X"
	O     Cell = "O"
)

// Grid is the 3x3 board, indexed [row][col]
type Grid [Size][Size]Cell

// NewGrid returns a board with every cell empty
func NewGrid() Grid {
	var g Grid
	for r := range g {
		for c := range g[r] {
			g[r][c] = Empty
		}
	}
	return g
}

// String renders rows joined by newline and cells joined by '|'
func (g Grid) String() string {
	rows := make([]string, Size)
	for r := range g {
		cells := make([]string, Size)
		for c := range g[r] {
			cells[c] = string(g[r][c])
		}
		rows[r] = strings.Join(cells, "|")
	}
	return strings.Join(rows, "\n")
}

// Marks counts non-empty cells
func (g Grid) Marks() int {
	n := 0
	for r := range g {
		for c := range g[r] {
			if g[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

// Outcome describes where a game stands after a move
type Outcome int

const (
	InProgress Outcome = iota
	Win
	Draw
)

func (o Outcome) String() string {
	switch o {
	case InProgress:
		return "in_progress"
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// MoveResult reports an accepted move
type MoveResult struct {
	Mover   string
	Symbol  Cell
	Row     int
	Col     int
	Outcome Outcome
	Grid    Grid
	// Next is the player whose turn it now is
	Next string
}
