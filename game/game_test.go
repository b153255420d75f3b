package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// place puts a run of stones on the board starting at (x, y) and stepping
// by (dx, dy), returning the move for the last stone placed.
func place(board Board, mark Mark, x, y, dx, dy, count int) Move {
	var last Move
	for i := 0; i < count; i++ {
		c := Coord{X: x + dx*i, Y: y + dy*i}
		board[c] = mark
		last = Move{Coord: c, Mark: mark}
	}
	return last
}

func TestDetectWin_Horizontal(t *testing.T) {
	board := make(Board)
	last := place(board, MarkX, 0, 0, 1, 0, 5)

	assert.Equal(t, MarkX, DetectWin(board, last))
}

func TestDetectWin_Vertical(t *testing.T) {
	board := make(Board)
	last := place(board, MarkO, 3, -2, 0, 1, 5)

	assert.Equal(t, MarkO, DetectWin(board, last))
}

func TestDetectWin_Diagonals(t *testing.T) {
	board := make(Board)
	last := place(board, MarkX, 0, 0, 1, 1, 5)
	assert.Equal(t, MarkX, DetectWin(board, last))

	board = make(Board)
	last = place(board, MarkX, 0, 0, 1, -1, 5)
	assert.Equal(t, MarkX, DetectWin(board, last))
}

func TestDetectWin_LastMoveInMiddleOfRun(t *testing.T) {
	board := make(Board)
	place(board, MarkX, 0, 0, 1, 0, 2)
	place(board, MarkX, 3, 0, 1, 0, 2)

	// The gap at (2,0) closes the run from the middle.
	last := Move{Coord: Coord{X: 2, Y: 0}, Mark: MarkX}
	board[last.Coord] = MarkX

	assert.Equal(t, MarkX, DetectWin(board, last))
}

func TestDetectWin_FourIsNotEnough(t *testing.T) {
	board := make(Board)
	last := place(board, MarkX, 0, 0, 1, 0, 4)

	assert.Equal(t, MarkEmpty, DetectWin(board, last))
}

func TestDetectWin_OverlineWins(t *testing.T) {
	// Six in a row counts as a win, there is no overline exclusion.
	board := make(Board)
	place(board, MarkO, 0, 0, 1, 0, 6)
	last := Move{Coord: Coord{X: 3, Y: 0}, Mark: MarkO}

	assert.Equal(t, MarkO, DetectWin(board, last))
}

func TestDetectWin_OpponentStoneBreaksRun(t *testing.T) {
	board := make(Board)
	place(board, MarkX, 0, 0, 1, 0, 4)
	board[Coord{X: 4, Y: 0}] = MarkO

	last := Move{Coord: Coord{X: 3, Y: 0}, Mark: MarkX}
	assert.Equal(t, MarkEmpty, DetectWin(board, last))
}

func TestDetectWin_NegativeCoordinates(t *testing.T) {
	// The grid is unbounded, runs may cross the origin.
	board := make(Board)
	last := place(board, MarkX, -2, -2, 1, 1, 5)

	assert.Equal(t, MarkX, DetectWin(board, last))
}

func TestDetectWin_FirstMove(t *testing.T) {
	board := make(Board)
	last := Move{Coord: Coord{X: 0, Y: 0}, Mark: MarkX}
	board[last.Coord] = MarkX

	assert.Equal(t, MarkEmpty, DetectWin(board, last))
}

func TestMark_Opponent(t *testing.T) {
	assert.Equal(t, MarkO, MarkX.Opponent())
	assert.Equal(t, MarkX, MarkO.Opponent())
}

func TestCoord_Key(t *testing.T) {
	assert.Equal(t, "3,-7", Coord{X: 3, Y: -7}.Key())
}
