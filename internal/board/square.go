// Package board implements an 8x8 mailbox chess board with a reversible
// game history and a fully filtered legal-move generator.
package board

import "fmt"

// Square represents a square on the chess board (0-63).
// Squares are indexed row*8+col where row 0 is black's back rank (rank 8)
// and col 0 is the a-file: A8=0, H8=7, A1=56, H1=63.
type Square uint8

// Square constants for all 64 squares, in row order.
const (
	A8 Square = iota
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A1
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	NoSquare Square = 64
)

// NewSquare creates a square from row and column (0-indexed).
func NewSquare(row, col int) Square {
	return Square(row*8 + col)
}

// Row returns the row of the square (0-7, where 0 is rank 8).
func (sq Square) Row() int {
	return int(sq) >> 3
}

// Col returns the column of the square (0-7, where 0 is the a-file).
func (sq Square) Col() int {
	return int(sq) & 7
}

// Rank returns the chess rank (1-8).
func (sq Square) Rank() int {
	return 8 - sq.Row()
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + sq.Col()), byte('0' + sq.Rank())})
}

// ParseSquare parses algebraic notation (e.g., "e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	return NewSquare(int('8'-s[1]), int(s[0]-'a')), nil
}

// IsValid returns true if the square is a valid board square (0-63).
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// Mirror returns the square mirrored vertically (for black's perspective).
func (sq Square) Mirror() Square {
	return sq ^ 56
}

// Offset returns the square shifted by the given row and column deltas,
// and false if the result falls off the board.
func (sq Square) Offset(dr, dc int) (Square, bool) {
	r, c := sq.Row()+dr, sq.Col()+dc
	if r < 0 || r > 7 || c < 0 || c > 7 {
		return NoSquare, false
	}
	return NewSquare(r, c), true
}

// RelativeRow returns the row from a given color's perspective,
// 0 being that color's back rank.
func (sq Square) RelativeRow(c Color) int {
	if c == White {
		return 7 - sq.Row()
	}
	return sq.Row()
}
