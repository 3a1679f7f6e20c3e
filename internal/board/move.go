package board

import (
	"errors"
	"fmt"
)

// Errors reported by the board package.
var (
	// ErrInvalidState signals a programming-contract violation: the caller
	// asked for something that contradicts the board (e.g. moving from an
	// empty square). It is raised through panic and never recovered here.
	ErrInvalidState = errors.New("invalid board state")

	// ErrIllegalMove is returned when text input does not name a legal move.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInvalidFEN is returned when a FEN string cannot be parsed.
	ErrInvalidFEN = errors.New("invalid FEN")
)

// CastleSide tells which way a castling move goes.
type CastleSide uint8

const (
	NoCastle CastleSide = iota
	QueenSide
	KingSide
)

// Move is a single transition with everything needed to reverse it.
type Move struct {
	From     Square
	To       Square
	Piece    Piece // moving piece
	Captured Piece // NoPiece if nothing is taken

	Castle    CastleSide
	EnPassant bool
	Promotion bool // pawn reaches the last rank and becomes a queen
	GaveCheck bool // set on history entries once the move has been played
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Piece: NoPiece, Captured: NoPiece}

// Equal reports whether two moves share origin, destination and moving piece.
// Capture and flags are ignored so a player's attempt can be
// matched against the generated list.
func (m Move) Equal(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Piece == o.Piece
}

// IsNull returns true for NoMove and other degenerate moves.
func (m Move) IsNull() bool {
	return m.From == m.To || m.Piece == NoPiece
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// CapturedSquare returns the square the captured piece stands on.
// It differs from To only for en passant.
func (m Move) CapturedSquare() Square {
	if m.EnPassant {
		return NewSquare(m.From.Row(), m.To.Col())
	}
	return m.To
}

// String returns the coordinate form of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}

	s := m.From.String() + m.To.String()
	if m.Promotion {
		s += "q"
	}
	return s
}

// castleRookSquares returns the rook's origin and destination for a castle.
func castleRookSquares(c Color, side CastleSide) (from, to Square) {
	row := 0
	if c == White {
		row = 7
	}
	if side == KingSide {
		return NewSquare(row, 7), NewSquare(row, 5)
	}
	return NewSquare(row, 0), NewSquare(row, 3)
}

// ParseMove resolves coordinate notation ("e2e4", "e7e8q") against the
// current legal moves. Only queen promotion exists, so a trailing 'q' is
// optional and any other promotion letter is rejected.
func (s *GameState) ParseMove(str string) (Move, error) {
	if len(str) != 4 && len(str) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, str)
	}

	from, err := ParseSquare(str[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	to, err := ParseSquare(str[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}

	m, ok := s.FindMove(from, to)
	if !ok {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, str)
	}
	if len(str) == 5 && (str[4] != 'q' || !m.Promotion) {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, str)
	}
	return m, nil
}
