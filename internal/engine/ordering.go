package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/hailam/chessmind/internal/board"
)

// promotionValue puts promotions ahead of every other move.
const promotionValue = math.MaxInt32

// enPassantValue is the capture gain credited to an en passant capture.
const enPassantValue = 100

// MoveValue estimates how good a legal move is for white: promotions are
// best, then the piece-square gain of the move plus the material trade of
// a capture. The value is negated when black is to move, so callers sort
// descending for white and ascending for black.
//
// The origin square must hold a piece; otherwise the evaluator and the
// board disagree and MoveValue panics with board.ErrInvalidState.
func MoveValue(s *board.GameState, m board.Move) int {
	white := s.SideToMove() == board.White
	if m.Promotion {
		if white {
			return promotionValue
		}
		return -promotionValue
	}

	p := s.PieceAt(m.From)
	if p == board.NoPiece {
		panic(fmt.Errorf("%w: a piece was expected at %s", board.ErrInvalidState, m.From))
	}
	value := pst(p, m.To) - pst(p, m.From)

	switch {
	case m.EnPassant:
		value += enPassantValue
	case m.IsCapture():
		value += m.Captured.Value() - p.Value()
	}

	if !white {
		value = -value
	}
	return value
}

type scoredMove struct {
	move  board.Move
	value int
}

// OrderedMoves returns a fresh copy of the legal moves, best first for the
// side to move. Ties keep generation order.
func OrderedMoves(s *board.GameState) []board.Move {
	legal := s.LegalMoves()
	scored := make([]scoredMove, len(legal))
	for i, m := range legal {
		scored[i] = scoredMove{move: m, value: MoveValue(s, m)}
	}

	white := s.SideToMove() == board.White
	slices.SortStableFunc(scored, func(a, b scoredMove) int {
		if white {
			return cmp.Compare(b.value, a.value)
		}
		return cmp.Compare(a.value, b.value)
	})

	for i, sm := range scored {
		legal[i] = sm.move
	}
	return legal
}
