// Package engine scores positions and searches for the best move with a
// root-parallel alpha-beta minimax.
package engine

import (
	"github.com/hailam/chessmind/internal/board"
)

// Pawn structure penalty, per doubled, isolated or blocked pawn.
const pawnStructurePenalty = 50

// Piece-square tables from white's point of view, indexed row*8+col with
// row 0 being rank 8. Black reads them through Square.Mirror.
var (
	pawnTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	}

	knightTable = [64]int{
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	}

	bishopTable = [64]int{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	}

	rookTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	}

	queenTable = [64]int{
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	}

	kingTable = [64]int{
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, 0, 0, 0, 0, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	}
)

var pstTables = [6]*[64]int{&pawnTable, &knightTable, &bishopTable, &rookTable, &queenTable, &kingTable}

// pst returns the piece-square bonus of a piece on a square, from the
// piece owner's point of view.
func pst(p board.Piece, sq board.Square) int {
	if p == board.NoPiece {
		return 0
	}
	if p.Color() == board.Black {
		sq = sq.Mirror()
	}
	return pstTables[p.Type()][sq]
}

// Evaluator scores positions. It owns a pawn structure cache, so each
// search worker needs its own.
type Evaluator struct {
	pawns *PawnTable
}

// NewEvaluator creates an evaluator with a pawn cache of the given size in MB.
// A size of zero disables the cache.
func NewEvaluator(pawnCacheMB int) *Evaluator {
	e := &Evaluator{}
	if pawnCacheMB > 0 {
		e.pawns = NewPawnTable(pawnCacheMB)
	}
	return e
}

// Evaluate returns the static score of a position in centipawns,
// positive when white is better. It does not look at the side to move.
func Evaluate(s *board.GameState) int {
	return (&Evaluator{}).Evaluate(s)
}

// Evaluate returns the static score of a position, positive for white.
func (e *Evaluator) Evaluate(s *board.GameState) int {
	score := 0
	for sq := board.A8; sq <= board.H1; sq++ {
		p := s.PieceAt(sq)
		if p == board.NoPiece {
			continue
		}
		v := p.Value() + pst(p, sq)
		if p.Color() == board.White {
			score += v
		} else {
			score -= v
		}
	}
	return score + e.pawnStructure(s)
}

// pawnStructure returns the doubled, isolated and blocked pawn penalties,
// white's count subtracted and black's added.
func (e *Evaluator) pawnStructure(s *board.GameState) int {
	var fileScore int
	cached := false
	if e.pawns != nil {
		fileScore, cached = e.pawns.Probe(s.PawnKey())
	}
	if !cached {
		fileScore = pawnFileScore(s)
		if e.pawns != nil {
			e.pawns.Store(s.PawnKey(), fileScore)
		}
	}
	return fileScore + blockedScore(s)
}

// pawnFileScore scores doubled and isolated pawns. It depends on pawn
// placement only, so it can be cached by pawn key.
func pawnFileScore(s *board.GameState) int {
	var files [2][8]int
	for sq := board.A8; sq <= board.H1; sq++ {
		if p := s.PieceAt(sq); p.Type() == board.Pawn {
			files[p.Color()][sq.Col()]++
		}
	}

	var count [2]int
	for c := board.White; c <= board.Black; c++ {
		for col, n := range files[c] {
			if n == 0 {
				continue
			}
			if n > 1 {
				count[c] += n
			}
			left := col > 0 && files[c][col-1] > 0
			right := col < 7 && files[c][col+1] > 0
			if !left && !right {
				count[c] += n
			}
		}
	}
	return pawnStructurePenalty * (count[board.Black] - count[board.White])
}

// blockedScore scores pawns with any piece directly in front of them.
func blockedScore(s *board.GameState) int {
	var count [2]int
	for sq := board.A8; sq <= board.H1; sq++ {
		p := s.PieceAt(sq)
		if p.Type() != board.Pawn {
			continue
		}
		ahead, ok := sq.Offset(p.Color().Forward(), 0)
		if ok && !s.IsEmpty(ahead) {
			count[p.Color()]++
		}
	}
	return pawnStructurePenalty * (count[board.Black] - count[board.White])
}
