package board

// refresh recomputes every derived field for the side to move: the
// opponent's attack set, check, the legal move list, checkmate and draw.
func (s *GameState) refresh() {
	us := s.sideToMove
	s.attacked = s.attackSet(us.Other())
	s.check = s.attacked.IsSet(s.kings[us])
	s.legal = s.generateLegalMoves(s.legal[:0])
	s.updateEnPassantHash()
	s.checkmate = s.check && len(s.legal) == 0
	s.draw = !s.checkmate && (len(s.legal) == 0 || s.repetition() || s.insufficientMaterial())
}

// updateEnPassantHash swaps the en passant key in the hash for the one
// matching the freshly generated legal moves.
func (s *GameState) updateEnPassantHash() {
	f := s.enPassantFile()
	if f == s.epFile {
		return
	}
	if s.epFile != noFile {
		s.hash ^= zobristEnPassant[s.epFile]
	}
	if f != noFile {
		s.hash ^= zobristEnPassant[f]
	}
	s.epFile = f
}

// generateLegalMoves appends every legal move for the side to move to ml.
// s.attacked must already hold the opponent's attack set.
func (s *GameState) generateLegalMoves(ml []Move) []Move {
	start := len(ml)
	ml = s.generatePseudoLegal(ml)

	us := s.sideToMove
	king := s.kings[us]
	legal := ml[:start]
	for _, m := range ml[start:] {
		if m.Piece.Type() == King && s.attacked.IsSet(m.To) {
			continue
		}
		if s.needsSimulation(m, king) && !s.leavesKingSafe(m) {
			continue
		}
		legal = append(legal, m)
	}
	return legal
}

// needsSimulation reports whether a static look at the attack set cannot
// prove the move safe. Only pieces on a line with their own king can be
// pinned, so other moves skip the make/unmake round trip unless the king
// is in check, the king itself moves, or the move is en passant (which
// clears two squares on the capturing row).
func (s *GameState) needsSimulation(m Move, king Square) bool {
	return s.check || m.Piece.Type() == King || m.EnPassant || aligned(m.From, king)
}

// leavesKingSafe plays m on the board, checks the mover's king and takes
// the move back. Derived state is not touched.
func (s *GameState) leavesKingSafe(m Move) bool {
	us := m.Piece.Color()
	s.apply(m)
	safe := !s.isAttacked(s.kings[us], us.Other())
	s.unapply(m)
	return safe
}

func (s *GameState) generatePseudoLegal(ml []Move) []Move {
	us := s.sideToMove
	for sq := A8; sq <= H1; sq++ {
		p := s.board[sq]
		if p == NoPiece || p.Color() != us {
			continue
		}
		switch pt := p.Type(); pt {
		case Pawn:
			ml = s.generatePawnMoves(ml, sq, p)
		case Knight:
			ml = s.generateStepMoves(ml, sq, p, knightTargets[sq])
		case King:
			ml = s.generateStepMoves(ml, sq, p, kingTargets[sq])
			ml = s.generateCastling(ml, sq, p)
		default:
			ml = s.generateSlideMoves(ml, sq, p, slideDirs(pt))
		}
	}
	return ml
}

// addMove builds a move onto a free or enemy-occupied square.
func (s *GameState) addMove(ml []Move, from, to Square, p Piece) []Move {
	return append(ml, Move{
		From:      from,
		To:        to,
		Piece:     p,
		Captured:  s.board[to],
		Promotion: p.Type() == Pawn && to.RelativeRow(p.Color()) == 7,
	})
}

func (s *GameState) generatePawnMoves(ml []Move, from Square, p Piece) []Move {
	us := p.Color()
	fwd := us.Forward()

	// Pushes
	if one, ok := from.Offset(fwd, 0); ok && s.board[one] == NoPiece {
		ml = s.addMove(ml, from, one, p)
		if from.RelativeRow(us) == 1 {
			if two, ok := one.Offset(fwd, 0); ok && s.board[two] == NoPiece {
				ml = s.addMove(ml, from, two, p)
			}
		}
	}

	// Captures
	for _, dc := range [2]int{-1, 1} {
		to, ok := from.Offset(fwd, dc)
		if !ok {
			continue
		}
		if target := s.board[to]; target != NoPiece && target.Color() != us {
			ml = s.addMove(ml, from, to, p)
		}
	}

	// En passant, only straight after the opponent's double push beside us
	last := s.lastMove()
	if last.Piece != NewPiece(Pawn, us.Other()) {
		return ml
	}
	if d := last.To.Row() - last.From.Row(); d != 2 && d != -2 {
		return ml
	}
	if last.To.Row() != from.Row() {
		return ml
	}
	dc := last.To.Col() - from.Col()
	if dc != 1 && dc != -1 {
		return ml
	}
	if s.board[last.To] != last.Piece {
		return ml
	}
	to, ok := from.Offset(fwd, dc)
	if !ok || s.board[to] != NoPiece {
		return ml
	}
	return append(ml, Move{
		From:      from,
		To:        to,
		Piece:     p,
		Captured:  last.Piece,
		EnPassant: true,
	})
}

func (s *GameState) generateStepMoves(ml []Move, from Square, p Piece, targets []Square) []Move {
	for _, to := range targets {
		if t := s.board[to]; t == NoPiece || t.Color() != p.Color() {
			ml = s.addMove(ml, from, to, p)
		}
	}
	return ml
}

func (s *GameState) generateSlideMoves(ml []Move, from Square, p Piece, dirs []Direction) []Move {
	for _, d := range dirs {
		to := from
		for {
			var ok bool
			if to, ok = to.Offset(d.DR, d.DC); !ok {
				break
			}
			t := s.board[to]
			if t == NoPiece {
				ml = s.addMove(ml, from, to, p)
				continue
			}
			if t.Color() != p.Color() {
				ml = s.addMove(ml, from, to, p)
			}
			break
		}
	}
	return ml
}

// generateCastling adds the castles still allowed by the rights counters.
// The king may not be in check or pass through an attacked square; the
// destination is left to the king-move filter.
func (s *GameState) generateCastling(ml []Move, from Square, p Piece) []Move {
	us := p.Color()
	home := NewSquare(0, 4)
	if us == White {
		home = NewSquare(7, 4)
	}
	if from != home || s.check {
		return ml
	}

	for _, side := range [2]CastleSide{KingSide, QueenSide} {
		if !s.castling.CanCastle(us, side) {
			continue
		}
		rookFrom, rookTo := castleRookSquares(us, side)
		if s.board[rookFrom] != NewPiece(Rook, us) {
			continue
		}
		// Every square between king and rook must be empty.
		lo, hi := rookFrom, from
		if lo > hi {
			lo, hi = hi, lo
		}
		empty := true
		for sq := lo + 1; sq < hi; sq++ {
			if s.board[sq] != NoPiece {
				empty = false
				break
			}
		}
		if !empty || s.attacked.IsSet(rookTo) {
			continue
		}
		to := from + 2
		if side == QueenSide {
			to = from - 2
		}
		ml = append(ml, Move{
			From:     from,
			To:       to,
			Piece:    p,
			Captured: NoPiece,
			Castle:   side,
		})
	}
	return ml
}

// repetition is a shallow stand-in for threefold repetition: the last
// move matches the moves four and eight plies before it.
func (s *GameState) repetition() bool {
	n := len(s.history)
	if n < 9 {
		return false
	}
	last := s.history[n-1]
	return last.Equal(s.history[n-5]) && last.Equal(s.history[n-9])
}

// insufficientMaterial approximates a dead position as three or fewer
// pieces left on the board, kings included.
func (s *GameState) insufficientMaterial() bool {
	return s.PieceCount() <= 3
}
