package board

// Direction is a (row, col) step on the board.
type Direction struct {
	DR, DC int
}

// Movement patterns.
var (
	knightSteps = [8]Direction{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingSteps   = [8]Direction{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	rookDirs   = []Direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirs = []Direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	queenDirs  = append(append([]Direction(nil), rookDirs...), bishopDirs...)
)

// Pre-computed target tables, filled once at init.
var (
	knightTargets [64][]Square
	kingTargets   [64][]Square
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
)

func init() {
	for sq := A8; sq <= H1; sq++ {
		for _, d := range knightSteps {
			if to, ok := sq.Offset(d.DR, d.DC); ok {
				knightTargets[sq] = append(knightTargets[sq], to)
				knightAttacks[sq] = knightAttacks[sq].Set(to)
			}
		}
		for _, d := range kingSteps {
			if to, ok := sq.Offset(d.DR, d.DC); ok {
				kingTargets[sq] = append(kingTargets[sq], to)
				kingAttacks[sq] = kingAttacks[sq].Set(to)
			}
		}
	}
}

// slideDirs returns the ray directions of a sliding piece type.
func slideDirs(pt PieceType) []Direction {
	switch pt {
	case Rook:
		return rookDirs
	case Bishop:
		return bishopDirs
	case Queen:
		return queenDirs
	}
	return nil
}

// aligned returns true if two squares share a row, column or diagonal.
func aligned(a, b Square) bool {
	dr := a.Row() - b.Row()
	dc := a.Col() - b.Col()
	return dr == 0 || dc == 0 || dr == dc || dr == -dc
}

// attackSet returns every square the given color attacks, ignoring
// whether its own king would be left in check.
func (s *GameState) attackSet(by Color) Bitboard {
	var set Bitboard
	for sq := A8; sq <= H1; sq++ {
		p := s.board[sq]
		if p == NoPiece || p.Color() != by {
			continue
		}
		switch pt := p.Type(); pt {
		case Pawn:
			for _, dc := range [2]int{-1, 1} {
				if to, ok := sq.Offset(by.Forward(), dc); ok {
					set = set.Set(to)
				}
			}
		case Knight:
			set |= knightAttacks[sq]
		case King:
			set |= kingAttacks[sq]
		default:
			for _, d := range slideDirs(pt) {
				to := sq
				for {
					var ok bool
					if to, ok = to.Offset(d.DR, d.DC); !ok {
						break
					}
					set = set.Set(to)
					if s.board[to] != NoPiece {
						break
					}
				}
			}
		}
	}
	return set
}

// isAttacked returns true if any piece of color by attacks sq.
// It looks outward from sq instead of building a full attack set.
func (s *GameState) isAttacked(sq Square, by Color) bool {
	for _, to := range knightTargets[sq] {
		if s.board[to] == NewPiece(Knight, by) {
			return true
		}
	}
	for _, to := range kingTargets[sq] {
		if s.board[to] == NewPiece(King, by) {
			return true
		}
	}
	// A pawn of color by attacks sq from one row behind it.
	pawn := NewPiece(Pawn, by)
	for _, dc := range [2]int{-1, 1} {
		if from, ok := sq.Offset(-by.Forward(), dc); ok && s.board[from] == pawn {
			return true
		}
	}
	queen := NewPiece(Queen, by)
	for _, group := range [2]struct {
		dirs   []Direction
		slider Piece
	}{{rookDirs, NewPiece(Rook, by)}, {bishopDirs, NewPiece(Bishop, by)}} {
		for _, d := range group.dirs {
			to := sq
			for {
				var ok bool
				if to, ok = to.Offset(d.DR, d.DC); !ok {
					break
				}
				p := s.board[to]
				if p == NoPiece {
					continue
				}
				if p == group.slider || p == queen {
					return true
				}
				break
			}
		}
	}
	return false
}
