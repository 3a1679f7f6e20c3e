package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string into a game with no history. The
// half-move clock and full-move number are optional.
func ParseFEN(fen string) (*GameState, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: need at least 4 fields, got %d", ErrInvalidFEN, len(parts))
	}

	s := newEmptyState()

	// Piece placement (field 0)
	if err := parsePiecePlacement(s, parts[0]); err != nil {
		return nil, err
	}

	// Side to move (field 1)
	switch parts[1] {
	case "w":
		s.sideToMove = White
	case "b":
		s.sideToMove = Black
	default:
		return nil, fmt.Errorf("%w: invalid side to move: %s", ErrInvalidFEN, parts[1])
	}

	// Castling rights (field 2)
	if err := parseCastlingRights(s, parts[2]); err != nil {
		return nil, err
	}

	// En passant square (field 3)
	if parts[3] != "-" {
		if err := parseEnPassant(s, parts[3]); err != nil {
			return nil, err
		}
	}

	// Half-move clock (field 4, optional)
	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fmt.Errorf("%w: invalid half-move clock: %s", ErrInvalidFEN, parts[4])
		}
		s.startHalfMove = hmc
	}

	// Full-move number (field 5, optional)
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return nil, fmt.Errorf("%w: invalid full-move number: %s", ErrInvalidFEN, parts[5])
		}
		s.startMove = fmn
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}

	s.hash = s.ComputeHash()
	s.pawnKey = s.ComputePawnKey()
	s.refresh()
	return s, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(s *GameState, placement string) error {
	rows := strings.Split(placement, "/")
	if len(rows) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(rows))
	}

	for row, rowStr := range rows {
		col := 0
		for _, c := range rowStr {
			if col > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, 8-row)
			}
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("%w: invalid piece character: %c", ErrInvalidFEN, c)
			}
			s.put(NewSquare(row, col), piece)
			col++
		}
		if col != 8 {
			return fmt.Errorf("%w: invalid number of squares in rank %d: got %d", ErrInvalidFEN, 8-row, col)
		}
	}
	return nil
}

// parseCastlingRights sets every counter FEN does not grant to 1, so the
// castle stays off for the rest of the game.
func parseCastlingRights(s *GameState, castling string) error {
	s.castling = CastlingRights{1, 1, 1, 1}
	if castling == "-" {
		return nil
	}
	for _, c := range castling {
		switch c {
		case 'K':
			s.castling[WhiteKingSide] = 0
		case 'Q':
			s.castling[WhiteQueenSide] = 0
		case 'k':
			s.castling[BlackKingSide] = 0
		case 'q':
			s.castling[BlackQueenSide] = 0
		default:
			return fmt.Errorf("%w: invalid castling character: %c", ErrInvalidFEN, c)
		}
	}
	return nil
}

// parseEnPassant turns the FEN target square into the double push that
// must have just been played, so the generator can offer the capture.
func parseEnPassant(s *GameState, field string) error {
	target, err := ParseSquare(field)
	if err != nil {
		return fmt.Errorf("%w: invalid en passant square: %s", ErrInvalidFEN, field)
	}
	mover := s.sideToMove.Other()
	if target.RelativeRow(mover) != 2 {
		return fmt.Errorf("%w: en passant square %s does not match side to move", ErrInvalidFEN, field)
	}
	fwd := mover.Forward()
	from, _ := target.Offset(-fwd, 0)
	to, _ := target.Offset(fwd, 0)
	pawn := NewPiece(Pawn, mover)
	if s.board[to] != pawn || s.board[target] != NoPiece || s.board[from] != NoPiece {
		return fmt.Errorf("%w: no double-pushed pawn behind %s", ErrInvalidFEN, field)
	}
	s.prior = Move{From: from, To: to, Piece: pawn, Captured: NoPiece}
	return nil
}

// EnPassantTarget returns the square passed over by a double pawn push
// made on the previous ply, or NoSquare.
func (s *GameState) EnPassantTarget() Square {
	last := s.lastMove()
	if last.Piece.Type() != Pawn {
		return NoSquare
	}
	if d := last.To.Row() - last.From.Row(); d != 2 && d != -2 {
		return NoSquare
	}
	return NewSquare((last.From.Row()+last.To.Row())/2, last.From.Col())
}

// HalfMoveClock returns the plies since the last capture or pawn move.
func (s *GameState) HalfMoveClock() int {
	for i := len(s.history) - 1; i >= 0; i-- {
		m := s.history[i]
		if m.IsCapture() || m.Piece.Type() == Pawn {
			return len(s.history) - 1 - i
		}
	}
	return s.startHalfMove + len(s.history)
}

// FullMoveNumber returns the FEN full-move counter.
func (s *GameState) FullMoveNumber() int {
	offset := 0
	if startedBlack := (s.sideToMove == Black) != (len(s.history)%2 == 1); startedBlack {
		offset = 1
	}
	return s.startMove + (len(s.history)+offset)/2
}

// FEN returns the FEN representation of the position.
func (s *GameState) FEN() string {
	var sb strings.Builder

	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			piece := s.board[NewSquare(row, col)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if s.sideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(s.castling.String())

	sb.WriteByte(' ')
	sb.WriteString(s.EnPassantTarget().String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(s.HalfMoveClock()))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(s.FullMoveNumber()))

	return sb.String()
}

// Replay loads a starting FEN and plays a list of moves, each in
// coordinate or SAN form.
func Replay(startFEN string, moves []string) (*GameState, error) {
	s, err := ParseFEN(startFEN)
	if err != nil {
		return nil, err
	}
	for i, text := range moves {
		m, err := s.ParseMove(text)
		if err != nil {
			if m, err = s.ParseSAN(text); err != nil {
				return nil, fmt.Errorf("move %d: %w", i+1, err)
			}
		}
		s.MakeMove(m)
	}
	return s, nil
}
