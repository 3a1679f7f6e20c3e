package board

import (
	"fmt"
	"strings"
)

// SAN converts a legal move of the current position to Standard
// Algebraic Notation.
func (s *GameState) SAN(m Move) string {
	if m.IsNull() {
		return "-"
	}
	piece := s.board[m.From]
	if piece == NoPiece {
		return m.String()
	}

	if m.Castle == KingSide {
		return "O-O" + s.checkSuffix(m)
	}
	if m.Castle == QueenSide {
		return "O-O-O" + s.checkSuffix(m)
	}

	var sb strings.Builder
	pt := piece.Type()

	if pt != Pawn {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(s.disambiguation(m, piece))
	}

	if m.IsCapture() {
		if pt == Pawn {
			sb.WriteByte('a' + byte(m.From.Col()))
		}
		sb.WriteByte('x')
	}

	sb.WriteString(m.To.String())

	if m.Promotion {
		sb.WriteString("=Q")
	}

	sb.WriteString(s.checkSuffix(m))
	return sb.String()
}

// checkSuffix plays the move on a copy to find the check marker.
func (s *GameState) checkSuffix(m Move) string {
	c := s.Clone()
	c.Play(m)
	switch {
	case c.checkmate:
		return "#"
	case c.check:
		return "+"
	}
	return ""
}

// disambiguation returns the origin file, rank or square needed to tell
// the move apart from another piece of the same kind reaching To.
func (s *GameState) disambiguation(m Move, piece Piece) string {
	var candidates []Square
	for _, o := range s.legal {
		if o.To == m.To && o.From != m.From && o.Piece == piece {
			candidates = append(candidates, o.From)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.Col() == m.From.Col() {
			sameFile = true
		}
		if sq.Row() == m.From.Row() {
			sameRank = true
		}
	}
	if !sameFile {
		return string(rune('a' + m.From.Col()))
	}
	if !sameRank {
		return string(rune('0' + m.From.Rank()))
	}
	return m.From.String()
}

// ParseSAN resolves a SAN string against the current legal moves.
func (s *GameState) ParseSAN(text string) (Move, error) {
	str := strings.TrimSpace(text)
	str = strings.TrimRight(str, "+#!?")

	if str == "O-O" || str == "0-0" || str == "O-O-O" || str == "0-0-0" {
		side := KingSide
		if len(str) == 5 {
			side = QueenSide
		}
		for _, m := range s.legal {
			if m.Castle == side {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}

	// Only queen promotion exists
	promotion := false
	if idx := strings.Index(str, "="); idx >= 0 {
		if str[idx+1:] != "Q" {
			return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
		}
		promotion = true
		str = str[:idx]
	}

	isCapture := strings.Contains(str, "x")
	str = strings.ReplaceAll(str, "x", "")

	pt := Pawn
	if len(str) > 0 && str[0] >= 'A' && str[0] <= 'Z' {
		switch str[0] {
		case 'N':
			pt = Knight
		case 'B':
			pt = Bishop
		case 'R':
			pt = Rook
		case 'Q':
			pt = Queen
		case 'K':
			pt = King
		default:
			return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
		}
		str = str[1:]
	}

	if len(str) < 2 {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}
	dest, err := ParseSquare(str[len(str)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
	}
	str = str[:len(str)-2]

	fileHint, rankHint := -1, -1
	for _, c := range str {
		switch {
		case c >= 'a' && c <= 'h':
			fileHint = int(c - 'a')
		case c >= '1' && c <= '8':
			rankHint = int(c - '0')
		default:
			return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
		}
	}

	for _, m := range s.legal {
		if m.To != dest || m.Piece.Type() != pt {
			continue
		}
		if fileHint >= 0 && m.From.Col() != fileHint {
			continue
		}
		if rankHint >= 0 && m.From.Rank() != rankHint {
			continue
		}
		if isCapture != m.IsCapture() && (isCapture || pt == Pawn) {
			continue
		}
		if promotion && !m.Promotion {
			continue
		}
		return m, nil
	}
	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
}

// MovesToSAN converts a line of moves played from this position to SAN.
func (s *GameState) MovesToSAN(moves []Move) []string {
	result := make([]string, len(moves))
	c := s.Clone()
	for i, m := range moves {
		result[i] = c.SAN(m)
		c.Play(m)
	}
	return result
}

// HistorySAN returns the game so far in SAN, replayed from the start.
func (s *GameState) HistorySAN() []string {
	c := s.Clone()
	for {
		if _, ok := c.TakeBack(); !ok {
			break
		}
	}
	return c.MovesToSAN(s.history)
}
