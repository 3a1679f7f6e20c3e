package board

import "testing"

// perft counts the leaf nodes at the given depth by walking the tree with
// Play and TakeBack.
func perft(s *GameState, depth int) int64 {
	if depth == 0 {
		return 1
	}
	if depth == 1 {
		return int64(s.NumLegalMoves())
	}

	var nodes int64
	for _, m := range s.LegalMoves() {
		s.Play(m)
		nodes += perft(s, depth-1)
		s.TakeBack()
	}
	return nodes
}

func mustFEN(t *testing.T, fen string) *GameState {
	t.Helper()
	s, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN %q: %v", fen, err)
	}
	return s
}

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	s := NewGame()

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(s, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftKiwipete tests the Kiwipete position with castling, pins and
// en passant all in play.
// FEN: r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -
func TestPerftKiwipete(t *testing.T) {
	s := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 48},
		{2, 2039},
		{3, 97862},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(s, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftPosition3 tests en passant edge cases.
// FEN: 8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -
func TestPerftPosition3(t *testing.T) {
	s := mustFEN(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -")

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 14},
		{2, 191},
		{3, 2812},
		{4, 43238},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(s, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftEnPassantPin tests the horizontal pin through an en passant capture.
// FEN: 8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1
// Black pawn on e4 could take d3 en passant, but that would expose the black
// king on a4 to the white rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	s := mustFEN(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")

	for _, m := range s.LegalMoves() {
		if m.EnPassant {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", m)
		}
	}

	// Depth 1: Ka3, Ka5, Kb3, Kb4, Kb5, e3 = 6 moves
	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 6},
		{2, 94},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(s, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestLegalMovesNeverExposeKing plays every legal move of a few tactical
// positions and checks the mover's king is never left attacked.
func TestLegalMovesNeverExposeKing(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"4k3/8/8/8/4r3/8/4B3/4K3 w - - 0 1",
		"r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 3 3",
	}

	var walk func(s *GameState, depth int)
	walk = func(s *GameState, depth int) {
		for _, m := range s.LegalMoves() {
			us := s.SideToMove()
			s.Play(m)
			if s.isAttacked(s.KingSquare(us), us.Other()) {
				t.Errorf("%s leaves %s king attacked in %s", m, us, s.FEN())
			}
			if depth > 1 {
				walk(s, depth-1)
			}
			s.TakeBack()
		}
	}

	for _, fen := range fens {
		walk(mustFEN(t, fen), 2)
	}
}
