package board

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func play(t *testing.T, s *GameState, moves ...string) {
	t.Helper()
	for _, text := range moves {
		m, err := s.ParseMove(text)
		if err != nil {
			t.Fatalf("%s: %v", text, err)
		}
		s.MakeMove(m)
	}
}

func TestNewGame(t *testing.T) {
	s := NewGame()

	if s.SideToMove() != White {
		t.Errorf("SideToMove = %s, want White", s.SideToMove())
	}
	if s.NumLegalMoves() != 20 {
		t.Errorf("legal moves = %d, want 20", s.NumLegalMoves())
	}
	if s.IsCheck() || s.IsCheckmate() || s.IsDraw() {
		t.Error("starting position must be normal")
	}
	if s.FEN() != StartFEN {
		t.Errorf("FEN = %q, want %q", s.FEN(), StartFEN)
	}
	if s.KingSquare(White) != E1 || s.KingSquare(Black) != E8 {
		t.Errorf("kings on %s/%s", s.KingSquare(White), s.KingSquare(Black))
	}
	if s.Hash() != s.ComputeHash() {
		t.Error("hash out of sync at start")
	}
}

// TestMakeUndoRoundTrip plays and undoes every legal move and compares
// the full observable state before and after.
func TestMakeUndoRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"r3k2r/1P6/8/8/8/8/6p1/R3K2R b KQkq - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	}

	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			s := mustFEN(t, fen)
			for _, m := range s.LegalMoves() {
				wantFEN := s.FEN()
				wantCastling := s.Castling()
				wantSide := s.SideToMove()
				wantMoves := s.LegalMoves()
				wantHash := s.Hash()
				wantPawnKey := s.PawnKey()

				s.MakeMove(m)
				if s.Hash() != s.ComputeHash() {
					t.Errorf("%s: incremental hash %x, recomputed %x", m, s.Hash(), s.ComputeHash())
				}
				if s.PawnKey() != s.ComputePawnKey() {
					t.Errorf("%s: pawn key out of sync", m)
				}
				if !s.UndoMove() {
					t.Fatalf("%s: undo failed", m)
				}

				if got := s.FEN(); got != wantFEN {
					t.Errorf("%s: FEN %q, want %q", m, got, wantFEN)
				}
				if s.Castling() != wantCastling {
					t.Errorf("%s: castling %v, want %v", m, s.Castling(), wantCastling)
				}
				if s.SideToMove() != wantSide {
					t.Errorf("%s: side %s, want %s", m, s.SideToMove(), wantSide)
				}
				if got := s.LegalMoves(); !reflect.DeepEqual(got, wantMoves) {
					t.Errorf("%s: legal moves changed after undo", m)
				}
				if s.Hash() != wantHash || s.PawnKey() != wantPawnKey {
					t.Errorf("%s: hash not restored", m)
				}
			}
		})
	}
}

func TestMakeMoveEmptyOriginPanics(t *testing.T) {
	s := NewGame()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidState) {
			t.Errorf("panic value %v does not wrap ErrInvalidState", r)
		}
	}()
	s.MakeMove(Move{From: E4, To: E5, Piece: WhitePawn, Captured: NoPiece})
}

func TestUndoRedo(t *testing.T) {
	s := NewGame()

	if s.UndoMove() {
		t.Error("undo on empty history must be a no-op")
	}
	if s.RedoMove() {
		t.Error("redo on empty redo stack must be a no-op")
	}

	play(t, s, "e2e4", "e7e5", "g1f3")
	afterThree := s.FEN()

	s.UndoMove()
	s.UndoMove()
	if len(s.History()) != 1 || len(s.RedoStack()) != 2 {
		t.Fatalf("history=%d redo=%d, want 1 and 2", len(s.History()), len(s.RedoStack()))
	}

	if !s.RedoMove() || !s.RedoMove() {
		t.Fatal("redo failed")
	}
	if s.FEN() != afterThree {
		t.Errorf("FEN after redo %q, want %q", s.FEN(), afterThree)
	}
	if len(s.RedoStack()) != 0 {
		t.Error("redo stack should be empty")
	}

	// A fresh move clears the redo stack.
	s.UndoMove()
	play(t, s, "b1c3")
	if len(s.RedoStack()) != 0 {
		t.Error("make must clear the redo stack")
	}
	if s.RedoMove() {
		t.Error("redo after a fresh move must be a no-op")
	}
}

func TestRedoInconsistentMove(t *testing.T) {
	s := NewGame()
	play(t, s, "e2e4")
	s.UndoMove()

	// A redo entry that is not legal in the current position is refused.
	s.redo = append(s.redo[:0], Move{From: E2, To: E5, Piece: WhitePawn, Captured: NoPiece})
	if s.RedoMove() {
		t.Error("redo of an impossible move must be refused")
	}
	if len(s.RedoStack()) != 1 {
		t.Error("refused redo must leave the stack alone")
	}
}

func TestEnPassantOnlyImmediately(t *testing.T) {
	s := NewGame()
	play(t, s, "e2e4", "a7a6", "e4e5", "d7d5")

	m, ok := s.FindMove(E5, D6)
	if !ok || !m.EnPassant {
		t.Fatal("expected e5xd6 en passant to be legal")
	}
	if m.CapturedSquare() != D5 || m.Captured != BlackPawn {
		t.Errorf("en passant captures %s on %s", m.Captured, m.CapturedSquare())
	}
	if s.EnPassantTarget() != D6 {
		t.Errorf("EnPassantTarget = %s, want d6", s.EnPassantTarget())
	}

	play(t, s, "e5d6")
	if s.PieceAt(D5) != NoPiece {
		t.Error("passed pawn was not removed")
	}
	s.UndoMove()
	if s.PieceAt(D5) != BlackPawn || s.PieceAt(E5) != WhitePawn {
		t.Error("undo did not restore the en passant pawns")
	}

	play(t, s, "h2h3", "h7h6")
	if _, ok := s.FindMove(E5, D6); ok {
		t.Error("en passant must not be offered a move later")
	}
}

func TestEnPassantFromFEN(t *testing.T) {
	s := mustFEN(t, "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3")

	if m, ok := s.FindMove(E5, F6); !ok || !m.EnPassant {
		t.Error("expected exf6 en passant")
	}
	if _, ok := s.FindMove(E5, D6); ok {
		t.Error("d5 was not the last double push")
	}
}

func TestCastlingRightsNeverReturn(t *testing.T) {
	s := NewGame()
	play(t, s, "e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6")

	if m, ok := s.FindMove(E1, G1); !ok || m.Castle != KingSide {
		t.Fatal("expected white kingside castle to be available")
	}

	// King steps out and back: each king move bumps both counters.
	play(t, s, "e1e2", "f8e7", "e2e1", "e8g8")
	if s.Castling()[WhiteKingSide] != 2 || s.Castling()[WhiteQueenSide] != 2 {
		t.Errorf("castling counters %v", s.Castling())
	}
	if _, ok := s.FindMove(E1, G1); ok {
		t.Error("castling reappeared after the king moved")
	}

	// Unrelated undo/redo cycles must not bring it back.
	s.UndoMove()
	s.UndoMove()
	if _, ok := s.FindMove(E1, G1); ok {
		t.Error("castling reappeared after unrelated undo")
	}
	s.RedoMove()
	s.RedoMove()
	play(t, s, "a2a3", "a7a6")
	if _, ok := s.FindMove(E1, G1); ok {
		t.Error("castling reappeared after redo")
	}

	// Undoing the king move itself restores the right.
	for len(s.History()) > 6 {
		s.UndoMove()
	}
	if _, ok := s.FindMove(E1, G1); !ok {
		t.Error("castling should be back once the king move is undone")
	}
}

func TestCastlingMovesRook(t *testing.T) {
	s := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	play(t, s, "e1c1")
	if s.PieceAt(D1) != WhiteRook || s.PieceAt(A1) != NoPiece || s.PieceAt(C1) != WhiteKing {
		t.Errorf("queenside castle left board:\n%s", s)
	}
	play(t, s, "e8g8")
	if s.PieceAt(F8) != BlackRook || s.PieceAt(H8) != NoPiece || s.PieceAt(G8) != BlackKing {
		t.Errorf("kingside castle left board:\n%s", s)
	}
	if s.Castling().String() != "-" {
		t.Errorf("castling = %s, want -", s.Castling())
	}

	s.UndoMove()
	s.UndoMove()
	if s.FEN() != "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1" {
		t.Errorf("undo castling FEN = %s", s.FEN())
	}
}

func TestCastlingBlockedByAttack(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		from Square
		to   Square
	}{
		{"in check", "4r1k1/8/8/8/8/8/8/R3K2R w KQ - 0 1", E1, G1},
		{"through attack", "5rk1/8/8/8/8/8/8/R3K2R w KQ - 0 1", E1, G1},
		{"into attack", "6rk/8/8/8/8/8/8/R3K2R w KQ - 0 1", E1, G1},
		{"queenside blocked on b", "4k3/8/8/8/8/8/8/RN2K2R w KQ - 0 1", E1, C1},
		{"queenside through d", "3rk3/8/8/8/8/8/8/R3K2R w KQ - 0 1", E1, C1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := mustFEN(t, tc.fen)
			if _, ok := s.FindMove(tc.from, tc.to); ok {
				t.Errorf("castle %s%s should be illegal", tc.from, tc.to)
			}
		})
	}
}

func TestRookCaptureRemovesCastling(t *testing.T) {
	s := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	play(t, s, "a1a8")

	if s.Castling().CanCastle(Black, QueenSide) {
		t.Error("black queenside castle survives losing the a8 rook")
	}
	if s.Castling().CanCastle(White, QueenSide) {
		t.Error("white queenside castle survives moving the a1 rook")
	}
	s.UndoMove()
	if !s.Castling().CanCastle(Black, QueenSide) || !s.Castling().CanCastle(White, QueenSide) {
		t.Error("undo must restore both queenside castles")
	}
}

func TestAutoQueenPromotion(t *testing.T) {
	s := mustFEN(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1")

	m, ok := s.FindMove(A7, A8)
	if !ok || !m.Promotion {
		t.Fatal("expected a7a8 promotion")
	}
	if m.String() != "a7a8q" {
		t.Errorf("String() = %s, want a7a8q", m.String())
	}

	s.MakeMove(m)
	if s.PieceAt(A8) != WhiteQueen {
		t.Errorf("promoted to %s, want queen", s.PieceAt(A8))
	}
	s.UndoMove()
	if s.PieceAt(A7) != WhitePawn || s.PieceAt(A8) != NoPiece {
		t.Error("undo must turn the queen back into a pawn")
	}
}

func TestMoveEquality(t *testing.T) {
	a := Move{From: E2, To: E4, Piece: WhitePawn, Captured: NoPiece}
	b := Move{From: E2, To: E4, Piece: WhitePawn, Captured: BlackKnight, GaveCheck: true}
	c := Move{From: E2, To: E4, Piece: WhiteQueen, Captured: NoPiece}

	if !a.Equal(b) {
		t.Error("captured piece and flags must not affect equality")
	}
	if a.Equal(c) {
		t.Error("moving piece is part of equality")
	}
}

func TestGaveCheckRecorded(t *testing.T) {
	s := NewGame()
	play(t, s, "e2e4", "f7f6", "d1h5")

	last, ok := s.LastMove()
	if !ok || !last.GaveCheck {
		t.Error("Qh5+ should be recorded as giving check")
	}
	if !s.IsCheck() {
		t.Error("black should be in check")
	}
}

func TestClone(t *testing.T) {
	s := NewGame()
	play(t, s, "e2e4")

	c := s.Clone()
	play(t, c, "e7e5")

	if s.Ply() != 1 || c.Ply() != 2 {
		t.Errorf("clone shares history: %d/%d", s.Ply(), c.Ply())
	}
	if s.PieceAt(E5) != NoPiece {
		t.Error("clone shares the board")
	}
}

func TestAttackedSquares(t *testing.T) {
	s := NewGame()
	for _, tt := range []struct {
		sq   Square
		want bool
	}{
		{E6, true},  // black pawns
		{H6, true},  // g8 knight
		{E4, false}, // out of reach
		{E3, false}, // white's own attacks are not tracked
	} {
		if got := s.Attacked(tt.sq); got != tt.want {
			t.Errorf("Attacked(%s) = %v, want %v", tt.sq, got, tt.want)
		}
	}
	if strings.Count(s.attacked.String(), "X") < 16 {
		t.Errorf("expected black to attack its third and second rows:\n%s", s.attacked)
	}
}

func TestEnPassantChangesHash(t *testing.T) {
	s := mustFEN(t, "4k3/3p4/8/4P3/8/8/8/4K1N1 b - - 0 1")
	play(t, s, "d7d5")
	withCapture := s.Hash()
	if _, ok := s.FindMove(E5, D6); !ok {
		t.Fatal("e5d6 en passant should be legal")
	}
	if s.Hash() != s.ComputeHash() {
		t.Fatalf("incremental hash %016x, recomputed %016x", s.Hash(), s.ComputeHash())
	}

	// Same placement, side to move and castling, but the capture is gone.
	play(t, s, "g1f3", "e8d8", "f3g1", "d8e8")
	if _, ok := s.FindMove(E5, D6); ok {
		t.Fatal("en passant must not survive the shuffle")
	}
	if s.Hash() == withCapture {
		t.Error("positions with and without an en passant capture share a hash")
	}
	if s.Hash() != s.ComputeHash() {
		t.Errorf("incremental hash %016x, recomputed %016x", s.Hash(), s.ComputeHash())
	}

	// Taking the shuffle back restores the capture and its hash.
	for range 4 {
		s.UndoMove()
	}
	if s.Hash() != withCapture {
		t.Errorf("hash after undo %016x, want %016x", s.Hash(), withCapture)
	}
}
