package board

import (
	"fmt"
	"strings"
)

// Castling rights counter indices.
const (
	WhiteKingSide = iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
)

// CastlingRights holds one counter per castle. A counter is bumped every
// time the relevant king or rook leaves (or the rook is taken on) its home
// square and dropped again on undo; castling is only possible at zero.
type CastlingRights [4]int

func castleIndex(c Color, side CastleSide) int {
	if c == White {
		if side == KingSide {
			return WhiteKingSide
		}
		return WhiteQueenSide
	}
	if side == KingSide {
		return BlackKingSide
	}
	return BlackQueenSide
}

// CanCastle returns true if the given side may still castle that way.
func (cr CastlingRights) CanCastle(c Color, side CastleSide) bool {
	return cr[castleIndex(c, side)] == 0
}

// mask packs the currently available castles into 4 bits.
func (cr CastlingRights) mask() int {
	m := 0
	for i, n := range cr {
		if n == 0 {
			m |= 1 << i
		}
	}
	return m
}

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	s := ""
	if cr[WhiteKingSide] == 0 {
		s += "K"
	}
	if cr[WhiteQueenSide] == 0 {
		s += "Q"
	}
	if cr[BlackKingSide] == 0 {
		s += "k"
	}
	if cr[BlackQueenSide] == 0 {
		s += "q"
	}
	if s == "" {
		return "-"
	}
	return s
}

// Status is the coarse state of the position for the side to move.
type Status uint8

const (
	Normal Status = iota
	Check
	Checkmate
	Draw
)

// String returns the status name.
func (st Status) String() string {
	switch st {
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	default:
		return "normal"
	}
}

// GameState is a chess game in progress: the board, whose turn it is,
// castling rights, the move history with its redo stack, and the derived
// legal moves and check/checkmate/draw flags for the side to move.
//
// A GameState is not safe for concurrent mutation; search works on clones.
type GameState struct {
	board      [64]Piece
	sideToMove Color
	castling   CastlingRights
	kings      [2]Square
	pieces     int

	// Derived state, rebuilt by refresh after every change.
	legal     []Move
	attacked  Bitboard // squares attacked by the opponent of sideToMove
	check     bool
	checkmate bool
	draw      bool

	history []Move
	redo    []Move

	// prior stands in for the move before history starts, so a position
	// loaded from FEN can still offer en passant on its first ply.
	prior Move

	startMove     int // full-move number of the first ply
	startHalfMove int
	hash          uint64
	pawnKey       uint64
	epFile        int // en passant file folded into hash, or noFile
}

// noFile marks the absence of an en passant capture.
const noFile = -1

// NewGame creates the starting position with its legal moves computed.
func NewGame() *GameState {
	s, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return s
}

func newEmptyState() *GameState {
	s := &GameState{
		prior:     NoMove,
		startMove: 1,
		epFile:    noFile,
	}
	for i := range s.board {
		s.board[i] = NoPiece
	}
	s.kings = [2]Square{NoSquare, NoSquare}
	return s
}

// Clone returns a deep copy that shares nothing with the original.
func (s *GameState) Clone() *GameState {
	c := *s
	c.legal = append([]Move(nil), s.legal...)
	c.history = append([]Move(nil), s.history...)
	c.redo = append([]Move(nil), s.redo...)
	return &c
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (s *GameState) PieceAt(sq Square) Piece {
	return s.board[sq]
}

// IsEmpty returns true if the square is empty.
func (s *GameState) IsEmpty(sq Square) bool {
	return s.board[sq] == NoPiece
}

// SideToMove returns the color whose turn it is.
func (s *GameState) SideToMove() Color {
	return s.sideToMove
}

// Castling returns the castling rights counters.
func (s *GameState) Castling() CastlingRights {
	return s.castling
}

// KingSquare returns where the king of the given color stands.
func (s *GameState) KingSquare(c Color) Square {
	return s.kings[c]
}

// PieceCount returns the number of pieces on the board, kings included.
func (s *GameState) PieceCount() int {
	return s.pieces
}

// Hash returns the Zobrist hash of placement, side to move, castling and
// the file of an available en passant capture.
func (s *GameState) Hash() uint64 {
	return s.hash
}

// PawnKey returns the Zobrist hash of the pawns alone.
func (s *GameState) PawnKey() uint64 {
	return s.pawnKey
}

// LegalMoves returns a copy of the legal moves for the side to move.
func (s *GameState) LegalMoves() []Move {
	return append([]Move(nil), s.legal...)
}

// NumLegalMoves returns the number of legal moves for the side to move.
func (s *GameState) NumLegalMoves() int {
	return len(s.legal)
}

// IsCheck returns true if the side to move is in check.
func (s *GameState) IsCheck() bool {
	return s.check
}

// IsCheckmate returns true if the side to move is checkmated.
func (s *GameState) IsCheckmate() bool {
	return s.checkmate
}

// IsDraw returns true if the position is drawn (and not checkmate).
func (s *GameState) IsDraw() bool {
	return s.draw
}

// IsGameOver returns true on checkmate or draw.
func (s *GameState) IsGameOver() bool {
	return s.checkmate || s.draw
}

// Status returns the state of the position for the side to move.
func (s *GameState) Status() Status {
	switch {
	case s.checkmate:
		return Checkmate
	case s.draw:
		return Draw
	case s.check:
		return Check
	default:
		return Normal
	}
}

// Attacked returns true if the opponent of the side to move attacks sq.
func (s *GameState) Attacked(sq Square) bool {
	return s.attacked.IsSet(sq)
}

// History returns a copy of the moves played so far, oldest first.
func (s *GameState) History() []Move {
	return append([]Move(nil), s.history...)
}

// RedoStack returns a copy of the undone moves, most recent last.
func (s *GameState) RedoStack() []Move {
	return append([]Move(nil), s.redo...)
}

// Ply returns the number of half-moves in the history.
func (s *GameState) Ply() int {
	return len(s.history)
}

// LastMove returns the most recent move in the history.
func (s *GameState) LastMove() (Move, bool) {
	if len(s.history) == 0 {
		return NoMove, false
	}
	return s.history[len(s.history)-1], true
}

// lastMove returns the move en passant eligibility is judged against.
func (s *GameState) lastMove() Move {
	if len(s.history) > 0 {
		return s.history[len(s.history)-1]
	}
	return s.prior
}

// FindMove returns the legal move from one square to another, matched by
// origin, destination and the piece standing on the origin.
func (s *GameState) FindMove(from, to Square) (Move, bool) {
	if !from.IsValid() || !to.IsValid() {
		return NoMove, false
	}
	want := Move{From: from, To: to, Piece: s.board[from]}
	for _, m := range s.legal {
		if m.Equal(want) {
			return m, true
		}
	}
	return NoMove, false
}

// put places a piece on an empty square, keeping hashes and counters current.
func (s *GameState) put(sq Square, p Piece) {
	s.board[sq] = p
	s.hash ^= zobristPiece[p][sq]
	if p.Type() == Pawn {
		s.pawnKey ^= zobristPiece[p][sq]
	}
	if p.Type() == King {
		s.kings[p.Color()] = sq
	}
	s.pieces++
}

// remove empties a square and returns what stood there.
func (s *GameState) remove(sq Square) Piece {
	p := s.board[sq]
	if p == NoPiece {
		return NoPiece
	}
	s.board[sq] = NoPiece
	s.hash ^= zobristPiece[p][sq]
	if p.Type() == Pawn {
		s.pawnKey ^= zobristPiece[p][sq]
	}
	s.pieces--
	return p
}

// MakeMove plays a move chosen by a player, clears the redo stack and
// recomputes the legal moves for the new side to move.
//
// The move is matched against the legal list by origin, destination and
// piece, so flags on m are not trusted. An empty origin or a move that is
// not legal is a caller bug and panics with an error wrapping
// ErrInvalidState.
func (s *GameState) MakeMove(m Move) {
	if s.board[m.From] == NoPiece {
		panic(fmt.Errorf("%w: no piece at %s for move %s", ErrInvalidState, m.From, m))
	}
	legal, ok := s.FindMove(m.From, m.To)
	if !ok {
		panic(fmt.Errorf("%w: move %s is not legal here", ErrInvalidState, m))
	}
	s.Play(legal)
	s.redo = s.redo[:0]
}

// Play applies a generated move and refreshes derived state without
// touching the redo stack. Search uses Play and TakeBack to walk the tree
// in place.
func (s *GameState) Play(m Move) {
	p := s.board[m.From]
	if p == NoPiece {
		panic(fmt.Errorf("%w: no piece at %s for move %s", ErrInvalidState, m.From, m))
	}
	if p.Color() != s.sideToMove {
		panic(fmt.Errorf("%w: %s to move but %s stands on %s", ErrInvalidState, s.sideToMove, p, m.From))
	}

	m.Piece = p
	if !m.EnPassant {
		m.Captured = s.board[m.To]
	}
	if m.Captured.Type() == King {
		panic(fmt.Errorf("%w: move %s captures a king", ErrInvalidState, m))
	}
	m.Promotion = p.Type() == Pawn && m.To.RelativeRow(p.Color()) == 7
	m.GaveCheck = false

	s.apply(m)
	s.history = append(s.history, m)
	s.refresh()
	s.history[len(s.history)-1].GaveCheck = s.check
}

// TakeBack reverses the last history entry without touching the redo
// stack. It returns the move taken back, or false if history is empty.
func (s *GameState) TakeBack() (Move, bool) {
	if len(s.history) == 0 {
		return NoMove, false
	}
	m := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.unapply(m)
	s.refresh()
	return m, true
}

// UndoMove takes back the last move and pushes it on the redo stack.
// It is a no-op returning false when there is nothing to undo.
func (s *GameState) UndoMove() bool {
	m, ok := s.TakeBack()
	if !ok {
		return false
	}
	m.GaveCheck = false
	s.redo = append(s.redo, m)
	return true
}

// RedoMove re-applies the most recently undone move if it is still legal
// in the current position. It returns false when there is nothing to redo.
func (s *GameState) RedoMove() bool {
	if len(s.redo) == 0 {
		return false
	}
	top := s.redo[len(s.redo)-1]
	m, ok := s.FindMove(top.From, top.To)
	if !ok || !m.Equal(top) {
		return false
	}
	s.redo = s.redo[:len(s.redo)-1]
	s.Play(m)
	return true
}

// apply edits the board for a move: captures, en passant, castling rook,
// promotion, castling counters, hash and side to move.
func (s *GameState) apply(m Move) {
	us := m.Piece.Color()

	s.remove(m.From)
	if m.Captured != NoPiece {
		s.remove(m.CapturedSquare())
	}
	placed := m.Piece
	if m.Promotion {
		placed = NewPiece(Queen, us)
	}
	s.put(m.To, placed)

	if m.Castle != NoCastle {
		rookFrom, rookTo := castleRookSquares(us, m.Castle)
		s.put(rookTo, s.remove(rookFrom))
	}

	s.adjustCastling(m, 1)
	s.sideToMove = s.sideToMove.Other()
	s.hash ^= zobristSideToMove
}

// unapply reverses apply exactly.
func (s *GameState) unapply(m Move) {
	us := m.Piece.Color()

	s.sideToMove = s.sideToMove.Other()
	s.hash ^= zobristSideToMove
	s.adjustCastling(m, -1)

	if m.Castle != NoCastle {
		rookFrom, rookTo := castleRookSquares(us, m.Castle)
		s.put(rookFrom, s.remove(rookTo))
	}

	s.remove(m.To)
	s.put(m.From, m.Piece)
	if m.Captured != NoPiece {
		s.put(m.CapturedSquare(), m.Captured)
	}
}

// homeCorners maps each castle counter to its rook's starting square.
var homeCorners = [4]Square{H1, A1, H8, A8}

// adjustCastling bumps (delta=1) or drops (delta=-1) the counters a move
// touches: a king move affects both of its side's castles, a rook leaving
// or being captured on its home corner affects that castle.
func (s *GameState) adjustCastling(m Move, delta int) {
	before := s.castling.mask()

	if m.Piece.Type() == King {
		c := m.Piece.Color()
		s.castling[castleIndex(c, KingSide)] += delta
		s.castling[castleIndex(c, QueenSide)] += delta
	}
	for i, corner := range homeCorners {
		owner := White
		if i >= BlackKingSide {
			owner = Black
		}
		rook := NewPiece(Rook, owner)
		if m.Piece == rook && m.From == corner {
			s.castling[i] += delta
		}
		if m.Captured == rook && m.To == corner {
			s.castling[i] += delta
		}
	}

	if after := s.castling.mask(); after != before {
		s.hash ^= zobristCastling[before] ^ zobristCastling[after]
	}
}

// String returns a visual representation of the position.
func (s *GameState) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d  ", 8-row)
		for col := 0; col < 8; col++ {
			p := s.board[NewSquare(row, col)]
			if p == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(p.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", s.sideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", s.castling)
	fmt.Fprintf(&sb, "Status: %s\n", s.Status())
	fmt.Fprintf(&sb, "Hash: %016x\n", s.hash)
	return sb.String()
}

// Validate checks the structural invariants of the position.
func (s *GameState) Validate() error {
	var kings [2]int
	for sq := A8; sq <= H1; sq++ {
		p := s.board[sq]
		if p.Type() == King {
			kings[p.Color()]++
		}
		if p.Type() == Pawn && (sq.Row() == 0 || sq.Row() == 7) {
			return fmt.Errorf("pawn on back rank at %s", sq)
		}
	}
	if kings[White] != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if kings[Black] != 1 {
		return fmt.Errorf("black must have exactly one king")
	}
	if s.isAttacked(s.kings[s.sideToMove.Other()], s.sideToMove) {
		return fmt.Errorf("%s king can be captured", s.sideToMove.Other())
	}
	return nil
}
