package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristPiece      [12][64]uint64 // [Piece][Square]
	zobristCastling   [16]uint64     // One per availability mask
	zobristSideToMove uint64         // XOR when black to move
	zobristEnPassant  [8]uint64      // One per file, only while a capture is available
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234) // Fixed seed

	for p := WhitePawn; p < NoPiece; p++ {
		for sq := A8; sq <= H1; sq++ {
			zobristPiece[p][sq] = rng.next()
		}
	}

	for i := 0; i < 16; i++ {
		zobristCastling[i] = rng.next()
	}

	zobristSideToMove = rng.next()

	for i := range zobristEnPassant {
		zobristEnPassant[i] = rng.next()
	}
}

// ComputeHash recomputes the position hash from scratch.
// Make and undo keep the hash up to date incrementally; this is the reference.
func (s *GameState) ComputeHash() uint64 {
	var h uint64
	for sq := A8; sq <= H1; sq++ {
		if p := s.board[sq]; p != NoPiece {
			h ^= zobristPiece[p][sq]
		}
	}
	if s.sideToMove == Black {
		h ^= zobristSideToMove
	}
	h ^= zobristCastling[s.castling.mask()]
	if f := s.enPassantFile(); f != noFile {
		h ^= zobristEnPassant[f]
	}
	return h
}

// enPassantFile returns the file of an en passant capture in the legal
// move list, or noFile. Positions that differ only in whether the capture
// is still possible must not share a hash.
func (s *GameState) enPassantFile() int {
	for _, m := range s.legal {
		if m.EnPassant {
			return m.To.Col()
		}
	}
	return noFile
}

// ComputePawnKey recomputes the pawn-only hash from scratch.
func (s *GameState) ComputePawnKey() uint64 {
	var h uint64
	for sq := A8; sq <= H1; sq++ {
		if p := s.board[sq]; p.Type() == Pawn {
			h ^= zobristPiece[p][sq]
		}
	}
	return h
}
