package board

import "strings"

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
	NoColor
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

// Forward returns the row delta of a pawn push for the color.
// Row 0 is black's back rank, so white pawns move towards lower rows.
func (c Color) Forward() int {
	if c == White {
		return -1
	}
	return 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	}
	return "NoColor"
}

// PieceType is a piece kind without color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

var pieceTypeNames = [...]string{"Pawn", "Knight", "Bishop", "Rook", "Queen", "King", "None"}

func (pt PieceType) String() string {
	if pt > NoPieceType {
		pt = NoPieceType
	}
	return pieceTypeNames[pt]
}

// PieceValue is the material value of each piece type in centipawns.
var PieceValue = [...]int{
	Pawn:        100,
	Knight:      320,
	Bishop:      330,
	Rook:        500,
	Queen:       900,
	King:        20000,
	NoPieceType: 0,
}

// Piece is a colored piece as stored in a board cell: white pieces are
// 0..5, black pieces 6..11 and NoPiece marks an empty cell.
type Piece uint8

const (
	WhitePawn Piece = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
	NoPiece
)

// pieceChars lists the FEN letter of every piece in Piece order.
const pieceChars = "PNBRQKpnbrqk"

// NewPiece combines a type and a color. Out-of-range input yields NoPiece.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(c)*6 + Piece(pt)
}

// Type returns the piece kind, or NoPieceType for an empty cell.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the owner, or NoColor for an empty cell.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// String returns the FEN letter, uppercase for white.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return pieceChars[p : p+1]
}

// PieceFromChar parses a FEN letter. Unknown letters yield NoPiece.
func PieceFromChar(c byte) Piece {
	i := strings.IndexByte(pieceChars, c)
	if i < 0 {
		return NoPiece
	}
	return Piece(i)
}

// Value returns the material value of the piece.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}
