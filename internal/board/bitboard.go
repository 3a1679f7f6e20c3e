package board

import "strings"

// Bitboard is a set of squares, one bit per square index.
// Bit 0 = A8, bit 63 = H1, following the row-major square layout.
type Bitboard uint64

// Set returns b with the square added.
func (b Bitboard) Set(sq Square) Bitboard {
	return b | (1 << sq)
}

// IsSet returns true if the square is in the set.
func (b Bitboard) IsSet(sq Square) bool {
	return b&(1<<sq) != 0
}

// String returns an 8x8 picture of the set, rank 8 first.
func (b Bitboard) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if b.IsSet(NewSquare(row, col)) {
				sb.WriteString("X ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
