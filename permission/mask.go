package permission

// MaxBits is the width of a Mask.
const MaxBits = 64

// rootBit is the highest bit; a mask with it set satisfies every check.
const rootBit = MaxBits - 1

// Mask is a set of permission bits.
type Mask uint64

// Has reports whether bit is set. A mask carrying the root bit has every bit
// when rootReserved is true.
func (m Mask) Has(bit int, rootReserved bool) bool {
	if bit < 0 || bit >= MaxBits {
		return false
	}
	if rootReserved && m&(1<<rootBit) != 0 {
		return true
	}
	return m&(1<<uint(bit)) != 0
}

// Set returns m with bit set. Out-of-range bits are ignored.
func (m Mask) Set(bit int) Mask {
	if bit < 0 || bit >= MaxBits {
		return m
	}
	return m | 1<<uint(bit)
}

// Clear returns m with bit cleared.
func (m Mask) Clear(bit int) Mask {
	if bit < 0 || bit >= MaxBits {
		return m
	}
	return m &^ (1 << uint(bit))
}

// Raw returns the underlying bits.
func (m Mask) Raw() uint64 {
	return uint64(m)
}
