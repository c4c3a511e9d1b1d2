package ina

import (
	"fmt"
	"math"
)

// FieldMask returns a mask covering the low width bits of a 64 bit container.
func FieldMask(width uint) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return 1<<width - 1
}

// ExtensionMask returns the bits that sign extension sets when a negative field
// of the given width is widened to a container of container bits, e.g.
// ExtensionMask(20, 32) == 0xFFF00000.
func ExtensionMask(width, container uint) uint64 {
	if width == 0 || width > container || container > 64 {
		panic(fmt.Sprintf("ina: invalid field width %d for %d bit container", width, container))
	}
	return FieldMask(container) &^ FieldMask(width)
}

// SignExtend interprets the low width bits of v as a twos-complement field.
// The sign is taken from bit width-1 of the field; any bits of v above the
// field are ignored.
func SignExtend(v uint64, width uint) int64 {
	v &= FieldMask(width)
	if v&(1<<(width-1)) != 0 {
		v |= ExtensionMask(width, 64)
	}
	return int64(v)
}
