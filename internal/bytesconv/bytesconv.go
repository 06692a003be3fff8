// Package bytesconv holds the small byte helpers shared by the scanners.
package bytesconv

import "unsafe"

// maxUintDigits is the length of the largest uint64, 18446744073709551615.
const maxUintDigits = 20

// B2S converts a byte slice to a string without copying.
// The string aliases b: it is only valid while b is alive and unmodified.
func B2S(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// ParseUint parses a non-negative decimal made only of ASCII digits.
// It rejects empty input, more than 20 digits, any other byte and overflow.
func ParseUint(b []byte) (uint64, bool) {
	if len(b) == 0 || len(b) > maxUintDigits {
		return 0, false
	}

	var v uint64
	for _, c := range b {
		d := c - '0'
		if d > 9 {
			return 0, false
		}
		if v > (^uint64(0)-uint64(d))/10 {
			return 0, false
		}
		v = v*10 + uint64(d)
	}
	return v, true
}

// EqualFold reports whether a and b match ignoring ASCII case.
func EqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toLowerTable[a[i]] != toLowerTable[b[i]] {
			return false
		}
	}
	return true
}

const toLower = 'a' - 'A'

var toLowerTable = func() [256]byte {
	var a [256]byte
	for i := 0; i < 256; i++ {
		c := byte(i)
		if c >= 'A' && c <= 'Z' {
			c += toLower
		}
		a[i] = c
	}
	return a
}()
