package server

import "sync"

// Read buffers handed to conn.Read. The bytes read are appended to the
// connection's accumulation buffer, so these only live for one read.
const (
	smallReadSize = 4 << 10
	largeReadSize = 32 << 10
)

var (
	smallReadPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, smallReadSize)
			return &buf
		},
	}
	largeReadPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, largeReadSize)
			return &buf
		},
	}
)

// GetBuffer returns a read buffer of exactly size bytes
func GetBuffer(size int) []byte {
	switch {
	case size <= smallReadSize:
		buf := smallReadPool.Get().(*[]byte)
		return (*buf)[:size]
	case size <= largeReadSize:
		buf := largeReadPool.Get().(*[]byte)
		return (*buf)[:size]
	default:
		return make([]byte, size)
	}
}

// PutBuffer returns a buffer obtained from GetBuffer
func PutBuffer(buf []byte) {
	switch cap(buf) {
	case smallReadSize:
		full := buf[:smallReadSize]
		smallReadPool.Put(&full)
	case largeReadSize:
		full := buf[:largeReadSize]
		largeReadPool.Put(&full)
	}
	// Else: buffer is non-standard size, let GC handle it
}
