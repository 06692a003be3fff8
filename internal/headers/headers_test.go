package headers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/httpscan/internal/config"
)

func parse(t *testing.T, data string, capacity int) (Headers, error) {
	t.Helper()
	return Parse([]byte(data), config.Default(), make([]Line, capacity))
}

func TestHeaderParse(t *testing.T) {
	// Test: Valid headers terminated by an empty line
	data := "Host: example.com\r\nConnection: keep-alive\r\n\r\n"
	h, err := parse(t, data, 16)
	require.NoError(t, err)
	assert.Equal(t, len(data), h.Consumed)
	assert.Equal(t, 2, h.Len())
	val, ok := h.GetString("Host")
	assert.True(t, ok)
	assert.Equal(t, "example.com", val)
	val, ok = h.GetString("Connection")
	assert.True(t, ok)
	assert.Equal(t, "keep-alive", val)
	_, ok = h.ContentLength()
	assert.False(t, ok)

	// Test: Consumed points at the first body byte
	data = "Content-Type: application/x-www-form-urlencoded\r\nContent-Length: 13\r\n\r\nname=Hassan"
	h, err = parse(t, data, 16)
	require.NoError(t, err)
	assert.Equal(t, "name=Hassan", data[h.Consumed:])
	cl, ok := h.ContentLength()
	assert.True(t, ok)
	assert.Equal(t, uint64(13), cl)

	// Test: Empty block right after the request line
	h, err = parse(t, "\r\nbody", 16)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Consumed)
	assert.Equal(t, 0, h.Len())

	// Test: Later colons belong to the value
	h, err = parse(t, "Host: localhost:42069\r\n\r\n", 16)
	require.NoError(t, err)
	val, _ = h.GetString("Host")
	assert.Equal(t, "localhost:42069", val)

	// Test: Empty value after the colon
	h, err = parse(t, "X-Empty:\r\n\r\n", 16)
	require.NoError(t, err)
	val, ok = h.GetString("X-Empty")
	assert.True(t, ok)
	assert.Equal(t, "", val)

	// Test: The byte after the colon is skipped whatever it is
	h, err = parse(t, "X-Tight:value\r\n\r\n", 16)
	require.NoError(t, err)
	val, _ = h.GetString("X-Tight")
	assert.Equal(t, "alue", val)

	// Test: Lines without a colon are not stored
	h, err = parse(t, "NoColon\r\nHost: a\r\n\r\n", 16)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 1, h.Seen())
}

func TestHeaderGet(t *testing.T) {
	h, err := parse(t, "Content-Type: text/html\r\ncontent-type: text/plain\r\nX-Id: 7\r\n\r\n", 16)
	require.NoError(t, err)

	// exact match wins over an earlier case-insensitive one
	val, ok := h.GetString("content-type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", val)

	val, ok = h.GetString("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "text/html", val)

	// case-insensitive fallback returns the first match in storage order
	val, ok = h.GetString("CONTENT-TYPE")
	assert.True(t, ok)
	assert.Equal(t, "text/html", val)

	raw, ok := h.GetBytes("x-id")
	assert.True(t, ok)
	assert.Equal(t, []byte("7"), raw)

	_, ok = h.Get("non-existent")
	assert.False(t, ok)
	_, ok = h.GetString("non-existent")
	assert.False(t, ok)
	_, ok = h.GetBytes("non-existent")
	assert.False(t, ok)

	lines := h.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "Content-Type", lines[0].Key)
	assert.Equal(t, "X-Id", lines[2].Key)
}

func TestContentLengthFastPath(t *testing.T) {
	h, err := parse(t, "content-length: 42\r\n\r\n", 16)
	require.NoError(t, err)
	cl, ok := h.ContentLength()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), cl)

	// other casings are not fast-matched, lookup still finds them
	h, err = parse(t, "CONTENT-LENGTH: 42\r\n\r\n", 16)
	require.NoError(t, err)
	_, ok = h.ContentLength()
	assert.False(t, ok)
	val, ok := h.GetString("Content-Length")
	assert.True(t, ok)
	assert.Equal(t, "42", val)

	// an unparseable later value clears an earlier one
	h, err = parse(t, "Content-Length: 5\r\nContent-Length: five\r\n\r\n", 16)
	require.NoError(t, err)
	_, ok = h.ContentLength()
	assert.False(t, ok)

	h, err = parse(t, "Content-Length: 99999999999999999999\r\n\r\n", 16)
	require.NoError(t, err)
	_, ok = h.ContentLength()
	assert.False(t, ok)
}

func TestHeaderCapacity(t *testing.T) {
	data := "A: 1\r\nB: 2\r\nC: 3\r\nContent-Length: 9\r\n\r\n"
	h, err := parse(t, data, 2)
	require.NoError(t, err)
	assert.Equal(t, len(data), h.Consumed)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 4, h.Seen())
	assert.Equal(t, 2, h.Dropped())

	cl, ok := h.ContentLength()
	assert.True(t, ok)
	assert.Equal(t, uint64(9), cl)

	_, ok = h.Get("B")
	assert.True(t, ok)
	_, ok = h.Get("C")
	assert.False(t, ok)

	// zero capacity still scans the whole block
	h, err = Parse([]byte(data), config.Default(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 4, h.Dropped())
}

func TestHeaderNeedMoreData(t *testing.T) {
	full := "Host: example.com\r\nAccept: */*\r\n\r\n"
	for i := 0; i < len(full); i++ {
		_, err := parse(t, full[:i], 16)
		assert.ErrorIs(t, err, ErrNeedMoreData, "prefix length %d", i)
	}

	_, err := parse(t, "Host: example.com", 16)
	assert.ErrorIs(t, err, ErrNeedMoreData)
}

func TestHeaderTerminatorCounting(t *testing.T) {
	// any four consecutive CR/LF bytes ending on a LF close the block
	h, err := parse(t, "Host: a\n\n\r\nrest", 16)
	require.NoError(t, err)
	assert.Equal(t, len("Host: a\n\n\r\n"), h.Consumed)

	// a CR as the fourth byte is not enough on its own
	_, err = parse(t, "Host: a\r\n\r\r", 16)
	assert.ErrorIs(t, err, ErrNeedMoreData)
}

func TestHeaderCeiling(t *testing.T) {
	cfg := config.Default()
	cfg.MaxHeadersSize = 32

	data := "X-Long: " + strings.Repeat("a", 64) + "\r\n\r\n"
	_, err := Parse([]byte(data), cfg, make([]Line, 4))
	assert.ErrorIs(t, err, ErrDangerousInvalidFormat)
	assert.ErrorIs(t, err, ErrBlockTooLarge)

	// still incomplete when the buffer ends under the ceiling
	_, err = Parse([]byte("X-Long: aaaa"), cfg, make([]Line, 4))
	assert.ErrorIs(t, err, ErrNeedMoreData)
}

func TestHeaderInvalidKeyText(t *testing.T) {
	_, err := parse(t, "H\xffst: a\r\n\r\n", 16)
	assert.ErrorIs(t, err, ErrDangerousInvalidFormat)
	assert.NotErrorIs(t, err, ErrBlockTooLarge)

	// dropped lines are never decoded
	h, err := parse(t, "A: 1\r\nH\xffst: a\r\n\r\n", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Dropped())
}

func TestHeaderIdempotent(t *testing.T) {
	data := []byte("Host: example.com\r\nContent-Length: 3\r\n\r\nabc")
	first, err := Parse(data, config.Default(), make([]Line, 8))
	require.NoError(t, err)
	second, err := Parse(data, config.Default(), make([]Line, 8))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHeaderValidate(t *testing.T) {
	h, err := parse(t, "Host: example.com\r\n\r\n", 4)
	require.NoError(t, err)
	assert.NoError(t, h.Validate())

	h, err = parse(t, "Ho st: example.com\r\n\r\n", 4)
	require.NoError(t, err)
	assert.ErrorIs(t, h.Validate(), ErrInvalidFormat)

	h, err = parse(t, "X-Bad: a\x00b\r\n\r\n", 4)
	require.NoError(t, err)
	assert.ErrorIs(t, h.Validate(), ErrInvalidFormat)
}
