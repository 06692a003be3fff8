package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSplit(t *testing.T) {
	v := Value("*/*;q=0.8, text/html")
	assert.Equal(t, []string{"*/*;q=0.8", "text/html"}, v.Values())

	// only ", " separates
	v = Value("gzip,deflate,  br")
	assert.Equal(t, []string{"gzip,deflate", " br"}, v.Values())

	assert.Equal(t, []string{""}, Value("").Values())
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]byte("*/*;q=0.8"))
	require.NoError(t, err)
	assert.Equal(t, "*/*", p.Value())
	assert.Equal(t, "*/*;q=0.8", p.Whole())
	assert.Equal(t, map[string][]byte{"q": []byte("0.8")}, p.Named())

	// one space after ';' is skipped
	p, err = ParseParams([]byte("text/html; charset=utf-8"))
	require.NoError(t, err)
	assert.Equal(t, "text/html", p.Value())
	charset, ok := p.Get("charset")
	assert.True(t, ok)
	assert.Equal(t, []byte("utf-8"), charset)

	// any other space is kept
	p, err = ParseParams([]byte("a;  b=c"))
	require.NoError(t, err)
	val, ok := p.Get(" b")
	assert.True(t, ok)
	assert.Equal(t, []byte("c"), val)

	p, err = ParseParams([]byte("a; b= c"))
	require.NoError(t, err)
	val, _ = p.Get("b")
	assert.Equal(t, []byte(" c"), val)

	// no parameters at all
	p, err = ParseParams([]byte("keep-alive"))
	require.NoError(t, err)
	assert.Equal(t, "keep-alive", p.Value())
	assert.Empty(t, p.Named())
}

func TestParseParamsLeadingNamed(t *testing.T) {
	p, err := ParseParams([]byte("max-age=60; must-revalidate"))
	require.NoError(t, err)

	// the leading segment is a parameter, the whole input stands as value
	assert.Equal(t, "max-age=60; must-revalidate", p.Value())
	age, ok := p.Get("max-age")
	assert.True(t, ok)
	assert.Equal(t, []byte("60"), age)

	token, ok := p.Get("must-revalidate")
	assert.True(t, ok)
	assert.Equal(t, []byte("must-revalidate"), token)
}

func TestParseParamsUnnamed(t *testing.T) {
	p, err := ParseParams([]byte("form-data; first; second; name=file"))
	require.NoError(t, err)
	assert.Equal(t, "form-data", p.Value())

	// bare tokens share one slot, the last one wins
	last, ok := p.Unnamed()
	assert.True(t, ok)
	assert.Equal(t, []byte("second"), last)

	_, ok = p.Get("first")
	assert.False(t, ok)
	_, ok = p.Get("second")
	assert.True(t, ok)

	name, ok := p.Get("name")
	assert.True(t, ok)
	assert.Equal(t, []byte("file"), name)

	// a trailing ';' adds nothing
	p, err = ParseParams([]byte("a;"))
	require.NoError(t, err)
	_, ok = p.Unnamed()
	assert.False(t, ok)
}

func TestParseParamsMalformed(t *testing.T) {
	_, err := ParseParams([]byte("a; q="))
	assert.ErrorIs(t, err, ErrMalformedParams)

	_, err = ParseParams([]byte("a; "))
	assert.ErrorIs(t, err, ErrMalformedParams)
}

func TestValuesWithParams(t *testing.T) {
	v := Value("text/html, application/xml;q=0.9, bad;q=, */*;q=0.8")
	params := v.ValuesWithParams()
	require.Len(t, params, 3)

	assert.Equal(t, "text/html", params[0].Value())
	assert.Equal(t, "application/xml", params[1].Value())
	q, ok := params[1].Get("q")
	assert.True(t, ok)
	assert.Equal(t, []byte("0.9"), q)
	assert.Equal(t, "*/*", params[2].Value())

	p, err := Value("text/plain; charset=us-ascii").Params()
	require.NoError(t, err)
	assert.Equal(t, "text/plain", p.Value())
}

func TestParamsLeadingNamedKeepsWholeValue(t *testing.T) {
	p, err := ParseParams([]byte("q=1; text/html"))
	require.NoError(t, err)
	assert.Equal(t, "q=1; text/html", p.Value())
	assert.Equal(t, map[string][]byte{"q": []byte("1")}, p.Named())

	token, ok := p.Unnamed()
	assert.True(t, ok)
	assert.Equal(t, []byte("text/html"), token)
}
