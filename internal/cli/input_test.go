package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetSecret(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte(" key-123 "), nil }

	var out bytes.Buffer
	got, err := GetSecret(&out, "Enter FAL key: ")
	require.NoError(t, err)
	assert.Equal(t, "key-123", got)
	assert.Equal(t, "Enter FAL key: \n", out.String())
}

func TestGetSecret_Error(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }

	var out bytes.Buffer
	_, err := GetSecret(&out, "Enter FAL key: ")
	require.Error(t, err)
}

func TestSplitSources(t *testing.T) {
	assert.Equal(t, []string{"a.png", "b.jpg", "c.webp"}, splitSources(" a.png\tb.jpg  c.webp "))
	assert.Equal(t,
		[]string{"data:image/png;base64,iVBORw0KGgo=", "b.jpg"},
		splitSources("data:image/png;base64,iVBORw0KGgo= b.jpg"))
	assert.Empty(t, splitSources("   "))
}
