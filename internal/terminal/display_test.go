package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplay_WriteLine(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf, DisplayOptions{})

	require.NoError(t, d.WriteLine("panic at 0x400050 <main at main.c:42>"))
	require.NoError(t, d.Status("device reset"))

	assert.Equal(t, "panic at 0x400050 <main at main.c:42>\n--- device reset ---\n", buf.String())
	assert.Nil(t, d.AnnotationStyle())
}

func TestDisplay_RawMode(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf, DisplayOptions{CRLF: true})

	require.NoError(t, d.WriteLine("one"))
	require.NoError(t, d.WriteLine("two"))

	assert.Equal(t, "one\r\ntwo\r\n", buf.String())
}

func TestDisplay_Banner(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf, DisplayOptions{})

	require.NoError(t, d.Banner("/dev/ttyUSB0", 115200, Bindings{Reset: 0x12, Quit: 0x03}, "build/app.elf"))

	assert.Equal(t, "--- mcumon dev on /dev/ttyUSB0 @ 115200 | symbols from build/app.elf | Ctrl+R reset | Ctrl+C quit ---\n", buf.String())
}

func TestDisplay_ColorStyleKeepsText(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf, DisplayOptions{Color: true})

	style := d.AnnotationStyle()
	require.NotNil(t, style)
	assert.Contains(t, style("<main at main.c:42>"), "<main at main.c:42>")
}

func TestCRLFWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCRLFWriter(&buf)

	for _, chunk := range []string{"a\nb\r\n", "c\r", "\nd\n"} {
		n, err := w.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}

	assert.Equal(t, "a\r\nb\r\nc\r\nd\r\n", buf.String())
	assert.Equal(t, 4, strings.Count(buf.String(), "\r\n"))
}
