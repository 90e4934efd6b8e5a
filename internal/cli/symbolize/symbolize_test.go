package symbolize

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/mcumon/internal/annotate"
	"github.com/coral-mesh/mcumon/internal/config"
	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
	"github.com/coral-mesh/mcumon/internal/symbols"
	"github.com/coral-mesh/mcumon/internal/testutil"
)

func testAnnotator() *annotate.Annotator {
	table := symbols.NewTable([]symbols.Entry{
		{Start: 0x400d1000, Size: 0x100, Name: "app_main", File: "/work/main/app.c", Line: 10},
		{Start: 0x400d2000, Size: 0x80, Name: "sensor_read", File: "/work/main/sensor.c", Line: 88},
	}, nil)
	return annotate.New(table, annotate.Options{ShortPaths: true, MarkUnresolved: true})
}

func TestAnnotateStream(t *testing.T) {
	input := "Backtrace: 0x400d1010:0x3ffb0000 0x400d2004:0x3ffb0020\r\n" +
		"PC      : 0x400d1010 <app_main at app.c:10>\n" +
		"\n" +
		"no newline at end 0x400d2000"

	var out bytes.Buffer
	// One byte per read splits lines across chunks.
	require.NoError(t, annotateStream(iotest.OneByteReader(strings.NewReader(input)), &out, testAnnotator()))

	want := "Backtrace: 0x400d1010 <app_main at app.c:10>:0x3ffb0000 <??> 0x400d2004 <sensor_read at sensor.c:88>:0x3ffb0020 <??>\n" +
		"PC      : 0x400d1010 <app_main at app.c:10>\n" +
		"\n" +
		"no newline at end 0x400d2000 <sensor_read at sensor.c:88>\n"
	assert.Equal(t, want, out.String())
}

func TestAnnotateStream_ReadError(t *testing.T) {
	boom := errors.New("boom")
	err := annotateStream(iotest.ErrReader(boom), &bytes.Buffer{}, testAnnotator())
	assert.ErrorIs(t, err, boom)
}

func TestRun_ImageErrors(t *testing.T) {
	logger := testutil.NewTestLogger(t)

	err := Run(strings.NewReader(""), &bytes.Buffer{}, config.SymbolsConfig{
		ELF: filepath.Join(t.TempDir(), "missing.elf"),
	}, logger)
	assert.ErrorIs(t, err, symbols.ErrImageUnreadable)

	err = Run(strings.NewReader(""), &bytes.Buffer{}, config.SymbolsConfig{
		ELF:      "app.elf",
		Demangle: "pretty",
	}, logger)
	assert.Equal(t, mcuerrors.ExitInvalidArgument, mcuerrors.CodeOf(err))
}

func TestSymbolizeCmd_RequiresImage(t *testing.T) {
	t.Setenv("MCUMON_CONFIG", t.TempDir())
	t.Setenv("MCUMON_ELF", "")

	cmd := NewSymbolizeCmd()
	cmd.SetArgs(nil)
	cmd.SetIn(strings.NewReader("0x1\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, mcuerrors.ExitInvalidArgument, mcuerrors.CodeOf(err))
}

func TestSymbolizeCmd_UnreadableImage(t *testing.T) {
	t.Setenv("MCUMON_CONFIG", t.TempDir())

	cmd := NewSymbolizeCmd()
	cmd.SetArgs([]string{"--elf", filepath.Join(t.TempDir(), "missing.elf"), "-"})
	cmd.SetIn(strings.NewReader("0x1\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, mcuerrors.ExitImageUnreadable, mcuerrors.CodeOf(err))
}
