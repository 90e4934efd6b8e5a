package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLineBuffer_Feed(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		want    []string
		pending string
	}{
		{
			name:   "whole lines",
			chunks: []string{"a\nb\n"},
			want:   []string{"a", "b"},
		},
		{
			name:    "split across chunks",
			chunks:  []string{"Guru Medi", "tation Er", "ror\nBack"},
			want:    []string{"Guru Meditation Error"},
			pending: "Back",
		},
		{
			name:   "crlf",
			chunks: []string{"one\r\ntwo\r", "\n"},
			want:   []string{"one", "two"},
		},
		{
			name:   "blank lines kept",
			chunks: []string{"\n\nx\n"},
			want:   []string{"", "", "x"},
		},
		{
			name:   "invalid utf-8 replaced",
			chunks: []string{"noise \xff\xfe end\n"},
			want:   []string{"noise � end"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLineBuffer(0)
			var got []string
			for _, c := range tt.chunks {
				got = append(got, b.Feed([]byte(c))...)
			}
			assert.Equal(t, tt.want, got)

			line, ok := b.Flush()
			assert.Equal(t, tt.pending != "", ok)
			assert.Equal(t, tt.pending, line)
			assert.Zero(t, b.Pending())
		})
	}
}

func TestLineBuffer_FlushClears(t *testing.T) {
	b := NewLineBuffer(0)
	b.Feed([]byte("before disconnect"))

	line, ok := b.Flush()
	assert.True(t, ok)
	assert.Equal(t, "before disconnect", line)

	assert.Equal(t, []string{"after"}, b.Feed([]byte("after\n")))
}

func TestLineBuffer_MaxLength(t *testing.T) {
	b := NewLineBuffer(4)

	assert.Equal(t, []string{"abcdef"}, b.Feed([]byte("abcdef")))
	assert.Equal(t, []string{"gh"}, b.Feed([]byte("gh\n")))
}

func TestLineBuffer_Age(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := NewLineBuffer(0)
	b.now = func() time.Time { return now }

	assert.Zero(t, b.Age())

	b.Feed([]byte("waiting"))
	now = now.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, b.Age())

	b.Feed([]byte("\n"))
	assert.Zero(t, b.Age())
}

func TestLineBuffer_AgeRestartsOnEachFragment(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := NewLineBuffer(0)
	b.now = func() time.Time { return now }

	// A user typing a reply that the device echoes one character at a time.
	b.Feed([]byte("Enter value: 1"))
	now = now.Add(4 * time.Second)
	b.Feed([]byte("2"))
	now = now.Add(2 * time.Second)

	assert.Equal(t, 2*time.Second, b.Age())
	assert.Less(t, b.Age(), 5*time.Second)

	// The fragment after a completed line starts a fresh partial line.
	b.Feed([]byte("\nnext"))
	now = now.Add(time.Second)
	assert.Equal(t, time.Second, b.Age())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "reset", Reset().String())
	assert.Equal(t, "quit", Quit().String())
	assert.Equal(t, "passthrough('a')", Passthrough('a').String())
}
