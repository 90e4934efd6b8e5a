package helpers

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestData is a test struct with header tags.
type TestData struct {
	Name  string `header:"Name" json:"name" yaml:"name"`
	Value int    `header:"Value" json:"value" yaml:"value"`
	Extra string `json:"-" yaml:"-"` // No header tag, should be ignored
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  OutputFormat
		wantErr bool
	}{
		{name: "table formatter", format: FormatTable},
		{name: "json formatter", format: FormatJSON},
		{name: "csv formatter", format: FormatCSV},
		{name: "yaml formatter", format: FormatYAML},
		{name: "unsupported format", format: OutputFormat("xml"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFormatter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got == nil {
				t.Errorf("NewFormatter() returned nil formatter")
			}
		})
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	data := []TestData{
		{Name: "ttyUSB0", Value: 1, Extra: "ignored"},
		{Name: "ttyACM0", Value: 2},
	}

	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(data, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["name"] != "ttyUSB0" {
		t.Errorf("decoded = %v", decoded)
	}
	if _, ok := decoded[0]["Extra"]; ok {
		t.Error("Extra field should not be encoded")
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(TestData{Name: "cfg", Value: 7}, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "name: cfg\nvalue: 7\n"
	if got := buf.String(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name      string
		data      any
		wantErr   bool
		wantLines []string
	}{
		{
			name: "slice of structs",
			data: []TestData{
				{Name: "ttyUSB0", Value: 1, Extra: "ignored"},
				{Name: "ttyACM0", Value: 22},
			},
			wantLines: []string{
				"Name      Value",
				"ttyUSB0   1",
				"ttyACM0   22",
			},
		},
		{
			name: "slice of pointers",
			data: []*TestData{{Name: "a", Value: 1}},
			wantLines: []string{
				"Name   Value",
				"a      1",
			},
		},
		{name: "empty slice", data: []TestData{}},
		{name: "not a slice", data: TestData{Name: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := (&TableFormatter{}).Format(tt.data, &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Format() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			output := strings.TrimRight(buf.String(), "\n")
			if len(tt.wantLines) == 0 {
				if output != "" {
					t.Errorf("Format() = %q, want empty output", output)
				}
				return
			}
			lines := strings.Split(output, "\n")
			if len(lines) != len(tt.wantLines) {
				t.Fatalf("Format() produced %d lines, want %d:\n%s", len(lines), len(tt.wantLines), output)
			}
			for i, want := range tt.wantLines {
				if strings.TrimRight(lines[i], " ") != want {
					t.Errorf("line %d = %q, want %q", i, lines[i], want)
				}
			}
		})
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	data := []TestData{
		{Name: "ttyUSB0", Value: 1},
		{Name: "with,comma", Value: 2},
	}

	var buf bytes.Buffer
	if err := (&CSVFormatter{}).Format(data, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "Name,Value\nttyUSB0,1\n\"with,comma\",2\n"
	if got := buf.String(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	if err := (&CSVFormatter{}).Format("nope", &buf); err == nil {
		t.Error("Format() expected error for non-slice data")
	}
}
