package oncdrs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `{
  "response": {
    "docs": [
      {
        "DFCI_MRN": 1001,
        "PROC_DESC": "SURGICAL PATHOLOGY",
        "EVENT_DATE": "2020-01-15",
        "RPT_TEXT": "DIAGNOSIS: glioblastoma\r\nCLINICAL DATA: prior imaging",
        "NARRATIVE_TEXT": "line one\\r\\nline two"
      },
      {
        "DFCI_MRN": 1002,
        "PROC_DESC": "CT CHEST",
        "EVENT_DATE": "not a date",
        "RPT_TEXT": ""
      }
    ]
  }
}`

func TestParse(t *testing.T) {
	notes, err := Parse([]byte(sampleExport))
	require.NoError(t, err)
	require.Len(t, notes, 2)

	first := notes[0]
	assert.Equal(t, int64(1001), first.MRN)
	assert.Equal(t, "SURGICAL PATHOLOGY", first.ProcDesc)
	require.NotNil(t, first.EventDate)
	assert.Equal(t, time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC), *first.EventDate)
	assert.Equal(t, "DIAGNOSIS: glioblastoma\nCLINICAL DATA: prior imaging", first.ReportText)
	assert.Equal(t, "line one\nline two", first.NarrativeText)

	// Unparseable dates coerce to nil, not errors.
	assert.Nil(t, notes[1].EventDate)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"response": [`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0600))

	notes, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestNormalizeNewlines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "crlf", in: "a\r\nb", want: "a\nb"},
		{name: "escaped crlf", in: `a\r\nb`, want: "a\nb"},
		{name: "mixed", in: "a\r\nb\\r\\nc", want: "a\nb\nc"},
		{name: "untouched", in: "a\nb", want: "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNewlines(tt.in))
		})
	}
}
