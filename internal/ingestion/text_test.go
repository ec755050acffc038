package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/catalog-enricher/internal/types"
)

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "Line with multiple spaces", CleanText("  Line    with \t multiple    spaces  "))
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	result := CleanText("Line 1\n\n\n\n\nLine 2")

	assert.NotContains(t, result, "\n\n\n")
	assert.Equal(t, "Line 1\n\nLine 2", result)
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	result := CleanText("Line 1\r\nLine 2\rLine 3\nLine 4")

	assert.NotContains(t, result, "\r")
	assert.Equal(t, "Line 1\nLine 2\nLine 3\nLine 4", result)
}

func TestCleanText_Empty(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText(" \n\n \t"))
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"<p>Soft chair</p>", true},
		{"Comfy<br/>chair", true},
		{`<span class="x">42</span>`, true},
		{"Price < 100 and > 50", false},
		{"plain text", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeHTML(tt.input))
		})
	}
}

func TestStripHTML(t *testing.T) {
	input := `<div><h2>Chair</h2><p>Soft   seat<br>Mesh back</p><script>track()</script><ul><li>Tilt</li><li>Height</li></ul></div>`

	text, err := StripHTML(input)
	require.NoError(t, err)

	assert.Contains(t, text, "Chair")
	assert.Contains(t, text, "Soft seat\nMesh back")
	assert.Contains(t, text, "Tilt\nHeight")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "<")
}

func TestPrepareRecord(t *testing.T) {
	rec := types.NewRawRecord("name", "Chair", "description", "<p>Ergonomic <b>mesh</b> chair</p>")

	prepared := PrepareRecord(rec)

	assert.Equal(t, "Chair", prepared.Value("name"))
	assert.Equal(t, "Ergonomic mesh chair", prepared.Value("description"))
	assert.Equal(t, "<p>Ergonomic <b>mesh</b> chair</p>", rec.Value("description"), "input must not be mutated")
	assert.Equal(t, rec.Keys(), prepared.Keys())
}
