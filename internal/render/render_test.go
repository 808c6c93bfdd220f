package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktrunk/worktrunk/internal/layout"
)

func sampleHeaders() []Header {
	return []Header{
		{Column: layout.ColumnBranch, Width: 10, Label: "BRANCH"},
		{Column: layout.ColumnStatus, Width: 6, Label: "STATUS"},
		{Column: layout.ColumnMessage, Width: 12, Label: "MESSAGE"},
	}
}

func TestPaintSkeletonEmitsHeaderAndPlaceholders(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := New(&buf, true)
	r.PaintSkeleton(sampleHeaders(), 2, "…", nil)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "BRANCH")
	assert.Contains(t, lines[1], "…")
	assert.Contains(t, lines[2], "…")
}

func TestPaintSkeletonUsesKnownCells(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := New(&buf, true)
	known := map[CellKey]string{
		{Row: 0, Col: layout.ColumnBranch}: "main",
	}
	r.PaintSkeleton(sampleHeaders(), 1, "…", known)

	out := buf.String()
	assert.Contains(t, out, "main")
}

func TestCellUpdateIgnoresStaleSequence(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := New(&buf, true)
	r.PaintSkeleton(sampleHeaders(), 1, "…", nil)
	buf.Reset()

	r.CellUpdate(Cell{RowID: 0, Column: layout.ColumnStatus, Text: "clean", Sequence: 2})
	firstLen := buf.Len()
	assert.Positive(t, firstLen)

	r.CellUpdate(Cell{RowID: 0, Column: layout.ColumnStatus, Text: "stale", Sequence: 1})
	assert.Equal(t, firstLen, buf.Len(), "a lower sequence number must not apply")
}

func TestCellUpdateNonProgressiveIsNoop(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := New(&buf, false)
	r.PaintSkeleton(sampleHeaders(), 1, "…", nil)
	buf.Reset()

	r.CellUpdate(Cell{RowID: 0, Column: layout.ColumnStatus, Text: "clean", Sequence: 1})
	assert.Equal(t, 0, buf.Len())
}

func TestFinishRestoresCursorOnlyWhenProgressive(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := New(&buf, true)
	r.PaintSkeleton(sampleHeaders(), 2, "…", nil)
	buf.Reset()
	r.Finish()
	assert.Contains(t, buf.String(), "\x1b[?25h")

	var buf2 bytes.Buffer
	r2 := New(&buf2, false)
	r2.Finish()
	assert.Empty(t, buf2.String())
}

func TestRenderFinalOnePassNoEscapes(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	resolved := map[CellKey]ResolvedCell{
		{Row: 0, Col: layout.ColumnBranch}: {Text: "main"},
		{Row: 0, Col: layout.ColumnStatus}: {Text: "clean"},
	}
	RenderFinal(&buf, sampleHeaders(), 1, resolved, "?")

	out := buf.String()
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "clean")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderFinalCarriesDimmedStyle(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	resolved := map[CellKey]ResolvedCell{
		{Row: 0, Col: layout.ColumnBranch}: {Text: "https://example.com/pr/1", Dimmed: true},
	}
	RenderFinal(&buf, sampleHeaders(), 1, resolved, "?")

	out := buf.String()
	assert.Contains(t, out, "https://e…", "dimmed cell text must still be carried through, not blanked")
}
