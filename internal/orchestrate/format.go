package orchestrate

import (
	"fmt"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/layout"
	"github.com/worktrunk/worktrunk/internal/models"
)

// Neutral glyphs, per spec §3/§7: "?" is reserved for a collector error;
// "–" (en dash) means the fact is legitimately absent (no upstream, no PR,
// unknown host) and must never be confused with an error or a zero count.
const (
	glyphLoading = "…"
	glyphError   = "?"
	glyphAbsent  = "–"
)

// placeholderFor returns the Phase-2 skeleton glyph for a column: the
// loading indicator for anything Phase 3 will resolve, nothing for
// already-known cells (those are filled directly in PrimaryRow.Cells).
func placeholderFor(col layout.Column) string {
	switch col {
	case layout.ColumnBranch, layout.ColumnPath:
		return ""
	default:
		return glyphLoading
	}
}

// factColumn maps a fact kind to the column it renders into. status_marker,
// integration_target and previous_branch are metadata consumed by other
// commands (switch, status) rather than list columns of their own; they
// have no column mapping and are skipped by the dispatcher.
func factColumn(kind cache.FactKind) (layout.Column, bool) {
	switch kind {
	case cache.FactWorkingTreeStatus:
		return layout.ColumnStatus, true
	case cache.FactMainDivergence:
		return layout.ColumnMainDiv, true
	case cache.FactUpstreamDivergence:
		return layout.ColumnRemote, true
	case cache.FactMainDiffstat:
		return layout.ColumnDiffstat, true
	case cache.FactConflictsWithMain:
		return layout.ColumnDiffstat, true
	case cache.FactPRStatus:
		return layout.ColumnCI, true
	case cache.FactCIStatus:
		return layout.ColumnCI, true
	case cache.FactURL, cache.FactURLLive:
		return layout.ColumnURL, true
	default:
		return 0, false
	}
}

// formatFact renders a successfully resolved fact value into cell text.
// Absent values (nil, nil from the collector) are handled by the caller
// before this is reached.
func formatFact(kind cache.FactKind, value cache.FactValue) string {
	switch v := value.(type) {
	case models.WorkingTreeStatus:
		return formatWorkingTreeStatus(v)
	case models.AheadBehind:
		return formatAheadBehind(v)
	case models.DiffStat:
		return fmt.Sprintf("+%d -%d", v.Added, v.Deleted)
	case models.PRInfo:
		return fmt.Sprintf("#%d %s", v.Number, v.State)
	case bool:
		if v {
			return "conflict"
		}
		return "clean"
	case string:
		return v
	default:
		return glyphAbsent
	}
}

func formatWorkingTreeStatus(st models.WorkingTreeStatus) string {
	if st.Flags == 0 {
		return "✓"
	}
	out := ""
	if st.Flags.Has(models.StatusConflicted) {
		out += "U"
	}
	if st.Staged > 0 {
		out += "+"
	}
	if st.Modified > 0 {
		out += "!"
	}
	if st.Untracked > 0 {
		out += "?"
	}
	if st.Deleted > 0 {
		out += "-"
	}
	if out == "" {
		out = "✓"
	}
	return out
}

func formatAheadBehind(ab models.AheadBehind) string {
	switch ab.Classify() {
	case models.DivergenceAhead:
		return fmt.Sprintf("↑%d", ab.Ahead)
	case models.DivergenceBehind:
		return fmt.Sprintf("↓%d", ab.Behind)
	case models.DivergenceDiverged:
		return fmt.Sprintf("↑%d↓%d", ab.Ahead, ab.Behind)
	default:
		// In sync: a real zero-count result, distinct from the "no
		// upstream configured" absent case handled upstream of this call.
		return "="
	}
}
