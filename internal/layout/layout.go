// Package layout computes per-column terminal widths for the `list`
// rendering engine (spec §4.E). It is grounded on sQVe-grove's
// calculateColumnWidths responsive-width algorithm — ratio-based flexible
// columns with minimum-width floors, reserved fixed-width columns, and
// hide-on-pressure degradation — generalized to Worktrunk's priority-ordered
// column set and made glyph-width-aware via internal/dispwidth instead of
// len(string).
package layout

import (
	"github.com/worktrunk/worktrunk/internal/dispwidth"
)

// Column identifies one of the fixed set of columns the layout engine can
// place. Priority order (lowest index = placed first and survives
// pressure longest) mirrors spec §4.E's "Path before URL before CI before
// diff columns", with Message always elastic and Branch/Status/Commit/Age
// always on.
type Column int

const (
	ColumnBranch Column = iota
	ColumnStatus
	ColumnCommit
	ColumnAge
	ColumnMainDiv // ahead/behind arrows vs the default branch, always on
	ColumnRemote  // ahead/behind arrows vs the configured upstream, always on
	ColumnPath
	ColumnURL
	ColumnCI
	ColumnDiffstat // "+N -M" vs the default branch, --full only
	ColumnMessage
)

func (c Column) String() string {
	switch c {
	case ColumnBranch:
		return "BRANCH"
	case ColumnStatus:
		return "STATUS"
	case ColumnCommit:
		return "COMMIT"
	case ColumnAge:
		return "AGE"
	case ColumnMainDiv:
		return "MAIN"
	case ColumnRemote:
		return "REMOTE"
	case ColumnPath:
		return "PATH"
	case ColumnURL:
		return "URL"
	case ColumnCI:
		return "CI"
	case ColumnDiffstat:
		return "DIFF"
	case ColumnMessage:
		return "MESSAGE"
	default:
		return "?"
	}
}

// alwaysOn are the columns placed unconditionally; everything else competes
// for the remaining width in priority order.
var alwaysOn = []Column{ColumnBranch, ColumnStatus, ColumnCommit, ColumnAge, ColumnMainDiv, ColumnRemote}

// optionalPriority lists optional columns from highest to lowest priority
// — the first to be reserved, the last to be hidden under pressure.
var optionalPriority = []Column{ColumnPath, ColumnURL, ColumnCI, ColumnDiffstat}

// minWidth is the floor below which a column is unreadable and must hide
// rather than shrink further.
var minWidth = map[Column]int{
	ColumnBranch:   6,
	ColumnStatus:   4,
	ColumnCommit:   7,
	ColumnAge:      4,
	ColumnMainDiv:  6,
	ColumnRemote:   6,
	ColumnPath:     10,
	ColumnURL:      12,
	ColumnCI:       4,
	ColumnDiffstat: 6,
	ColumnMessage:  8,
}

// RowInput is the subset of a row's data the layout engine needs: the
// known-early cells (branch, path) whose natural width influences column
// sizing, grounded on spec §4.E's "rows with known-early cells" input.
type RowInput struct {
	Branch string
	Path   string
}

// Request names which optional columns the caller wants placed, in the
// order the CLI flags requested them (e.g. --full enables CI/diff).
type Request struct {
	TerminalWidth int
	Rows          []RowInput
	WantPath      bool
	WantURL       bool
	WantCI        bool
	WantDiffstat  bool
}

// Plan is the layout engine's output: each column's chosen width, or
// absent (hidden) from the map entirely.
type Plan struct {
	Widths map[Column]int
	Order  []Column // placement order, always-on first then optional then Message
}

// Width returns the column's width and whether it is visible at all.
func (p Plan) Width(c Column) (int, bool) {
	w, ok := p.Widths[c]
	return w, ok
}

const (
	minimumTerminalWidth = 20
	columnGutter         = 1 // one space between adjacent columns
)

// Compute derives a Plan for req, implementing spec §4.E's four-step
// policy: minimum widths for always-on columns, priority-ordered optional
// reservations, hide-on-pressure retry, and an elastic Message column that
// absorbs any remaining slack.
func Compute(req Request) Plan {
	width := req.TerminalWidth
	if width < minimumTerminalWidth {
		width = minimumTerminalWidth
	}

	wanted := wantedOptional(req)

	naturalBranch := naturalWidth(req.Rows, func(r RowInput) string { return r.Branch }, minWidth[ColumnBranch])
	naturalPath := naturalWidth(req.Rows, func(r RowInput) string { return r.Path }, minWidth[ColumnPath])

	fixed := map[Column]int{
		ColumnBranch:  naturalBranch,
		ColumnStatus:  minWidth[ColumnStatus],
		ColumnCommit:  minWidth[ColumnCommit],
		ColumnAge:     minWidth[ColumnAge],
		ColumnMainDiv: minWidth[ColumnMainDiv],
		ColumnRemote:  minWidth[ColumnRemote],
		ColumnPath:    naturalPath,
		ColumnURL:     minWidth[ColumnURL],
		ColumnCI:      minWidth[ColumnCI],
		// ColumnDiffstat has no natural component; it is a fixed-format
		// "+N -M" cell.
		ColumnDiffstat: minWidth[ColumnDiffstat],
	}

	placed := append([]Column{}, alwaysOn...)
	remaining := width - sumGutters(placed, fixed)

	for _, c := range placed {
		remaining -= fixed[c]
	}

	// Reserve optional columns in priority order until pressure forces a
	// hide; Message always keeps at least its floor.
	var optionalPlaced []Column
	for _, c := range optionalPriority {
		if !wanted[c] {
			continue
		}
		need := fixed[c] + columnGutter
		if remaining-need < minWidth[ColumnMessage] {
			// Hide the lowest-priority not-yet-placed column per spec
			// §4.E step 3; since we walk in priority order, "lowest
			// priority" is simply "stop placing further ones".
			break
		}
		optionalPlaced = append(optionalPlaced, c)
		remaining -= need
	}

	plan := Plan{Widths: map[Column]int{}}
	for _, c := range placed {
		plan.Widths[c] = fixed[c]
	}
	for _, c := range optionalPlaced {
		plan.Widths[c] = fixed[c]
	}

	// Message absorbs all remaining slack; it is the elastic column.
	messageWidth := remaining - columnGutter
	if messageWidth < minWidth[ColumnMessage] {
		messageWidth = minWidth[ColumnMessage]
	}
	plan.Widths[ColumnMessage] = messageWidth

	plan.Order = append(append(placed, optionalPlaced...), ColumnMessage)
	return plan
}

func wantedOptional(req Request) map[Column]bool {
	return map[Column]bool{
		ColumnPath:     req.WantPath,
		ColumnURL:      req.WantURL,
		ColumnCI:       req.WantCI,
		ColumnDiffstat: req.WantDiffstat,
	}
}

func naturalWidth(rows []RowInput, field func(RowInput) string, floor int) int {
	width := floor
	for _, r := range rows {
		if w := dispwidth.String(field(r)); w > width {
			width = w
		}
	}
	return width
}

func sumGutters(columns []Column, fixed map[Column]int) int {
	return len(columns) * columnGutter
}
