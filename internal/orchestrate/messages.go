// Package orchestrate implements the Progressive Orchestrator (spec §4.D):
// the three-phase pipeline behind `list` that runs a strictly synchronous
// pre-skeleton stage, emits a skeleton, then drives fact collectors
// concurrently and streams their results as cell updates. Grounded on the
// teacher's GetWorktrees concurrent-collect-then-wg.Wait shape in
// internal/git/service.go, generalized from "barrier-join then return" to
// "stream results as they complete" since the spec requires progressive
// delivery rather than a single batched answer.
package orchestrate

import (
	"github.com/worktrunk/worktrunk/internal/layout"
)

// MessageKind tags the variant carried by a Message.
type MessageKind int

const (
	MsgPrimaryRow MessageKind = iota
	MsgCellUpdate
	MsgStatus
	MsgGutterBlock
	MsgDirective
)

// Message is the single tagged-variant type that crosses the boundary
// between the orchestrator and the renderer/directive-writer/output system
// (spec §3's "Output message"). Exactly one of the payload fields is
// meaningful, selected by Kind.
type Message struct {
	Kind MessageKind

	Row         PrimaryRow
	Cell        CellUpdate
	StatusLevel string
	StatusText  string
	GutterText  string
	Directive   string
}

// PrimaryRow is emitted once per row during Phase 2 (skeleton emission).
type PrimaryRow struct {
	RowID  int
	Branch string
	Path   string
	// Cells holds every column's initial text: either a real value already
	// known in Phase 1 (branch, path, commit, age) or a placeholder/loading
	// glyph for anything Phase 3 will resolve.
	Cells map[layout.Column]string
}

// CellUpdate is emitted whenever a fact collector resolves (or fails to
// resolve) a value for one cell.
type CellUpdate struct {
	RowID    int
	Column   layout.Column
	Text     string
	Dimmed   bool
	Sequence int
}

func primaryRowMsg(row PrimaryRow) Message { return Message{Kind: MsgPrimaryRow, Row: row} }

func cellUpdateMsg(c CellUpdate) Message { return Message{Kind: MsgCellUpdate, Cell: c} }

func statusMsg(level, text string) Message {
	return Message{Kind: MsgStatus, StatusLevel: level, StatusText: text}
}

func directiveMsg(cmd string) Message { return Message{Kind: MsgDirective, Directive: cmd} }
