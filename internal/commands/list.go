package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/collect"
	"github.com/worktrunk/worktrunk/internal/layout"
	"github.com/worktrunk/worktrunk/internal/models"
	"github.com/worktrunk/worktrunk/internal/orchestrate"
	"github.com/worktrunk/worktrunk/internal/render"
	"github.com/worktrunk/worktrunk/internal/runtime"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List worktrees with status, divergence, and optional CI/PR facts",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "full", Usage: "include CI, diffstat, and conflicts-with-main columns"},
			&cli.StringFlag{Name: "format", Value: "table", Usage: "output format: table or json"},
			&cli.BoolFlag{Name: "progressive", Value: true, Usage: "update cells in place as facts resolve (forced off on non-TTY stdout)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			return runList(ctx, e, cmd)
		},
	}
}

func runList(ctx context.Context, e *env, cmd *cli.Command) error {
	format := cmd.String("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("--format must be table or json, got %q", format)
	}
	full := cmd.Bool("full") || e.cfg.ListFull

	if format == "json" {
		return runListJSON(ctx, e, full)
	}
	return runListTable(ctx, e, cmd, full)
}

func runListTable(ctx context.Context, e *env, cmd *cli.Command, full bool) error {
	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	progressive := cmd.Bool("progressive") && isTTY

	width := terminalWidth()

	orch := orchestrate.New(e.gw, e.cache, e.registry())
	messages, plan, err := orch.Run(ctx, orchestrate.Options{
		RepoDir:       e.repoDir,
		TerminalWidth: width,
		Full:          full,
		URLTemplate:   e.cfg.URLTemplate,
		Progressive:   progressive,
	})
	if err != nil {
		return err
	}

	if progressive {
		return streamProgressive(e, plan, messages)
	}
	return drainAndRenderFinal(e, plan, messages)
}

// headersFromPlan turns the orchestrator's computed layout.Plan into the
// render package's Header slice — the two packages deliberately don't share
// a type since layout is pure column-width arithmetic and render knows
// nothing about what a "Column" means beyond its label and width.
func headersFromPlan(plan layout.Plan) []render.Header {
	headers := make([]render.Header, 0, len(plan.Order))
	for _, col := range plan.Order {
		width, _ := plan.Width(col)
		headers = append(headers, render.Header{Column: col, Width: width, Label: col.String()})
	}
	return headers
}

// streamProgressive buffers every MsgPrimaryRow (Phase 2 always finishes
// emitting all of them before Phase 3's first MsgCellUpdate, per
// Orchestrator.Run's phase2-then-phase3 sequencing) so PaintSkeleton can be
// called exactly once with the full row count and known cells, then applies
// the rest of the stream as CellUpdates.
func streamProgressive(e *env, plan layout.Plan, messages <-chan orchestrate.Message) error {
	rend := render.New(os.Stdout, true)
	headers := headersFromPlan(plan)

	var rows []orchestrate.PrimaryRow
	known := map[render.CellKey]string{}
	skeletonPainted := false

	for msg := range messages {
		switch msg.Kind {
		case orchestrate.MsgPrimaryRow:
			rows = append(rows, msg.Row)
			for col, text := range msg.Row.Cells {
				known[render.CellKey{Row: msg.Row.RowID, Col: col}] = text
			}
		case orchestrate.MsgCellUpdate:
			if !skeletonPainted {
				rend.PaintSkeleton(headers, len(rows), "…", known)
				skeletonPainted = true
			}
			rend.CellUpdate(render.Cell{
				RowID:    msg.Cell.RowID,
				Column:   msg.Cell.Column,
				Text:     msg.Cell.Text,
				Dimmed:   msg.Cell.Dimmed,
				Sequence: msg.Cell.Sequence,
			})
		case orchestrate.MsgStatus:
			e.rt.Status(msg.StatusText)
		}
	}
	if !skeletonPainted {
		// SkeletonOnly runs (or a repo with no Phase 3 facts at all) never
		// emit a CellUpdate, so the skeleton must still be painted once at
		// the end to actually show the rows.
		rend.PaintSkeleton(headers, len(rows), "…", known)
	}
	rend.Finish()
	return nil
}

func drainAndRenderFinal(e *env, plan layout.Plan, messages <-chan orchestrate.Message) error {
	var rowCount int
	resolved := map[render.CellKey]render.ResolvedCell{}

	for msg := range messages {
		switch msg.Kind {
		case orchestrate.MsgPrimaryRow:
			rowCount++
			for col, text := range msg.Row.Cells {
				resolved[render.CellKey{Row: msg.Row.RowID, Col: col}] = render.ResolvedCell{Text: text}
			}
		case orchestrate.MsgCellUpdate:
			resolved[render.CellKey{Row: msg.Cell.RowID, Col: msg.Cell.Column}] = render.ResolvedCell{
				Text:   msg.Cell.Text,
				Dimmed: msg.Cell.Dimmed,
			}
		case orchestrate.MsgStatus:
			e.rt.Status(msg.StatusText)
		}
	}

	render.RenderFinal(os.Stdout, headersFromPlan(plan), rowCount, resolved, "–")
	return nil
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// jsonWorktree is the stable per-row schema of spec.md §6.
type jsonWorktree struct {
	Branch                  string    `json:"branch"`
	Path                    string    `json:"path,omitempty"`
	Kind                    string    `json:"kind"`
	HeadCommit              string    `json:"head_commit"`
	Timestamp               int64     `json:"timestamp"`
	Message                 string    `json:"message"`
	IsPrimary               bool      `json:"is_primary"`
	IsCurrent               bool      `json:"is_current"`
	WorkingTreeDiff         *diffStat `json:"working_tree_diff,omitempty"`
	BranchDiff              *diffStat `json:"branch_diff,omitempty"`
	WorkingTreeDiffWithMain *diffStat `json:"working_tree_diff_with_main,omitempty"`
	Ahead                   *int      `json:"ahead"`
	Behind                  *int      `json:"behind"`
	UpstreamRemote          *string   `json:"upstream_remote,omitempty"`
	UpstreamAhead           *int      `json:"upstream_ahead,omitempty"`
	UpstreamBehind          *int      `json:"upstream_behind,omitempty"`
	HasConflicts            bool      `json:"has_conflicts"`
	WorktreeState           *string   `json:"worktree_state"`
	PRStatus                *string   `json:"pr_status,omitempty"`
	CIStatus                *string   `json:"ci_status,omitempty"`
	IsStale                 bool      `json:"is_stale"`
	URL                     *string   `json:"url,omitempty"`
	URLLive                 *bool     `json:"url_live,omitempty"`
}

type diffStat struct {
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

// runListJSON gathers every fact synchronously (JSON output can't be
// emitted progressively: the whole array must be valid at once), reusing
// the same Gateway and collector registry the table path uses but none of
// orchestrate's display formatting — the glyphs ("↑3", "?") that column
// rendering uses would violate the stable typed schema spec.md §6 demands.
func runListJSON(ctx context.Context, e *env, full bool) error {
	worktrees, err := e.gw.ListWorktrees(ctx, e.repoDir)
	if err != nil {
		return err
	}
	defaultBranch, err := e.gw.DefaultBranch(ctx, e.repoDir)
	if err != nil {
		return err
	}
	branches, err := e.gw.BranchesForEach(ctx, e.repoDir, "refs/heads")
	if err != nil {
		return err
	}
	upstreamByBranch := map[string]string{}
	for _, b := range branches {
		upstreamByBranch[string(b.Name)] = b.Upstream
	}
	currentBranch, _ := e.gw.CurrentBranch(ctx, e.repoDir)

	registry := e.registry()
	rows := make([]jsonWorktree, len(worktrees))
	var wg sync.WaitGroup
	for i := range worktrees {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows[i] = buildJSONRow(ctx, e, registry, worktrees[i], defaultBranch, upstreamByBranch, currentBranch, full)
		}(i)
	}
	wg.Wait()

	enc := json.NewEncoder(primaryWriter{e.rt})
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		if errors.Is(err, runtime.ErrBrokenPipe) {
			return nil
		}
		return err
	}
	return nil
}

// primaryWriter adapts runtime.Context's WritePrimary to io.Writer so the
// JSON encoder can write through it — runtime.Context intentionally exposes
// a named method rather than satisfying io.Writer itself, so callers can't
// accidentally hand it to something that writes status chatter to the
// primary stream.
type primaryWriter struct{ rt *runtime.Context }

func (w primaryWriter) Write(p []byte) (int, error) {
	return w.rt.WritePrimary(p)
}

func buildJSONRow(ctx context.Context, e *env, registry []collect.Collector, wt models.Worktree, defaultBranch models.BranchName, upstreamByBranch map[string]string, currentBranch string, full bool) jsonWorktree {
	upstream := upstreamByBranch[string(wt.Branch)]
	in := collect.Input{Worktree: wt, DefaultBranch: defaultBranch, Upstream: upstream, URLTemplate: e.cfg.URLTemplate}

	row := jsonWorktree{
		Branch:     string(wt.Branch),
		Path:       wt.Path,
		Kind:       "worktree",
		HeadCommit: wt.HeadCommit,
		Timestamp:  wt.CommitTime.Unix(),
		Message:    wt.CommitSubject,
		IsPrimary:  wt.IsMain,
		IsCurrent:  wt.Branch != "" && string(wt.Branch) == currentBranch,
	}
	if wt.WorktreeState != "" {
		state := wt.WorktreeState
		row.WorktreeState = &state
	}

	var urlLive *collect.URLLiveCollector
	for _, c := range registry {
		if ul, ok := c.(*collect.URLLiveCollector); ok {
			// url_live depends on url having resolved first, so it's run
			// explicitly below rather than through the generic dispatch
			// loop (collect.URLLiveCollector.Collect always errors without
			// that context — see its doc comment).
			urlLive = ul
			continue
		}
		if !wantsFactForJSON(c.Kind(), full) {
			continue
		}
		val, err := c.Collect(ctx, in)
		if err != nil || val == nil {
			continue
		}
		applyFactToJSON(&row, c.Kind(), val, upstream)
	}

	if row.URL != nil && urlLive != nil {
		if live, err := urlLive.CollectForURL(ctx, *row.URL); err == nil && live != nil {
			applyFactToJSON(&row, cache.FactURLLive, live, upstream)
		}
	}
	return row
}

func wantsFactForJSON(kind cache.FactKind, full bool) bool {
	switch kind {
	case cache.FactCIStatus, cache.FactConflictsWithMain, cache.FactMainDiffstat:
		return full
	default:
		return true
	}
}

func applyFactToJSON(row *jsonWorktree, kind cache.FactKind, val cache.FactValue, upstream string) {
	switch kind {
	case cache.FactMainDivergence:
		ab := val.(models.AheadBehind)
		row.Ahead = &ab.Ahead
		row.Behind = &ab.Behind
	case cache.FactUpstreamDivergence:
		ab := val.(models.AheadBehind)
		row.UpstreamAhead = &ab.Ahead
		row.UpstreamBehind = &ab.Behind
		if upstream != "" {
			row.UpstreamRemote = &upstream
		}
	case cache.FactMainDiffstat:
		ds := val.(models.DiffStat)
		row.BranchDiff = &diffStat{Added: ds.Added, Deleted: ds.Deleted}
	case cache.FactConflictsWithMain:
		row.HasConflicts = val.(bool)
	case cache.FactPRStatus:
		pr := val.(models.PRInfo)
		s := fmt.Sprintf("#%d %s", pr.Number, pr.State)
		row.PRStatus = &s
	case cache.FactCIStatus:
		s := val.(string)
		row.CIStatus = &s
	case cache.FactURL:
		s := val.(string)
		row.URL = &s
	case cache.FactURLLive:
		b := val.(bool)
		row.URLLive = &b
	case cache.FactWorkingTreeStatus:
		st := val.(models.WorkingTreeStatus)
		row.WorkingTreeDiff = &diffStat{Added: st.Staged + st.Untracked, Deleted: st.Deleted}
	}
}
