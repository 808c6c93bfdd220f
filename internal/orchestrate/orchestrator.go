package orchestrate

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/collect"
	"github.com/worktrunk/worktrunk/internal/layout"
	"github.com/worktrunk/worktrunk/internal/models"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

// SkeletonOnlyEnvVar benchmarks Phase 1+2 only, per spec §4.D.
const SkeletonOnlyEnvVar = "WT_SKELETON_ONLY"

// settleWindow bounds how long Phase 3 waits for in-flight collectors to
// finish after a cancellation before giving up on them (spec §4.D).
const settleWindow = 300 * time.Millisecond

// networkCollectorDeadline bounds PR/CI/url_live collectors specifically;
// VCS subprocess calls have no per-call timeout (spec §7).
const networkCollectorDeadline = 2 * time.Second

var networkFactKinds = map[cache.FactKind]bool{
	cache.FactPRStatus: true,
	cache.FactCIStatus: true,
	cache.FactURLLive:  true,
}

// Options configures one `list` run.
type Options struct {
	RepoDir       string
	TerminalWidth int
	Full          bool // enables CI, diffstat, and conflicts-with-main columns
	URLTemplate   string
	RemoteURL     string
	SkeletonOnly  bool
	Progressive   bool
}

// Orchestrator drives the three-phase pipeline (spec §4.D) over a single
// VCS Gateway, Fact Cache, and Collector registry.
type Orchestrator struct {
	Gateway    *vcsgit.Gateway
	Cache      *cache.Cache
	Collectors []collect.Collector
	WorkerCap  int // 0 means use the default sizing rule
}

// New builds an Orchestrator with the default worker pool sizing: the
// lesser of ceil(cpu_count*2) and a fixed cap (spec §4.D). Unlike the VCS
// Gateway's semaphore, there is no lower floor.
func New(gw *vcsgit.Gateway, c *cache.Cache, registry []collect.Collector) *Orchestrator {
	return &Orchestrator{Gateway: gw, Cache: c, Collectors: registry}
}

func (o *Orchestrator) workerCap() int {
	if o.WorkerCap > 0 {
		return o.WorkerCap
	}
	n := runtime.NumCPU() * 2
	const maxWorkers = 32
	if n > maxWorkers {
		n = maxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

type row struct {
	id            int
	worktree      models.Worktree
	upstream      string
	defaultBranch models.BranchName
}

// Run executes Phase 1 synchronously; a non-nil error here means the
// skeleton could not even be drawn (spec's "Phase-1 error", fatal, non-zero
// exit). On success it returns a channel of Messages representing Phase 2
// (already enqueued) followed by Phase 3's streamed cell updates; the
// channel is closed when the run completes or ctx is cancelled and the
// settle window elapses.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (<-chan Message, layout.Plan, error) {
	rows, plan, err := o.phase1(ctx, opts)
	if err != nil {
		return nil, layout.Plan{}, err
	}

	out := make(chan Message, 64)
	go func() {
		defer close(out)
		o.phase2(rows, plan, out)

		skeletonOnly := opts.SkeletonOnly || os.Getenv(SkeletonOnlyEnvVar) == "1"
		if skeletonOnly {
			return
		}
		o.phase3(ctx, rows, opts, out)
	}()
	return out, plan, nil
}

// phase1 performs the strictly synchronous pre-skeleton work (spec §4.D):
// enumerate worktrees, read the default branch, batch-fetch commit
// metadata for ordering, and compute the layout.
func (o *Orchestrator) phase1(ctx context.Context, opts Options) ([]row, layout.Plan, error) {
	worktrees, err := o.Gateway.ListWorktrees(ctx, opts.RepoDir)
	if err != nil {
		return nil, layout.Plan{}, err
	}

	defaultBranch, err := o.Gateway.DefaultBranch(ctx, opts.RepoDir)
	if err != nil {
		return nil, layout.Plan{}, err
	}

	branches, err := o.Gateway.BranchesForEach(ctx, opts.RepoDir, "refs/heads")
	if err != nil {
		return nil, layout.Plan{}, err
	}
	upstreamByBranch := make(map[models.BranchName]string, len(branches))
	for _, b := range branches {
		upstreamByBranch[b.Name] = b.Upstream
	}

	if err := fillCommitMeta(ctx, o.Gateway, opts.RepoDir, worktrees); err != nil {
		return nil, layout.Plan{}, err
	}

	sortRows(worktrees, defaultBranch)

	rows := make([]row, len(worktrees))
	rowInputs := make([]layout.RowInput, len(worktrees))
	for i, wt := range worktrees {
		rows[i] = row{
			id:            i,
			worktree:      wt,
			upstream:      upstreamByBranch[wt.Branch],
			defaultBranch: defaultBranch,
		}
		rowInputs[i] = layout.RowInput{Branch: string(wt.Branch), Path: wt.Path}
	}

	plan := layout.Compute(layout.Request{
		TerminalWidth: opts.TerminalWidth,
		Rows:          rowInputs,
		WantURL:       opts.URLTemplate != "",
		WantCI:        opts.Full,
		WantDiffstat:  opts.Full,
	})

	return rows, plan, nil
}

// fillCommitMeta batch-resolves each worktree's HEAD commit timestamp and
// subject in a single `git show` call (spec §4.D Phase 1), populating the
// fields ListWorktrees itself leaves zero — they drive both row ordering
// and the Commit/Age/Message skeleton cells.
func fillCommitMeta(ctx context.Context, gw *vcsgit.Gateway, dir string, worktrees []models.Worktree) error {
	commits := make([]string, 0, len(worktrees))
	for _, wt := range worktrees {
		if wt.HeadCommit != "" {
			commits = append(commits, wt.HeadCommit)
		}
	}
	metas, err := gw.BatchCommitMeta(ctx, dir, commits)
	if err != nil {
		return err
	}
	for i := range worktrees {
		if meta, ok := metas[worktrees[i].HeadCommit]; ok {
			worktrees[i].CommitTime = meta.Timestamp
			worktrees[i].CommitSubject = meta.Subject
		}
	}
	return nil
}

// sortRows applies spec §3's row ordering: main-branch worktree first,
// then remaining worktrees by last-commit timestamp descending.
func sortRows(worktrees []models.Worktree, defaultBranch models.BranchName) {
	sort.SliceStable(worktrees, func(i, j int) bool {
		iMain := worktrees[i].IsMain || worktrees[i].Branch == defaultBranch
		jMain := worktrees[j].IsMain || worktrees[j].Branch == defaultBranch
		if iMain != jMain {
			return iMain
		}
		return worktrees[i].CommitTime.After(worktrees[j].CommitTime)
	})
}

// phase2 emits one primary_row message per row with every cell already
// known (branch, path, commit, age) or carrying a loading placeholder.
func (o *Orchestrator) phase2(rows []row, plan layout.Plan, out chan<- Message) {
	for _, r := range rows {
		cells := make(map[layout.Column]string, len(plan.Order))
		for _, col := range plan.Order {
			switch col {
			case layout.ColumnBranch:
				cells[col] = string(r.worktree.Branch)
			case layout.ColumnCommit:
				cells[col] = r.worktree.HeadCommit
			case layout.ColumnAge:
				cells[col] = formatAge(r.worktree.CommitTime)
			case layout.ColumnPath:
				cells[col] = r.worktree.Path
			case layout.ColumnMessage:
				cells[col] = r.worktree.CommitSubject
			default:
				cells[col] = placeholderFor(col)
			}
		}
		out <- primaryRowMsg(PrimaryRow{
			RowID:  r.id,
			Branch: string(r.worktree.Branch),
			Path:   r.worktree.Path,
			Cells:  cells,
		})
	}
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return glyphAbsent
	}
	d := time.Since(t)
	switch {
	case d < time.Hour:
		return "just now"
	case d < 24*time.Hour:
		return "today"
	case d < 7*24*time.Hour:
		return "this week"
	default:
		return t.Format("2006-01-02")
	}
}

// phase3 is Phase 3: spawn fact collectors on a fixed-size worker pool with
// a single dispatcher draining their results (spec §4.D's "parallel
// workers with a single dispatcher").
func (o *Orchestrator) phase3(ctx context.Context, rows []row, opts Options, out chan<- Message) {
	type job struct {
		r  row
		c  collect.Collector
		in collect.Input
	}

	jobs := make(chan job)
	type result struct {
		r       row
		kind    cache.FactKind
		val     cache.FactValue
		err     error
		urlText string
	}
	results := make(chan result)

	urlLive := findURLLiveCollector(o.Collectors)

	var sequences sync.Map // layout.Column|rowID -> *int64, for per-cell sequence numbers

	var wg sync.WaitGroup
	workers := o.workerCap()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				val, err := o.collectOne(ctx, j.r, j.c, j.in)
				select {
				case results <- result{r: j.r, kind: j.c.Kind(), val: val, err: err}:
				case <-ctx.Done():
					continue
				}

				// The url_live fact is never dispatched as its own job
				// (it needs the url fact's resolved text, which its
				// generic Collect can't see); instead, once url resolves
				// here, immediately resolve url_live against it and post
				// a second, dimmed-or-not result for the same cell.
				if j.c.Kind() != cache.FactURL || urlLive == nil || err != nil {
					continue
				}
				resolved, ok := val.(string)
				if !ok || resolved == "" {
					continue
				}
				liveVal, liveErr := urlLive.CollectForURL(ctx, resolved)
				select {
				case results <- result{r: j.r, kind: cache.FactURLLive, val: liveVal, err: liveErr, urlText: resolved}:
				case <-ctx.Done():
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, r := range rows {
			in := collect.Input{
				Worktree:      r.worktree,
				DefaultBranch: r.defaultBranch,
				Upstream:      r.upstream,
				RemoteURL:     opts.RemoteURL,
				URLTemplate:   opts.URLTemplate,
			}
			for _, c := range o.Collectors {
				if c.Kind() == cache.FactURLLive {
					continue // resolved inline alongside FactURL above
				}
				if !wantsCollector(c.Kind(), opts) {
					continue
				}
				select {
				case jobs <- job{r: r, c: c, in: in}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	settleDeadline := time.NewTimer(0)
	if !settleDeadline.Stop() {
		<-settleDeadline.C
	}
	cancelled := false

	for {
		select {
		case res, ok := <-results:
			if !ok {
				return
			}
			o.dispatch(res.r, res.kind, res.val, res.err, res.urlText, &sequences, out)
		case <-ctx.Done():
			if !cancelled {
				cancelled = true
				settleDeadline.Reset(settleWindow)
			}
		case <-settleDeadline.C:
			return
		}
	}
}

// ttlFor sets per-kind staleness, per spec §4.B. Facts tied purely to the
// head commit (ahead/behind, diffstat, conflicts) have no time-based
// expiry — a TTL of 0 means "valid until the commit moves". Facts that can
// change without a new commit (working tree status) or that reflect
// external, fast-moving state (PR/CI, url_live) get a short TTL on top of
// the commit pin.
func ttlFor(kind cache.FactKind) time.Duration {
	switch kind {
	case cache.FactWorkingTreeStatus:
		return 2 * time.Second
	case cache.FactPRStatus, cache.FactCIStatus, cache.FactURLLive:
		return 30 * time.Second
	default:
		return 0
	}
}

// getCached probes the fact cache for kind, dispatching to the concrete
// destination type cache.assign expects (the cache package has no generic
// Get, so each fact kind's payload type must be named here).
func (o *Orchestrator) getCached(key cache.Key, headCommit string, kind cache.FactKind) (cache.FactValue, bool) {
	switch kind {
	case cache.FactWorkingTreeStatus:
		var v models.WorkingTreeStatus
		if o.Cache.Get(key, headCommit, &v) {
			return v, true
		}
	case cache.FactMainDivergence, cache.FactUpstreamDivergence:
		var v models.AheadBehind
		if o.Cache.Get(key, headCommit, &v) {
			return v, true
		}
	case cache.FactMainDiffstat:
		var v models.DiffStat
		if o.Cache.Get(key, headCommit, &v) {
			return v, true
		}
	case cache.FactConflictsWithMain, cache.FactURLLive:
		var v bool
		if o.Cache.Get(key, headCommit, &v) {
			return v, true
		}
	case cache.FactPRStatus:
		var v models.PRInfo
		if o.Cache.Get(key, headCommit, &v) {
			return v, true
		}
	case cache.FactURL, cache.FactCIStatus, cache.FactStatusMarker, cache.FactIntegrationTarget, cache.FactPreviousBranch:
		var v string
		if o.Cache.Get(key, headCommit, &v) {
			return v, true
		}
	}
	return nil, false
}

// collectOne runs a single collector against the fact cache: a fresh hit
// short-circuits the collector entirely; a miss or stale entry runs it and,
// on success, repopulates the cache.
func (o *Orchestrator) collectOne(ctx context.Context, r row, c collect.Collector, in collect.Input) (cache.FactValue, error) {
	kind := c.Kind()
	key := cache.Key{Branch: string(r.worktree.Branch), Commit: r.worktree.HeadCommit, Kind: kind}

	if o.Cache != nil {
		if val, ok := o.getCached(key, r.worktree.HeadCommit, kind); ok {
			return val, nil
		}
	}

	collectCtx := ctx
	var cancel context.CancelFunc
	if networkFactKinds[kind] {
		collectCtx, cancel = context.WithTimeout(ctx, networkCollectorDeadline)
	}
	val, err := c.Collect(collectCtx, in)
	if cancel != nil {
		cancel()
	}
	if o.Cache != nil && err == nil && val != nil {
		o.Cache.Set(key, r.worktree.HeadCommit, ttlFor(kind), val)
	}
	return val, err
}

// findURLLiveCollector locates the registry's URLLiveCollector, whose
// CollectForURL method (not its generic Collect, which requires the
// already-resolved url text it has no way to receive through the Input
// struct) performs the actual dial-and-check.
func findURLLiveCollector(collectors []collect.Collector) *collect.URLLiveCollector {
	for _, c := range collectors {
		if ul, ok := c.(*collect.URLLiveCollector); ok {
			return ul
		}
	}
	return nil
}

func wantsCollector(kind cache.FactKind, opts Options) bool {
	switch kind {
	case cache.FactCIStatus, cache.FactConflictsWithMain, cache.FactMainDiffstat:
		return opts.Full
	case cache.FactURL, cache.FactURLLive:
		return opts.URLTemplate != ""
	default:
		return true
	}
}

func (o *Orchestrator) dispatch(r row, kind cache.FactKind, val cache.FactValue, err error, urlText string, sequences *sync.Map, out chan<- Message) {
	col, ok := factColumn(kind)
	if !ok {
		return
	}

	text := glyphAbsent
	dimmed := false
	switch {
	case err != nil:
		text = glyphError
	case val == nil:
		text = glyphAbsent
	default:
		text = formatFact(kind, val)
		if kind == cache.FactURLLive {
			// Two-phase URL update (spec §4.D): url_live never introduces
			// its own cell text, it re-resolves the URL cell the url
			// collector already wrote, carrying that same text forward
			// and only toggling its dim style.
			live, _ := val.(bool)
			dimmed = !live
			text = urlText
		}
	}

	seq := nextSequence(sequences, r.id, col)
	out <- cellUpdateMsg(CellUpdate{RowID: r.id, Column: col, Text: text, Dimmed: dimmed, Sequence: seq})
}

func nextSequence(sequences *sync.Map, rowID int, col layout.Column) int {
	key := [2]int{rowID, int(col)}
	v, _ := sequences.LoadOrStore(key, new(int64))
	counter := v.(*int64)
	return int(atomic.AddInt64(counter, 1))
}
