package commands

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/urfave/cli/v3"
	"github.com/xrash/smetrics"
)

// selectCommand offers an interactive picker over worktrees, then switches
// to whichever one the user chooses — the same directive-driven `cd` as
// `switch`, reached through a fuzzy search instead of an exact name.
// Grounded on the teacher's selectIssueInteractiveFunc/selectPRInteractiveFunc
// hooks (cmd/lazyworktree/commands.go), which delegate to an interactive
// picker over stdio; generalized from issues/PRs to worktrees, and from
// the teacher's assumed external picker to a PATH-probed `fzf` with a
// smetrics-ranked fallback when no fuzzy-finder binary is installed.
func selectCommand() *cli.Command {
	return &cli.Command{
		Name:      "select",
		Aliases:   []string{"sel"},
		Usage:     "Interactively pick a worktree and switch to it",
		ArgsUsage: "[query]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			return runSelect(ctx, e, firstArg(cmd))
		},
	}
}

func runSelect(ctx context.Context, e *env, query string) error {
	worktrees, err := e.gw.ListWorktrees(ctx, e.repoDir)
	if err != nil {
		return err
	}
	if len(worktrees) == 0 {
		return fmt.Errorf("no worktrees to select from")
	}

	candidates := make([]string, len(worktrees))
	for i, wt := range worktrees {
		label := string(wt.Branch)
		if label == "" {
			label = wt.Path
		}
		candidates[i] = label
	}

	chosen, err := pickCandidate(candidates, query)
	if err != nil {
		return err
	}
	if chosen == "" {
		return fmt.Errorf("no worktree selected")
	}
	return runSwitch(ctx, e, chosen)
}

// pickCandidate runs an external fuzzy-finder if one is on PATH, falling
// back to Jaro-Winkler ranking (xrash/smetrics) against query and printing
// a numbered prompt on stderr — spec's "certain operations fall back ...
// and print a hint" pattern (§4.H), applied here to the picker rather than
// the directive channel itself.
func pickCandidate(candidates []string, query string) (string, error) {
	if path, err := exec.LookPath("fzf"); err == nil {
		return pickWithFzf(path, candidates, query)
	}
	return pickWithRanking(candidates, query)
}

func pickWithFzf(fzfPath string, candidates []string, query string) (string, error) {
	args := []string{}
	if query != "" {
		args = append(args, "--query", query)
	}
	cmd := exec.Command(fzfPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	cmd.Stderr = os.Stderr
	cmd.Stdout = &out
	if err := cmd.Start(); err != nil {
		return "", err
	}
	for _, c := range candidates {
		fmt.Fprintln(stdin, c)
	}
	stdin.Close()
	if err := cmd.Wait(); err != nil {
		// fzf exits 130 when the user cancels (Esc/Ctrl-C); that's not a
		// tool error, just an empty selection.
		return "", nil
	}
	return firstLine(out.String()), nil
}

func pickWithRanking(candidates []string, query string) (string, error) {
	type scored struct {
		name  string
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		if query == "" {
			ranked[i] = scored{name: c, score: 0}
			continue
		}
		ranked[i] = scored{name: c, score: smetrics.JaroWinkler(query, c, 0.7, 4)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	fmt.Fprintln(os.Stderr, "no `fzf` on PATH; install it for a better picker, or choose a number:")
	for i, r := range ranked {
		fmt.Fprintf(os.Stderr, "  %2d) %s\n", i+1, r.name)
	}
	fmt.Fprint(os.Stderr, "> ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	var idx int
	if _, err := fmt.Sscanf(line, "%d", &idx); err != nil || idx < 1 || idx > len(ranked) {
		return "", fmt.Errorf("invalid selection %q", line)
	}
	return ranked[idx-1].name, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
