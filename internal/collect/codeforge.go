package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/worktrunk/worktrunk/internal/models"
)

// Host names the external code-forge a repository's origin remote points
// at. PR/CI facts only resolve for a known host; an unknown host returns
// "absent" values, never an error (spec §3's pr_status row).
type Host string

const (
	HostGitHub  Host = "github"
	HostGitLab  Host = "gitlab"
	HostUnknown Host = "unknown"
)

const (
	ciSuccess   = "success"
	ciFailure   = "failure"
	ciPending   = "pending"
	ciSkipped   = "skipped"
	ciCancelled = "cancelled"
)

var hostPattern = regexp.MustCompile(`(?:git@|https?://|ssh://|git://)(?:[^@]+@)?([^/:]+)`)

// Codeforge is the narrow seam through which collectors reach `gh`/`glab`.
// It never touches the git binary itself (that's internal/vcsgit's job);
// it runs the host CLI directly, since PR/CI status is a collaborator
// concern outside the core VCS model.
type Codeforge struct {
	// runCmd executes name with args, returning combined stdout (stderr
	// discarded) and ignoring the exit code beyond "did it run at all" —
	// the CLIs under gh/glab use nonzero exit codes for normal conditions
	// (e.g. "no PR found"), not just GatewayError-style failures.
	runCmd func(ctx context.Context, name string, args ...string) (string, error)
}

// NewCodeforge constructs a Codeforge that shells out to the real `gh`/
// `glab` binaries.
func NewCodeforge() *Codeforge {
	return &Codeforge{runCmd: runCLI}
}

func runCLI(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", err
	}
	// #nosec G204 -- name is always "gh" or "glab", args are fixed flag literals plus vetted branch/PR identifiers
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return strings.TrimSpace(string(out)), err
}

// DetectHost classifies remoteURL (typically `git remote get-url origin`)
// as github, gitlab, or unknown.
func DetectHost(remoteURL string) Host {
	matches := hostPattern.FindStringSubmatch(remoteURL)
	if len(matches) < 2 {
		return HostUnknown
	}
	hostname := strings.ToLower(matches[1])
	switch {
	case strings.Contains(hostname, string(HostGitLab)):
		return HostGitLab
	case strings.Contains(hostname, string(HostGitHub)):
		return HostGitHub
	default:
		return HostUnknown
	}
}

// PRForWorktree looks up the pull/merge request attached to the branch
// checked out at worktreePath, returning (nil, nil) when the host is
// unknown or no PR exists.
func (c *Codeforge) PRForWorktree(ctx context.Context, host Host, worktreePath string) (*models.PRInfo, error) {
	switch host {
	case HostGitHub:
		return c.fetchGitHubPR(ctx, worktreePath)
	case HostGitLab:
		return c.fetchGitLabMR(ctx, worktreePath)
	default:
		return nil, nil
	}
}

func (c *Codeforge) fetchGitHubPR(ctx context.Context, dir string) (*models.PRInfo, error) {
	out, _ := c.runCmd(ctx, "gh", "-C", dir, "pr", "view",
		"--json", "number,state,title,url,headRefName,baseRefName,isDraft")
	if out == "" {
		return nil, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("codeforge: parse gh pr view: %w", err)
	}

	number, _ := raw["number"].(float64)
	state, _ := raw["state"].(string)
	title, _ := raw["title"].(string)
	url, _ := raw["url"].(string)
	head, _ := raw["headRefName"].(string)
	base, _ := raw["baseRefName"].(string)
	draft, _ := raw["isDraft"].(bool)

	return &models.PRInfo{
		Number:     int(number),
		State:      strings.ToUpper(state),
		Title:      title,
		URL:        url,
		Branch:     head,
		BaseBranch: base,
		IsDraft:    draft,
	}, nil
}

func (c *Codeforge) fetchGitLabMR(ctx context.Context, dir string) (*models.PRInfo, error) {
	out, _ := c.runCmd(ctx, "glab", "-R", dir, "mr", "view", "--output", "json")
	if out == "" {
		return nil, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("codeforge: parse glab mr view: %w", err)
	}

	iid, _ := raw["iid"].(float64)
	state, _ := raw["state"].(string)
	if strings.EqualFold(state, "opened") {
		state = "OPEN"
	} else {
		state = strings.ToUpper(state)
	}
	title, _ := raw["title"].(string)
	url, _ := raw["web_url"].(string)
	source, _ := raw["source_branch"].(string)
	target, _ := raw["target_branch"].(string)

	return &models.PRInfo{
		Number:     int(iid),
		State:      state,
		Title:      title,
		URL:        url,
		Branch:     source,
		BaseBranch: target,
	}, nil
}

// CIStatus resolves the overall CI conclusion for a branch with an open PR.
func (c *Codeforge) CIStatus(ctx context.Context, host Host, prNumber int, branch string) (string, error) {
	switch host {
	case HostGitHub:
		return c.fetchGitHubCI(ctx, prNumber)
	case HostGitLab:
		return c.fetchGitLabCI(ctx, branch)
	default:
		return "", nil
	}
}

func (c *Codeforge) fetchGitHubCI(ctx context.Context, prNumber int) (string, error) {
	out, _ := c.runCmd(ctx, "gh", "pr", "checks", fmt.Sprintf("%d", prNumber), "--json", "bucket")
	if out == "" {
		return "", nil
	}
	var checks []struct {
		Bucket string `json:"bucket"`
	}
	if err := json.Unmarshal([]byte(out), &checks); err != nil {
		return "", fmt.Errorf("codeforge: parse gh pr checks: %w", err)
	}
	return rollup(checks, func(c struct{ Bucket string }) string { return c.Bucket }, githubBucketToConclusion), nil
}

func (c *Codeforge) fetchGitLabCI(ctx context.Context, branch string) (string, error) {
	out, _ := c.runCmd(ctx, "glab", "ci", "status", "--branch", branch, "--output", "json")
	if out == "" {
		return "", nil
	}

	var pipeline struct {
		Jobs []struct {
			Status string `json:"status"`
		} `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(out), &pipeline); err == nil {
		return rollup(pipeline.Jobs, func(j struct{ Status string }) string { return j.Status }, gitlabStatusToConclusion), nil
	}

	var jobs []struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &jobs); err != nil {
		return "", fmt.Errorf("codeforge: parse glab ci status: %w", err)
	}
	return rollup(jobs, func(j struct{ Status string }) string { return j.Status }, gitlabStatusToConclusion), nil
}

func rollup[T any](items []T, status func(T) string, toConclusion func(string) string) string {
	if len(items) == 0 {
		return "none"
	}
	hasFailure, hasPending := false, false
	for _, item := range items {
		switch toConclusion(status(item)) {
		case ciFailure, ciCancelled:
			hasFailure = true
		case ciPending:
			hasPending = true
		}
	}
	switch {
	case hasFailure:
		return ciFailure
	case hasPending:
		return ciPending
	default:
		return ciSuccess
	}
}

func githubBucketToConclusion(bucket string) string {
	switch strings.ToLower(bucket) {
	case "pass":
		return ciSuccess
	case "fail":
		return ciFailure
	case "skipping":
		return ciSkipped
	case "cancel":
		return ciCancelled
	case "pending":
		return ciPending
	default:
		return bucket
	}
}

func gitlabStatusToConclusion(status string) string {
	switch strings.ToLower(status) {
	case "success", "passed":
		return ciSuccess
	case "failed":
		return ciFailure
	case "canceled", "cancelled":
		return ciCancelled
	case "skipped":
		return ciSkipped
	case "running", "pending", "created", "waiting_for_resource", "preparing":
		return ciPending
	default:
		return status
	}
}
