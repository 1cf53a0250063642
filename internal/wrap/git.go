package wrap

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// GitBackend fetches [wrap-git] sources via the system git binary.
// Grounded on the teacher's consistent exec.CommandContext invocation
// style (e.g. internal/batch/batch.go's (*Scheduler).build).
type GitBackend struct {
	Timeout time.Duration
}

func (b *GitBackend) timeout() time.Duration {
	if b.Timeout > 0 {
		return b.Timeout
	}
	return 5 * time.Minute
}

func (b *GitBackend) EnsureSource(f *File, destDir string, mode Mode, onProgress func(Progress)) error {
	if mode == ModeCheckDirty {
		_, err := os.Stat(destDir)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout())
	defer cancel()

	if _, err := os.Stat(destDir); os.IsNotExist(err) {
		args := []string{"clone"}
		if f.Depth > 0 {
			args = append(args, "--depth", strconv.Itoa(f.Depth))
		}
		if f.CloneRecursive {
			args = append(args, "--recursive")
		}
		args = append(args, f.URL, destDir)
		if err := b.run(ctx, "", args...); err != nil {
			return fmt.Errorf("git clone: %w", err)
		}
	} else if mode == ModeUpdate {
		if !b.revisionReachable(ctx, destDir, f.Revision) {
			if err := b.run(ctx, destDir, "fetch", "origin", f.Revision); err != nil {
				return fmt.Errorf("git fetch: %w", err)
			}
		}
	}

	if f.Revision != "" {
		if err := b.run(ctx, destDir, "checkout", f.Revision); err != nil {
			return fmt.Errorf("git checkout: %w", err)
		}
	}
	if f.PushURL != "" {
		if err := b.run(ctx, destDir, "remote", "set-url", "--push", "origin", f.PushURL); err != nil {
			return fmt.Errorf("git remote set-url --push: %w", err)
		}
	}
	return nil
}

func (b *GitBackend) revisionReachable(ctx context.Context, dir, revision string) bool {
	if revision == "" {
		return true
	}
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "--quiet", revision+"^{commit}")
	cmd.Dir = dir
	return cmd.Run() == nil
}

func (b *GitBackend) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
