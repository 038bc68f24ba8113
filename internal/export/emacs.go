package export

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"roamexport/internal/apperr"
)

// stderrLimit caps how much converter diagnostic output is kept, counted
// from the end.
const stderrLimit = 10 * 1024

// waitDelay bounds how long Wait blocks on I/O after the process is killed.
const waitDelay = 2 * time.Second

// EmacsConfig configures the Emacs batch converter.
type EmacsConfig struct {
	Binary   string        // emacs executable, looked up on PATH
	InitFile string        // loaded with -l before exporting; must set up org-roam
	Backend  string        // org export backend symbol, e.g. "gfm"
	Feature  string        // feature providing the backend, e.g. "ox-gfm"; empty skips the require
	Timeout  time.Duration // per-node limit; zero means none
}

// DefaultEmacsConfig exports through ox-gfm with the user's init file.
func DefaultEmacsConfig() EmacsConfig {
	return EmacsConfig{
		Binary:   "emacs",
		InitFile: "~/.emacs.d/init.el",
		Backend:  "gfm",
		Feature:  "ox-gfm",
	}
}

// Emacs converts nodes by running Emacs in batch mode with org-roam loaded.
type Emacs struct {
	config EmacsConfig
}

// NewEmacs returns an Emacs converter.
func NewEmacs(config EmacsConfig) *Emacs {
	return &Emacs{config: config}
}

// Args returns the command line arguments for job, without the binary.
func (e *Emacs) Args(job Job) []string {
	var args []string
	args = append(args, "--batch")
	if e.config.InitFile != "" {
		args = append(args, "-l", e.config.InitFile)
	}
	return append(args, "--eval", e.evalForm(job))
}

func (e *Emacs) evalForm(job Job) string {
	subtree := "nil"
	if job.SubtreeOnly {
		subtree = "t"
	}

	var b strings.Builder
	b.WriteString("(progn\n")
	fmt.Fprintf(&b, "  (message \"Exporting %%s\" %s)\n", elispString(job.Title))
	if e.config.Feature != "" {
		fmt.Fprintf(&b, "  (require '%s)\n", e.config.Feature)
	}
	fmt.Fprintf(&b, "  (org-roam-node-open (org-roam-node-from-id %s))\n", elispString(job.NodeID))
	fmt.Fprintf(&b, "  (org-export-to-file '%s %s nil %s))", e.config.Backend, elispString(job.Target), subtree)
	return b.String()
}

// elispString quotes s as an elisp string literal.
func elispString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Convert runs Emacs for job and waits for it to exit.
func (e *Emacs) Convert(ctx context.Context, job Job) error {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.config.Binary, e.Args(job)...)
	// Children of a killed emacs may keep stderr open.
	cmd.WaitDelay = waitDelay

	// Emacs writes its batch messages to stderr; keep only the tail.
	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return &apperr.ConverterInvocationError{NodeID: job.NodeID, Title: job.Title, Err: err}
	}

	if err := cmd.Wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		diag := strings.TrimSpace(stderr.String())
		if ctxErr := ctx.Err(); ctxErr != nil {
			diag = strings.TrimSpace(diag + "\n" + ctxErr.Error())
		}
		return &apperr.ConverterFailureError{
			NodeID:   job.NodeID,
			Title:    job.Title,
			ExitCode: exitCode,
			Stderr:   diag,
		}
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it. Emacs prints its
// fatal error after everything init.el loaded, so the tail is what matters.
type tailBuffer struct {
	mu      sync.Mutex
	buf     []byte
	limit   int
	dropped int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(p) >= t.limit {
		t.dropped += len(t.buf) + len(p) - t.limit
		t.buf = append(t.buf[:0], p[len(p)-t.limit:]...)
		return len(p), nil
	}
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.dropped += over
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	// cmd.Stderr expects all bytes accepted
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dropped == 0 {
		return string(t.buf)
	}
	return fmt.Sprintf("[%d earlier bytes omitted]\n%s", t.dropped, t.buf)
}
