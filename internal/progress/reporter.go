// Package progress reports long-running CLI work such as bulk reanalysis.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback while tickets are processed.
// Implementations are safe for concurrent Update calls.
type Reporter interface {
	Start(total int)
	Update(ticketID string, err error)
	Finish()
}

// NewReporter returns a TerminalReporter for interactive use, or a LineReporter
// if the CI environment variable is set.
func NewReporter(w io.Writer, description string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LineReporter{w: w, description: description}
	}
	return &TerminalReporter{w: w, description: description}
}

// TerminalReporter displays a progress bar.
type TerminalReporter struct {
	w           io.Writer
	description string

	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	failed int
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(r.description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(ticketID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		return
	}
	if err != nil {
		r.failed++
	}
	r.bar.Describe(fmt.Sprintf("%s (%d failed) %s", r.description, r.failed, ticketID))
	_ = r.bar.Add(1)
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LineReporter prints one line per ticket, suitable for CI logs.
type LineReporter struct {
	w           io.Writer
	description string

	mu      sync.Mutex
	total   int
	current int
}

func (r *LineReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(r.w, "%s: %d ticket(s)\n", r.description, total)
}

func (r *LineReporter) Update(ticketID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	if err != nil {
		fmt.Fprintf(r.w, "[%d/%d] %s failed: %v\n", r.current, r.total, ticketID, err)
		return
	}
	fmt.Fprintf(r.w, "[%d/%d] %s\n", r.current, r.total, ticketID)
}

func (r *LineReporter) Finish() {
	fmt.Fprintf(r.w, "%s: done\n", r.description)
}
