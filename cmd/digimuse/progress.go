// ABOUTME: Terminal progress bar for long running commands
// ABOUTME: Wraps mpb and disables itself when stderr is not a terminal
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

const descLength = 20

// progress is a single mpb bar with a dynamic description
type progress struct {
	container   *mpb.Progress
	bar         *mpb.Bar
	description string
}

// newProgress creates a bar counting to total. It is a no-op when disabled
// or when stderr is not a terminal.
func newProgress(total int, enabled bool) *progress {
	p := &progress{}
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return p
	}

	fmt.Fprintln(os.Stderr)
	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				if len(p.description) > descLength {
					return p.description[:descLength-2] + ".."
				}
				return p.description
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	return p
}

// update moves the bar to current and shows description
func (p *progress) update(current int, description string) {
	if p.bar == nil {
		return
	}
	p.description = description
	p.bar.SetCurrent(int64(current))
}

// finish waits for the bar to render its final state
func (p *progress) finish() {
	if p.container == nil {
		return
	}
	p.container.Wait()
	fmt.Fprintln(os.Stderr)
}
