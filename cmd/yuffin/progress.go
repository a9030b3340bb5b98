package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress is a byte-counting progress bar on stderr. It is a no-op when
// disabled or when stderr is not a terminal.
type Progress struct {
	container   *mpb.Progress
	bar         *mpb.Bar
	description atomic.Pointer[string]
}

var descLength = 24

// NewProgress creates a progress bar expecting total bytes. A total of
// zero grows with the bytes added.
func NewProgress(total int64, enabled bool) *Progress {
	p := &Progress{}
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return p
	}

	fmt.Fprintln(os.Stderr)
	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(total,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				desc := p.description.Load()
				if desc == nil {
					return ""
				}
				if len(*desc) > descLength {
					return ".." + (*desc)[len(*desc)-descLength+2:]
				}
				return *desc
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersKibiByte("% .1f / % .1f", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
	return p
}

// Add advances the bar by n bytes and shows description.
func (p *Progress) Add(n int64, description string) {
	if p.bar == nil {
		return
	}
	p.description.Store(&description)
	p.bar.IncrInt64(n)
}

// Finish completes the bar and shuts down the container.
func (p *Progress) Finish() {
	if p.container == nil {
		return
	}
	p.bar.SetTotal(-1, true)
	p.container.Wait()
	fmt.Fprintln(os.Stderr)
}
