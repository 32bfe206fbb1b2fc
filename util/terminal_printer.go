package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gosuri/uilive"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is attached to an interactive terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalPrinter redraws a fixed set of status lines in place
type TerminalPrinter struct {
	mu              *sync.Mutex
	parallelOutputs []*ParallelOutput
	frequency       time.Duration
	doneCh          chan struct{}
	stopped         chan struct{}

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(out io.Writer, frequency time.Duration) *TerminalPrinter {
	writer := uilive.New()
	writer.Out = out
	return &TerminalPrinter{
		mu:              new(sync.Mutex),
		parallelOutputs: make([]*ParallelOutput, 0),
		frequency:       frequency,
		doneCh:          make(chan struct{}),
		stopped:         make(chan struct{}),

		writer:  writer,
		writers: make([]io.Writer, 0),
	}
}

// NewOutput adds a status line. The first line is written directly, every
// following one on its own uilive line.
func (t *TerminalPrinter) NewOutput() *ParallelOutput {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := NewParallelOutput()
	if len(t.parallelOutputs) == 0 {
		t.writers = append(t.writers, t.writer)
	} else {
		t.writers = append(t.writers, t.writer.Newline())
	}
	t.parallelOutputs = append(t.parallelOutputs, out)
	return out
}

func (p *TerminalPrinter) Start(ctx context.Context) {
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(p.frequency)
		defer ticker.Stop()
		for {
			select {
			case <-p.doneCh:
				p.print()
				return
			case <-ctx.Done():
				p.print()
				return
			case <-ticker.C:
				p.print()
			}
		}
	}()
}

// Stop prints the final state and waits for the printer to exit
func (p *TerminalPrinter) Stop() {
	close(p.doneCh)
	<-p.stopped
}

func (p *TerminalPrinter) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, output := range p.parallelOutputs {
		fmt.Fprintln(p.writers[i], output.Get())
	}
	p.writer.Flush()
}

// ParallelOutput is a status line updated by one producer
type ParallelOutput struct {
	mu        *sync.Mutex
	printable string
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{
		mu:        new(sync.Mutex),
		printable: "",
	}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// Try to set the output string (non-blocking)
func (p *ParallelOutput) TrySet(s string) bool {
	success := p.mu.TryLock()
	if success {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
