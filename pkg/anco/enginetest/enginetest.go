package enginetest

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Recorder keeps per-engine call statistics.
type Recorder struct {
	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	closed   atomic.Bool
}

func (r *Recorder) enter() {
	r.calls.Add(1)
	n := r.inFlight.Add(1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			return
		}
	}
}

func (r *Recorder) exit() { r.inFlight.Add(-1) }

// Calls returns the number of RequestConversion calls.
func (r *Recorder) Calls() int { return int(r.calls.Load()) }

// MaxInFlight returns the highest number of overlapping calls observed.
func (r *Recorder) MaxInFlight() int { return int(r.maxSeen.Load()) }

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool { return r.closed.Load() }

// Close marks the engine closed.
func (r *Recorder) Close() error {
	r.closed.Store(true)
	return nil
}

// writeTerminated copies src plus a NUL into output, truncated to
// len(output). It returns the number of bytes written.
func writeTerminated(output []byte, src string) int {
	n := copy(output, src)
	if n < len(output) {
		output[n] = 0
		n++
	}
	return n
}

// inputText returns the input up to its NUL terminator.
func inputText(input []byte) string {
	if i := bytes.IndexByte(input, 0); i >= 0 {
		return string(input[:i])
	}
	return string(input)
}

// Echo copies the input into the output.
type Echo struct {
	Recorder
}

func (e *Echo) RequestConversion(_ context.Context, input, output []byte) error {
	e.enter()
	defer e.exit()
	writeTerminated(output, inputText(input))
	return nil
}

// Table converts inputs found in Entries and echoes the rest.
type Table struct {
	Recorder
	Entries map[string]string
}

// Sample returns a Table with the conversions documented for the engine.
func Sample() *Table {
	return &Table{Entries: map[string]string{
		"にほんご": "日本語",
		"あずーきーのへんかんえんじんがうごいた": "Azooki(変換エンジン)が動いた",
	}}
}

func (t *Table) RequestConversion(_ context.Context, input, output []byte) error {
	t.enter()
	defer t.exit()
	text := inputText(input)
	if v, ok := t.Entries[text]; ok {
		text = v
	}
	writeTerminated(output, text)
	return nil
}

// Repeat writes the input Times times, which outgrows a BufferFactor of 2
// once Times exceeds it.
type Repeat struct {
	Recorder
	Times int
}

func (r *Repeat) RequestConversion(_ context.Context, input, output []byte) error {
	r.enter()
	defer r.exit()
	writeTerminated(output, strings.Repeat(inputText(input), r.Times))
	return nil
}

// GarbageTail writes a valid result and fills the rest with 0xFF.
type GarbageTail struct {
	Recorder
}

func (g *GarbageTail) RequestConversion(_ context.Context, input, output []byte) error {
	g.enter()
	defer g.exit()
	n := writeTerminated(output, inputText(input))
	for i := n; i < len(output); i++ {
		output[i] = 0xFF
	}
	return nil
}

// Overrun echoes and then writes Extra bytes past len(output), never past
// cap(output).
type Overrun struct {
	Recorder
	Extra int
}

func (o *Overrun) RequestConversion(_ context.Context, input, output []byte) error {
	o.enter()
	defer o.exit()
	writeTerminated(output, inputText(input))
	end := min(len(output)+o.Extra, cap(output))
	full := output[:end]
	for i := len(output); i < end; i++ {
		full[i] = '*'
	}
	return nil
}

// Blocking signals Entered and waits for Release before echoing. It ignores
// ctx, like a native call would.
type Blocking struct {
	Recorder
	Entered chan struct{}
	Release chan struct{}
	once    sync.Once
}

// NewBlocking returns a Blocking engine with fresh channels.
func NewBlocking() *Blocking {
	return &Blocking{
		Entered: make(chan struct{}, 1),
		Release: make(chan struct{}),
	}
}

func (b *Blocking) RequestConversion(_ context.Context, input, output []byte) error {
	b.enter()
	defer b.exit()
	select {
	case b.Entered <- struct{}{}:
	default:
	}
	<-b.Release
	writeTerminated(output, inputText(input))
	return nil
}

// Unblock releases every current and future call.
func (b *Blocking) Unblock() {
	b.once.Do(func() { close(b.Release) })
}

// Failing returns Err from every call.
type Failing struct {
	Recorder
	Err error
}

func (f *Failing) RequestConversion(context.Context, []byte, []byte) error {
	f.enter()
	defer f.exit()
	return f.Err
}
