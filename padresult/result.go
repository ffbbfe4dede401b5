// Presents the outcome of a classification: either
// a prediction (digit, confidence and probability bars)
// or an error message which hides itself after a delay.
//
// The Renderer computes a toolkit independent Display,
// which is then painted by a View, such as
// TextView, HTMLView, ImageView or PDFView.
package padresult

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	// Placeholder is shown in place of the digit and
	// the confidence when there is no result.
	Placeholder = "-"

	// FailureMarker prefixes error messages.
	FailureMarker = "❌ "

	// DefaultErrorTimeout is the delay after which an error is hidden.
	DefaultErrorTimeout = 3 * time.Second
)

// Prediction is the answer of the classification service.
// Probabilities[i] is the probability of the digit i.
type Prediction struct {
	Digit         int
	Confidence    float64
	Probabilities []float64
}

// ErrorState is the error currently displayed.
type ErrorState struct {
	Message  string
	Deadline time.Time // after which the error is hidden
}

// Bar is a labeled proportional indicator.
type Bar struct {
	Digit int
	Width float64 // percentage, rounded to one decimal
	Label string  // Width, formatted
}

// Display is the full content of the result area.
// Exactly one of {result, error, empty} is shown:
// when Error is not nil, Headline and Confidence hold
// the Placeholder and Bars is empty.
type Display struct {
	Headline   string
	Confidence string
	Bars       []Bar
	Error      *ErrorState
}

// Empty returns true if nothing but placeholders is displayed.
func (d Display) Empty() bool {
	return d.Headline == Placeholder && len(d.Bars) == 0 && d.Error == nil
}

func emptyDisplay() Display {
	return Display{Headline: Placeholder, Confidence: Placeholder}
}

// View paints a Display. Each call fully replaces
// what was previously painted.
type View interface {
	Render(d Display) error
}

// FormatConfidence returns the confidence as a percentage
// with two decimals, like "93.20%".
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}

// BarsFor returns one bar per probability, in digit order.
func BarsFor(probabilities []float64) []Bar {
	bars := make([]Bar, len(probabilities))
	for i, p := range probabilities {
		w := math.Round(p*1000) / 10
		bars[i] = Bar{Digit: i, Width: w, Label: fmt.Sprintf("%.1f%%", w)}
	}
	return bars
}

// Renderer owns the result area. It is safe for concurrent use,
// since completions may be delivered from any goroutine.
type Renderer struct {
	mu sync.Mutex

	view    View
	clock   Clock
	timeout time.Duration
	log     *slog.Logger

	display Display
	hide    Timer
	gen     uint64 // incremented on every change, invalidates pending hide timers
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option { return func(r *Renderer) { r.clock = c } }

// WithErrorTimeout changes the auto hide delay.
func WithErrorTimeout(d time.Duration) Option { return func(r *Renderer) { r.timeout = d } }

// WithLogger sets the logger used to report view failures.
func WithLogger(l *slog.Logger) Option { return func(r *Renderer) { r.log = l } }

// NewRenderer returns a renderer painting on `view`,
// which is immediately rendered empty.
func NewRenderer(view View, opts ...Option) *Renderer {
	r := &Renderer{
		view:    view,
		clock:   systemClock{},
		timeout: DefaultErrorTimeout,
		log:     slog.Default(),
		display: emptyDisplay(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.paint()
	return r
}

// Display returns a copy of what is currently shown.
func (r *Renderer) Display() Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.display
	d.Bars = append([]Bar(nil), d.Bars...)
	if d.Error != nil {
		e := *d.Error
		d.Error = &e
	}
	return d
}

// ShowResult displays `p`, removing any error.
func (r *Renderer) ShowResult(p Prediction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
	r.display = Display{
		Headline:   fmt.Sprint(p.Digit),
		Confidence: FormatConfidence(p.Confidence),
		Bars:       BarsFor(p.Probabilities),
	}
	r.paint()
}

// ShowError clears the result fields and displays `message`
// until the error timeout elapses, or until superseded.
func (r *Renderer) ShowError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
	r.display = emptyDisplay()
	r.display.Error = &ErrorState{Message: message, Deadline: r.clock.Now().Add(r.timeout)}
	gen := r.gen
	r.hide = r.clock.AfterFunc(r.timeout, func() { r.expire(gen) })
	r.paint()
}

// Clear resets the result area to placeholders,
// removing any error immediately.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
	r.display = emptyDisplay()
	r.paint()
}

func (r *Renderer) expire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || r.display.Error == nil {
		return // superseded
	}
	r.display.Error = nil
	r.hide = nil
	r.paint()
}

// reset cancels the pending hide timer, if any
func (r *Renderer) reset() {
	r.gen++
	if r.hide != nil {
		r.hide.Stop()
		r.hide = nil
	}
}

func (r *Renderer) paint() {
	if r.view == nil {
		return
	}
	if err := r.view.Render(r.display); err != nil {
		r.log.Warn("rendering result failed", "err", err)
	}
}

// MultiView paints on several views, in order.
type MultiView []View

func (m MultiView) Render(d Display) error {
	for _, v := range m {
		if err := v.Render(d); err != nil {
			return err
		}
	}
	return nil
}
