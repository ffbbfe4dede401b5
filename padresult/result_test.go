package padresult

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			t.f()
		}
	}
}

type recordView struct{ displays []Display }

func (r *recordView) Render(d Display) error {
	r.displays = append(r.displays, d)
	return nil
}

func (r *recordView) last() Display { return r.displays[len(r.displays)-1] }

var sample = Prediction{
	Digit:         7,
	Confidence:    0.932,
	Probabilities: []float64{0.01, 0, 0, 0, 0, 0, 0, 0.932, 0.02, 0.038},
}

func TestShowResult(t *testing.T) {
	view := &recordView{}
	r := NewRenderer(view, WithClock(newFakeClock()))
	require.Len(t, view.displays, 1)
	assert.True(t, view.last().Empty())

	r.ShowResult(sample)
	d := view.last()
	assert.Equal(t, "7", d.Headline)
	assert.Equal(t, "93.20%", d.Confidence)
	require.Len(t, d.Bars, 10)
	assert.Equal(t, 93.2, d.Bars[7].Width)
	assert.Equal(t, "93.2%", d.Bars[7].Label)
	assert.Equal(t, "1.0%", d.Bars[0].Label)
	assert.Equal(t, "3.8%", d.Bars[9].Label)
	for i, b := range d.Bars {
		assert.Equal(t, i, b.Digit)
	}
	assert.Nil(t, d.Error)
}

func TestBarsRounding(t *testing.T) {
	probs := []float64{0.12345, 0.00049, 0.9996, 0.5, 0.25, 0.125, 0.0625, 0.03125, 0.015625, 0.0078125}
	bars := BarsFor(probs)
	require.Len(t, bars, 10)
	expected := []float64{12.3, 0, 100, 50, 25, 12.5, 6.3, 3.1, 1.6, 0.8}
	for i := range bars {
		assert.InDelta(t, expected[i], bars[i].Width, 1e-9, "bar %d", i)
	}
	assert.Equal(t, "100.0%", bars[2].Label)
	assert.Equal(t, "0.0%", bars[1].Label)
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "93.20%", FormatConfidence(0.932))
	assert.Equal(t, "100.00%", FormatConfidence(1))
	assert.Equal(t, "0.00%", FormatConfidence(0))
	assert.Equal(t, "12.35%", FormatConfidence(0.12351))
}

func TestErrorSupersedesResult(t *testing.T) {
	view := &recordView{}
	r := NewRenderer(view, WithClock(newFakeClock()))
	r.ShowResult(sample)
	r.ShowError("model unavailable")

	d := r.Display()
	require.NotNil(t, d.Error)
	assert.Equal(t, "model unavailable", d.Error.Message)
	assert.Equal(t, Placeholder, d.Headline)
	assert.Equal(t, Placeholder, d.Confidence)
	assert.Empty(t, d.Bars)
}

func TestResultSupersedesError(t *testing.T) {
	clock := newFakeClock()
	view := &recordView{}
	r := NewRenderer(view, WithClock(clock))
	r.ShowError("boom")
	r.ShowResult(sample)
	assert.Nil(t, r.Display().Error)

	// the pending hide must not touch the result
	n := len(view.displays)
	clock.Advance(5 * time.Second)
	assert.Len(t, view.displays, n)
	assert.Equal(t, "7", r.Display().Headline)
}

func TestErrorAutoHide(t *testing.T) {
	clock := newFakeClock()
	view := &recordView{}
	r := NewRenderer(view, WithClock(clock))

	start := clock.Now()
	r.ShowError("please select an image first")
	d := r.Display()
	require.NotNil(t, d.Error)
	assert.Equal(t, start.Add(3*time.Second), d.Error.Deadline)

	clock.Advance(2999 * time.Millisecond)
	assert.NotNil(t, r.Display().Error, "still visible before the deadline")

	clock.Advance(time.Millisecond)
	assert.Nil(t, r.Display().Error, "hidden at the deadline")
	assert.True(t, view.last().Empty())
}

func TestNewErrorResetsTimer(t *testing.T) {
	clock := newFakeClock()
	r := NewRenderer(nil, WithClock(clock), WithErrorTimeout(time.Second))

	r.ShowError("first")
	clock.Advance(800 * time.Millisecond)
	r.ShowError("second")
	clock.Advance(800 * time.Millisecond)

	d := r.Display()
	require.NotNil(t, d.Error, "the first timer must not hide the second error")
	assert.Equal(t, "second", d.Error.Message)

	clock.Advance(200 * time.Millisecond)
	assert.Nil(t, r.Display().Error)
}

func TestClear(t *testing.T) {
	clock := newFakeClock()
	view := &recordView{}
	r := NewRenderer(view, WithClock(clock))

	r.ShowResult(sample)
	r.Clear()
	assert.True(t, r.Display().Empty())

	r.ShowError("boom")
	r.Clear()
	assert.True(t, r.Display().Empty(), "errors are removed immediately")
	n := len(view.displays)
	clock.Advance(time.Minute)
	assert.Len(t, view.displays, n)
}

func TestDisplayIsACopy(t *testing.T) {
	r := NewRenderer(nil, WithClock(newFakeClock()))
	r.ShowResult(sample)
	d := r.Display()
	d.Bars[0].Width = 42
	assert.Equal(t, 1.0, r.Display().Bars[0].Width)
}

type failingView struct{}

func (failingView) Render(Display) error { return errors.New("broken view") }

func TestMultiView(t *testing.T) {
	a, b := &recordView{}, &recordView{}
	m := MultiView{a, b}
	require.NoError(t, m.Render(emptyDisplay()))
	assert.Len(t, a.displays, 1)
	assert.Len(t, b.displays, 1)

	c := &recordView{}
	assert.Error(t, MultiView{failingView{}, c}.Render(emptyDisplay()))
	assert.Empty(t, c.displays)

	// view failures are logged, not fatal
	r := NewRenderer(failingView{}, WithClock(newFakeClock()))
	r.ShowResult(sample)
	assert.Equal(t, "7", r.Display().Headline)
}
