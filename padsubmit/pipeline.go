// Turns the drawing of the pad, or an uploaded image,
// into a request for the remote classification service,
// and delivers the outcome to the result renderer.
//
// Submissions never block the caller: each one runs as a Task,
// completed in its own goroutine. Every Task is tagged with
// an increasing sequence number and an outcome is only delivered
// if no more recent submission has been delivered before it,
// so that a slow response can't overwrite a newer one.
package padsubmit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benoitkugler/digitpad/padresult"
	"github.com/google/uuid"
)

// Exporter provides the current drawing. padraster.Surface implements it.
type Exporter interface {
	ExportDataURI() (string, error)
}

// Sink receives the outcomes. padresult.Renderer implements it.
type Sink interface {
	ShowResult(p padresult.Prediction)
	ShowError(message string)
}

// Task is a pending submission.
type Task struct {
	Seq uint64
	ID  string

	done      chan struct{}
	result    padresult.Prediction
	err       error
	delivered bool
}

// Done is closed once the task is completed and,
// if still current, rendered.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until completion and returns the outcome.
func (t *Task) Wait() (padresult.Prediction, error) {
	<-t.done
	return t.result, t.err
}

// Delivered returns true if the outcome reached the sink,
// false if it was superseded by a more recent submission.
// It is only meaningful after Done.
func (t *Task) Delivered() bool {
	<-t.done
	return t.delivered
}

// Pipeline sends submissions to a Classifier.
type Pipeline struct {
	surface    Exporter
	classifier Classifier
	sink       Sink
	log        *slog.Logger

	mu        sync.Mutex
	seq       uint64
	delivered uint64 // highest sequence number delivered to the sink
}

// NewPipeline wires a pipeline. If logger is nil, slog.Default() is used.
func NewPipeline(surface Exporter, classifier Classifier, sink Sink, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{surface: surface, classifier: classifier, sink: sink, log: logger}
}

func (p *Pipeline) newTask() *Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	return &Task{Seq: p.seq, ID: uuid.NewString(), done: make(chan struct{})}
}

// SubmitDrawing sends the current drawing as a PNG data URI.
func (p *Pipeline) SubmitDrawing(ctx context.Context) *Task {
	task := p.newTask()
	uri, err := p.surface.ExportDataURI()
	if err != nil {
		p.complete(task, padresult.Prediction{}, fmt.Errorf("exporting drawing: %w", err))
		return task
	}
	p.log.Debug("submitting drawing", "seq", task.Seq, "request_id", task.ID, "field", FieldImageData, "bytes", len(uri))
	go p.run(ctx, task, Request{ID: task.ID, DataURI: uri})
	return task
}

// SubmitFile uploads `f`. A nil or empty file fails immediately
// with ErrNoFileSelected, without any request.
func (p *Pipeline) SubmitFile(ctx context.Context, f *File) *Task {
	task := p.newTask()
	if f == nil || len(f.Content) == 0 {
		p.complete(task, padresult.Prediction{}, ErrNoFileSelected)
		return task
	}
	if !f.IsImage() {
		p.complete(task, padresult.Prediction{}, ErrNotAnImage)
		return task
	}
	p.log.Debug("submitting file", "seq", task.Seq, "request_id", task.ID, "field", FieldImageFile, "bytes", len(f.Content))
	go p.run(ctx, task, Request{ID: task.ID, File: f})
	return task
}

func (p *Pipeline) run(ctx context.Context, task *Task, req Request) {
	pred, err := p.classifier.Classify(ctx, req)
	p.complete(task, pred, err)
}

// complete records the outcome and renders it if no newer
// submission has been rendered.
func (p *Pipeline) complete(task *Task, pred padresult.Prediction, err error) {
	defer close(task.done)
	task.result, task.err = pred, err

	p.mu.Lock()
	defer p.mu.Unlock()
	if task.Seq < p.delivered {
		p.log.Info("dropping stale response", "seq", task.Seq, "request_id", task.ID, "current", p.delivered)
		return
	}
	p.delivered = task.Seq
	task.delivered = true

	if err != nil {
		var rejection *RejectionError
		if errors.As(err, &rejection) {
			p.log.Info("classification rejected", "seq", task.Seq, "request_id", task.ID, "err", err)
		} else {
			p.log.Warn("submission failed", "seq", task.Seq, "request_id", task.ID, "err", err)
		}
		p.sink.ShowError(err.Error())
		return
	}
	p.log.Info("classification received", "seq", task.Seq, "request_id", task.ID, "digit", pred.Digit)
	p.sink.ShowResult(pred)
}
