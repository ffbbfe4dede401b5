package padsubmit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/benoitkugler/digitpad/padresult"
	"golang.org/x/net/html/charset"
)

// Form fields of the outbound request. Exactly one is present.
const (
	FieldImageData = "image_data" // PNG drawing, as a data URI
	FieldImageFile = "image_file" // raw bytes of an uploaded file
)

// RequestIDHeader carries the identifier of a submission.
const RequestIDHeader = "X-Request-ID"

// maxResponseSize bounds the payload read from the service.
const maxResponseSize = 1 << 20

// Request is one classification request.
type Request struct {
	ID string // sent as RequestIDHeader

	// DataURI is set when submitting a drawing,
	// File when uploading a file.
	DataURI string
	File    *File
}

// Classifier sends a request to the classification service.
// The returned error is either a *TransportError or a *RejectionError.
type Classifier interface {
	Classify(ctx context.Context, req Request) (padresult.Prediction, error)
}

// HTTPClassifier posts multipart forms to a remote endpoint.
type HTTPClassifier struct {
	Endpoint string
	Client   *http.Client
	Mode     ErrorMode
	Log      *slog.Logger
}

var _ Classifier = (*HTTPClassifier)(nil) // assert interface conformance

// NewHTTPClassifier returns a classifier posting to `endpoint`.
// A zero `timeout` means the transport's own failure signaling is used.
func NewHTTPClassifier(endpoint string, timeout time.Duration, mode ErrorMode, logger *slog.Logger) *HTTPClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClassifier{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		Mode:     mode,
		Log:      logger,
	}
}

// response is the payload of the service
type response struct {
	Success       bool      `json:"success"`
	Digit         int       `json:"digit"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error"`
}

// encodeForm builds the multipart body of `req`
func encodeForm(req Request) (body *bytes.Buffer, contentType string, err error) {
	body = new(bytes.Buffer)
	w := multipart.NewWriter(body)
	switch {
	case req.File != nil:
		part, err := w.CreateFormFile(FieldImageFile, req.File.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(req.File.Content); err != nil {
			return nil, "", err
		}
	case req.DataURI != "":
		if err := w.WriteField(FieldImageData, req.DataURI); err != nil {
			return nil, "", err
		}
	default:
		return nil, "", ErrNoFileSelected
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

func (c *HTTPClassifier) Classify(ctx context.Context, req Request) (padresult.Prediction, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return padresult.Prediction{}, &TransportError{Err: fmt.Errorf("encoding form: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return padresult.Prediction{}, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if req.ID != "" {
		httpReq.Header.Set(RequestIDHeader, req.ID)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return padresult.Prediction{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	return c.decode(resp)
}

func (c *HTTPClassifier) decode(resp *http.Response) (padresult.Prediction, error) {
	// the service may not answer in UTF-8
	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxResponseSize), resp.Header.Get("Content-Type"))
	if err != nil {
		return padresult.Prediction{}, &TransportError{Err: fmt.Errorf("decoding response charset: %w", err)}
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return padresult.Prediction{}, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		if resp.StatusCode/100 != 2 {
			return padresult.Prediction{}, &TransportError{Err: fmt.Errorf("unexpected status %s", resp.Status)}
		}
		return padresult.Prediction{}, &TransportError{Err: fmt.Errorf("malformed response: %w", err)}
	}
	if err := checkResponse(c.Mode, payload, c.Log); err != nil {
		return padresult.Prediction{}, &TransportError{Err: err}
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return padresult.Prediction{}, &TransportError{Err: fmt.Errorf("malformed response: %w", err)}
	}
	if !out.Success {
		return padresult.Prediction{}, &RejectionError{Message: out.Error}
	}
	if len(out.Probabilities) != 10 || out.Digit < 0 || out.Digit > 9 {
		return padresult.Prediction{}, &TransportError{
			Err: fmt.Errorf("malformed response: digit %d with %d probabilities", out.Digit, len(out.Probabilities)),
		}
	}
	return padresult.Prediction{
		Digit:         out.Digit,
		Confidence:    out.Confidence,
		Probabilities: out.Probabilities,
	}, nil
}
