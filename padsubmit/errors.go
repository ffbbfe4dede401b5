package padsubmit

import "errors"

var (
	// ErrNoFileSelected is returned when an upload is requested
	// without a file. No request is sent.
	ErrNoFileSelected = errors.New("please select an image first")

	// ErrNotAnImage is returned when the uploaded file
	// is not recognized as an image. No request is sent.
	ErrNotAnImage = errors.New("the selected file is not an image")
)

// TransportError is a failure to obtain a usable response:
// network error, unexpected status or malformed payload.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "request failed: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError is returned when the service answers
// with success=false. Message is the one provided by the service.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return "recognition failed"
	}
	return e.Message
}
