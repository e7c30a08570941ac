package oracle

import "errors"

var (
	// ErrConfiguration indicates the classifier cannot run at all, such as
	// a missing or rejected API key. It is fatal to a run.
	ErrConfiguration = errors.New("oracle not configured")
	// ErrDecode indicates the model output did not match the identity schema.
	ErrDecode = errors.New("oracle output could not be decoded")
	// ErrRemote indicates a failed classification request.
	ErrRemote = errors.New("oracle request failed")
	// ErrInvalidPDF indicates the payload could not be read as a PDF.
	ErrInvalidPDF = errors.New("invalid pdf")
	// ErrNoText indicates the PDF holds no extractable text.
	ErrNoText = errors.New("pdf contains no text")
)
