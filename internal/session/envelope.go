package session

import (
	"errors"
	"fmt"
	"strconv"
)

// UnknownCode is the envelope code used when a failure carries no status.
const UnknownCode = "UNKNOWN"

// User-facing messages recorded for each failing intent.
const (
	MsgFetchFailed     = "Failed to fetch leaflets. Please try again."
	MsgSaveFailed      = "Failed to save leaflet. Please try again."
	MsgTranslateFailed = "Failed to translate text. Please try again."
	MsgDownloadFailed  = "Failed to download leaflet. Please try again."
	MsgDeleteFailed    = "Failed to delete leaflet. Please try again."
)

// TranslationFailedText is what a display may show in place of a translation
// when Translate fails. The store itself never returns it.
const TranslationFailedText = "Error translating paragraph"

// Envelope is the normalized error record surfaced to the UI.
type Envelope struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Code    string `json:"code"`

	err error
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// detailer is implemented by transport errors that carry a server message.
type detailer interface {
	Detail() string
}

// NewEnvelope normalizes err into an envelope with the caller's message.
// Details prefer the server-provided message over err's own text; Code is the
// HTTP status when one is known.
func NewEnvelope(message string, err error) *Envelope {
	env := &Envelope{Message: message, Code: UnknownCode, err: err}
	if err == nil {
		env.Details = "unknown error"
		return env
	}
	env.Details = err.Error()

	var d detailer
	if errors.As(err, &d) && d.Detail() != "" {
		env.Details = d.Detail()
	}
	var sc statusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() > 0 {
		env.Code = strconv.Itoa(sc.HTTPStatus())
	}
	return env
}

func (e *Envelope) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Message, e.Code, e.Details)
}

func (e *Envelope) Unwrap() error {
	return e.err
}

func (e *Envelope) clone() *Envelope {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
