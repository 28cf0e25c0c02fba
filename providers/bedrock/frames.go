package bedrock

import (
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"

	"github.com/petal-labs/bedrockchat/core"
)

// Event-stream header names.
const (
	headerMessageType   = ":message-type"
	headerEventType     = ":event-type"
	headerContentType   = ":content-type"
	headerExceptionType = ":exception-type"
	headerErrorCode     = ":error-code"
	headerErrorMessage  = ":error-message"
)

// Message types carried in the :message-type header.
const (
	messageTypeEvent     = "event"
	messageTypeException = "exception"
	messageTypeError     = "error"
)

// Frame is one decoded event-stream message.
type Frame struct {
	MessageType   string
	EventType     string
	ContentType   string
	ExceptionType string
	ErrorMessage  string
	Payload       []byte
}

// FrameSource yields frames in arrival order. Next returns io.EOF after the
// last frame.
type FrameSource interface {
	Next() (Frame, error)
	Close() error
}

// FrameReader reads AWS event-stream frames from a response body.
// A FrameReader is single-pass and not safe for concurrent use.
type FrameReader struct {
	body    io.ReadCloser
	src     *countingReader
	decoder *eventstream.Decoder
}

// NewFrameReader wraps body. Closing the reader closes body.
func NewFrameReader(body io.ReadCloser) *FrameReader {
	return &FrameReader{
		body:    body,
		src:     &countingReader{r: body},
		decoder: eventstream.NewDecoder(),
	}
}

// countingReader tracks how many bytes have been read so a frame cut off
// mid-way can be told apart from a clean end of stream.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Next decodes the next frame. A clean end of stream yields io.EOF; a
// truncated frame, CRC mismatch, or read failure yields an error wrapping
// core.ErrStreamTransport.
func (r *FrameReader) Next() (Frame, error) {
	start := r.src.n
	msg, err := r.decoder.Decode(r.src, nil)
	if err != nil {
		if errors.Is(err, io.EOF) {
			if r.src.n == start {
				return Frame{}, io.EOF
			}
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("%w: %w", core.ErrStreamTransport, err)
	}

	f := Frame{Payload: msg.Payload}
	for _, h := range msg.Headers {
		switch h.Name {
		case headerMessageType:
			f.MessageType = h.Value.String()
		case headerEventType:
			f.EventType = h.Value.String()
		case headerContentType:
			f.ContentType = h.Value.String()
		case headerExceptionType, headerErrorCode:
			f.ExceptionType = h.Value.String()
		case headerErrorMessage:
			f.ErrorMessage = h.Value.String()
		}
	}
	return f, nil
}

// Close releases the underlying body.
func (r *FrameReader) Close() error {
	return r.body.Close()
}
