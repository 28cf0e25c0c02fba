package bedrock

import (
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"
)

// Event types that matter to the decoder.
const (
	eventTypeChunk         = "chunk"
	eventContentBlockDelta = "content_block_delta"
)

// Decoder turns model stream frames into text deltas.
// A Decoder is single-pass and not safe for concurrent use.
type Decoder struct {
	src       FrameSource
	log       logrus.FieldLogger
	requestID string
	done      bool
}

// NewDecoder creates a decoder over src. A nil logger uses the logrus
// standard logger.
func NewDecoder(src FrameSource, log logrus.FieldLogger) *Decoder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Decoder{src: src, log: log}
}

// Recv returns the next text delta. It returns io.EOF once the stream has
// ended normally. Exception frames end the stream with an error wrapping
// core.ErrStreamTransport, as do transport failures. Chunks that cannot be
// parsed are logged and skipped. Once Recv has returned an error every
// later call returns io.EOF.
func (d *Decoder) Recv() (string, error) {
	if d.done {
		return "", io.EOF
	}

	for {
		f, err := d.src.Next()
		if err != nil {
			d.done = true
			return "", err
		}

		switch f.MessageType {
		case messageTypeException:
			d.done = true
			return "", streamException(f.ExceptionType, f.Payload, d.requestID)
		case messageTypeError:
			d.done = true
			payload := f.Payload
			if f.ErrorMessage != "" {
				payload = []byte(f.ErrorMessage)
			}
			return "", streamException(f.ExceptionType, payload, d.requestID)
		}

		if f.EventType != eventTypeChunk {
			continue
		}

		text, ok := d.parseChunk(f.Payload)
		if ok {
			return text, nil
		}
	}
}

// parseChunk extracts delta text from a chunk payload. ok is false for
// chunks that carry no text.
func (d *Decoder) parseChunk(payload []byte) (string, bool) {
	var env chunkEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		d.log.WithError(err).Warn("Skipping malformed stream chunk envelope")
		return "", false
	}

	var ev streamEvent
	if err := json.Unmarshal(env.Bytes, &ev); err != nil {
		d.log.WithError(err).Warn("Skipping malformed stream chunk")
		return "", false
	}

	if ev.Type != eventContentBlockDelta || ev.Delta == nil || ev.Delta.Text == "" {
		return "", false
	}
	return ev.Delta.Text, true
}

// Close releases the frame source.
func (d *Decoder) Close() error {
	d.done = true
	return d.src.Close()
}
