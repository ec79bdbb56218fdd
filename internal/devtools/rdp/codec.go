// internal/devtools/rdp/codec.go

// Package rdp implements the devtools.Client interface over the Firefox
// remote-debugging protocol: length-prefixed JSON frames on a raw TCP
// stream, addressed to server-side actors instead of numbered commands.
package rdp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/json-iterator/go"
)

// errSkipFrame marks a frame with an unusable length prefix. The receive
// loop drops it and keeps reading; only real I/O errors end the loop.
var errSkipFrame = errors.New("rdp: skipping frame with bad length prefix")

// maxFrameHeader bounds the ASCII length prefix. Ten digits cover any
// frame the protocol will realistically carry.
const maxFrameHeader = 10

// maxFrameSize rejects absurd lengths before allocating for them.
const maxFrameSize = 64 << 20

// readFrame decodes one `<decimal-length>:<json-bytes>` frame. A
// non-numeric or non-positive length yields errSkipFrame.
func readFrame(r *bufio.Reader) (json.RawMessage, error) {
	var header []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == ':' {
			break
		}
		header = append(header, b)
		if len(header) > maxFrameHeader {
			return nil, errSkipFrame
		}
	}

	n, err := strconv.Atoi(string(header))
	if err != nil || n <= 0 || n > maxFrameSize {
		return nil, errSkipFrame
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// encodeFrame renders v as one wire frame. The caller serializes writes:
// the format is not self-delimiting per call, so two interleaved writers
// would corrupt the stream.
func encodeFrame(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(body)+maxFrameHeader+1)
	frame = strconv.AppendInt(frame, int64(len(body)), 10)
	frame = append(frame, ':')
	frame = append(frame, body...)
	return frame, nil
}

// writeFrame encodes v and writes it in a single call to w.
func writeFrame(w io.Writer, v any) error {
	frame, err := encodeFrame(v)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
