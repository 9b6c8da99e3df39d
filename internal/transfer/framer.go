package transfer

import (
	"encoding/json"
	"fmt"
)

// ChunkSize is the largest payload carried by a single chunk frame.
const ChunkSize = 16 * 1024

const controlTypeMeta = "meta"

// FrameKind is decided by the transport frame type alone: text frames are
// control frames, binary frames are chunks.
type FrameKind int

const (
	FrameControl FrameKind = iota
	FrameChunk
)

func (k FrameKind) String() string {
	switch k {
	case FrameControl:
		return "control"
	case FrameChunk:
		return "chunk"
	default:
		return fmt.Sprintf("FrameKind(%d)", int(k))
	}
}

// Frame is a single data-channel message.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// ClassifyFrame wraps a received message. isText is the transport's own
// text/binary flag; the payload is never inspected to decide the kind.
func ClassifyFrame(isText bool, data []byte) Frame {
	if isText {
		return Frame{Kind: FrameControl, Data: data}
	}
	return Frame{Kind: FrameChunk, Data: data}
}

// Metadata announces a transfer. Exactly one is sent before any chunk.
type Metadata struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
}

// EncodeMeta returns the text of the metadata control frame.
func EncodeMeta(filename string, size int64) (string, error) {
	data, err := json.Marshal(Metadata{Type: controlTypeMeta, Filename: filename, Filesize: size})
	if err != nil {
		return "", NewError("encode metadata", err)
	}
	return string(data), nil
}

// DecodeControl parses a control frame. Anything other than a well-formed
// meta frame is a protocol violation.
func DecodeControl(data []byte) (Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, WrapError("decode control", ErrProtocolViolation, err.Error())
	}

	switch {
	case meta.Type != controlTypeMeta:
		return Metadata{}, WrapError("decode control", ErrProtocolViolation, fmt.Sprintf("unknown control type %q", meta.Type))
	case meta.Filename == "":
		return Metadata{}, WrapError("decode control", ErrProtocolViolation, "missing filename")
	case meta.Filesize < 0:
		return Metadata{}, WrapError("decode control", ErrProtocolViolation, "negative filesize")
	}
	return meta, nil
}
