package transfer

import (
	"errors"
	"testing"
)

func TestClassifyFrame_UsesTransportFlagOnly(t *testing.T) {
	// a binary chunk that happens to hold valid meta JSON is still a chunk
	meta, err := EncodeMeta("a.txt", 3)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if f := ClassifyFrame(false, []byte(meta)); f.Kind != FrameChunk {
		t.Fatalf("kind = %s, want chunk", f.Kind)
	}
	if f := ClassifyFrame(true, []byte("garbage")); f.Kind != FrameControl {
		t.Fatalf("kind = %s, want control", f.Kind)
	}
}

func TestEncodeDecodeMeta(t *testing.T) {
	text, err := EncodeMeta("photo.jpg", 2048)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"type":"meta","filename":"photo.jpg","filesize":2048}`
	if text != want {
		t.Fatalf("meta = %s, want %s", text, want)
	}

	meta, err := DecodeControl([]byte(text))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if meta.Filename != "photo.jpg" || meta.Filesize != 2048 {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestDecodeControl_Rejects(t *testing.T) {
	for _, in := range []string{
		`not json`,
		`{"type":"hello","filename":"a","filesize":1}`,
		`{"type":"meta","filesize":1}`,
		`{"type":"meta","filename":"a","filesize":-5}`,
	} {
		if _, err := DecodeControl([]byte(in)); !errors.Is(err, ErrProtocolViolation) {
			t.Errorf("DecodeControl(%s) err = %v, want ErrProtocolViolation", in, err)
		}
	}
}
