package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	relayerr "github.com/tturner/simbridge/internal/errors"
)

func TestAppendUint16(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		value uint16
		want  []byte
	}{
		{"little endian", binary.LittleEndian, 0x0102, []byte{0x02, 0x01}},
		{"big endian", binary.BigEndian, 0x0102, []byte{0x01, 0x02}},
		{"DIS port 3000", binary.BigEndian, 3000, []byte{0x0B, 0xB8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendUint16(tt.order, nil, tt.value)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("AppendUint16() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		t.Run(order.String(), func(t *testing.T) {
			w := NewWriter(order, 32)
			w.PutUint8(0xAB)
			w.PutUint16(0x1234)
			w.PutUint32(0xDEADBEEF)
			w.PutUint64(0x0102030405060708)
			w.PutInt16(-2)
			w.PutInt32(-70000)
			w.PutFloat32(1.5)
			w.PutFloat64(-1234.25)
			w.PutBytes([]byte("ok"))

			r := NewReader(order, w.Bytes())
			if v, _ := r.Uint8(); v != 0xAB {
				t.Errorf("Uint8 = 0x%02X", v)
			}
			if v, _ := r.Uint16(); v != 0x1234 {
				t.Errorf("Uint16 = 0x%04X", v)
			}
			if v, _ := r.Uint32(); v != 0xDEADBEEF {
				t.Errorf("Uint32 = 0x%08X", v)
			}
			if v, _ := r.Uint64(); v != 0x0102030405060708 {
				t.Errorf("Uint64 = 0x%016X", v)
			}
			if v, _ := r.Int16(); v != -2 {
				t.Errorf("Int16 = %d", v)
			}
			if v, _ := r.Int32(); v != -70000 {
				t.Errorf("Int32 = %d", v)
			}
			if v, _ := r.Float32(); v != 1.5 {
				t.Errorf("Float32 = %v", v)
			}
			if v, _ := r.Float64(); v != -1234.25 {
				t.Errorf("Float64 = %v", v)
			}
			b, err := r.Bytes(2)
			if err != nil || string(b) != "ok" {
				t.Errorf("Bytes = %q, %v", b, err)
			}
			if r.Remaining() != 0 {
				t.Errorf("Remaining = %d, want 0", r.Remaining())
			}
		})
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader(binary.BigEndian, []byte{0x01, 0x02, 0x03})
	if _, err := r.Uint16(); err != nil {
		t.Fatalf("Uint16: %v", err)
	}
	_, err := r.Uint32()
	if !errors.Is(err, ErrTruncatedBuffer) {
		t.Fatalf("Uint32 error = %v, want ErrTruncatedBuffer", err)
	}
	if !errors.Is(err, relayerr.ErrCodec) {
		t.Error("truncation should classify as a codec error")
	}
	if r.Offset() != 2 {
		t.Errorf("failed read moved the cursor to %d", r.Offset())
	}
}

func TestReaderSub(t *testing.T) {
	r := NewReader(binary.BigEndian, []byte{1, 2, 3, 4, 5})
	sub, err := r.Sub(3)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if r.Offset() != 3 {
		t.Errorf("parent offset = %d, want 3", r.Offset())
	}
	if sub.Remaining() != 3 {
		t.Errorf("sub remaining = %d, want 3", sub.Remaining())
	}
	if _, err := sub.Uint32(); !errors.Is(err, ErrTruncatedBuffer) {
		t.Errorf("sub reader must not read past its bound, got %v", err)
	}
	if _, err := r.Sub(3); !errors.Is(err, ErrTruncatedBuffer) {
		t.Errorf("Sub past end error = %v", err)
	}
}

func TestWriterPutUintWidth(t *testing.T) {
	w := NewWriter(binary.BigEndian, 8)
	if err := w.PutUint(1, 0x1FF); !errors.Is(err, ErrInvalidField) {
		t.Errorf("PutUint(1, 0x1FF) error = %v, want ErrInvalidField", err)
	}
	if err := w.PutUint(3, 1); !errors.Is(err, ErrInvalidField) {
		t.Errorf("PutUint(3) error = %v, want ErrInvalidField", err)
	}
	if err := w.PutUint(2, 0xBEEF); err != nil {
		t.Fatalf("PutUint(2): %v", err)
	}
	r := NewReader(binary.BigEndian, w.Bytes())
	if v, err := r.Uint(2); err != nil || v != 0xBEEF {
		t.Errorf("Uint(2) = 0x%X, %v", v, err)
	}
}

func TestWriterPatch(t *testing.T) {
	w := NewWriter(binary.LittleEndian, 8)
	w.PutUint16(0)
	w.PutUint32(0)
	w.PatchUint16(0, 0x0A0B)
	w.PatchUint32(2, 0x01020304)
	want := []byte{0x0B, 0x0A, 0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("patched = %v, want %v", w.Bytes(), want)
	}
}
