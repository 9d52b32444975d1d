package record

import (
	"bytes"
	"errors"
	"math"
	"testing"

	lserrors "github.com/litescope/litescope/core/errors"
)

func TestDecodeRecord_Types(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    []any
	}{
		{
			name:    "null int8 text",
			payload: []byte{0x04, 0x00, 0x01, 0x11, 0x17, 'h', 'i'},
			want:    []any{nil, int64(0x17), "hi"},
		},
		{
			name:    "int16 negative",
			payload: []byte{0x02, 0x02, 0xff, 0xfe},
			want:    []any{int64(-2)},
		},
		{
			name:    "int24 negative",
			payload: []byte{0x02, 0x03, 0xff, 0xff, 0xfe},
			want:    []any{int64(-2)},
		},
		{
			name:    "int32 negative",
			payload: []byte{0x02, 0x04, 0xff, 0xff, 0xff, 0xfe},
			want:    []any{int64(-2)},
		},
		{
			name:    "int48 negative",
			payload: []byte{0x02, 0x05, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe},
			want:    []any{int64(-2)},
		},
		{
			name:    "int64 negative",
			payload: []byte{0x02, 0x06, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe},
			want:    []any{int64(-2)},
		},
		{
			name:    "int24 positive",
			payload: []byte{0x02, 0x03, 0x01, 0x00, 0x00},
			want:    []any{int64(0x10000)},
		},
		{
			name:    "literal zero and one",
			payload: []byte{0x03, 0x08, 0x09},
			want:    []any{int64(0), int64(1)},
		},
		{
			name:    "empty text",
			payload: []byte{0x02, 0x0d},
			want:    []any{""},
		},
		{
			name:    "empty blob",
			payload: []byte{0x02, 0x0c},
			want:    []any{[]byte{}},
		},
		{
			name:    "blob",
			payload: []byte{0x02, 0x12, 0xde, 0xad, 0xbe},
			want:    []any{[]byte{0xde, 0xad, 0xbe}},
		},
		{
			name:    "reserved types consume nothing",
			payload: []byte{0x03, 0x0a, 0x01, 0x05},
			want:    []any{nil, int64(5)},
		},
		{
			name:    "empty record",
			payload: []byte{0x01},
			want:    []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRecord(tt.payload, 0)
			if err != nil {
				t.Fatalf("DecodeRecord() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if !valueEqual(got[i], tt.want[i]) {
					t.Errorf("value[%d] = %#v, want %#v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func valueEqual(got, want any) bool {
	if wb, ok := want.([]byte); ok {
		gb, ok := got.([]byte)
		return ok && bytes.Equal(gb, wb)
	}
	return got == want
}

func TestDecodeRecord_Float(t *testing.T) {
	payload := make([]byte, 10)
	payload[0] = 0x02
	payload[1] = 0x07
	bits := math.Float64bits(3.5)
	for i := 0; i < 8; i++ {
		payload[2+i] = byte(bits >> (56 - 8*i))
	}

	values, err := DecodeRecord(payload, 0)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("len = %d, want 1", len(values))
	}
	if f, ok := values[0].(float64); !ok || f != 3.5 {
		t.Errorf("value = %#v, want 3.5", values[0])
	}
}

func TestDecodeRecord_InvalidUTF8(t *testing.T) {
	// Serial type 17: two text bytes, the first not valid UTF-8.
	payload := []byte{0x02, 0x11, 0xff, 'a'}

	values, err := DecodeRecord(payload, 0)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	if got := values[0].(string); got != "�a" {
		t.Errorf("value = %q, want %q", got, "�a")
	}
}

// The data area begins at the declared header size even when the last
// serial-type varint runs past it.
func TestDecodeRecord_HeaderStraddle(t *testing.T) {
	payload := make([]byte, 62)
	payload[0] = 0x02 // header ends at offset 2
	payload[1] = 0x81 // first byte of a two-byte varint: type 133, 60-byte text
	payload[2] = 0x05
	for i := 3; i < 62; i++ {
		payload[i] = 'a'
	}

	values, err := DecodeRecord(payload, 0)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("len = %d, want 1", len(values))
	}

	got := values[0].(string)
	if len(got) != 60 {
		t.Fatalf("text length = %d, want 60", len(got))
	}
	if got[0] != 0x05 {
		t.Errorf("text[0] = %#x, want 0x05 (data area starts inside the straddling varint)", got[0])
	}
}

// A positive maxColumns stops header parsing early, so garbage serial
// types past the limit never reach the columns before it.
func TestDecodeRecord_MaxColumns(t *testing.T) {
	// Header: size 4, then types [1, 9, <huge blob type>]; the third
	// varint straddles into the data byte. Limited to 2 columns it is
	// never read at all.
	payload := []byte{0x04, 0x01, 0x09, 0xff, 0x2a}

	values, err := DecodeRecord(payload, 2)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	want := []any{int64(42), int64(1)}
	if len(values) != len(want) {
		t.Fatalf("len = %d, want %d", len(values), len(want))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("value[%d] = %v, want %v", i, values[i], want[i])
		}
	}

	// A limit larger than the column count changes nothing.
	values, err = DecodeRecord([]byte{0x02, 0x09}, 5)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	if len(values) != 1 || values[0] != int64(1) {
		t.Errorf("values = %v, want [1]", values)
	}
}

// Truncation inside the header or the data area shortens the row instead
// of failing it.
func TestDecodeRecord_PartialRows(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    []any
	}{
		{
			// Types [1, 1] but only one data byte: the second column
			// falls off.
			name:    "data area ends mid row",
			payload: []byte{0x03, 0x01, 0x01, 0x2a},
			want:    []any{int64(42)},
		},
		{
			// The third serial type declares a blob far larger than the
			// payload; the columns before it survive.
			name:    "oversized trailing column",
			payload: []byte{0x04, 0x01, 0x09, 0xff, 0x2a},
			want:    []any{int64(42), int64(1)},
		},
		{
			name:    "blob larger than payload",
			payload: []byte{0x02, 0x26, 0x01},
			want:    []any{},
		},
		{
			// Header size 5 equals the payload length and its final
			// varint never terminates, so no data area remains.
			name:    "serial type varint cut short",
			payload: []byte{0x05, 0x01, 0x09, 0x85, 0x85},
			want:    []any{},
		},
		{
			name:    "int64 data cut short",
			payload: []byte{0x02, 0x06, 0x01, 0x02},
			want:    []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRecord(tt.payload, 0)
			if err != nil {
				t.Fatalf("DecodeRecord() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if !valueEqual(got[i], tt.want[i]) {
					t.Errorf("value[%d] = %#v, want %#v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeRecord_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    error
	}{
		{"empty payload", nil, lserrors.ErrTruncated},
		{"header size exceeds payload", []byte{0x7f, 0x01}, lserrors.ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord(tt.payload, 0)
			if err == nil {
				t.Fatal("DecodeRecord() expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSerialTypeLen(t *testing.T) {
	tests := []struct {
		serialType uint64
		want       uint64
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 3},
		{4, 4},
		{5, 6},
		{6, 8},
		{7, 8},
		{8, 0},
		{9, 0},
		{10, 0},
		{11, 0},
		{12, 0},
		{13, 0},
		{14, 1},
		{15, 1},
		{20, 4},
		{21, 4},
		{0x10001, 32762},
	}

	for _, tt := range tests {
		if got := SerialTypeLen(tt.serialType); got != tt.want {
			t.Errorf("SerialTypeLen(%d) = %d, want %d", tt.serialType, got, tt.want)
		}
	}
}

func TestAsText(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"string", "users", "users"},
		{"blob decodes lossily", []byte{0xff, 'x'}, "�x"},
		{"nil", nil, ""},
		{"integer", int64(5), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AsText(tt.v); got != tt.want {
				t.Errorf("AsText(%#v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestAsInt(t *testing.T) {
	if got := AsInt(int64(42)); got != 42 {
		t.Errorf("AsInt(42) = %d", got)
	}
	if got := AsInt("42"); got != 0 {
		t.Errorf("AsInt(string) = %d, want 0", got)
	}
	if got := AsInt(nil); got != 0 {
		t.Errorf("AsInt(nil) = %d, want 0", got)
	}
}

func FuzzDecodeRecord(f *testing.F) {
	f.Add([]byte{0x04, 0x00, 0x01, 0x11, 0x17, 'h', 'i'})
	f.Add([]byte{0x01})
	f.Add([]byte{0x7f, 0x01})
	f.Add([]byte{0x02, 0x26, 0x01})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, payload []byte) {
		if limited, err := DecodeRecord(payload, 5); err == nil && len(limited) > 5 {
			t.Errorf("limited decode returned %d columns", len(limited))
		}

		values, err := DecodeRecord(payload, 0)
		if err != nil {
			return
		}
		// Every decoded value must be one of the advertised dynamic types.
		for i, v := range values {
			switch v.(type) {
			case nil, int64, float64, string, []byte:
			default:
				t.Errorf("value[%d] has unexpected type %T", i, v)
			}
		}
	})
}
