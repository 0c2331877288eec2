package relay

import (
	"bytes"
	"errors"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		data []byte
		want byte
	}{
		{[]byte{0x01, 0x02, 0x03}, 0x00},
		{[]byte{0xFF, 0x00, 0xFF}, 0x00},
		{[]byte{0x12, 0x34, 0x56, 0x78}, 0x5C},
		{nil, 0x00},
	}
	for _, tt := range tests {
		if got := Checksum(tt.data); got != tt.want {
			t.Errorf("Checksum(% X) = 0x%02X, want 0x%02X", tt.data, got, tt.want)
		}
	}
}

func TestEncodeCommandMouseMoveAbs(t *testing.T) {
	data := []byte{0x00, 0x64, 0x00, 0xC8} // x=100, y=200
	frame := EncodeCommand(CmdMouseMoveAbs, data)

	if len(frame) != 8 { // type(1) + length(2) + data(4) + checksum(1)
		t.Fatalf("frame length = %d, want 8", len(frame))
	}
	if frame[0] != CmdMouseMoveAbs {
		t.Errorf("type byte = 0x%02X", frame[0])
	}
	if got := int(frame[1]) | int(frame[2])<<8; got != 4 {
		t.Errorf("length field = %d, want 4", got)
	}
	if !bytes.Equal(frame[3:7], data) {
		t.Errorf("payload = % X", frame[3:7])
	}
	if frame[7] != Checksum(frame[:7]) {
		t.Errorf("checksum = 0x%02X, want 0x%02X", frame[7], Checksum(frame[:7]))
	}
}

func TestEncodeCommandKeyboardText(t *testing.T) {
	frame := EncodeCommand(CmdKeyboardText, []byte("Hello"))

	if len(frame) != 9 { // type(1) + length(2) + data(5) + checksum(1)
		t.Fatalf("frame length = %d, want 9", len(frame))
	}
	if got := int(frame[1]) | int(frame[2])<<8; got != 5 {
		t.Errorf("length field = %d, want 5", got)
	}
	if frame[len(frame)-1] != Checksum(frame[:len(frame)-1]) {
		t.Error("checksum mismatch")
	}
}

func TestEventRoundTrip(t *testing.T) {
	ev := Event{
		Type:      EvtMouseMove,
		Data:      []byte{0x00, 0x64, 0x00, 0xC8},
		Timestamp: 12345,
	}
	frame := EncodeEvent(ev)

	if len(frame) != 12 { // type(1) + length(2) + data(4) + timestamp(4) + checksum(1)
		t.Fatalf("frame length = %d, want 12", len(frame))
	}

	got, err := ReadEvent(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != ev.Type {
		t.Errorf("type = 0x%02X, want 0x%02X", got.Type, ev.Type)
	}
	if !bytes.Equal(got.Data, ev.Data) {
		t.Errorf("data = % X, want % X", got.Data, ev.Data)
	}
	if got.Timestamp != ev.Timestamp {
		t.Errorf("timestamp = %d, want %d", got.Timestamp, ev.Timestamp)
	}
}

func TestEventEmptyPayload(t *testing.T) {
	ev := Event{Type: EvtStatusResponse, Timestamp: 1}
	got, err := ReadEvent(bytes.NewReader(EncodeEvent(ev)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Data) != 0 || got.Type != EvtStatusResponse || got.Timestamp != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestReadEventRejectsBadChecksum(t *testing.T) {
	frame := EncodeEvent(Event{Type: EvtKeyboardInput, Data: []byte{'a'}, Timestamp: 7})
	frame[len(frame)-1] ^= 0xFF

	if _, err := ReadEvent(bytes.NewReader(frame)); !errors.Is(err, ErrChecksum) {
		t.Errorf("want ErrChecksum, got %v", err)
	}
}

func TestReadEventRejectsOversizedLength(t *testing.T) {
	frame := []byte{EvtError, 0xFF, 0xFF} // length field 0xFFFF
	if _, err := ReadEvent(bytes.NewReader(frame)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("want ErrTooLarge, got %v", err)
	}
}
