// Package relay speaks the Arduino input-relay's serial framing: the
// host sends command frames, the firmware answers with event frames.
// Both directions are length-prefixed and guarded by an XOR checksum.
package relay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Command types understood by the firmware.
const (
	CmdMouseMoveAbs   byte = 0x01
	CmdMouseMoveRel   byte = 0x02
	CmdMouseClick     byte = 0x03
	CmdKeyboardText   byte = 0x04
	CmdKeyPress       byte = 0x05
	CmdDelay          byte = 0x06
	CmdStartRecording byte = 0x10
	CmdStopRecording  byte = 0x11
	CmdStatusQuery    byte = 0x20
	CmdError          byte = 0xFF
)

// Event types emitted by the firmware.
const (
	EvtMouseMove      byte = 0x01
	EvtMouseClick     byte = 0x02
	EvtKeyboardInput  byte = 0x03
	EvtStatusResponse byte = 0x20
	EvtError          byte = 0xFF
)

// maxPayload bounds the length field so a corrupt frame cannot force a
// huge allocation. The firmware's own buffers are 256 bytes.
const maxPayload = 512

var (
	ErrChecksum = errors.New("relay: frame checksum mismatch")
	ErrTooLarge = errors.New("relay: frame payload too large")
)

// Event is one decoded firmware frame. Timestamp is the firmware's
// millisecond clock at emission time.
type Event struct {
	Type      byte
	Data      []byte
	Timestamp uint32
}

// validEventType reports whether b is a frame type the firmware emits,
// used to realign the stream after a framing error.
func validEventType(b byte) bool {
	switch b {
	case EvtMouseMove, EvtMouseClick, EvtKeyboardInput, EvtStatusResponse, EvtError:
		return true
	}
	return false
}

// Checksum XORs all bytes together, matching the firmware.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// EncodeCommand frames a host -> firmware command:
// type(1) | length(2 LE) | data | checksum(1).
func EncodeCommand(cmd byte, data []byte) []byte {
	out := make([]byte, 0, 3+len(data)+1)
	out = append(out, cmd)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(data)))
	out = append(out, data...)
	out = append(out, Checksum(out))
	return out
}

// EncodeEvent frames a firmware -> host event:
// type(1) | length(2 LE) | data | timestamp(4 LE) | checksum(1).
// The length field counts only data, not the timestamp.
func EncodeEvent(ev Event) []byte {
	out := make([]byte, 0, 3+len(ev.Data)+4+1)
	out = append(out, ev.Type)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(ev.Data)))
	out = append(out, ev.Data...)
	out = binary.LittleEndian.AppendUint32(out, ev.Timestamp)
	out = append(out, Checksum(out))
	return out
}

// ReadEvent reads and verifies one event frame from r.
func ReadEvent(r io.Reader) (Event, error) {
	header := make([]byte, 3)
	if _, err := io.ReadFull(r, header); err != nil {
		return Event{}, err
	}

	length := binary.LittleEndian.Uint16(header[1:])
	if length > maxPayload {
		return Event{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, length)
	}

	rest := make([]byte, int(length)+5)
	if _, err := io.ReadFull(r, rest); err != nil {
		return Event{}, err
	}

	frame := append(header, rest...)
	body := frame[:len(frame)-1]
	if Checksum(body) != frame[len(frame)-1] {
		return Event{}, ErrChecksum
	}

	data := make([]byte, length)
	copy(data, frame[3:3+length])
	return Event{
		Type:      frame[0],
		Data:      data,
		Timestamp: binary.LittleEndian.Uint32(frame[3+length : 3+length+4]),
	}, nil
}
