package relay

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// Relay is an open serial connection to the Arduino input relay. Events
// from the firmware are decoded on a background goroutine and surfaced
// on Events; commands are written synchronously.
type Relay struct {
	port   io.ReadWriteCloser
	events chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

// Open connects to the relay on the named serial port.
func Open(portName string, baud int) (*Relay, error) {
	if baud <= 0 {
		baud = 115200
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening relay port %q: %w", portName, err)
	}
	r := newRelay(port)
	log.Info().Str("port", portName).Int("baud", baud).Msg("relay connected")
	return r, nil
}

// newRelay wires a Relay over any stream, so tests can use an in-memory
// pipe instead of real hardware.
func newRelay(port io.ReadWriteCloser) *Relay {
	r := &Relay{
		port:   port,
		events: make(chan Event, 64),
		closed: make(chan struct{}),
	}
	go r.readLoop()
	return r
}

// Events returns the stream of decoded firmware events. The channel is
// closed when the relay is closed or the port fails.
func (r *Relay) Events() <-chan Event {
	return r.events
}

// Send writes one command frame.
func (r *Relay) Send(cmd byte, data []byte) error {
	if _, err := r.port.Write(EncodeCommand(cmd, data)); err != nil {
		return fmt.Errorf("writing relay command 0x%02X: %w", cmd, err)
	}
	return nil
}

// SendText asks the firmware to type the given text.
func (r *Relay) SendText(text string) error {
	return r.Send(CmdKeyboardText, []byte(text))
}

// SendDelay asks the firmware to pause between queued actions.
func (r *Relay) SendDelay(ms uint16) error {
	var data [2]byte
	binary.LittleEndian.PutUint16(data[:], ms)
	return r.Send(CmdDelay, data[:])
}

// SendKeyPress asks the firmware to press and release a key combination.
// The payload is the modifier mask followed by the VK code; the firmware
// does its own VK to HID translation.
func (r *Relay) SendKeyPress(mods, key byte) error {
	return r.Send(CmdKeyPress, []byte{mods, key})
}

// Close shuts the port down and ends the event stream. Idempotent.
func (r *Relay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closed)
		err = r.port.Close()
	})
	return err
}

func (r *Relay) readLoop() {
	defer close(r.events)
	br := bufio.NewReader(r.port)
	for {
		ev, err := ReadEvent(br)
		if err != nil {
			select {
			case <-r.closed:
				return
			default:
			}
			if errors.Is(err, ErrChecksum) || errors.Is(err, ErrTooLarge) {
				log.Warn().Err(err).Msg("dropping corrupt relay frame")
				if err := resync(br); err != nil {
					log.Warn().Err(err).Msg("relay read loop ending")
					return
				}
				continue
			}
			// Read errors on a serial port are terminal.
			log.Warn().Err(err).Msg("relay read loop ending")
			return
		}

		select {
		case r.events <- ev:
		default:
			log.Warn().Uint8("type", ev.Type).Msg("relay event dropped, consumer too slow")
		}
	}
}

// resync realigns the stream after a corrupt frame. A bad length byte
// leaves the reader at an arbitrary position, so bytes are discarded
// until one looks like the start of the next frame. A frame that was
// well framed but failed its checksum leaves the reader aligned
// already, in which case nothing is discarded.
func resync(br *bufio.Reader) error {
	skipped := 0
	for {
		b, err := br.Peek(1)
		if err != nil {
			return err
		}
		if validEventType(b[0]) {
			if skipped > 0 {
				log.Debug().Int("skipped", skipped).Msg("relay stream realigned")
			}
			return nil
		}
		if _, err := br.Discard(1); err != nil {
			return err
		}
		skipped++
	}
}
