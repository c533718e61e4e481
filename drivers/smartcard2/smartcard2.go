// Package smartcard2 drives the Smart Card 2 click: a SIM/ICC slot behind a
// CCID-style controller reached over UART.
//
// Every exchange is one synchronous request/response. A command frame is
//
//	SYNC ACK type len(4, LE) slot seq spec[3] payload[len] xor
//
// where xor covers every byte before it. The controller answers with the
// same layout (ACK) or SYNC NACK, and may interleave short unsolicited
// events (slot change, hardware error) that start with their own type byte
// and carry no checksum.
package smartcard2

import (
	"encoding/binary"
	"time"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

// Framing bytes.
const (
	Sync = 0x03
	Ack  = 0x06
	Nack = 0x15
)

// Unsolicited events.
const (
	EventSlotChange    = 0x50 // 1 byte: bit0 present, bit1 changed
	EventHardwareError = 0x51 // 3 bytes: slot, seq, error code
)

// Message types (host to reader).
const (
	TypeSetParameters = 0x61
	TypeIccPowerOn    = 0x62
	TypeIccPowerOff   = 0x63
	TypeGetSlotStatus = 0x65
	TypeGetParameters = 0x6C
	TypeXfrBlock      = 0x6F
)

// Message types (reader to host).
const (
	TypeDataBlock  = 0x80
	TypeSlotStatus = 0x81
	TypeParameters = 0x82
)

const (
	// MaxPayload bounds the data of one message.
	MaxPayload = 261
	headerLen  = 10
	// MaxFrame is SYNC + ACK + header + payload + checksum.
	MaxFrame = 2 + headerLen + MaxPayload + 1
)

// Errors returned by the driver.
var (
	ErrNack = &errcode.E{C: errcode.Error, Op: "smartcard2.read", Msg: "nack"}
)

// Voltage is the bPowerSelect of an ICC power-on.
type Voltage uint8

const (
	VoltageAuto Voltage = iota
	Voltage5V
	Voltage3V
	Voltage1V8
)

// ICCStatus is bits 1:0 of the bStatus byte of a slot status.
type ICCStatus uint8

const (
	ICCPresentActive ICCStatus = iota
	ICCPresentInactive
	ICCNotPresent
)

// Message is one CCID message or event.
type Message struct {
	Type    byte
	Len     uint32
	Slot    byte
	Seq     byte
	Spec    [3]byte
	Payload [MaxPayload]byte
}

// Data returns the valid part of the payload.
func (m *Message) Data() []byte {
	n := m.Len
	if n > MaxPayload {
		n = MaxPayload
	}
	return m.Payload[:n]
}

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// ReadTimeout bounds the wait for each read step. Default 5000 ms.
	ReadTimeout time.Duration
	// PollInterval is the delay between receive checks. Default 1 ms.
	PollInterval time.Duration
	// Reset drives the controller reset line (active low) if connected.
	Reset pins.Output
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func DefaultConfig() Config {
	return Config{
		ReadTimeout:  5000 * time.Millisecond,
		PollInterval: time.Millisecond,
		Sleep:        time.Sleep,
	}
}

// Device is a Smart Card 2 click on a UART.
type Device struct {
	uart drivers.UART
	cfg  Config
	seq  byte

	frame [MaxFrame]byte
}

// New binds the driver to a configured UART (115200 8N1 by default).
func New(uart drivers.UART, cfg Config) *Device {
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Sleep == nil {
		cfg.Sleep = def.Sleep
	}
	cfg.Reset.High()
	return &Device{uart: uart, cfg: cfg}
}

// Reset pulses the controller reset line.
func (d *Device) Reset() {
	d.cfg.Reset.Low()
	d.cfg.Sleep(100 * time.Millisecond)
	d.cfg.Reset.High()
	d.cfg.Sleep(100 * time.Millisecond)
}

// Checksum XORs every byte of p.
func Checksum(p []byte) byte {
	var x byte
	for _, b := range p {
		x ^= b
	}
	return x
}

// BuildFrame encodes m into dst (at least MaxFrame bytes) and returns the
// frame. Payloads longer than MaxPayload are rejected.
func BuildFrame(dst []byte, m *Message) ([]byte, error) {
	if m.Len > MaxPayload {
		return nil, errcode.New(errcode.InvalidParams, "smartcard2.build", "payload too long")
	}
	n := int(m.Len)
	if len(dst) < 2+headerLen+n+1 {
		return nil, errcode.New(errcode.InvalidParams, "smartcard2.build", "buffer too small")
	}
	dst[0] = Sync
	dst[1] = Ack
	putHeader(dst[2:2+headerLen], m)
	copy(dst[2+headerLen:], m.Payload[:n])
	end := 2 + headerLen + n
	dst[end] = Checksum(dst[:end])
	return dst[:end+1], nil
}

func putHeader(h []byte, m *Message) {
	h[0] = m.Type
	binary.LittleEndian.PutUint32(h[1:5], m.Len)
	h[5] = m.Slot
	h[6] = m.Seq
	copy(h[7:10], m.Spec[:])
}

// SendCCID writes m as one frame.
func (d *Device) SendCCID(m *Message) error {
	f, err := BuildFrame(d.frame[:], m)
	if err != nil {
		return err
	}
	n, err := d.uart.Write(f)
	if err != nil {
		return errcode.Wrap(errcode.Error, "smartcard2.send", err)
	}
	if n != len(f) {
		return errcode.New(errcode.Error, "smartcard2.send", "short write")
	}
	return nil
}

// ReadCCID reads one response or event into m.
//
// It returns errcode.Timeout when no byte arrives within ReadTimeout,
// errcode.ReadError when a later part of the frame is missing, ErrNack
// for a rejected command and errcode.ChecksumError when the trailing XOR
// does not match.
func (d *Device) ReadCCID(m *Message) error {
	var b [1]byte
	if !d.read(b[:]) {
		return readErr(errcode.Timeout)
	}
	switch b[0] {
	case EventSlotChange:
		return d.readEvent(m, b[0], 1)
	case EventHardwareError:
		return d.readEvent(m, b[0], 3)
	case Sync:
	default:
		return errcode.New(errcode.ReadError, "smartcard2.read", "unexpected start byte")
	}

	sum := byte(Sync)
	if !d.read(b[:]) {
		return readErr(errcode.ReadError)
	}
	switch b[0] {
	case Ack:
	case Nack:
		return ErrNack
	default:
		return errcode.New(errcode.ReadError, "smartcard2.read", "missing ack")
	}
	sum ^= b[0]

	h := d.frame[:headerLen]
	if !d.read(h) {
		return readErr(errcode.ReadError)
	}
	sum ^= Checksum(h)
	m.Type = h[0]
	m.Len = binary.LittleEndian.Uint32(h[1:5])
	if m.Len > MaxPayload {
		m.Len = MaxPayload
	}
	m.Slot = h[5]
	m.Seq = h[6]
	copy(m.Spec[:], h[7:10])

	p := m.Payload[:m.Len]
	if !d.read(p) {
		return readErr(errcode.ReadError)
	}
	sum ^= Checksum(p)

	if !d.read(b[:]) {
		return readErr(errcode.ReadError)
	}
	if b[0] != sum {
		return readErr(errcode.ChecksumError)
	}
	return nil
}

func readErr(c errcode.Code) error {
	return &errcode.E{C: c, Op: "smartcard2.read"}
}

func (d *Device) readEvent(m *Message, typ byte, n int) error {
	*m = Message{Type: typ, Len: uint32(n)}
	if !d.read(m.Payload[:n]) {
		return readErr(errcode.ReadError)
	}
	if typ == EventHardwareError {
		m.Slot = m.Payload[0]
		m.Seq = m.Payload[1]
	}
	return nil
}

// read fills p, polling the UART. It reports false when a step exceeds
// ReadTimeout or the UART fails.
func (d *Device) read(p []byte) bool {
	budget := int(d.cfg.ReadTimeout / d.cfg.PollInterval)
	for off, idle := 0, 0; off < len(p); {
		if d.uart.Buffered() > 0 {
			n, err := d.uart.Read(p[off:])
			if err != nil {
				return false
			}
			if n > 0 {
				off += n
				idle = 0
				continue
			}
		}
		if idle >= budget {
			return false
		}
		idle++
		d.cfg.Sleep(d.cfg.PollInterval)
	}
	return true
}

func (d *Device) nextSeq() byte {
	s := d.seq
	d.seq++
	return s
}

func (d *Device) command(typ byte, spec [3]byte, data []byte) error {
	if len(data) > MaxPayload {
		return errcode.New(errcode.InvalidParams, "smartcard2.command", "payload too long")
	}
	m := Message{Type: typ, Len: uint32(len(data)), Seq: d.nextSeq(), Spec: spec}
	copy(m.Payload[:], data)
	return d.SendCCID(&m)
}

// IccPowerOn activates the card; the reply is a DataBlock carrying the ATR.
func (d *Device) IccPowerOn(v Voltage) error {
	return d.command(TypeIccPowerOn, [3]byte{byte(v), 0, 0}, nil)
}

// IccPowerOff deactivates the card.
func (d *Device) IccPowerOff() error {
	return d.command(TypeIccPowerOff, [3]byte{}, nil)
}

// GetSlotStatus asks for the slot state; the reply is a SlotStatus.
func (d *Device) GetSlotStatus() error {
	return d.command(TypeGetSlotStatus, [3]byte{}, nil)
}

// GetParameters asks for the protocol parameters of the active card.
func (d *Device) GetParameters() error {
	return d.command(TypeGetParameters, [3]byte{}, nil)
}

// XfrBlock sends an APDU to the card; the reply is a DataBlock.
func (d *Device) XfrBlock(apdu []byte) error {
	return d.command(TypeXfrBlock, [3]byte{}, apdu)
}

// Transceive sends a command built by one of the methods above and reads
// the next message that is not an unsolicited event.
func (d *Device) Transceive(send func() error, reply *Message) error {
	if err := send(); err != nil {
		return err
	}
	for {
		if err := d.ReadCCID(reply); err != nil {
			return err
		}
		if reply.Type != EventSlotChange && reply.Type != EventHardwareError {
			return nil
		}
	}
}

// CardPresent decodes a slot-change event. ok is false for other messages.
func CardPresent(m *Message) (present, ok bool) {
	if m.Type != EventSlotChange || m.Len < 1 {
		return false, false
	}
	return m.Payload[0]&0x01 != 0, true
}

// SlotICCStatus decodes the card state of a SlotStatus or DataBlock reply.
func SlotICCStatus(m *Message) ICCStatus {
	return ICCStatus(m.Spec[0] & 0x03)
}

// SlotError returns the bError byte of a reply; zero when the command
// succeeded.
func SlotError(m *Message) byte {
	if m.Spec[0]&0xC0 == 0 {
		return 0
	}
	return m.Spec[1]
}
