// Package ble2 drives the BLE 2 click, an RN4020 Bluetooth Low Energy module
// controlled with ASCII commands over UART.
//
// Commands are written as "<cmd>[,<param>...]\r\n". Settings are acknowledged
// with "AOK" or rejected with "ERR"; queries answer with a single value line.
// Link activity is reported asynchronously with lines such as "Connected",
// "Connection End" and "WV,<handle>,<hex>." for a peer write.
package ble2

import (
	"bytes"
	"time"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"
	"clickcode-go/x/conv"

	"tinygo.org/x/drivers"
)

// Commands.
const (
	CmdFactoryReset = "SF"
	CmdSetName      = "SN"
	CmdSetServices  = "SS"
	CmdSetFeatures  = "SR"
	CmdReboot       = "R"
	CmdAdvertise    = "A"
	CmdStopAdvert   = "Y"
	CmdDisconnect   = "K"
	CmdVersion      = "V"
	CmdGetName      = "GN"
	CmdWriteHandle  = "SHW"
	CmdReadHandle   = "SHR"
)

// Service bits for SS.
const (
	ServiceDeviceInfo uint32 = 0x80000000
	ServiceBattery    uint32 = 0x40000000
	ServicePrivate    uint32 = 0x00000001
)

// Feature bits for SR.
const (
	FeatureCentral       uint32 = 0x80000000
	FeatureAutoAdvertise uint32 = 0x20000000
	FeatureMLDP          uint32 = 0x10000000
	FeatureNoDirectAdv   uint32 = 0x00040000
)

const (
	lineSize = 128
	respSize = 512
	queueLen = 4

	// MaxName is the longest device name the module stores.
	MaxName = 20
	// MaxValue is the largest characteristic value in one write.
	MaxValue = 20
)

// EventKind tags an asynchronous notification.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventConnected
	EventDisconnected
	EventWrite
)

// Event is one parsed notification. Value holds the bytes of a peer write.
type Event struct {
	Kind   EventKind
	Handle uint16
	Value  [MaxValue]byte
	Len    int
}

func (e *Event) Data() []byte { return e.Value[:e.Len] }

type Config struct {
	ReadTimeout  time.Duration
	PollInterval time.Duration
	// Wake is WAKE_SW, held high while the module is in use.
	Wake pins.Output
	// Data is CMD/MLDP: low selects command mode, high MLDP data mode.
	Data  pins.Output
	Sleep func(time.Duration)
}

func DefaultConfig() Config {
	return Config{
		ReadTimeout:  2 * time.Second,
		PollInterval: time.Millisecond,
		Sleep:        time.Sleep,
	}
}

type Device struct {
	uart drivers.UART
	cfg  Config

	// events seen while waiting for a command reply.
	queue [queueLen]Event
	head  int
	count int

	cmd  [lineSize]byte
	line [lineSize]byte
	resp [respSize]byte
	b    [1]byte
}

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
	cfg.Data.Low()
	cfg.Wake.High()
	return &Device{uart: uart, cfg: cfg}
}

// SetDataMode switches the CMD/MLDP line. In data mode UART bytes are
// passed to the peer instead of being parsed as commands.
func (d *Device) SetDataMode(on bool) { d.cfg.Data.Set(on) }

// SendCmd writes one command line. params are joined with ','.
func (d *Device) SendCmd(cmd string, params ...string) error {
	n := len(cmd) + 2
	for _, p := range params {
		n += len(p) + 1
	}
	if n > lineSize {
		return errcode.New(errcode.InvalidParams, "ble2.send_cmd", "command too long")
	}
	b := append(d.cmd[:0], cmd...)
	for _, p := range params {
		b = append(b, ',')
		b = append(b, p...)
	}
	b = append(b, '\r', '\n')
	_, err := d.uart.Write(b)
	return err
}

// ReadResponse collects lines until AOK or ERR. Notifications arriving in
// between are queued for ReadEvent. The returned slice is reused.
func (d *Device) ReadResponse() ([]byte, error) {
	n := 0
	for {
		line, err := d.readLine()
		if err != nil {
			return d.resp[:n], err
		}
		switch string(line) {
		case "AOK":
			return d.resp[:n], nil
		case "ERR":
			return d.resp[:n], errcode.New(errcode.Error, "ble2.read_response", "ERR")
		case "":
			continue
		}
		if d.queueEvent(line) {
			continue
		}
		if n > 0 && n < respSize {
			d.resp[n] = '\n'
			n++
		}
		n += copy(d.resp[n:], line)
	}
}

// Exec sends a setting command and waits for AOK.
func (d *Device) Exec(cmd string, params ...string) error {
	if err := d.SendCmd(cmd, params...); err != nil {
		return err
	}
	_, err := d.ReadResponse()
	return err
}

// Query sends a command answered by one value line, returned without CRLF.
func (d *Device) Query(cmd string, params ...string) ([]byte, error) {
	if err := d.SendCmd(cmd, params...); err != nil {
		return nil, err
	}
	for {
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}
		switch {
		case len(line) == 0:
		case string(line) == "ERR":
			return nil, errcode.New(errcode.Error, "ble2.query", "ERR")
		case !d.queueEvent(line):
			return line, nil
		}
	}
}

// Reboot restarts the module so stored settings apply and waits for "CMD".
func (d *Device) Reboot() error {
	if err := d.SendCmd(CmdReboot, "1"); err != nil {
		return err
	}
	for {
		line, err := d.readLine()
		if err != nil {
			return err
		}
		if string(line) == "CMD" {
			return nil
		}
	}
}

// DefaultCfg restores factory settings, names the module, publishes the
// device information and battery services and reboots.
func (d *Device) DefaultCfg(name string) error {
	if err := d.Exec(CmdFactoryReset, "1"); err != nil {
		return err
	}
	if err := d.SetName(name); err != nil {
		return err
	}
	if err := d.SetServices(ServiceDeviceInfo | ServiceBattery); err != nil {
		return err
	}
	if err := d.SetFeatures(0); err != nil {
		return err
	}
	return d.Reboot()
}

func (d *Device) SetName(name string) error {
	if name == "" || len(name) > MaxName {
		return errcode.New(errcode.InvalidParams, "ble2.set_name", "name length")
	}
	return d.Exec(CmdSetName, name)
}

func (d *Device) Name() (string, error) {
	v, err := d.Query(CmdGetName)
	return string(v), err
}

func (d *Device) SetServices(mask uint32) error {
	var p [8]byte
	return d.Exec(CmdSetServices, string(appendHex32(p[:0], mask)))
}

func (d *Device) SetFeatures(mask uint32) error {
	var p [8]byte
	return d.Exec(CmdSetFeatures, string(appendHex32(p[:0], mask)))
}

func (d *Device) Advertise() error     { return d.Exec(CmdAdvertise) }
func (d *Device) StopAdvertise() error { return d.Exec(CmdStopAdvert) }
func (d *Device) Disconnect() error    { return d.Exec(CmdDisconnect) }

func (d *Device) Version() (string, error) {
	v, err := d.Query(CmdVersion)
	return string(v), err
}

// WriteHandle sets the local value of a characteristic, notifying the peer
// if it subscribed.
func (d *Device) WriteHandle(handle uint16, data []byte) error {
	if len(data) == 0 || len(data) > MaxValue {
		return errcode.New(errcode.InvalidParams, "ble2.write_handle", "value size")
	}
	var h [4]byte
	var v [2 * MaxValue]byte
	hb := appendHex16(h[:0], handle)
	vb := v[:0]
	for _, c := range data {
		vb = conv.AppendHex8(vb, c)
	}
	return d.Exec(CmdWriteHandle, string(hb), string(vb))
}

// ReadHandle reads the local value of a characteristic into buf.
func (d *Device) ReadHandle(handle uint16, buf []byte) (int, error) {
	var h [4]byte
	line, err := d.Query(CmdReadHandle, string(appendHex16(h[:0], handle)))
	if err != nil {
		return 0, err
	}
	n, ok := decodeHex(buf, line)
	if !ok {
		return 0, errcode.New(errcode.ReadError, "ble2.read_handle", "bad hex value")
	}
	return n, nil
}

// ReadEvent returns the next notification, queued ones first. Lines that
// are not notifications are skipped.
func (d *Device) ReadEvent() (Event, error) {
	if d.count > 0 {
		e := d.queue[d.head]
		d.head = (d.head + 1) % queueLen
		d.count--
		return e, nil
	}
	for {
		line, err := d.readLine()
		if err != nil {
			return Event{}, err
		}
		if e, ok := ParseEvent(line); ok {
			return e, nil
		}
	}
}

// ParseEvent decodes one notification line without CRLF.
func ParseEvent(line []byte) (Event, bool) {
	switch string(line) {
	case "Connected":
		return Event{Kind: EventConnected}, true
	case "Connection End":
		return Event{Kind: EventDisconnected}, true
	}
	v, ok := bytes.CutPrefix(line, []byte("WV,"))
	if !ok {
		return Event{}, false
	}
	v = bytes.TrimSuffix(v, []byte("."))
	comma := bytes.IndexByte(v, ',')
	if comma != 4 {
		return Event{}, false
	}
	var hb [2]byte
	if n, ok := decodeHex(hb[:], v[:4]); !ok || n != 2 {
		return Event{}, false
	}
	val := v[comma+1:]
	if len(val) > 2*MaxValue {
		return Event{}, false
	}
	e := Event{Kind: EventWrite, Handle: uint16(hb[0])<<8 | uint16(hb[1])}
	n, ok := decodeHex(e.Value[:], val)
	if !ok {
		return Event{}, false
	}
	e.Len = n
	return e, true
}

// queueEvent stores line if it is a notification, dropping the oldest
// entry when the queue is full.
func (d *Device) queueEvent(line []byte) bool {
	e, ok := ParseEvent(line)
	if !ok {
		return false
	}
	if d.count == queueLen {
		d.head = (d.head + 1) % queueLen
		d.count--
	}
	d.queue[(d.head+d.count)%queueLen] = e
	d.count++
	return true
}

func appendHex16(dst []byte, v uint16) []byte {
	return conv.AppendHex8(conv.AppendHex8(dst, byte(v>>8)), byte(v))
}

func appendHex32(dst []byte, v uint32) []byte {
	return appendHex16(appendHex16(dst, uint16(v>>16)), uint16(v))
}

// decodeHex decodes pairs of hex digits into dst, stopping when dst is full.
func decodeHex(dst, src []byte) (int, bool) {
	if len(src)%2 != 0 {
		return 0, false
	}
	n := 0
	for i := 0; i+1 < len(src) && n < len(dst); i += 2 {
		v, ok := conv.ParseHex8(src[i], src[i+1])
		if !ok {
			return n, false
		}
		dst[n] = v
		n++
	}
	return n, true
}

// readLine returns the next line without CR/LF; long lines are truncated.
func (d *Device) readLine() ([]byte, error) {
	n := 0
	for {
		c, err := d.readByte()
		if err != nil {
			return nil, err
		}
		switch c {
		case '\r':
		case '\n':
			return d.line[:n], nil
		default:
			if n < lineSize {
				d.line[n] = c
				n++
			}
		}
	}
}

func (d *Device) readByte() (byte, error) {
	budget := int(d.cfg.ReadTimeout / d.cfg.PollInterval)
	for idle := 0; ; idle++ {
		if d.uart.Buffered() > 0 {
			n, err := d.uart.Read(d.b[:])
			if err != nil {
				return 0, err
			}
			if n == 1 {
				return d.b[0], nil
			}
		}
		if idle >= budget {
			return 0, errcode.New(errcode.Timeout, "ble2.read", "no response")
		}
		d.cfg.Sleep(d.cfg.PollInterval)
	}
}
