// Package wizfi360 drives the WIZFI360 click, a Wi-Fi module controlled with
// an AT command dialect over UART.
//
// Commands are written as "<cmd><sep><param>\r\n" and answered with lines
// ending in "OK" or "ERROR". Received socket data arrives asynchronously as
// "+IPD,<len>:<data>", or "+IPD,<id>,<len>:<data>" with multiple connections.
package wizfi360

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
	CmdAT       = "AT"
	CmdReset    = "AT+RST"
	CmdVersion  = "AT+GMR"
	CmdEcho     = "ATE"
	CmdWifiMode = "AT+CWMODE_CUR"
	CmdJoinAP   = "AT+CWJAP_CUR"
	CmdQuitAP   = "AT+CWQAP"
	CmdMux      = "AT+CIPMUX"
	CmdStart    = "AT+CIPSTART"
	CmdSend     = "AT+CIPSEND"
	CmdClose    = "AT+CIPCLOSE"
	CmdLocalIP  = "AT+CIFSR"
	CmdServer   = "AT+CIPSERVER"
	CmdStatus   = "AT+CIPSTATUS"
)

// Sep joins a command and its parameter.
type Sep string

const (
	SepNone  Sep = ""
	SepSet   Sep = "="
	SepQuery Sep = "?"
)

// WifiMode values for CmdWifiMode.
type WifiMode uint8

const (
	ModeStation WifiMode = iota + 1
	ModeSoftAP
	ModeStationSoftAP
)

const (
	respSize = 1024
	lineSize = 256
	// MaxSend is the largest payload of one CIPSEND.
	MaxSend = 2048
)

type Config struct {
	ReadTimeout  time.Duration
	PollInterval time.Duration
	// Reset is active low.
	Reset pins.Output
	Sleep func(time.Duration)
}

func DefaultConfig() Config {
	return Config{
		ReadTimeout:  5 * time.Second,
		PollInterval: time.Millisecond,
		Sleep:        time.Sleep,
	}
}

type Device struct {
	uart drivers.UART
	cfg  Config
	mux  bool

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
	cfg.Reset.High()
	return &Device{uart: uart, cfg: cfg}
}

// HardReset pulses the reset line.
func (d *Device) HardReset() {
	d.cfg.Reset.Low()
	d.cfg.Sleep(200 * time.Millisecond)
	d.cfg.Reset.High()
	d.cfg.Sleep(time.Second)
}

// SendCmd writes one command line.
func (d *Device) SendCmd(cmd string, sep Sep, param string) error {
	if len(cmd)+len(sep)+len(param)+2 > lineSize {
		return errcode.New(errcode.InvalidParams, "wizfi360.send_cmd", "command too long")
	}
	b := append(d.cmd[:0], cmd...)
	if param != "" || sep == SepQuery {
		b = append(b, sep...)
	}
	b = append(b, param...)
	b = append(b, '\r', '\n')
	_, err := d.uart.Write(b)
	return err
}

// ReadResponse collects lines until OK or ERROR. The returned slice holds the
// lines before the terminator joined by '\n' and is reused by the next call.
func (d *Device) ReadResponse() ([]byte, error) {
	n := 0
	for {
		line, err := d.readLine()
		if err != nil {
			return d.resp[:n], err
		}
		switch string(line) {
		case "OK", "SEND OK":
			return d.resp[:n], nil
		case "ERROR", "FAIL", "SEND FAIL":
			return d.resp[:n], errcode.New(errcode.Error, "wizfi360.read_response", string(line))
		case "":
			continue
		}
		if n > 0 && n < respSize {
			d.resp[n] = '\n'
			n++
		}
		n += copy(d.resp[n:], line)
	}
}

// Exec sends a command and waits for its response.
func (d *Device) Exec(cmd string, sep Sep, param string) ([]byte, error) {
	if err := d.SendCmd(cmd, sep, param); err != nil {
		return nil, err
	}
	return d.ReadResponse()
}

// Reset issues AT+RST and waits for the module to report ready.
func (d *Device) Reset() error {
	if _, err := d.Exec(CmdReset, SepNone, ""); err != nil {
		return err
	}
	for {
		line, err := d.readLine()
		if err != nil {
			return err
		}
		if string(line) == "ready" {
			return nil
		}
	}
}

// DefaultCfg checks the module answers, disables echo and selects station mode.
func (d *Device) DefaultCfg() error {
	if _, err := d.Exec(CmdAT, SepNone, ""); err != nil {
		return err
	}
	if _, err := d.Exec(CmdEcho+"0", SepNone, ""); err != nil {
		return err
	}
	return d.SetWifiMode(ModeStation)
}

func (d *Device) SetWifiMode(m WifiMode) error {
	var p [3]byte
	_, err := d.Exec(CmdWifiMode, SepSet, string(conv.AppendUint(p[:0], uint64(m))))
	return err
}

// ConnectToAP joins a network.
func (d *Device) ConnectToAP(ssid, password string) error {
	_, err := d.Exec(CmdJoinAP, SepSet, quote(ssid)+","+quote(password))
	return err
}

// SetMux selects single (false) or multiple (true) connection mode.
func (d *Device) SetMux(multi bool) error {
	p := "0"
	if multi {
		p = "1"
	}
	if _, err := d.Exec(CmdMux, SepSet, p); err != nil {
		return err
	}
	d.mux = multi
	return nil
}

// OpenTCP connects link id (ignored in single mode) to host:port.
func (d *Device) OpenTCP(id uint8, host string, port uint16) error {
	var p []byte
	if d.mux {
		p = conv.AppendUint(p, uint64(id))
		p = append(p, ',')
	}
	p = append(p, `"TCP",`...)
	p = append(p, quote(host)...)
	p = append(p, ',')
	p = conv.AppendUint(p, uint64(port))
	_, err := d.Exec(CmdStart, SepSet, string(p))
	return err
}

// Send transmits data on link id after the '>' prompt.
func (d *Device) Send(id uint8, data []byte) error {
	if len(data) == 0 || len(data) > MaxSend {
		return errcode.New(errcode.InvalidParams, "wizfi360.send", "payload size")
	}
	var p []byte
	if d.mux {
		p = conv.AppendUint(p, uint64(id))
		p = append(p, ',')
	}
	p = conv.AppendUint(p, uint64(len(data)))
	if err := d.SendCmd(CmdSend, SepSet, string(p)); err != nil {
		return err
	}
	if err := d.waitPrompt(); err != nil {
		return err
	}
	if _, err := d.uart.Write(data); err != nil {
		return err
	}
	_, err := d.ReadResponse()
	return err
}

// Close closes link id.
func (d *Device) Close(id uint8) error {
	if !d.mux {
		_, err := d.Exec(CmdClose, SepNone, "")
		return err
	}
	var p [3]byte
	_, err := d.Exec(CmdClose, SepSet, string(conv.AppendUint(p[:0], uint64(id))))
	return err
}

// LocalIP returns the station address reported by AT+CIFSR.
func (d *Device) LocalIP() (string, error) {
	resp, err := d.Exec(CmdLocalIP, SepNone, "")
	if err != nil {
		return "", err
	}
	for _, line := range bytes.Split(resp, []byte{'\n'}) {
		if v, ok := bytes.CutPrefix(line, []byte(`+CIFSR:STAIP,`)); ok {
			return string(bytes.Trim(v, `"`)), nil
		}
	}
	return "", errcode.New(errcode.ReadError, "wizfi360.local_ip", "no station address")
}

// ReadData waits for the next +IPD notification and copies its payload into
// buf. It returns the link id (0 in single mode) and the payload length.
func (d *Device) ReadData(buf []byte) (id uint8, n int, err error) {
	const tag = "+IPD,"
	matched := 0
	for matched < len(tag) {
		c, err := d.readByte()
		if err != nil {
			return 0, 0, err
		}
		switch {
		case c == tag[matched]:
			matched++
		case c == tag[0]:
			matched = 1
		default:
			matched = 0
		}
	}
	// Header fields up to ':'.
	hdr := d.line[:0]
	for {
		c, err := d.readByte()
		if err != nil {
			return 0, 0, err
		}
		if c == ':' {
			break
		}
		if len(hdr) == 16 {
			return 0, 0, errcode.New(errcode.ReadError, "wizfi360.read_data", "bad +IPD header")
		}
		hdr = append(hdr, c)
	}
	id, size, ok := parseIPDHeader(hdr, d.mux)
	if !ok {
		return 0, 0, errcode.New(errcode.ReadError, "wizfi360.read_data", "bad +IPD header")
	}
	for i := 0; i < size; i++ {
		c, err := d.readByte()
		if err != nil {
			return id, n, err
		}
		if n < len(buf) {
			buf[n] = c
			n++
		}
	}
	return id, n, nil
}

// ParseIPD decodes a buffered "+IPD,..." notification. payload aliases msg.
func ParseIPD(msg []byte, mux bool) (id uint8, payload []byte, ok bool) {
	i := bytes.Index(msg, []byte("+IPD,"))
	if i < 0 {
		return 0, nil, false
	}
	msg = msg[i+5:]
	colon := bytes.IndexByte(msg, ':')
	if colon < 0 {
		return 0, nil, false
	}
	id, size, ok := parseIPDHeader(msg[:colon], mux)
	if !ok || len(msg)-colon-1 < size {
		return 0, nil, false
	}
	return id, msg[colon+1 : colon+1+size], true
}

func parseIPDHeader(h []byte, mux bool) (id uint8, size int, ok bool) {
	if mux {
		v, n := conv.Atou(h)
		if n == 0 || n >= len(h) || h[n] != ',' {
			return 0, 0, false
		}
		id = uint8(v)
		h = h[n+1:]
	}
	v, n := conv.Atou(h)
	if n == 0 || n != len(h) {
		return 0, 0, false
	}
	return id, int(v), true
}

func quote(s string) string { return `"` + s + `"` }

func (d *Device) waitPrompt() error {
	for {
		c, err := d.readByte()
		if err != nil {
			return err
		}
		if c == '>' {
			return nil
		}
	}
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
			return 0, errcode.New(errcode.Timeout, "wizfi360.read", "no response")
		}
		d.cfg.Sleep(d.cfg.PollInterval)
	}
}
