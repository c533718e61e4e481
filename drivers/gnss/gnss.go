// Package gnss reads NMEA 0183 sentences from a GNSS click receiver over UART
// and decodes the GGA fix data.
package gnss

import (
	"time"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

// MaxSentence is the NMEA limit including '$' and CRLF.
const MaxSentence = 82

type Config struct {
	// ReadTimeout bounds the silence tolerated while reading a sentence.
	ReadTimeout  time.Duration
	PollInterval time.Duration
	// Reset is active low; WakeUp is pulsed high to leave standby.
	Reset  pins.Output
	WakeUp pins.Output
	Sleep  func(time.Duration)
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
	buf  [MaxSentence]byte
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
	cfg.WakeUp.Low()
	return &Device{uart: uart, cfg: cfg}
}

// Reset holds the receiver in reset for 100 ms and waits for it to boot.
func (d *Device) Reset() {
	d.cfg.Reset.Low()
	d.cfg.Sleep(100 * time.Millisecond)
	d.cfg.Reset.High()
	d.cfg.Sleep(time.Second)
}

// WakeUp pulses the wake-up line.
func (d *Device) WakeUp() {
	d.cfg.WakeUp.High()
	d.cfg.Sleep(10 * time.Millisecond)
	d.cfg.WakeUp.Low()
}

// Send writes a command sentence, adding '$', checksum and CRLF.
func (d *Device) Send(body string) error {
	var out [MaxSentence]byte
	if len(body)+6 > MaxSentence {
		return errcode.New(errcode.InvalidParams, "gnss.send", "sentence too long")
	}
	_, err := d.uart.Write(AppendSentence(out[:0], body))
	return err
}

// ReadSentence returns the next complete sentence without its CRLF. The
// slice is reused by the next call. Bytes before '$' are skipped; a sentence
// longer than MaxSentence is discarded with errcode.ReadError.
func (d *Device) ReadSentence() ([]byte, error) {
	n := 0
	for {
		c, ok := d.readByte()
		if !ok {
			return nil, errcode.New(errcode.Timeout, "gnss.read_sentence", "no data")
		}
		switch {
		case c == '$':
			n = 0
			d.buf[n] = c
			n++
		case n == 0:
			// Hunting for the start of a sentence.
		case c == '\n':
			s := d.buf[:n]
			if s[len(s)-1] == '\r' {
				s = s[:len(s)-1]
			}
			return s, nil
		case n >= MaxSentence:
			return nil, errcode.New(errcode.ReadError, "gnss.read_sentence", "sentence too long")
		default:
			d.buf[n] = c
			n++
		}
	}
}

// ReadGGA reads sentences until a GGA arrives and decodes it.
func (d *Device) ReadGGA() (GGA, error) {
	for {
		s, err := d.ReadSentence()
		if err != nil {
			return GGA{}, err
		}
		if IsType(s, "GGA") {
			return ParseGGA(s)
		}
	}
}

func (d *Device) readByte() (byte, bool) {
	budget := int(d.cfg.ReadTimeout / d.cfg.PollInterval)
	for idle := 0; ; idle++ {
		if d.uart.Buffered() > 0 {
			if n, err := d.uart.Read(d.b[:]); err != nil {
				return 0, false
			} else if n == 1 {
				return d.b[0], true
			}
		}
		if idle >= budget {
			return 0, false
		}
		d.cfg.Sleep(d.cfg.PollInterval)
	}
}
