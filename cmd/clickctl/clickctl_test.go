package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"clickcode-go/drivers/pins"
	"clickcode-go/errcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

var errNack = errors.New("nack")

// fakeBus routes each I2C address to a small chip model.
type fakeBus map[uint16]func(w, r []byte) error

func (f fakeBus) Tx(addr uint16, w, r []byte) error {
	h, ok := f[addr]
	if !ok {
		return errNack
	}
	return h(w, r)
}

// regFile is an 8-bit register pointer device such as the DS1307.
type regFile struct {
	regs [64]byte
	ptr  byte
}

func (c *regFile) tx(w, r []byte) error {
	if len(w) > 0 {
		c.ptr = w[0]
		copy(c.regs[c.ptr:], w[1:])
	}
	copy(r, c.regs[c.ptr:])
	return nil
}

// sram is a 16-bit addressed memory such as the 47L16 array.
type sram struct {
	mem  [2048]byte
	addr uint16
}

func (c *sram) tx(w, r []byte) error {
	if len(w) >= 2 {
		c.addr = uint16(w[0])<<8 | uint16(w[1])
		copy(c.mem[c.addr:], w[2:])
	}
	copy(r, c.mem[c.addr:])
	return nil
}

type fakeHW struct {
	bus    fakeBus
	closed int
}

func (h *fakeHW) I2C(string) (drivers.I2C, error) { return h.bus, nil }
func (h *fakeHW) SPI(string, int64, int) (drivers.SPI, error) {
	return nil, errcode.Unsupported
}
func (h *fakeHW) Output(string, bool) (pins.Output, error) { return func(bool) {}, nil }
func (h *fakeHW) Input(string, gpio.Pull) (pins.Input, error) {
	return func() bool { return true }, nil
}
func (h *fakeHW) Close() error { h.closed++; return nil }

type harness struct {
	hw    *fakeHW
	rtc   *regFile
	sram  *sram
	app   *app
	calls int
}

func newHarness() *harness {
	h := &harness{rtc: &regFile{}, sram: &sram{}}
	h.hw = &fakeHW{bus: fakeBus{
		0x68: h.rtc.tx,
		0x50: h.sram.tx,
		0x18: func(w, r []byte) error { return nil },
		// MCP3221 returning mid-scale.
		0x4D: func(w, r []byte) error { copy(r, []byte{0x08, 0x00}); return nil },
	}}
	h.app = newApp(func() (Hardware, error) { h.calls++; return h.hw, nil })
	h.app.sleep = func(time.Duration) {}
	h.app.now = func() time.Time { return time.Date(2026, 10, 17, 8, 5, 9, 0, time.UTC) }
	return h
}

func (h *harness) run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := newRootCmd(h.app)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	h := newHarness()
	out, err := h.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `accel\s+accel34\s+i2c\s+0x19`, out)
	assert.Regexp(t, `eeram3\s+eeram3\s+spi2\s+-`, out)
	assert.Zero(t, h.calls, "list needs no hardware")
}

func TestTimeSetAndRead(t *testing.T) {
	h := newHarness()
	_, err := h.run("time", "set", "rtc", "12:34:56", "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x56, 0x34, 0x12, 7, 0x17, 0x10, 0x26}, h.rtc.regs[:7])
	assert.Equal(t, 1, h.hw.closed)

	out, err := h.run("read", "rtc")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17 12:34:56 running=true\n", out)
}

func TestTimeSync(t *testing.T) {
	h := newHarness()
	_, err := h.run("time", "sync", "rtc")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09, 0x05, 0x08, 7, 0x17, 0x10, 0x26}, h.rtc.regs[:7])
}

func TestTimeRejects(t *testing.T) {
	h := newHarness()
	_, err := h.run("time", "set", "rtc", "25:00:00")
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))

	_, err = h.run("time", "set", "rtc", "10:00:00", "1999-01-01")
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))

	_, err = h.run("time", "set", "current", "10:00:00")
	assert.Equal(t, errcode.Unsupported, errcode.Of(err))
}

func TestMemWriteDump(t *testing.T) {
	h := newHarness()
	_, err := h.run("mem", "write", "eeram", "0x10", "de", "adbeef", "--store")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, h.sram.mem[0x10:0x14])

	out, err := h.run("mem", "dump", "eeram", "0x10", "4")
	require.NoError(t, err)
	assert.Equal(t, "000010  DE AD BE EF\n", out)

	out, err = h.run("mem", "dump", "eeram", "2040")
	require.NoError(t, err)
	assert.Equal(t, "0007F8  00 00 00 00 00 00 00 00\n", out)
}

func TestMemRejects(t *testing.T) {
	h := newHarness()
	_, err := h.run("mem", "write", "eeram", "0", "zz")
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))

	_, err = h.run("mem", "dump", "rtc", "0")
	assert.Equal(t, errcode.Unsupported, errcode.Of(err))

	_, err = h.run("mem", "dump", "eeram", "4096")
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))

	// 0x10005 would wrap to 0x0005 on a 16-bit address.
	_, err = h.run("mem", "write", "eeram", "0x10005", "aa")
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
	_, err = h.run("mem", "write", "eeram", "2047", "aa", "bb")
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
	assert.Equal(t, [2048]byte{}, h.sram.mem, "nothing written")
}

func TestReadCurrent(t *testing.T) {
	h := newHarness()
	out, err := h.run("read", "current")
	require.NoError(t, err)
	assert.Equal(t, "330.0 mA (1650 mV)\n", out)
}

func TestReadErrors(t *testing.T) {
	h := newHarness()
	_, err := h.run("read", "eeram")
	assert.Equal(t, errcode.Unsupported, errcode.Of(err))

	_, err = h.run("read", "missing")
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))

	// Nothing answers at the accelerometer address.
	_, err = h.run("read", "accel")
	assert.ErrorIs(t, err, errNack)

	_, err = h.run("--log-level", "loud", "list")
	assert.Error(t, err)
}
