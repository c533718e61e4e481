package eeram

import (
	"errors"
	"testing"
	"time"

	"clickcode-go/drivers/internal/simbus"
	"clickcode-go/errcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chip struct {
	mem      [Size]byte
	ptr      uint16
	status   byte
	busyFor  int
	commands []byte
}

// attach wires a 47L16 model onto bus: SRAM with a 16-bit pointer and a
// control block that NACKs for busyFor transactions after a command.
func (c *chip) attach(bus *simbus.I2C) {
	sram := bus.Attach(SRAMAddress, simbus.Byte())
	sram.Hook = func(w, r []byte) (bool, error) {
		if len(w) >= 2 {
			c.ptr = uint16(w[0])<<8 | uint16(w[1])
			for _, b := range w[2:] {
				c.mem[c.ptr%Size] = b
				c.ptr++
			}
		}
		for i := range r {
			r[i] = c.mem[c.ptr%Size]
			c.ptr++
		}
		return true, nil
	}
	ctl := bus.Attach(ControlAddress, simbus.Byte())
	ctl.Hook = func(w, r []byte) (bool, error) {
		if c.busyFor > 0 {
			c.busyFor--
			return true, simbus.ErrNoAck
		}
		switch {
		case len(w) == 2 && w[0] == regCommand:
			c.commands = append(c.commands, w[1])
			c.busyFor = 3
		case len(w) == 2 && w[0] == regStatus:
			c.status = c.status&^(statusBP|statusASE) | w[1]
			c.busyFor = 1
		}
		if len(r) > 0 {
			r[0] = c.status
		}
		return true, nil
	}
}

func newSim() (*Device, *chip, *simbus.I2C) {
	bus := simbus.NewI2C()
	c := &chip{}
	c.attach(bus)
	cfg := DefaultConfig()
	cfg.Sleep = func(time.Duration) {}
	return New(bus, cfg), c, bus
}

func TestNewFillsDefaults(t *testing.T) {
	d := New(simbus.NewI2C(), Config{})
	assert.Equal(t, time.Millisecond, d.cfg.PollInterval)
	assert.Equal(t, 50, d.cfg.PollAttempts)
	assert.Equal(t, uint16(SRAMAddress), d.cfg.SRAMAddress)
}

func TestWriteRead(t *testing.T) {
	d, c, bus := newSim()
	require.NoError(t, d.Write(0x07FE, []byte{0x12, 0x34}))
	assert.Equal(t, []byte{0x07, 0xFE, 0x12, 0x34}, bus.Log[0].W)
	assert.Equal(t, byte(0x34), c.mem[0x7FF])

	buf := make([]byte, 2)
	require.NoError(t, d.Read(0x07FE, buf))
	assert.Equal(t, []byte{0x12, 0x34}, buf)
}

func TestWriteChunks(t *testing.T) {
	d, c, bus := newSim()
	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, d.Write(0x100, data))
	assert.Len(t, bus.Writes(SRAMAddress), 3)
	assert.Equal(t, data, c.mem[0x100:0x100+600])

	got := make([]byte, 600)
	require.NoError(t, d.Read(0x100, got))
	assert.Equal(t, data, got)
}

func TestBounds(t *testing.T) {
	d, _, bus := newSim()
	assert.Equal(t, errcode.InvalidParams, errcode.Of(d.Write(0x7FF, []byte{1, 2})))
	assert.Equal(t, errcode.InvalidParams, errcode.Of(d.Read(Size, make([]byte, 1))))
	assert.Empty(t, bus.Log)
}

func TestStoreRecallPolls(t *testing.T) {
	d, c, _ := newSim()
	require.NoError(t, d.Store())
	require.NoError(t, d.Recall())
	assert.Equal(t, []byte{cmdStore, cmdRecall}, c.commands)
}

func TestStoreTimeout(t *testing.T) {
	d, c, _ := newSim()
	c.busyFor = 0
	d.cfg.PollAttempts = 2
	err := d.Store()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.Timeout))
}

func TestAutoStore(t *testing.T) {
	d, c, _ := newSim()
	c.status = statusAM | statusEvent
	require.NoError(t, d.SetAutoStore(true))
	s, err := d.Status()
	require.NoError(t, err)
	assert.True(t, s.AutoStore())
	assert.True(t, s.ArrayModified())
	assert.True(t, s.Event())

	require.NoError(t, d.SetAutoStore(false))
	s, err = d.Status()
	require.NoError(t, err)
	assert.False(t, s.AutoStore())
	assert.Equal(t, uint8(0), s.BlockProtect())
}
