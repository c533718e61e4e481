package accel34

import (
	"errors"
	"testing"
	"time"

	"clickcode-go/drivers/internal/simbus"
	"clickcode-go/errcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim(t *testing.T) (*Device, *simbus.Device, *simbus.I2C) {
	t.Helper()
	bus := simbus.NewI2C()
	dev := bus.Attach(Address, simbus.Byte())
	dev.AutoInc = autoIncrement
	dev.Set(regWhoAmI, DeviceID)
	cfg := DefaultConfig()
	cfg.Sleep = func(time.Duration) {}
	return New(bus, cfg), dev, bus
}

// setSample stores left-justified 12-bit values in OUT_X_L..OUT_Z_H.
func setSample(dev *simbus.Device, x, y, z int16) {
	for i, v := range []int16{x, y, z} {
		u := uint16(v << 4)
		dev.Set(regOutXL+byte(2*i), u&0xFF, u>>8)
	}
}

func TestDefaultCfg(t *testing.T) {
	d, dev, _ := newSim(t)
	require.NoError(t, d.DefaultCfg())
	assert.Equal(t, uint16(0x57), dev.Get(regCtrl1))
	assert.Equal(t, uint16(0x88), dev.Get(regCtrl4))
	assert.Equal(t, uint16(ctrl3DataReadyInt1), dev.Get(regCtrl3))
	assert.Equal(t, FullScale2G, d.FullScale())
}

func TestBadDeviceID(t *testing.T) {
	d, dev, _ := newSim(t)
	dev.Set(regWhoAmI, 0x33)
	err := d.DefaultCfg()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.BadDeviceID))
	assert.Equal(t, uint16(0), dev.Get(regCtrl1), "nothing written after a failed ID check")
}

func TestBusErrorStopsSequence(t *testing.T) {
	d, dev, _ := newSim(t)
	dev.Err = errors.New("arbitration lost")
	assert.EqualError(t, d.DefaultCfg(), "arbitration lost")
}

func TestGetDataNotReady(t *testing.T) {
	d, _, _ := newSim(t)
	require.NoError(t, d.DefaultCfg())
	_, err := d.GetData()
	assert.Equal(t, errcode.DataNotReady, errcode.Of(err))
}

func TestGetData(t *testing.T) {
	d, dev, bus := newSim(t)
	require.NoError(t, d.DefaultCfg())
	dev.Set(regStatus, statusZYXDA)
	setSample(dev, 1000, -500, 0)

	mg, err := d.GetMilliG()
	require.NoError(t, err)
	assert.Equal(t, MilliG{X: 1000, Y: -500, Z: 0}, mg)

	g, err := d.GetData()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, g.X, 1e-6)
	assert.InDelta(t, -0.5, g.Y, 1e-6)

	last := bus.Log[len(bus.Log)-1]
	assert.Equal(t, []byte{regOutXL | autoIncrement}, last.W)
	assert.Len(t, last.R, 6)
}

func TestSetFullScale(t *testing.T) {
	d, dev, _ := newSim(t)
	require.NoError(t, d.DefaultCfg())
	require.NoError(t, d.SetFullScale(FullScale16G))
	assert.Equal(t, uint16(0xB8), dev.Get(regCtrl4))
	require.NoError(t, d.SetFullScale(FullScale4G))
	assert.Equal(t, uint16(0x98), dev.Get(regCtrl4))

	dev.Set(regStatus, statusZYXDA)
	setSample(dev, 100, 0, -2048)
	mg, err := d.GetMilliG()
	require.NoError(t, err)
	assert.Equal(t, int32(200), mg.X)
	assert.Equal(t, int32(-4096), mg.Z)

	assert.Equal(t, errcode.InvalidParams, errcode.Of(d.SetFullScale(7)))
}

func TestSetODR(t *testing.T) {
	d, dev, _ := newSim(t)
	require.NoError(t, d.DefaultCfg())
	require.NoError(t, d.SetODR(ODR400Hz))
	assert.Equal(t, uint16(0x77), dev.Get(regCtrl1))
	require.NoError(t, d.SetODR(ODRPowerDown))
	assert.Equal(t, uint16(0x07), dev.Get(regCtrl1))
}

func TestDataReadyFromPin(t *testing.T) {
	bus := simbus.NewI2C()
	bus.Attach(Address, simbus.Byte())
	pin := simbus.NewPin(true)
	cfg := DefaultConfig()
	cfg.Int1 = pin.Input()
	d := New(bus, cfg)

	ready, err := d.DataReady()
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Empty(t, bus.Log, "pin path must not touch the bus")
}

func TestMotionThreshold(t *testing.T) {
	d, dev, _ := newSim(t)
	require.NoError(t, d.DefaultCfg())
	require.NoError(t, d.SetMotionThreshold(250, 3))
	assert.Equal(t, uint16(16), dev.Get(regInt1Ths))
	assert.Equal(t, uint16(3), dev.Get(regInt1Dur))
	assert.Equal(t, uint16(0x2A), dev.Get(regInt1Cfg))

	require.NoError(t, d.SetMotionThreshold(60000, 0))
	assert.Equal(t, uint16(0x7F), dev.Get(regInt1Ths))
}
