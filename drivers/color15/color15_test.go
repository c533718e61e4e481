package color15

import (
	"testing"
	"time"

	"clickcode-go/drivers/internal/simbus"
	"clickcode-go/errcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim() (*Device, *simbus.Device, *[]time.Duration) {
	bus := simbus.NewI2C()
	dev := bus.Attach(Address, simbus.Word(false))
	var slept []time.Duration
	cfg := DefaultConfig()
	cfg.Sleep = func(d time.Duration) { slept = append(slept, d) }
	return New(bus, cfg), dev, &slept
}

func TestToHSLEarlyExit(t *testing.T) {
	assert.Equal(t, HSL{}, ToHSL(RGBW{Red: 10, Green: 10, Blue: 10, White: 0}))
	assert.Equal(t, HSL{}, ToHSL(RGBW{}))
	// Only red is tested for zero.
	assert.Equal(t, HSL{}, ToHSL(RGBW{Red: 0, Green: 500, Blue: 200, White: 1000}))
	assert.NotEqual(t, HSL{}, ToHSL(RGBW{Red: 500, Green: 0, Blue: 0, White: 1000}))
}

func TestToHSLGray(t *testing.T) {
	for _, v := range []uint16{1, 300, 1000, 4000} {
		h := ToHSL(RGBW{Red: v, Green: v, Blue: v, White: 1000})
		assert.Zero(t, h.Saturation)
		assert.Zero(t, h.Hue)
		assert.InDelta(t, float32(v)/10, h.Lightness, 1e-3)
	}
}

func TestToHSLPrimaries(t *testing.T) {
	cases := []struct {
		in  RGBW
		hue float32
	}{
		{RGBW{Red: 1000, Green: 1, Blue: 1, White: 1000}, 0},
		{RGBW{Red: 1, Green: 1000, Blue: 1, White: 1000}, 120},
		{RGBW{Red: 1, Green: 1, Blue: 1000, White: 1000}, 240},
		{RGBW{Red: 1000, Green: 1000, Blue: 1, White: 1000}, 60},
		{RGBW{Red: 1000, Green: 1, Blue: 1000, White: 1000}, 300},
	}
	for _, c := range cases {
		h := ToHSL(c.in)
		assert.InDelta(t, c.hue, h.Hue, 0.01, "%+v", c.in)
		assert.InDelta(t, 100, h.Saturation, 0.01)
		assert.InDelta(t, 50.05, h.Lightness, 0.01)
	}
}

func TestConfigWrites(t *testing.T) {
	d, dev, _ := newSim()
	require.NoError(t, d.DefaultCfg())
	assert.Equal(t, uint16(0x20), dev.Get(regConf))
	require.NoError(t, d.SetIntegrationTime(IT1280ms))
	assert.Equal(t, uint16(0x50), dev.Get(regConf))
	require.NoError(t, d.Shutdown())
	assert.Equal(t, uint16(0x51), dev.Get(regConf))
	assert.Equal(t, errcode.InvalidParams, errcode.Of(d.SetIntegrationTime(6)))
}

func TestTriggerRequiresForceMode(t *testing.T) {
	d, dev, slept := newSim()
	assert.Equal(t, errcode.Unsupported, errcode.Of(d.Trigger()))

	d.force = true
	require.NoError(t, d.Trigger())
	assert.Equal(t, uint16(0x20|confAF|confTrig), dev.Get(regConf))
	assert.Equal(t, []time.Duration{160 * time.Millisecond}, *slept)
}

func TestReadings(t *testing.T) {
	d, dev, _ := newSim()
	dev.Set(regRed, 1200, 2000, 800, 4000)

	c, err := d.GetRGBW()
	require.NoError(t, err)
	assert.Equal(t, RGBW{1200, 2000, 800, 4000}, c)

	lux, err := d.GetAmbientLight()
	require.NoError(t, err)
	assert.InDelta(t, 2000*0.25168/4, lux, 1e-3)

	h, err := d.GetHSL()
	require.NoError(t, err)
	assert.Equal(t, ToHSL(c), h)
	assert.InDelta(t, 100, h.Hue, 0.01)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 40*time.Millisecond, IT40ms.Duration())
	assert.Equal(t, 1280*time.Millisecond, IT1280ms.Duration())
}
