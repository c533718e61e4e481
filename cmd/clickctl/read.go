package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"clickcode-go/drivers/accel34"
	"clickcode-go/drivers/ambient2"
	"clickcode-go/drivers/color15"
	"clickcode-go/drivers/current3"
	"clickcode-go/drivers/digiin2"
	"clickcode-go/drivers/rtc12"
	"clickcode-go/drivers/rtc20"
	"clickcode-go/drivers/touchpad"
	"clickcode-go/errcode"

	"github.com/spf13/cobra"
)

type reader func(a *app, s *session, w io.Writer) error

var readers = map[string]reader{
	"accel34":  readAccel34,
	"ambient2": readAmbient2,
	"color15":  readColor15,
	"current3": readCurrent3,
	"digiin2":  readDigiIn2,
	"rtc12":    readRTC12,
	"rtc20":    readRTC20,
	"touchpad": readTouchpad,
}

func readableDrivers() []string {
	out := make([]string, 0, len(readers))
	for k := range readers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (a *app) readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <click>",
		Short: "Configure a click and print one measurement",
		Long:  fmt.Sprintf("Configure a click and print one measurement.\nSupported drivers: %v", readableDrivers()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClick(args[0], func(s *session) error {
				r, ok := readers[s.click.Driver]
				if !ok {
					return errcode.New(errcode.Unsupported, "clickctl.read", s.click.Driver+" has no reading")
				}
				return r(a, s, cmd.OutOrStdout())
			})
		},
	}
}

// poll calls ready until it reports true, at most attempts times.
func (a *app) poll(attempts int, interval time.Duration, ready func() (bool, error)) error {
	for i := 0; i < attempts; i++ {
		ok, err := ready()
		if err != nil || ok {
			return err
		}
		a.sleep(interval)
	}
	return errcode.Timeout
}

func readAccel34(a *app, s *session, w io.Writer) error {
	bus, err := s.i2c()
	if err != nil {
		return err
	}
	cfg := accel34.DefaultConfig()
	cfg.Address = s.address(cfg.Address)
	cfg.Sleep = a.sleep
	if cfg.Int1, err = s.in("int"); err != nil {
		return err
	}
	d := accel34.New(bus, cfg)
	if err := d.DefaultCfg(); err != nil {
		return err
	}
	if err := a.poll(50, 10*time.Millisecond, d.DataReady); err != nil {
		return err
	}
	m, err := d.GetMilliG()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "x=%d mg y=%d mg z=%d mg\n", m.X, m.Y, m.Z)
	return err
}

func readAmbient2(a *app, s *session, w io.Writer) error {
	bus, err := s.i2c()
	if err != nil {
		return err
	}
	cfg := ambient2.DefaultConfig()
	cfg.Address = s.address(cfg.Address)
	d := ambient2.New(bus, cfg)
	if err := d.DefaultCfg(); err != nil {
		return err
	}
	if err := a.poll(20, 100*time.Millisecond, d.ConversionReady); err != nil {
		return err
	}
	lux, err := d.GetLux()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%.2f lx\n", lux)
	return err
}

func readColor15(a *app, s *session, w io.Writer) error {
	bus, err := s.i2c()
	if err != nil {
		return err
	}
	cfg := color15.DefaultConfig()
	cfg.Address = s.address(cfg.Address)
	cfg.Sleep = a.sleep
	d := color15.New(bus, cfg)
	if err := d.DefaultCfg(); err != nil {
		return err
	}
	a.sleep(cfg.IntegrationTime.Duration())
	c, err := d.GetRGBW()
	if err != nil {
		return err
	}
	lux, err := d.GetAmbientLight()
	if err != nil {
		return err
	}
	h := color15.ToHSL(c)
	_, err = fmt.Fprintf(w, "r=%d g=%d b=%d w=%d lux=%.1f hsl=(%.0f, %.0f%%, %.0f%%)\n",
		c.Red, c.Green, c.Blue, c.White, lux, h.Hue, h.Saturation, h.Lightness)
	return err
}

func readCurrent3(a *app, s *session, w io.Writer) error {
	bus, err := s.i2c()
	if err != nil {
		return err
	}
	cfg := current3.DefaultConfig()
	cfg.Address = s.address(cfg.Address)
	cfg.Sleep = a.sleep
	d := current3.New(bus, cfg)
	mv, err := d.GetVoltage()
	if err != nil {
		return err
	}
	ma, err := d.GetCurrent()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%.1f mA (%d mV)\n", ma, mv)
	return err
}

func readDigiIn2(a *app, s *session, w io.Writer) error {
	spi, err := s.spi()
	if err != nil {
		return err
	}
	cfg := digiin2.DefaultConfig()
	if cfg.Latch, err = s.out("latch", true); err != nil {
		return err
	}
	if cfg.Fault, err = s.in("fault"); err != nil {
		return err
	}
	if cfg.Ready, err = s.in("ready"); err != nil {
		return err
	}
	d := digiin2.New(spi, cfg)
	if err := d.DefaultCfg(); err != nil {
		return err
	}
	in, err := d.GetInputs()
	if err != nil {
		return err
	}
	wb, err := d.GetWireBreak()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "inputs=%08b wirebreak=%08b fault=%t\n", in, wb, d.Faulted())
	return err
}

func readRTC12(_ *app, s *session, w io.Writer) error {
	bus, err := s.i2c()
	if err != nil {
		return err
	}
	d := rtc12.New(bus, rtc12.Config{Address: s.address(rtc12.Address)})
	dt, err := d.GetDate()
	if err != nil {
		return err
	}
	t, err := d.GetTime()
	if err != nil {
		return err
	}
	run, err := d.Running()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s running=%t\n",
		formatClock(dt.Year, dt.Month, dt.Day, t.Hours, t.Minutes, t.Seconds), run)
	return err
}

func readRTC20(_ *app, s *session, w io.Writer) error {
	bus, err := s.i2c()
	if err != nil {
		return err
	}
	d := rtc20.New(bus, rtc20.Config{Address: s.address(rtc20.Address)})
	dt, err := d.GetDate()
	if err != nil {
		return err
	}
	t, err := d.GetTime()
	if err != nil {
		return err
	}
	ok, err := d.ClockIntegrity()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s integrity=%t\n",
		formatClock(dt.Year, dt.Month, dt.Day, t.Hours, t.Minutes, t.Seconds), ok)
	return err
}

func readTouchpad(a *app, s *session, w io.Writer) error {
	bus, err := s.i2c()
	if err != nil {
		return err
	}
	cfg := touchpad.DefaultConfig()
	cfg.Address = s.address(cfg.Address)
	cfg.Sleep = a.sleep
	if cfg.Int, err = s.in("int"); err != nil {
		return err
	}
	d := touchpad.New(bus, cfg)
	if err := d.DefaultCfg(); err != nil {
		return err
	}
	t, err := d.GetTouch()
	if err != nil {
		return err
	}
	g, err := d.GetGesture()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "x=%d y=%d pressed=%t gesture=0x%02X\n", t.X, t.Y, t.Pressed, byte(g))
	return err
}
