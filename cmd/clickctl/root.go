package main

import (
	"io"
	"os"
	"time"

	"clickcode-go/config"
	"clickcode-go/drivers/pins"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

// Hardware is the host side clickctl talks through; *host.Board in
// production.
type Hardware interface {
	I2C(name string) (drivers.I2C, error)
	SPI(name string, hz int64, mode int) (drivers.SPI, error)
	Output(name string, initial bool) (pins.Output, error)
	Input(name string, pull gpio.Pull) (pins.Input, error)
	Close() error
}

type app struct {
	open    func() (Hardware, error)
	cfgPath string
	level   string

	cfg   *config.Config
	log   zerolog.Logger
	sleep func(time.Duration)
	now   func() time.Time
}

func newApp(open func() (Hardware, error)) *app {
	return &app{open: open, sleep: time.Sleep, now: time.Now}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "clickctl",
		Short:         "Read and write mikroBUS clicks from a Linux host",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "board file (default: built-in two-socket Pi shield)")
	root.PersistentFlags().StringVar(&a.level, "log-level", "info", "trace|debug|info|warn|error")

	root.AddCommand(a.listCmd(), a.readCmd(), a.timeCmd(), a.memCmd())
	return root
}

func (a *app) setup(errOut io.Writer) error {
	lvl, err := zerolog.ParseLevel(a.level)
	if err != nil {
		return err
	}
	var w io.Writer = errOut
	if f, ok := errOut.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.TimeOnly}
	}
	a.log = zerolog.New(w).Level(lvl).With().Timestamp().Logger()

	if a.cfgPath == "" {
		a.cfg = config.Default()
		return nil
	}
	a.cfg, err = config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.log.Debug().Str("path", a.cfgPath).Int("clicks", len(a.cfg.Clicks)).Msg("board loaded")
	return nil
}
