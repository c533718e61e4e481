package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"clickcode-go/drivers/eeram"
	"clickcode-go/drivers/eeram3"
	"clickcode-go/drivers/mram"
	"clickcode-go/errcode"

	"github.com/spf13/cobra"
)

// memory is the byte-addressed view shared by the memory clicks.
type memory interface {
	Read(addr uint32, p []byte) error
	Write(addr uint32, p []byte) error
	Size() uint32
	// Store commits SRAM to the backup array where the chip has one.
	Store() error
}

type eeramMem struct{ d *eeram.Device }

func (m eeramMem) Read(addr uint32, p []byte) error  { return m.d.Read(uint16(addr), p) }
func (m eeramMem) Write(addr uint32, p []byte) error { return m.d.Write(uint16(addr), p) }
func (m eeramMem) Size() uint32                      { return eeram.Size }
func (m eeramMem) Store() error                      { return m.d.Store() }

type eeram3Mem struct{ d *eeram3.Device }

func (m eeram3Mem) Read(addr uint32, p []byte) error  { return m.d.Read(addr, p) }
func (m eeram3Mem) Write(addr uint32, p []byte) error { return m.d.Write(addr, p) }
func (m eeram3Mem) Size() uint32                      { return eeram3.Size }
func (m eeram3Mem) Store() error                      { return m.d.Store() }

type mramMem struct{ d *mram.Device }

func (m mramMem) Read(addr uint32, p []byte) error  { return m.d.Read(uint16(addr), p) }
func (m mramMem) Write(addr uint32, p []byte) error { return m.d.Write(uint16(addr), p) }
func (m mramMem) Size() uint32                      { return mram.Size }
func (m mramMem) Store() error                      { return nil }

func (a *app) openMemory(s *session) (memory, error) {
	switch s.click.Driver {
	case "eeram":
		bus, err := s.i2c()
		if err != nil {
			return nil, err
		}
		cfg := eeram.DefaultConfig()
		cfg.SRAMAddress = s.address(cfg.SRAMAddress)
		cfg.Sleep = a.sleep
		return eeramMem{eeram.New(bus, cfg)}, nil
	case "eeram3":
		spi, err := s.spi()
		if err != nil {
			return nil, err
		}
		cfg := eeram3.DefaultConfig()
		cfg.Sleep = a.sleep
		if cfg.CS, err = s.out("cs", true); err != nil {
			return nil, err
		}
		return eeram3Mem{eeram3.New(spi, cfg)}, nil
	case "mram":
		spi, err := s.spi()
		if err != nil {
			return nil, err
		}
		cfg := mram.DefaultConfig()
		if cfg.CS, err = s.out("cs", true); err != nil {
			return nil, err
		}
		if cfg.WP, err = s.out("wp", true); err != nil {
			return nil, err
		}
		if cfg.Hold, err = s.out("hold", true); err != nil {
			return nil, err
		}
		return mramMem{mram.New(spi, cfg)}, nil
	}
	return nil, errcode.New(errcode.Unsupported, "clickctl.mem", s.click.Driver+" is not a memory")
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errcode.Wrap(errcode.InvalidParams, "clickctl.mem", err)
	}
	return uint32(v), nil
}

// inRange rejects a span that does not fit in m. The adapters narrow
// addresses to the chip's width, so this must run before any access.
func inRange(m memory, addr uint32, n int) error {
	if addr >= m.Size() || uint64(addr)+uint64(n) > uint64(m.Size()) {
		return errcode.New(errcode.InvalidParams, "clickctl.mem", "address beyond end of memory")
	}
	return nil
}

func (a *app) memCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mem",
		Short: "Dump or write EERAM and MRAM clicks",
	}
	dump := &cobra.Command{
		Use:   "dump <click> <addr> [length]",
		Short: "Hex dump memory (length defaults to 256)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddr(args[1])
			if err != nil {
				return err
			}
			n := uint32(256)
			if len(args) == 3 {
				if n, err = parseAddr(args[2]); err != nil {
					return err
				}
			}
			return a.withClick(args[0], func(s *session) error {
				m, err := a.openMemory(s)
				if err != nil {
					return err
				}
				if err := inRange(m, addr, 1); err != nil {
					return err
				}
				n = min(n, m.Size()-addr)
				buf := make([]byte, n)
				if err := m.Read(addr, buf); err != nil {
					return err
				}
				return dumpHex(cmd.OutOrStdout(), addr, buf)
			})
		},
	}
	var store bool
	write := &cobra.Command{
		Use:   "write <click> <addr> <hex>...",
		Short: "Write hex bytes, e.g. 'de ad be ef' or deadbeef",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddr(args[1])
			if err != nil {
				return err
			}
			data, err := hex.DecodeString(strings.Join(args[2:], ""))
			if err != nil {
				return errcode.Wrap(errcode.InvalidParams, "clickctl.mem", err)
			}
			return a.withClick(args[0], func(s *session) error {
				m, err := a.openMemory(s)
				if err != nil {
					return err
				}
				if err := inRange(m, addr, len(data)); err != nil {
					return err
				}
				if err := m.Write(addr, data); err != nil {
					return err
				}
				s.log.Info().Uint32("addr", addr).Int("bytes", len(data)).Msg("written")
				if store {
					if err := m.Store(); err != nil {
						return err
					}
					s.log.Info().Msg("stored")
				}
				return nil
			})
		},
	}
	write.Flags().BoolVar(&store, "store", false, "commit SRAM to EEPROM after writing")
	cmd.AddCommand(dump, write)
	return cmd
}

// dumpHex prints 16 bytes per line prefixed with the absolute address.
func dumpHex(w io.Writer, addr uint32, b []byte) error {
	for len(b) > 0 {
		n := min(16, len(b))
		if _, err := fmt.Fprintf(w, "%06X  % X\n", addr, b[:n]); err != nil {
			return err
		}
		addr += uint32(n)
		b = b[n:]
	}
	return nil
}
