package main

import (
	"fmt"
	"time"

	"clickcode-go/drivers/rtc12"
	"clickcode-go/drivers/rtc20"
	"clickcode-go/errcode"

	"github.com/spf13/cobra"
)

func (a *app) timeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "time",
		Short: "Set the clock of an RTC click",
	}
	set := &cobra.Command{
		Use:   "set <click> <hh:mm:ss> [yyyy-mm-dd]",
		Short: "Set time, and optionally date",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := time.Parse(time.TimeOnly, args[1])
			if err != nil {
				return errcode.Wrap(errcode.InvalidParams, "clickctl.time", err)
			}
			withDate := len(args) == 3
			if withDate {
				d, err := time.Parse(time.DateOnly, args[2])
				if err != nil {
					return errcode.Wrap(errcode.InvalidParams, "clickctl.time", err)
				}
				t = time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
			}
			return a.setClock(args[0], t, withDate)
		},
	}
	sync := &cobra.Command{
		Use:   "sync <click>",
		Short: "Set date and time from the host clock (UTC)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setClock(args[0], a.now().UTC(), true)
		},
	}
	cmd.AddCommand(set, sync)
	return cmd
}

func (a *app) setClock(name string, t time.Time, withDate bool) error {
	if withDate && (t.Year() < 2000 || t.Year() > 2099) {
		return errcode.New(errcode.InvalidParams, "clickctl.time", "year must be 2000..2099")
	}
	return a.withClick(name, func(s *session) error {
		bus, err := s.i2c()
		if err != nil {
			return err
		}
		hh, mm, ss := uint8(t.Hour()), uint8(t.Minute()), uint8(t.Second())
		day, month, year := uint8(t.Day()), uint8(t.Month()), uint8(t.Year()-2000)
		switch s.click.Driver {
		case "rtc12":
			d := rtc12.New(bus, rtc12.Config{Address: s.address(rtc12.Address)})
			if err := d.SetTime(rtc12.Time{Hours: hh, Minutes: mm, Seconds: ss}); err != nil {
				return err
			}
			if withDate {
				// DS1307 counts weekdays 1..7 from Sunday.
				wd := uint8(t.Weekday()) + 1
				if err := d.SetDate(rtc12.Date{Weekday: wd, Day: day, Month: month, Year: year}); err != nil {
					return err
				}
			}
			if err := d.Start(); err != nil {
				return err
			}
		case "rtc20":
			d := rtc20.New(bus, rtc20.Config{Address: s.address(rtc20.Address)})
			if err := d.SetTime(rtc20.Time{Hours: hh, Minutes: mm, Seconds: ss}); err != nil {
				return err
			}
			if withDate {
				wd := uint8(t.Weekday())
				if err := d.SetDate(rtc20.Date{Weekday: wd, Day: day, Month: month, Year: year}); err != nil {
					return err
				}
			}
		default:
			return errcode.New(errcode.Unsupported, "clickctl.time", s.click.Driver+" is not a clock")
		}
		s.log.Info().Str("time", t.Format(time.TimeOnly)).Bool("date", withDate).Msg("clock set")
		return nil
	})
}

func formatClock(year, month, day, h, m, s uint8) string {
	return fmt.Sprintf("20%02d-%02d-%02d %02d:%02d:%02d", year, month, day, h, m, s)
}
