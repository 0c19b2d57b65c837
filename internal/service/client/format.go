package client

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/oshokin/irrigation/internal/clock"
	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
)

// writeSnapshot renders the controller state as aligned text.
func writeSnapshot(w io.Writer, s domain.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0) //nolint:mnd // Two spaces between columns.

	fmt.Fprintf(tw, "time:\t%s\n", s.Time.Format(time.RFC3339))
	fmt.Fprintf(tw, "mode:\t%s\n", domain.Mode(s.ManualMode))
	fmt.Fprintf(tw, "clock offset:\t%s\n", time.Duration(s.ClockOffset)*time.Second)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DEVICE\tPIN\tSTATE\tSTART\tDURATION")

	for _, d := range s.Devices {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			d.Name,
			d.Pin,
			onOff(d.IsOn),
			clock.FormatTimeOfDay(d.Schedule.StartOffsetSeconds),
			time.Duration(d.Schedule.DurationSeconds)*time.Second)
	}

	return tw.Flush()
}

func onOff(on bool) string {
	if on {
		return "on"
	}

	return "off"
}
