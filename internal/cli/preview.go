package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/noah-isme/slotbook-api/internal/dto"
)

// PreviewCmd prints the slots an invitee would be offered for one date.
type PreviewCmd struct {
	EventType string `arg:"" name:"event-type" help:"Event type ID."`
	Date      string `arg:"" help:"Date as YYYY-MM-DD."`
	Timezone  string `short:"z" help:"Viewer timezone. Defaults to the host schedule timezone."`
}

func (c *PreviewCmd) Run(ctx *Context) error {
	b, err := ctx.backend()
	if err != nil {
		return err
	}
	resp, err := b.availability.AvailableSlots(ctx.Ctx, dto.AvailableSlotsQuery{
		EventTypeID: c.EventType,
		Date:        c.Date,
		Timezone:    c.Timezone,
	})
	if err != nil {
		return err
	}
	return printSlots(ctx.Out, resp)
}

func printSlots(out io.Writer, resp *dto.AvailableSlotsResponse) error {
	fmt.Fprintf(out, "%s (%s)\n", resp.Date, resp.Timezone)
	if len(resp.Slots) == 0 {
		fmt.Fprintln(out, "no slots")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCAL\tUTC START\tUTC END")
	for _, slot := range resp.Slots {
		fmt.Fprintf(tw, "%s-%s\t%s\t%s\n", slot.LocalStart, slot.LocalEnd,
			slot.StartTime.UTC().Format(time.RFC3339), slot.EndTime.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}
