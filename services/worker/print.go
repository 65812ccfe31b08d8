package worker

import (
	"fmt"
	"strings"

	"sjsage522/hoyocodeworker/internal/scraper"

	"github.com/jedib0t/go-pretty/v6/table"
)

func (w *Worker) printCodes(result *scraper.CodeResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w.out)
	t.SetTitle(w.profile.Name + " codes")
	t.AppendHeader(table.Row{"Code", "Server", "Rewards", "Valid", "Expired"})

	for _, c := range result.Codes {
		rewards := make([]string, 0, len(c.Rewards))
		for _, r := range c.Rewards {
			rewards = append(rewards, fmt.Sprintf("×%s %s", r.Amount, r.Name))
		}
		t.AppendRow(table.Row{
			c.Code,
			c.Server,
			strings.Join(rewards, "\n"),
			strings.Join(c.Duration.Pair(), " - "),
			c.IsExpired,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(result.Codes)})

	t.SetStyle(table.StyleRounded)
	t.Render()
	w.printSkipped(result.Errors.Messages())
}

func (w *Worker) printEvents(result *scraper.EventResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w.out)
	t.SetTitle(w.profile.Name + " events")
	t.AppendHeader(table.Row{"Event", "Status", "Duration", "Type", "Page"})

	for _, e := range result.Events {
		t.AppendRow(table.Row{
			e.Event,
			e.Status,
			strings.Join(e.Duration, " – "),
			strings.Join(e.Type, ", "),
			e.Page,
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
	w.printSkipped(result.Errors.Messages())
}

func (w *Worker) printSkipped(messages []string) {
	for _, m := range messages {
		fmt.Fprintln(w.out, "skipped:", m)
	}
}
