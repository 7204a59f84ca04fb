package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/forPelevin/clipline/internal/domain/progress"
	"github.com/forPelevin/clipline/internal/logging"
	"github.com/forPelevin/clipline/internal/types"
	"github.com/forPelevin/clipline/internal/usecase"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func videoTable(videos []usecase.VideoWithClips) string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		produced := 0
		for _, c := range v.Clips {
			if c.Status == types.ClipProduced || c.Status == types.ClipPosted {
				produced++
			}
		}
		rows = append(rows, []string{
			v.ID,
			truncate(v.Title, 48),
			v.ChannelName,
			statusLabel(string(v.Status)),
			strconv.Itoa(len(v.Clips)),
			strconv.Itoa(produced),
		})
	}
	return renderTable(
		[]string{"Video", "Title", "Channel", "Status", "Clips", "Produced"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func clipTable(clips []types.Clip) string {
	rows := make([][]string, 0, len(clips))
	for _, c := range clips {
		rows = append(rows, []string{
			c.ID,
			c.VideoID,
			formatClock(c.StartTime) + "-" + formatClock(c.EndTime),
			fmt.Sprintf("%.0fs", c.Duration()),
			statusLabel(string(c.Status)),
			truncate(c.Title, 40),
		})
	}
	return renderTable(
		[]string{"Clip", "Video", "Range", "Length", "Status", "Title"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

var titleCaser = cases.Title(language.Und)

// statusLabel renders a stored status for humans: "produced" -> "Produced".
func statusLabel(s string) string {
	if s == "" {
		return "-"
	}
	return titleCaser.String(s)
}

// formatClock renders seconds as M:SS.s, or H:MM:SS.s past an hour.
func formatClock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	h := int(sec) / 3600
	m := int(sec) % 3600 / 60
	s := sec - float64(h*3600+m*60)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%04.1f", h, m, s)
	}
	return fmt.Sprintf("%d:%04.1f", m, s)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

// progressPrinter writes one line per descriptor. Listeners may fire from
// several production goroutines at once.
type progressPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	colorize bool
	last     string
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, colorize: logging.IsTerminal(w)}
}

func (p *progressPrinter) print(d progress.Descriptor) {
	line := progressLine(d)
	p.mu.Lock()
	defer p.mu.Unlock()
	if line == p.last {
		return
	}
	p.last = line
	if p.colorize {
		line = stageColor(d.Stage) + line + ansiReset
	}
	fmt.Fprintln(p.w, line)
}

func progressLine(d progress.Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%-13s] %5.1f%%  %s", statusLabel(string(d.Stage)), d.Progress, d.Message)
	if len(d.Clips) > 0 {
		parts := make([]string, 0, len(d.Clips))
		for _, c := range d.Clips {
			parts = append(parts, fmt.Sprintf("%s %d%%", shortID(c.ClipID), c.Progress))
		}
		b.WriteString("  (" + strings.Join(parts, ", ") + ")")
	}
	return b.String()
}

func stageColor(s progress.Stage) string {
	switch s {
	case progress.StageComplete:
		return ansiGreen
	case progress.StageProduction:
		return ansiYellow
	case progress.StageDownload, progress.StageTranscription, progress.StageAnalysis:
		return ansiBlue
	default:
		return ansiRed
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
