package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// resolveColors maps --color to a decision, honoring NO_COLOR and dumb
// terminals in auto mode.
func resolveColors(mode string) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false, nil
		}
		if os.Getenv("TERM") == "dumb" {
			return false, nil
		}
		return !color.NoColor, nil
	default:
		return false, fmt.Errorf("invalid color mode %q: must be auto, always, or never", mode)
	}
}

type printer struct {
	out       io.Writer
	useColors bool
}

func newPrinter(out io.Writer, useColors bool) *printer {
	return &printer{out: out, useColors: useColors}
}

func (p *printer) colored(c *color.Color, text string) string {
	if !p.useColors {
		return text
	}
	c.EnableColor()
	return c.Sprint(text)
}

// level renders text in the color of a severity level style.
func (p *printer) level(style, text string) string {
	switch style {
	case "low":
		return p.colored(color.New(color.FgGreen), text)
	case "medium":
		return p.colored(color.New(color.FgYellow), text)
	case "high":
		return p.colored(color.New(color.FgRed, color.Bold), text)
	default:
		return text
	}
}

func (p *printer) header(title string) {
	fmt.Fprintf(p.out, "\n%s\n", p.colored(color.New(color.Bold), title))
}

func (p *printer) faint(text string) string {
	return p.colored(color.New(color.Faint), text)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table renders rows under headers, borderless and left aligned.
func (p *printer) table(headers []string, rows [][]string) error {
	t := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	t.Header(headers)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}
