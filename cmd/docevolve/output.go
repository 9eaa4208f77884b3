package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/docevolve/internal/config"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// printer renders command results as text or as structured documents.
type printer struct {
	w      io.Writer
	format string

	title *color.Color
	good  *color.Color
	warn  *color.Color
	faint *color.Color
}

func newPrinter(w io.Writer, format string, mode config.ColorMode) (*printer, error) {
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return nil, fmt.Errorf("unsupported format %q (want text, json or yaml)", format)
	}

	p := &printer{
		w:      w,
		format: format,
		title:  color.New(color.Bold),
		good:   color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		faint:  color.New(color.FgHiBlack),
	}
	enabled := colorEnabled(w, format, mode)
	for _, c := range []*color.Color{p.title, p.good, p.warn, p.faint} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p, nil
}

// colorEnabled decides on colors: never for structured output, otherwise
// per mode, with "auto" meaning a terminal on the other end.
func colorEnabled(w io.Writer, format string, mode config.ColorMode) bool {
	if format != formatText {
		return false
	}
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) structured() bool {
	return p.format != formatText
}

// encode writes v as JSON or YAML.
func (p *printer) encode(v any) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not structured", p.format)
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) heading(format string, args ...any) {
	p.title.Fprintf(p.w, format, args...)
	fmt.Fprintln(p.w)
}

func (p *printer) success(format string, args ...any) {
	p.good.Fprintf(p.w, format, args...)
	fmt.Fprintln(p.w)
}

func (p *printer) notice(format string, args ...any) {
	p.warn.Fprintf(p.w, format, args...)
	fmt.Fprintln(p.w)
}

// hash prints a hash line, dimmed.
func (p *printer) hash(prefix, hash string) {
	fmt.Fprint(p.w, prefix)
	p.faint.Fprint(p.w, hash)
	fmt.Fprintln(p.w)
}
