package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"singalong/internal/preflight"
)

type level int

const (
	levelInfo level = iota
	levelOK
	levelWarn
	levelError
)

var levelTags = map[level]string{
	levelInfo:  "INFO",
	levelOK:    "OK",
	levelWarn:  "WARN",
	levelError: "ERROR",
}

var levelColors = map[level]text.Colors{
	levelInfo:  {text.FgBlue},
	levelOK:    {text.FgGreen},
	levelWarn:  {text.FgYellow},
	levelError: {text.FgRed},
}

func checkLevel(result preflight.Result) level {
	if result.Passed {
		return levelOK
	}
	if result.Optional {
		return levelWarn
	}
	return levelError
}

// statusWriter prints "label: [TAG] message" lines grouped under headed
// sections, colored when writing to a terminal.
type statusWriter struct {
	out   io.Writer
	color bool
}

const statusLabelWidth = 20

func (w statusWriter) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	if w.color {
		heading, rule = text.FgBlue.Sprint(heading), text.FgBlue.Sprint(rule)
	}
	fmt.Fprintln(w.out, heading)
	fmt.Fprintln(w.out, rule)
}

func (w statusWriter) line(label string, lv level, message string) {
	tag := "[" + levelTags[lv] + "]"
	if message != "" {
		tag += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", tag)
	if w.color {
		line = levelColors[lv].Sprint(line)
	}
	fmt.Fprintln(w.out, line)
}

func (w statusWriter) blank() { fmt.Fprintln(w.out) }

// shouldColorize reports whether writer is a terminal and NO_COLOR is unset.
func shouldColorize(writer io.Writer) bool {
	if _, off := os.LookupEnv("NO_COLOR"); off {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
