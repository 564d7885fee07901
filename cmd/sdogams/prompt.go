package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lhaig/sdogams/internal/gams"
	"github.com/peterh/liner"
)

// prompter reads one line of user input after showing a prompt.
type prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// newPrompter opens the terminal. Tests replace it.
var newPrompter = func() prompter {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	return ln
}

const choosePrompt = "Choose type [0=SPLINE, 1=SOS2]: "

// chooser asks for the formulation of every lookup. The terminal is opened
// on the first question only.
type chooser struct {
	out        io.Writer
	stdoutUsed bool
	p          prompter
}

func (c *chooser) choose(d *gams.LookupData) (gams.Formulation, error) {
	if c.stdoutUsed {
		return 0, errors.New("interactive lookup type needs --output-file when the model is written to stdout")
	}
	if c.p == nil {
		c.p = newPrompter()
	}

	fmt.Fprintf(c.out, "Found Lookup '%s' used at:\n", d.Name)
	for _, loc := range d.Locations {
		fmt.Fprintf(c.out, "\t%s\n", loc)
	}

	for {
		line, err := c.p.Prompt(choosePrompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return 0, errors.New("aborted")
		}
		if err != nil {
			return 0, err
		}
		switch strings.TrimSpace(line) {
		case "0":
			return gams.Spline, nil
		case "1":
			return gams.SOS2, nil
		}
	}
}

func (c *chooser) close() {
	if c.p != nil {
		_ = c.p.Close()
		c.p = nil
	}
}
