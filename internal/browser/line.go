package browser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/torosent/loanlens/internal/carousel"
)

// Line mode prompts and messages.
const (
	StartPrompt   = "\nPress Enter to begin viewing loan predictions..."
	CommandPrompt = "Enter 1 (next), 2 (prev), 0 (quit): "
	MsgExiting    = "Exiting."
	MsgInvalid    = "Invalid input."
	MsgEmpty      = "Empty carousel."
)

// Line is the prompt-driven browser.
type Line struct {
	in  io.Reader
	out io.Writer
}

// NewLine returns a browser reading commands from in and writing to out.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: in, out: out}
}

type lineResult struct {
	text string
	err  error
}

// Run shows the current record and applies commands until the user quits,
// input ends or ctx is cancelled. An empty navigator ends the session after
// reporting it.
func (l *Line) Run(ctx context.Context, nav Navigator) error {
	lines := make(chan lineResult)
	stop := make(chan struct{})
	defer close(stop)
	go readLines(l.in, lines, stop)

	next := func(prompt string) (string, bool, error) {
		if _, err := io.WriteString(l.out, prompt); err != nil {
			return "", false, err
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case res := <-lines:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return "", false, nil
				}
				return "", false, res.err
			}
			return res.text, true, nil
		}
	}

	if _, ok, err := next(StartPrompt); err != nil || !ok {
		if err != nil {
			return err
		}
		return l.println("\n" + MsgExiting)
	}

	for {
		current, err := nav.Current()
		if errors.Is(err, carousel.ErrEmpty) {
			return l.println(MsgEmpty)
		}
		if err != nil {
			return err
		}
		if err := RenderRecord(l.out, current); err != nil {
			return err
		}

		cmd, ok, err := next(CommandPrompt)
		if err != nil {
			return err
		}
		if !ok {
			return l.println("\n" + MsgExiting)
		}

		switch strings.TrimSpace(cmd) {
		case "1":
			err = nav.Next()
		case "2":
			err = nav.Previous()
		case "0":
			return l.println(MsgExiting)
		default:
			err = l.println(MsgInvalid)
		}
		if err != nil {
			return err
		}
	}
}

func (l *Line) println(msg string) error {
	_, err := fmt.Fprintln(l.out, msg)
	return err
}

// readLines feeds lines from r until EOF, an error, or stop is closed.
func readLines(r io.Reader, out chan<- lineResult, stop <-chan struct{}) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case out <- lineResult{text: scanner.Text()}:
		case <-stop:
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case out <- lineResult{err: err}:
	case <-stop:
	}
}
