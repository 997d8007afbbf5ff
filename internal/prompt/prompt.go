// Package prompt reads operator answers from a line-oriented terminal:
// free text, y/n confirmations, numbered menus and secrets.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrAborted is returned when input ends (EOF / Ctrl-D) before an answer.
	ErrAborted = errors.New("input aborted")

	// ErrInvalidMenuChoice is returned by Menu for answers outside the menu.
	ErrInvalidMenuChoice = errors.New("invalid menu choice")
)

// Test seams for the terminal calls.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// fd is the terminal descriptor behind in, or -1 when in is not a TTY.
	fd int
}

// New returns a Prompter. When in is a terminal, Secret reads without echo.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// Out is the writer questions are printed to.
func (p *Prompter) Out() io.Writer { return p.out }

// Line prints prompt and returns the trimmed answer. A final line without a
// newline is still returned; EOF with nothing typed is ErrAborted.
func (p *Prompter) Line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return strings.TrimSpace(line), nil
			}
			fmt.Fprintln(p.out)
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a y/n question. Only "y" and "yes" (any case) count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	ans, err := p.Line(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Menu prints numbered options and returns the 1-based choice. Answers that
// are not a listed number return ErrInvalidMenuChoice.
func (p *Prompter) Menu(title string, options []string) (int, error) {
	fmt.Fprintln(p.out, title)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
	ans, err := p.Line(fmt.Sprintf("Enter choice [1-%d]: ", len(options)))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(ans)
	if err != nil || n < 1 || n > len(options) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMenuChoice, ans)
	}
	return n, nil
}

// Choose is Menu that re-asks until a valid choice is made or input ends.
func (p *Prompter) Choose(title string, options []string) (int, error) {
	for {
		n, err := p.Menu(title, options)
		if errors.Is(err, ErrInvalidMenuChoice) {
			fmt.Fprintf(p.out, "%v, please try again.\n\n", err)
			continue
		}
		return n, err
	}
}

// Secret reads a value without echo when attached to a terminal, otherwise
// it falls back to Line.
func (p *Prompter) Secret(prompt string) (string, error) {
	if p.fd < 0 {
		return p.Line(prompt)
	}
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	b, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Required re-asks via ask until it yields a non-empty answer. emptyErr is
// printed before every retry.
func (p *Prompter) Required(ask func() (string, error), emptyErr error) (string, error) {
	for {
		v, err := ask()
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
		fmt.Fprintf(p.out, "%v, please try again.\n", emptyErr)
	}
}
