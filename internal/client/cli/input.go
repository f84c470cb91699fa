package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrCancelled is returned by Input when the user aborts a prompt.
var ErrCancelled = errors.New("input cancelled")

// Input reads user answers. PromptSecret does not echo.
type Input interface {
	Prompt(prompt string) (string, error)
	PromptSecret(prompt string) (string, error)
	Close() error
}

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// NewTerminalInput uses line editing with history when in is a terminal
// and falls back to plain line reads otherwise (pipes, scripts).
func NewTerminalInput(in *os.File, out io.Writer, historyPath string) Input {
	if term.IsTerminal(int(in.Fd())) {
		return newLinerInput(historyPath)
	}
	return NewPlainInput(in, out)
}

type linerInput struct {
	line        *liner.State
	historyPath string
}

func newLinerInput(historyPath string) *linerInput {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)

	in := &linerInput{line: l, historyPath: historyPath}
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = l.ReadHistory(f)
			f.Close()
		}
	}
	return in
}

func (l *linerInput) Prompt(prompt string) (string, error) {
	s, err := l.line.Prompt(prompt)
	if err != nil {
		return "", mapLinerErr(err)
	}
	if strings.TrimSpace(s) != "" {
		l.line.AppendHistory(s)
	}
	return strings.TrimSpace(s), nil
}

func (l *linerInput) PromptSecret(prompt string) (string, error) {
	s, err := l.line.PasswordPrompt(prompt)
	if err != nil {
		return "", mapLinerErr(err)
	}
	return strings.TrimSpace(s), nil
}

// Close saves the history (owner read/write only) and restores the terminal.
func (l *linerInput) Close() error {
	if l.historyPath != "" {
		if f, err := os.OpenFile(l.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = l.line.WriteHistory(f)
			f.Close()
		}
	}
	return l.line.Close()
}

func mapLinerErr(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return ErrCancelled
	}
	return err
}

// PlainInput reads whole lines from a reader. Secrets are read without
// echo when the reader is a terminal.
type PlainInput struct {
	reader *bufio.Reader
	in     io.Reader
	out    io.Writer
}

func NewPlainInput(in io.Reader, out io.Writer) *PlainInput {
	return &PlainInput{reader: bufio.NewReader(in), in: in, out: out}
}

// Prompt prints prompt and reads a single line; the trailing newline is
// trimmed. If EOF occurs after some input was read, the partial line is
// returned.
func (p *PlainInput) Prompt(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *PlainInput) PromptSecret(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Prompt(prompt)
	}

	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	b, err := readPassword(int(f.Fd()))
	defer common.WipeByteArray(b)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (p *PlainInput) Close() error { return nil }
