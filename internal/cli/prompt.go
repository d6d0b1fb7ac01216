package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command's input stream.
type prompter struct {
	in  io.Reader
	out io.Writer
	r   *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, out: cmd.ErrOrStderr(), r: bufio.NewReader(in)}
}

// Line asks for a single line of input.
func (p *prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// Secret asks for input without echo when reading from a terminal.
func (p *prompter) Secret(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(p.out, "%s: ", label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}
	return p.Line(label)
}

// Confirm asks a yes/no question defaulting to no.
func (p *prompter) Confirm(question string) bool {
	answer, err := p.Line(question + " [y/N]")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// flagOrPrompt returns the flag value or asks for it.
func flagOrPrompt(cmd *cobra.Command, p *prompter, flag, label string, secret bool) (string, error) {
	v, _ := cmd.Flags().GetString(flag)
	if v != "" {
		return v, nil
	}
	if secret {
		return p.Secret(label)
	}
	return p.Line(label)
}
