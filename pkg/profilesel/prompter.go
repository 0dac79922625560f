package profilesel

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TerminalPrompter obtains one integer selection from an operator. It
// blocks on a single line of input; an out-of-range or non-integer
// response is an error, never a retry loop.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter creates a prompter over the given streams.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Pick presents the options with 1-based indices and reads one integer
// selection, returning its zero-based index.
func (p *TerminalPrompter) Pick(prompt string, options []string) (int, error) {
	fmt.Fprintf(p.out, "%s:\n", prompt)
	for i, option := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, option)
	}
	fmt.Fprintf(p.out, "Enter selection [1-%d]: ", len(options))

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("read selection: %w", err)
	}

	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("selection must be an integer")
	}

	if choice < 1 || choice > len(options) {
		return 0, fmt.Errorf("selection %d out of range", choice)
	}

	return choice - 1, nil
}
