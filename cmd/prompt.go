package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// prompter asks for missing values on the command's input stream.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints label and reads one line. An empty answer yields def. With no
// default an empty answer is asked again; end of input is an error.
func (p *prompter) ask(label, def string) (string, error) {
	for {
		if def != "" {
			fmt.Fprintf(p.out, "%s [%s]: ", label, def)
		} else {
			fmt.Fprintf(p.out, "%s: ", label)
		}
		line, err := p.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		if def != "" {
			return def, nil
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no value given for %s", strings.ToLower(label))
		}
		if err != nil {
			return "", err
		}
	}
}

// confirm asks a yes/no question; an empty answer yields def.
func (p *prompter) confirm(label string, def bool) (bool, error) {
	hint := "n"
	if def {
		hint = "y"
	}
	for {
		answer, err := p.ask(label+" (y/n)", hint)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}
