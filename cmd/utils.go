package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/chukul/cloudview/internal/ui"
)

var stdinReader = bufio.NewReader(os.Stdin)

// promptValue asks for one value. On a terminal it uses the interactive input unless
// --no-tui is set; piped stdin is read line by line.
func promptValue(label, placeholder string, secret bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine()
	}

	if !noTUI {
		v, err := ui.GetInput(label, placeholder, secret)
		return strings.TrimSpace(v), err
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	if secret {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine()
}

func readLine() (string, error) {
	line, err := stdinReader.ReadString('\n')
	// a final line without newline still counts
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// valueOr returns v, prompting for it when empty.
func valueOr(v, label, placeholder string, secret bool) (string, error) {
	if v != "" {
		return v, nil
	}
	return promptValue(label, placeholder, secret)
}

func truncateText(text string, max int) string {
	if len(text) > max {
		return text[:max-3] + "..."
	}
	return text
}
