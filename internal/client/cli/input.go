package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// GetSimpleText prints a prompt to w and reads one line from scanner, the
// same scanner the REPL reads commands from. io.EOF means input ended.
func GetSimpleText(scanner *bufio.Scanner, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// Confirm asks a yes/no question; anything but "y" or "yes" means no.
func Confirm(scanner *bufio.Scanner, prompt string, w io.Writer) bool {
	answer, err := GetSimpleText(scanner, prompt+" (y/N)", w)
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}
