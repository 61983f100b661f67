package utils

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Message is a user-facing outcome line printed by the CLI.
type Message struct {
	Success bool
	Text    string
	Hint    string
}

func SuccessMessage(text, hint string) Message {
	return Message{Success: true, Text: text, Hint: hint}
}

func ErrorMessage(text, hint string) Message {
	return Message{Success: false, Text: text, Hint: hint}
}

// Print writes the message in green or red, followed by the hint dimmed.
func (m Message) Print(w io.Writer) {
	paint := color.New(color.FgRed, color.Bold)
	mark := "✗"
	if m.Success {
		paint = color.New(color.FgGreen, color.Bold)
		mark = "✓"
	}
	paint.Fprintf(w, "%s %s\n", mark, m.Text)
	if m.Hint != "" {
		fmt.Fprintf(w, "  %s\n", color.New(color.Faint).Sprint(m.Hint))
	}
}
