package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	mferrors "github.com/conduit-lang/manifold/pkg/errors"
)

// FormatError renders err for the terminal. Registry errors show their kind
// as a header, then the subject, message and hint on separate lines.
// suggestions, if any, are offered as "Did you mean".
//
// Example output:
//
//	✗ LOOKUP ERROR: billing.invoce
//	   component "billing" has no entity "invoce"
//
//	   Did you mean: invoice?
func FormatError(err error, suggestions []string, noColor bool) string {
	var b strings.Builder

	header := color.New(color.FgRed, color.Bold)
	body := color.New(color.FgRed)
	hint := color.New(color.FgYellow)
	if noColor {
		header.DisableColor()
		body.DisableColor()
		hint.DisableColor()
	}

	var e *mferrors.Error
	if errors.As(err, &e) {
		title := "ERROR"
		if e.Kind != nil {
			title = strings.ToUpper(e.Kind.Error())
		}
		if e.Subject != "" {
			header.Fprintf(&b, "✗ %s: %s\n", title, e.Subject)
		} else {
			header.Fprintf(&b, "✗ %s\n", title)
		}

		message := e.Message
		if e.Err != nil {
			message += ": " + e.Err.Error()
		}
		for _, line := range strings.Split(message, "\n") {
			body.Fprintf(&b, "   %s\n", line)
		}
		if e.Hint != "" {
			b.WriteString("\n")
			hint.Fprintf(&b, "   hint: %s\n", e.Hint)
		}
	} else {
		header.Fprintf(&b, "✗ %v\n", err)
	}

	if len(suggestions) > 0 {
		b.WriteString("\n")
		hint.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(suggestions, ", "))
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, err error, suggestions []string, noColor bool) {
	fmt.Fprint(w, FormatError(err, suggestions, noColor))
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	green.Fprintf(w, "✓ %s\n", message)
}
