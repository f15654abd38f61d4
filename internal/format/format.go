// Package format renders CLI output: styled confirmations, clickable
// terminal links, and Jobber web-URI handling.
package format

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

// webURIField is the field Jobber mutations return for linking the
// created or updated record in the web app.
const webURIField = "jobberWebUri"

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")). // green
			Bold(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")). // blue
			Underline(true)
)

// isTerminal is swapped in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Success renders a green confirmation line.
func Success(message string) string {
	return successStyle.Render("✓ " + message)
}

// SuccessWithLink renders a confirmation followed by a clickable link to
// the record in the Jobber web app. The entity payload must carry
// jobberWebUri; a mutation response without it means the operation did
// not return the record it claimed to create, so this fails fast rather
// than printing a confirmation nothing backs up.
func SuccessWithLink(message string, entity map[string]any) (string, error) {
	uri, _ := entity[webURIField].(string)
	if uri == "" {
		return "", fmt.Errorf("%w: response has no %s field", domain.ErrInvalidInput, webURIField)
	}
	if err := ValidateWebURI(uri); err != nil {
		return "", err
	}
	return Success(message) + "\n  " + ClickableLink(uri, uri), nil
}

// ClickableLink renders an OSC 8 hyperlink when stdout is a terminal,
// and the bare URL otherwise (pipes, CI logs).
func ClickableLink(uri, text string) string {
	if !isTerminal() {
		return uri
	}
	// OSC 8 ; params ; URI ST text OSC 8 ; ; ST
	return linkStyle.Render(fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", uri, text))
}

// ValidateWebURI checks that a Jobber web URI is a usable https link.
func ValidateWebURI(uri string) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("%w: malformed web URI %q: %v", domain.ErrInvalidInput, uri, err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("%w: web URI %q must use https", domain.ErrInvalidInput, uri)
	}
	host := parsed.Hostname()
	if host != "getjobber.com" && !strings.HasSuffix(host, ".getjobber.com") {
		return fmt.Errorf("%w: web URI %q is not a getjobber.com link", domain.ErrInvalidInput, uri)
	}
	return nil
}
