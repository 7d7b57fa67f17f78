package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	sherrors "github.com/huntgrid/huntkit/internal/shared/errors"
)

// printCLIError renders toolkit errors with their title, detail lines and
// help reference; anything else prints as-is.
func printCLIError(err error) {
	var herr *sherrors.Error
	if !stderrors.As(err, &herr) {
		fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		return
	}

	fmt.Fprintln(os.Stderr, colorError(herr.Title))
	for _, line := range herr.Lines {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}
	if herr.Err != nil {
		fmt.Fprintf(os.Stderr, "  cause: %v\n", herr.Err)
	}
	if herr.HelpURI != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", colorInfo(herr.HelpURI))
	}
}
