package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Bennylavaa/RealmPortal/internal/cli/appctx"
	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/render"
)

// Exit statuses
const (
	ExitOK             = 0
	ExitError          = 1
	ExitValidation     = 2
	ExitPartialFailure = 3
)

// exitCodeError carries the process exit status for an error
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }

func (e *exitCodeError) Unwrap() error { return e.err }

// exitError returns an error that will cause the CLI to exit with the given code
func exitError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: code, err: err}
}

// ExitCode maps an error returned by Execute to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var coded *exitCodeError
	if errors.As(err, &coded) {
		return coded.code
	}

	var (
		pathErr       *domain.PathError
		notFoundErr   *domain.NotFoundError
		validationErr *domain.ValidationError
	)
	if errors.As(err, &pathErr) || errors.As(err, &notFoundErr) || errors.As(err, &validationErr) {
		return ExitValidation
	}
	return ExitError
}

// exactArgs is cobra.ExactArgs with a validation exit status
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return exitError(ExitValidation, cobra.ExactArgs(n)(cmd, args))
	}
}

// maximumArgs is cobra.MaximumNArgs with a validation exit status
func maximumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return exitError(ExitValidation, cobra.MaximumNArgs(n)(cmd, args))
	}
}

// newRenderer builds a renderer for the configured output format. Colour is
// only used when writing to the real stdout.
func newRenderer(app *appctx.App, cmd *cobra.Command) (*render.Renderer, error) {
	format, err := render.ParseFormat(app.Config.Output)
	if err != nil {
		return nil, exitError(ExitValidation, err)
	}

	opts := render.Options{Format: format}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && f == os.Stdout {
		opts.Styles = render.DefaultStyles()
	}
	return render.NewRenderer(cmd.OutOrStdout(), opts), nil
}

// usageError reports a bad combination of flags or arguments
func usageError(format string, args ...interface{}) error {
	return exitError(ExitValidation, fmt.Errorf(format, args...))
}
