// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/charmbracelet/log"

	"github.com/stackgraph/stackgraph/internal/config"
	"github.com/stackgraph/stackgraph/internal/dag"
	"github.com/stackgraph/stackgraph/internal/issue"
	"github.com/stackgraph/stackgraph/internal/params"
	"github.com/stackgraph/stackgraph/internal/plugin"
	"github.com/stackgraph/stackgraph/pkg/archspec"
	"github.com/stackgraph/stackgraph/pkg/depgraph"
	"github.com/stackgraph/stackgraph/pkg/fileref"
	"github.com/stackgraph/stackgraph/pkg/specyaml"
)

// ServiceError is an error that carries rendering information for the CLI layer.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps a command failure to an issue catalog ID and a styled message.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	var cycleErr *dag.CycleError

	switch {
	case errors.Is(err, params.ErrMissingParameter):
		issueID = issue.MissingParameterId
	case errors.Is(err, fileref.ErrFileReference):
		issueID = issue.FileReferenceFailedId
	case errors.As(err, &cycleErr):
		issueID = issue.DependencyCycleId
	case errors.Is(err, depgraph.ErrGraphStructure):
		issueID = issue.GraphStructureId
	case errors.Is(err, archspec.ErrInvalidSpec):
		issueID = issue.SpecInvalidId
	case errors.Is(err, specyaml.ErrSpecParse):
		issueID = issue.SpecParseErrorId
	case errors.Is(err, plugin.ErrToolNotInstalled):
		issueID = issue.RegistryToolNotFoundId
	case errors.Is(err, plugin.ErrChecksumMismatch), errors.Is(err, plugin.ErrUnsafeArchive),
		errors.Is(err, plugin.ErrDownloadTooLarge):
		issueID = issue.PluginInstallFailedId
	case errors.Is(err, config.ErrInvalidConfig):
		issueID = issue.ConfigLoadFailedId
	case errors.Is(err, fs.ErrNotExist):
		issueID = issue.FileNotFoundId
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display: an ActionableError with its
// suggestions, or any other error with the hints of the parameters or edges it names.
func formatErrorForDisplay(err error, verboseMode bool) string {
	return issue.Explain(err, verboseMode)
}

// renderServiceError prints the styled message, then the issue help page.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, style string, logger *log.Logger) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(style)
		if renderErr != nil {
			logger.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// fail renders err with its issue page and returns an ExitError that the root error
// handler does not print again.
func (a *App) fail(err error) error {
	issueID, styled := classifyError(err, a.verbose())
	svcErr := newServiceError(err, issueID, styled)
	renderServiceError(a.stderr, svcErr, a.issueStyle(), a.logger)
	return &ExitError{Code: 1, Err: svcErr}
}
