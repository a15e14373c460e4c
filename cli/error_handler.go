package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/board/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	var boardErr *errors.BoardError
	stderrors.As(err, &boardErr)
	detail := func(key string) interface{} {
		if boardErr == nil {
			return ""
		}
		return boardErr.Details[key]
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "❌ Configuration file %v not found.\n", detail("path"))

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "❌ Invalid configuration: %v\n", err)
		fmt.Fprintf(h.Out, "Run 'board schema --config' to see the accepted settings.\n")

	case errors.ErrCodeTransport:
		fmt.Fprintf(h.Out, "❌ Could not reach the listings store at %v\n", detail("url"))
		fmt.Fprintf(h.Out, "Check api_url (or BOARD_API_URL) and that 'board serve start' is running.\n")

	case errors.ErrCodeMalformed:
		fmt.Fprintf(h.Out, "❌ The store sent data that could not be read: %v\n", err)

	case errors.ErrCodeInvalidInput:
		if boardErr != nil {
			fmt.Fprintf(h.Out, "❌ Invalid input: %s\n", boardErr.Message)
		} else {
			fmt.Fprintf(h.Out, "❌ Invalid input: %v\n", err)
		}

	case errors.ErrCodeAlreadyRunning:
		fmt.Fprintf(h.Out, "❌ The board store is already running (PID %v).\n", detail("pid"))
		fmt.Fprintf(h.Out, "Stop it with 'board serve stop'.\n")

	default:
		fmt.Fprintf(h.Out, "❌ Error: %v\n", err)
	}

	if h.Verbose && boardErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", boardErr.ToJSON())
	}
	return err
}
