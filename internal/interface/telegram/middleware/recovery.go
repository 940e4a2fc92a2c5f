package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// A panicking command handler must not take the polling loop down.
// ══════════════════════════════════════════════════════════════════════════════

// UserErrorMessage is sent when a command fails unexpectedly.
const UserErrorMessage = "😔 Något gick fel. Försök igen om en stund."

// PanicError is returned for a recovered panic.
type PanicError struct {
	Command string
	Value   interface{}
	Stack   string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in /%s: %v", e.Command, e.Value)
}

// Recover runs fn and converts a panic into *PanicError. The stack is
// logged at error level.
func Recover(logger *slog.Logger, command string, telegramID int64, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Command: command, Value: r, Stack: string(debug.Stack())}
			if logger != nil {
				logger.Error("panic recovered in command handler",
					"command", command,
					"telegram_id", telegramID,
					"panic", fmt.Sprint(r),
					"stack", pe.Stack,
				)
			}
			err = pe
		}
	}()
	return fn()
}
