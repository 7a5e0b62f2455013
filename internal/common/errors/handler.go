// internal/common/errors/handler.go
package errors

// ErrorHandler normalizes and logs errors before they are surfaced to the user.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err for the named operation and returns its StandardError form.
// AuthNotReady is logged at debug-equivalent silence: it is a state, not a failure.
func (h *ErrorHandler) Handle(operation string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := Normalize(err)
	if stdErr.Code == ErrCodeAuthNotReady {
		return stdErr
	}

	fields := map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	if stdErr.Code == ErrCodeValidation {
		h.logger.Warn("operation rejected", fields)
	} else {
		h.logger.Error("operation failed", fields)
	}
	return stdErr
}
