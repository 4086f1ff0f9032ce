package transport

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-tasks/core"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError renders any error as the task error envelope. Internal
// failures are normalized first, so their detail never leaves the
// process.
func writeError(c echo.Context, err error) error {
	mapped := core.MapError(err)
	if mapped == nil {
		return nil
	}
	status := mapped.Code
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, errorResponse{
		Error: errorBody{
			Code:    mapped.TextCode,
			Message: mapped.Message,
			Field:   core.ErrorField(mapped),
		},
	})
}

func badPayload(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryBadInput, "transport: invalid request payload").
		WithCode(http.StatusBadRequest).
		WithTextCode(core.TaskErrorBadInput)
}

func missingIdentity() error {
	return core.NewAuthError(core.AuthReasonMissing, "transport: request identity is missing")
}
