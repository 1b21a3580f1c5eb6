package api

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tmckit/internal/report"
)

func writeJSON(c *echo.Context, status int, v any) error {
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, v, ""); err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err := res.Write(buf.Bytes())
	return err
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return writeJSON(c, status, ErrorResponse{Error: ResponseError{
		Message: msg,
		Type:    errType,
		Param:   param,
	}})
}

// writeFailure reports err with the status of its failure kind, or with
// fallback when it has none.
func writeFailure(c *echo.Context, err error, fallback int, fallbackType, param string) error {
	status, errType := classify(err, fallback, fallbackType)
	return writeError(c, status, errType, err.Error(), param)
}

func writeBlob(c *echo.Context, contentType string, b []byte) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, contentType)
	res.WriteHeader(http.StatusOK)
	_, err := res.Write(b)
	return err
}

// formFile reads the named multipart file. A missing optional file yields
// nil bytes.
func formFile(r *http.Request, name string, required bool) ([]byte, error) {
	f, _, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, newInvalidRequest("missing multipart file " + name)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(f)
	return io.ReadAll(f)
}
