package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/tmckit/internal/preview"
	"github.com/samcharles93/tmckit/pkg/container"
	"github.com/samcharles93/tmckit/pkg/g1tg"
	"github.com/samcharles93/tmckit/pkg/tmc"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// errorKind maps a family of failures onto a response status and type.
type errorKind struct {
	status  int
	errType string
	causes  []error
}

// errorKinds is checked in order; the first kind with a matching cause wins.
var errorKinds = []errorKind{
	{http.StatusBadRequest, "invalid_request_error", []error{ErrInvalidRequest, tmc.ErrUnknownDialect}},
	{http.StatusNotFound, "not_found_error", []error{ErrNotFound}},
	{http.StatusUnprocessableEntity, "format_error", []error{container.ErrBadMagic, container.ErrUnsupportedVersion}},
	{http.StatusUnprocessableEntity, "linked_data_error", []error{container.ErrMissingLinkedData, container.ErrLinkedDataMismatch}},
	{http.StatusUnprocessableEntity, "missing_section_error", []error{container.ErrMissingRequiredSection}},
	{http.StatusUnprocessableEntity, "unsupported_error", []error{
		container.ErrUnsupportedEnumValue,
		container.ErrUnsupportedTextureFormat,
		g1tg.ErrTooLarge,
		preview.ErrUnsupported,
	}},
	{http.StatusUnprocessableEntity, "truncated_error", []error{container.ErrOutOfBounds, container.ErrMisalignedOrTruncated}},
}

// classify returns the status and error type for err. Failures of no known
// kind fall back to the given status and type.
func classify(err error, status int, errType string) (int, string) {
	for _, k := range errorKinds {
		for _, cause := range k.causes {
			if errors.Is(err, cause) {
				return k.status, k.errType
			}
		}
	}
	return status, errType
}
