// Package catalogerr defines the sentinel error type returned by every
// service-layer operation in this catalog, and the codes the HTTP adapter
// maps onto status lines.
package catalogerr

import (
	"errors"
	"fmt"

	"assetcatalog/internal/constants"
)

// ServiceError is a service-level error carrying a stable code the HTTP
// adapter uses to pick a status and an envelope.
type ServiceError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// New creates a new ServiceError with no wrapped cause.
func New(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// WithDetails attaches field-level detail to a ServiceError copy.
func (e *ServiceError) WithDetails(details map[string]any) *ServiceError {
	return &ServiceError{Code: e.Code, Message: e.Message, Details: details, Err: e.Err}
}

// Wrap creates a ServiceError that carries an underlying cause.
func Wrap(code, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, Err: err}
}

// As returns the *ServiceError in err's chain and true, or nil and false
// if there is none.
func As(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// Pre-built sentinel errors, one per code the HTTP error envelope knows
// how to map to a status.
var (
	ErrInvalidHash        = New(constants.ErrCodeInvalidHash, "invalid hash format")
	ErrInvalidQuery       = New(constants.ErrCodeInvalidQuery, "invalid query parameters")
	ErrInvalidBody        = New(constants.ErrCodeInvalidBody, "invalid request body")
	ErrInvalidJSON        = New(constants.ErrCodeInvalidJSON, "invalid JSON")
	ErrMissingFile        = New(constants.ErrCodeMissingFile, "missing file part")
	ErrEmptyUpload        = New(constants.ErrCodeEmptyUpload, "empty upload")
	ErrHashMismatch       = New(constants.ErrCodeHashMismatch, "uploaded content does not match the supplied hash")
	ErrUnsupportedMedia   = New(constants.ErrCodeUnsupportedMediaType, "unsupported media type")
	ErrAssetNotFound      = New(constants.ErrCodeAssetNotFound, "asset not found")
	ErrFileNotFound       = New(constants.ErrCodeFileNotFound, "file not found on disk")
	ErrBackendUnsupported = New(constants.ErrCodeBackendUnsupported, "operation not supported by this backend")
	ErrUploadIO           = New(constants.ErrCodeUploadIOError, "upload I/O error")
	ErrInternal           = New(constants.ErrCodeInternalError, "internal server error")
)

// WrapInternal wraps an arbitrary error as an INTERNAL ServiceError.
func WrapInternal(err error) *ServiceError {
	return Wrap(constants.ErrCodeInternalError, "internal error", err)
}

// NotFound builds an ASSET_NOT_FOUND error with a message naming the id.
func NotFound(assetInfoID string) *ServiceError {
	return New(constants.ErrCodeAssetNotFound, fmt.Sprintf("asset not found: %s", assetInfoID))
}

// HTTPStatus maps a ServiceError code to the HTTP status the error
// envelope reports for it.
func HTTPStatus(code string) int {
	switch code {
	case constants.ErrCodeInvalidHash, constants.ErrCodeInvalidQuery, constants.ErrCodeInvalidBody,
		constants.ErrCodeInvalidJSON, constants.ErrCodeMissingFile, constants.ErrCodeEmptyUpload,
		constants.ErrCodeHashMismatch:
		return 400
	case constants.ErrCodeUnsupportedMediaType:
		return 415
	case constants.ErrCodeAssetNotFound, constants.ErrCodeFileNotFound:
		return 404
	case constants.ErrCodeBackendUnsupported:
		return 501
	case constants.ErrCodeUploadIOError, constants.ErrCodeInternalError:
		return 500
	default:
		return 500
	}
}
