package constants

// API error codes, mapped to HTTP status by the error envelope
// (catalogerr.HTTPStatus).
const (
	ErrCodeInvalidHash          = "INVALID_HASH"
	ErrCodeInvalidQuery         = "INVALID_QUERY"
	ErrCodeInvalidBody          = "INVALID_BODY"
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeMissingFile          = "MISSING_FILE"
	ErrCodeEmptyUpload          = "EMPTY_UPLOAD"
	ErrCodeHashMismatch         = "HASH_MISMATCH"
	ErrCodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeAssetNotFound        = "ASSET_NOT_FOUND"
	ErrCodeFileNotFound         = "FILE_NOT_FOUND"
	ErrCodeBackendUnsupported   = "BACKEND_UNSUPPORTED"
	ErrCodeUploadIOError        = "UPLOAD_IO_ERROR"
	ErrCodeInternalError        = "INTERNAL"
)
