package extract

import "errors"

// Extraction stage errors. Each failed Extract call wraps exactly one
// of these so callers can classify without string matching.
var (
	ErrDownloadFailed  = errors.New("download failed")
	ErrParseFailed     = errors.New("no extractable content")
	ErrContentTooShort = errors.New("content too short")
)

// Stable failure tokens used in failure records and reports.
const (
	KindDownloadFailed  = "download_failed"
	KindParseFailed     = "parse_failed"
	KindContentTooShort = "content_too_short"
	KindExtractFailed   = "extract_failed"
)

// FailureKind maps an extraction error to its stable token.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrDownloadFailed):
		return KindDownloadFailed
	case errors.Is(err, ErrParseFailed):
		return KindParseFailed
	case errors.Is(err, ErrContentTooShort):
		return KindContentTooShort
	default:
		return KindExtractFailed
	}
}
