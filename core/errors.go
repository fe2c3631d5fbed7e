package core

import "errors"

var (
	ErrConfiguration        = errors.New("configuration error: no usable credentials")
	ErrNetworkFailure       = errors.New("network failure")
	ErrTransientService     = errors.New("upstream temporarily unavailable")
	ErrQuotaExceeded        = errors.New("upstream quota exceeded")
	ErrFatalService         = errors.New("upstream rejected request")
	ErrResponseParse        = errors.New("failed to parse upstream response")
	ErrTimeout              = errors.New("dispatch deadline exceeded")
	ErrAllCredentialsFailed = errors.New("all credentials failed")
	ErrEmptyRequest         = errors.New("outbound request has no contents")
)

// FailureKind Outcome 失败类型 (对外稳定的字符串)
type FailureKind string

const (
	KindNone                 FailureKind = ""
	KindConfiguration        FailureKind = "configuration_error"
	KindNetworkFailure       FailureKind = "network_failure"
	KindTransientService     FailureKind = "transient_service_error"
	KindQuotaExceeded        FailureKind = "quota_exceeded"
	KindFatalService         FailureKind = "fatal_service_error"
	KindResponseParse        FailureKind = "response_parse_error"
	KindTimeout              FailureKind = "timeout"
	KindAllCredentialsFailed FailureKind = "all_credentials_failed"
	KindInvalidRequest       FailureKind = "invalid_request"
)

// KindOf 将哨兵错误映射为 FailureKind
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrNetworkFailure):
		return KindNetworkFailure
	case errors.Is(err, ErrTransientService):
		return KindTransientService
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, ErrFatalService):
		return KindFatalService
	case errors.Is(err, ErrResponseParse):
		return KindResponseParse
	case errors.Is(err, ErrEmptyRequest):
		return KindInvalidRequest
	default:
		return KindAllCredentialsFailed
	}
}
