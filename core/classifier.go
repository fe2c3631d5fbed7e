package core

import (
	"fmt"
	"net/http"
)

// TransportResult 一次网络调用的原始结果
// Err 非空表示没有拿到 HTTP 响应
type TransportResult struct {
	StatusCode int
	Body       []byte
	Err        error
}

// Succeeded 2xx 且无传输错误
func (r TransportResult) Succeeded() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Disposition 失败结果的处置方式
type Disposition int

const (
	DispositionRetrySame Disposition = iota
	DispositionFailover
	DispositionFatal
	DispositionNetworkFailure
)

func (d Disposition) String() string {
	switch d {
	case DispositionRetrySame:
		return "retry_same"
	case DispositionFailover:
		return "failover"
	case DispositionFatal:
		return "fatal"
	case DispositionNetworkFailure:
		return "network_failure"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Classify 重试策略的唯一判定点，不处理 2xx (由调用方先判断 Succeeded)
func Classify(r TransportResult) Disposition {
	if r.Err != nil {
		return DispositionNetworkFailure
	}

	switch r.StatusCode {
	case http.StatusServiceUnavailable:
		return DispositionRetrySame
	case http.StatusTooManyRequests:
		return DispositionFailover
	default:
		return DispositionFatal
	}
}

// errorFor 将处置方式映射为带状态码的哨兵错误
func errorFor(d Disposition, r TransportResult) error {
	switch d {
	case DispositionNetworkFailure:
		return fmt.Errorf("%w: %v", ErrNetworkFailure, r.Err)
	case DispositionRetrySame:
		return fmt.Errorf("%w: HTTP %d", ErrTransientService, r.StatusCode)
	case DispositionFailover:
		return fmt.Errorf("%w: HTTP %d", ErrQuotaExceeded, r.StatusCode)
	default:
		return fmt.Errorf("%w: HTTP %d %s", ErrFatalService, r.StatusCode, http.StatusText(r.StatusCode))
	}
}
