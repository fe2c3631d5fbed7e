package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		res  TransportResult
		want Disposition
		kind FailureKind
	}{
		{"transport error", TransportResult{Err: errors.New("refused")}, DispositionNetworkFailure, KindNetworkFailure},
		{"transport error wins over status", TransportResult{StatusCode: 503, Err: errors.New("eof")}, DispositionNetworkFailure, KindNetworkFailure},
		{"service unavailable", TransportResult{StatusCode: 503}, DispositionRetrySame, KindTransientService},
		{"too many requests", TransportResult{StatusCode: 429}, DispositionFailover, KindQuotaExceeded},
		{"bad request", TransportResult{StatusCode: 400}, DispositionFatal, KindFatalService},
		{"forbidden", TransportResult{StatusCode: 403}, DispositionFatal, KindFatalService},
		{"internal error", TransportResult{StatusCode: 500}, DispositionFatal, KindFatalService},
		{"bad gateway", TransportResult{StatusCode: 502}, DispositionFatal, KindFatalService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Classify(tc.res)
			assert.Equal(t, tc.want, d)
			assert.Equal(t, tc.kind, KindOf(errorFor(d, tc.res)))
		})
	}
}

func TestTransportResult_Succeeded(t *testing.T) {
	assert.True(t, TransportResult{StatusCode: 200}.Succeeded())
	assert.True(t, TransportResult{StatusCode: 204}.Succeeded())
	assert.False(t, TransportResult{StatusCode: 301}.Succeeded())
	assert.False(t, TransportResult{StatusCode: 200, Err: errors.New("read body")}.Succeeded())
}

func TestErrorFor_IncludesStatus(t *testing.T) {
	err := errorFor(DispositionFatal, TransportResult{StatusCode: 404})
	assert.True(t, errors.Is(err, ErrFatalService))
	assert.Contains(t, err.Error(), "HTTP 404 Not Found")
}

func TestDisposition_String(t *testing.T) {
	assert.Equal(t, "retry_same", DispositionRetrySame.String())
	assert.Equal(t, "failover", DispositionFailover.String())
	assert.Equal(t, "fatal", DispositionFatal.String())
	assert.Equal(t, "network_failure", DispositionNetworkFailure.String())
	assert.Equal(t, "disposition(42)", Disposition(42).String())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindTimeout, KindOf(ErrTimeout))
	assert.Equal(t, KindConfiguration, KindOf(ErrConfiguration))
	assert.Equal(t, KindResponseParse, KindOf(ErrResponseParse))
	assert.Equal(t, KindInvalidRequest, KindOf(ErrEmptyRequest))
	assert.Equal(t, KindAllCredentialsFailed, KindOf(errors.New("something else")))
}
