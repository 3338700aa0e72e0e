package domain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ValidationError はリクエスト形状の不備です。ネットワーク呼び出しの前に返されます。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// ConfigurationError はAPIキーの欠落など、プロバイダーを構成できない状態を表します。
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ErrorKind はプロバイダーのエラーメッセージから推定した分類です。
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindQuota      ErrorKind = "quota"
	KindCapability ErrorKind = "capability"
	KindTransport  ErrorKind = "transport"
	KindMalformed  ErrorKind = "malformed"
	KindUnknown    ErrorKind = "unknown"
)

// HTTPStatusError は 2xx 以外のHTTP応答です。Err は応答本文を含むメッセージを持ちます。
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string { return e.Err.Error() }

func (e *HTTPStatusError) Unwrap() error { return e.Err }

// ProviderError はリモート呼び出しの失敗です。Message にはプロバイダーの生のメッセージを保持します。
// StatusCode はHTTP応答があった場合のみ設定されます。
type ProviderError struct {
	Provider   Provider
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError は err のメッセージから分類を推定して ProviderError を作ります。
func NewProviderError(p Provider, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	pe = &ProviderError{
		Provider: p,
		Kind:     ClassifyError(err),
		Message:  err.Error(),
		Err:      err,
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		pe.StatusCode = se.StatusCode
	}
	return pe
}

// urlPattern はメッセージ中のURLです。URLにはユーザーのプロンプトが含まれるため分類の対象外にします。
var urlPattern = regexp.MustCompile(`(?i)[a-z][a-z0-9+.-]*://[^\s"']+`)

// ClassifyError は ErrorKind を返します。HTTPステータスがあればそれを優先し、
// 無ければURLを除いたエラーメッセージから推定します。
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return ClassifyStatus(se.StatusCode)
	}
	msg := strings.ToLower(urlPattern.ReplaceAllString(err.Error(), ""))
	switch {
	case containsAny(msg, "api key not valid", "api_key_invalid", "unauthenticated", "invalid api key", "401"):
		return KindAuth
	case containsAny(msg, "quota", "resource_exhausted", "rate limit", "429"):
		return KindQuota
	case containsAny(msg, "permission_denied", "not supported", "billed users", "not granted", "not found for api version", "403"):
		return KindCapability
	case containsAny(msg, "timeout", "deadline", "connection refused", "no such host", "eof", "connection reset"):
		return KindTransport
	case containsAny(msg, "no image", "malformed", "invalid response", "decode"):
		return KindMalformed
	}
	return KindUnknown
}

// ClassifyStatus はHTTPステータスコードを ErrorKind に対応付けます。
func ClassifyStatus(code int) ErrorKind {
	switch {
	case code == 401:
		return KindAuth
	case code == 403:
		return KindCapability
	case code == 429:
		return KindQuota
	case code == 408 || code >= 500:
		return KindTransport
	}
	return KindUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
