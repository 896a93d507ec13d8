package service

import (
	"errors"
	"fmt"
	"strings"
)

// 生成失败分类。分类只依赖我们能观察到的信号（finish reason / HTTP 状态 / 报错文本），
// 不绑定具体 provider 错误码。
type GenErrorKind string

const (
	ErrEmptyResult     GenErrorKind = "empty_result"
	ErrMalformedOutput GenErrorKind = "malformed_output"
	ErrSafetyBlocked   GenErrorKind = "safety_blocked"
	ErrAbnormalStop    GenErrorKind = "abnormal_stop"
	ErrNoArtifact      GenErrorKind = "no_artifact_returned"
	ErrQuotaExceeded   GenErrorKind = "quota_exceeded"
	ErrAuthFailure     GenErrorKind = "auth_failure"
	ErrUnknown         GenErrorKind = "unknown"
)

// GenError 附在具体实体上的失败原因。Message 直接作为用户可见的 reason 文本。
type GenError struct {
	Kind    GenErrorKind
	Message string
}

func (e *GenError) Error() string {
	return e.Message
}

func newGenError(kind GenErrorKind, format string, args ...interface{}) *GenError {
	return &GenError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Reason 把任意错误转成实体上可展示的失败原因文本
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Message
	}
	return err.Error()
}

// classifyTransportError 按报错文本归类配额 / 鉴权类错误，其余归 Unknown
func classifyTransportError(err error) *GenError {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(lower, "quota") || strings.Contains(msg, "429"):
		return newGenError(ErrQuotaExceeded, "配额已用尽，请检查你的套餐或稍后再试")
	case strings.Contains(lower, "api key not valid") || strings.Contains(lower, "permission") || strings.Contains(lower, "unauthenticated"):
		return newGenError(ErrAuthFailure, "API Key 无效或权限不足")
	default:
		return newGenError(ErrUnknown, "%s", msg)
	}
}
