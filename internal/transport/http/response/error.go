package response

import "haiku-api/internal/domain"

// kindCode 错误类型 → 响应码
var kindCode = map[domain.ErrorKind]int{
	domain.KindValidation:        CodeBadRequest,
	domain.KindNotFound:          CodeNotFound,
	domain.KindConflict:          CodeConflict,
	domain.KindUpstream:          CodeBadGateway,
	domain.KindConfiguration:     CodeServerError,
	domain.KindResourceExhausted: CodeUnavailable,
	domain.KindRouting:           CodeBadRequest,
	domain.KindInternal:          CodeServerError,
}

func CodeOf(kind domain.ErrorKind) int {
	if c, ok := kindCode[kind]; ok {
		return c
	}
	return CodeServerError
}

// FromError 统一错误映射；INTERNAL 不把底层错误暴露给调用方
func FromError(err error) Resp {
	e := domain.AsError(err)
	if e == nil {
		return OK(nil)
	}
	return Error(CodeOf(e.Kind), PublicMsg(e))
}

func PublicMsg(e *domain.Error) string {
	if e.Kind == domain.KindInternal {
		return "internal error"
	}
	return e.Error()
}
