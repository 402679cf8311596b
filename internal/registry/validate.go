package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"haiku-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 错误信息里用 json 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode 严格解码：未知字段、多余内容、类型不符都算 VALIDATION_ERROR
func decode(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return domain.Validation("invalid arguments: %s", describe(err))
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return domain.Validation("invalid arguments: trailing data")
		}
	}
	return check(dst)
}

func check(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return domain.Validation("invalid arguments: %v", err)
	}
	fe := ves[0]
	// 去掉顶层结构体名：CreateArgs[...].data.title -> data.title
	field := strings.TrimPrefix(fe.Namespace(), rv.Type().Name()+".")
	switch fe.Tag() {
	case "required":
		return domain.Validation("field '%s' is required", field)
	case "email":
		return domain.Validation("field '%s' must be a valid email address", field)
	case "uuid":
		return domain.Validation("field '%s' must be a valid UUID", field)
	case "min", "gte":
		return domain.Validation("field '%s' must be at least %s", field, fe.Param())
	case "max", "lte":
		return domain.Validation("field '%s' must be at most %s", field, fe.Param())
	}
	return domain.Validation("field '%s' failed on '%s'", field, fe.Tag())
}

func describe(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field '%s' must be %s", typeErr.Field, typeErr.Type)
	}
	return err.Error()
}
