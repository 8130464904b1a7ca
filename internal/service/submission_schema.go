package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
)

// ErrSubmissionInvalid 正式提交的数据未通过模板字段校验
var ErrSubmissionInvalid = errors.New("submission data does not satisfy the template")

// ValidationError 携带逐字段的校验信息
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSubmissionInvalid.Error(), strings.Join(e.Details, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrSubmissionInvalid }

// buildSchema 由字段描述生成 JSON Schema
//   - required 字段进入 required 列表，字符串类型额外要求非空
//   - number → number，checkbox → boolean，其余 → string
//   - select 的 options 转为 enum
func buildSchema(fields []model.TemplateField) map[string]interface{} {
	properties := make(map[string]interface{}, len(fields))
	required := make([]string, 0)

	for _, f := range fields {
		prop := map[string]interface{}{}
		switch f.Type {
		case "number":
			prop["type"] = "number"
		case "checkbox":
			prop["type"] = "boolean"
		default:
			prop["type"] = "string"
			if f.Required {
				prop["minLength"] = 1
			}
		}
		if f.Type == "date" {
			prop["format"] = "date"
		}
		if len(f.Options) > 0 {
			enum := make([]interface{}, 0, len(f.Options))
			for _, o := range f.Options {
				enum = append(enum, o)
			}
			prop["enum"] = enum
		}
		properties[f.ID] = prop
		if f.Required {
			required = append(required, f.ID)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// validateSubmission 按模板字段校验表单数据
func validateSubmission(fields []model.TemplateField, data map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(buildSchema(fields)),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return &ValidationError{Details: details}
}
