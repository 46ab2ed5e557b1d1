package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON binds and validates the body; on failure it writes the 400
// with per-field detail and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "invalid_request", "Invalid request body", bindErrorDetails(err, out))
		return false
	}

	return true
}

// bindErrorDetails turns the binder's error into something a frontend
// can render. Field names are reported by their json tag, not the Go
// struct field.
func bindErrorDetails(err error, out interface{}) interface{} {
	root := structType(out)

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		fields := make([]FieldError, 0, len(vErrs))

		for _, fe := range vErrs {
			rule := fe.Tag()
			param := fe.Param()

			fields = append(fields, FieldError{
				Field:   jsonFieldName(root, fe.StructField()),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}

		return gin.H{"fields": fields}
	}

	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	// UnmarshalTypeError.Field already carries the json name
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := strings.TrimSpace(typeErr.Field)

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: "must be of type " + typeErr.Type.String(),
			}},
		}
	}

	return gin.H{"reason": err.Error()}
}

func structType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonFieldName maps a struct field of the request type to its json
// tag. A "[i]" suffix from dive rules on slices is preserved.
func jsonFieldName(root reflect.Type, structField string) string {
	name, index := structField, ""
	if i := strings.Index(structField, "["); i != -1 {
		name, index = structField[:i], structField[i:]
	}

	if root == nil {
		return structField
	}

	sf, ok := root.FieldByName(name)
	if !ok {
		return structField
	}

	tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if tag == "" || tag == "-" {
		return structField
	}

	return tag + index
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	}

	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}

	return "failed " + rule + " validation"
}
