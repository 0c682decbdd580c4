package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of the "fields" list in a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON decodes and validates the body into out, answering 400 on failure.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err, out))
		return false
	}
	return true
}

// FormFieldErrors maps a form-binding failure to per-field messages keyed by
// the form field name, for re-rendering server-side forms. Failures that
// carry no field (unparseable dates, numbers) are keyed by "".
func FormFieldErrors(err error, out interface{}) map[string]string {
	model := requestModel(out)
	fields := map[string]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields[""] = "The submitted form is invalid."
		return fields
	}

	for _, fe := range verrs {
		name := model.name(fe.StructField(), "form")
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = fieldLabel(name) + " " + ruleMessage(fe)
	}
	return fields
}

func bindErrorDetails(err error, out interface{}) gin.H {
	model := requestModel(out)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   model.name(fe.StructField(), "json"),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: ruleMessage(fe),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := model.jsonPath(typeErr.Field)
		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			}},
		}
	}

	// time.Time fields decode themselves and lose the field name
	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		return gin.H{
			"json":   "invalid_date",
			"reason": fmt.Sprintf("%q is not an RFC 3339 timestamp", timeErr.Value),
		}
	}

	return gin.H{"reason": err.Error()}
}

// model resolves Go field names to their wire names on a flat request struct.
type model struct {
	t reflect.Type
}

func requestModel(v interface{}) model {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Kind() != reflect.Struct {
		t = nil
	}
	return model{t: t}
}

func (m model) name(goField, tagKey string) string {
	if m.t == nil {
		return goField
	}
	sf, ok := m.t.FieldByName(goField)
	if !ok {
		return goField
	}

	name, _, _ := strings.Cut(sf.Tag.Get(tagKey), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

// jsonPath maps the decoder's dotted path ("IsActive" or "isActive") back
// to the json tag; request models are flat so only the last segment counts.
func (m model) jsonPath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	if m.t == nil || path == "" {
		return path
	}

	for i := 0; i < m.t.NumField(); i++ {
		sf := m.t.Field(i)
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if strings.EqualFold(sf.Name, path) || (tag != "" && strings.EqualFold(tag, path)) {
			return m.name(sf.Name, "json")
		}
	}
	return path
}

// fieldLabel turns "ConfirmPassword" into "Confirm Password".
func fieldLabel(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ruleMessage(fe validator.FieldError) string {
	param := fe.Param()
	isText := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		if isText {
			return "must be at most " + param + " characters"
		}
		return "must be at most " + param
	case "min":
		if isText {
			return "must be at least " + param + " characters"
		}
		return "must be at least " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "eqfield":
		return "must match " + fieldLabel(param)
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", fe.Tag(), param)
		}
		return "failed " + fe.Tag() + " validation"
	}
}
