package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/geocoder89/hrhub/internal/domain/employee"
	"github.com/geocoder89/hrhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := gin.New()
	r.POST("/api/employees", func(ctx *gin.Context) {
		var req employee.CreateEmployeeRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	w := doJSON(t, r, http.MethodPost, "/api/employees", `{"first_name":"Juan"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"last_name":     "required",
		"sex":           "required",
		"date_of_birth": "required",
	}

	got := make(map[string]string, len(resp.Error.Details.Fields))

	for _, fe := range resp.Error.Details.Fields {
		got[fe.Field] = fe.Rule
	}

	for field, rule := range wantRules {
		if got[field] != rule {
			t.Errorf("field %q: got rule %q, want %q (fields=%v)", field, got[field], rule, got)
		}
	}

	if _, ok := got["first_name"]; ok {
		t.Error("first_name was supplied and must not be reported")
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	r := gin.New()
	r.POST("/api/employees", func(ctx *gin.Context) {
		var req employee.CreateEmployeeRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	w := doJSON(t, r, http.MethodPost, "/api/employees", `{"last_name":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Error.Details.JSON != "invalid_json_syntax" {
		t.Errorf("got %q, want invalid_json_syntax", resp.Error.Details.JSON)
	}
}
