package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["success", "message"],
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": "string", "minLength": 1},
    "error": {"type": "string", "minLength": 1},
    "code": {"type": "string", "pattern": "^[A-Z_]+$"},
    "data": {},
    "details": {}
  },
  "if": {"properties": {"success": {"const": false}}},
  "then": {"required": ["error", "code"], "not": {"required": ["data"]}},
  "else": {"not": {"anyOf": [{"required": ["error"]}, {"required": ["code"]}]}},
  "additionalProperties": false
}`

const courseListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["items", "pagination"],
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "status", "instructor_id"],
        "properties": {"status": {"const": "approved"}}
      }
    },
    "pagination": {
      "type": "object",
      "required": ["page", "page_size", "total_items", "total_pages"]
    }
  }
}`

func compileSchema(t *testing.T, name, source string) *jsonschema.Schema {
	t.Helper()
	compiler := jsonschema.NewCompiler()
	require.NoError(t, compiler.AddResource(name, strings.NewReader(source)))
	schema, err := compiler.Compile(name)
	require.NoError(t, err)
	return schema
}

func decodeBody(t *testing.T, resp *http.Response) interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body interface{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body
}

func TestResponseEnvelopeContract(t *testing.T) {
	app := setupApp(t)
	envelope := compileSchema(t, "envelope.json", envelopeSchema)
	catalog := compileSchema(t, "course_list.json", courseListSchema)

	_, instructorToken := app.seedUser(t, "instructor")
	_, studentToken := app.seedUser(t, "student")
	_, adminToken := app.seedUser(t, "admin")
	app.approvedCourse(t, instructorToken, adminToken, 1)

	resp, _ := app.do(t, http.MethodGet, "/api/v1/courses?page=1&page_size=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	require.NoError(t, envelope.Validate(body))
	require.NoError(t, catalog.Validate(body.(map[string]interface{})["data"]))

	failures := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{name: "unauthenticated", method: http.MethodGet, path: "/api/v1/notifications", status: http.StatusUnauthorized},
		{name: "forbidden", method: http.MethodPost, path: "/api/v1/courses", token: studentToken, body: map[string]string{"title": "Nope"}, status: http.StatusForbidden},
		{name: "validation", method: http.MethodPost, path: "/api/v1/courses", token: instructorToken, body: map[string]string{"title": "x"}, status: http.StatusBadRequest},
		{name: "not found", method: http.MethodGet, path: "/api/v1/courses/missing", status: http.StatusNotFound},
		{name: "bad pagination", method: http.MethodGet, path: "/api/v1/courses?page=abc", status: http.StatusBadRequest},
	}

	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			resp, env := app.do(t, tc.method, tc.path, tc.token, tc.body)
			require.Equal(t, tc.status, resp.StatusCode)
			require.NoError(t, envelope.Validate(decodeBody(t, resp)))
			require.Equal(t, env.Message, env.Error)
		})
	}
}
