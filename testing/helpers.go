// Package testing provides test utilities and helpers.
package testing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rightfit/rightfit-navigation/auth"
	"github.com/rightfit/rightfit-navigation/errors"
)

// TestJWTConfig is the token configuration shared by API tests.
var TestJWTConfig = auth.JWTConfig{
	Secret:       "test-secret-at-least-32-bytes-long!!",
	Issuer:       "rightfit",
	Audience:     "rightfit-api",
	AccessExpiry: 15 * time.Minute,
}

// TestContext creates a context with a timeout for testing.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout creates a context with a custom timeout.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// AccessToken signs a token for userID in tenantID with TestJWTConfig.
func AccessToken(t *testing.T, userID, tenantID string, roles ...string) string {
	t.Helper()
	token, err := auth.NewJWTManager(TestJWTConfig).GenerateAccessToken(userID, tenantID, roles)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// HTTPTestRequest creates an HTTP request for testing.
type HTTPTestRequest struct {
	Method  string
	Path    string
	Body    interface{}
	RawBody string
	Headers map[string]string
}

// NewHTTPTestRequest creates a new HTTP test request.
func NewHTTPTestRequest(method, path string) *HTTPTestRequest {
	return &HTTPTestRequest{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}
}

// WithBody adds a JSON body to the request.
func (r *HTTPTestRequest) WithBody(body interface{}) *HTTPTestRequest {
	r.Body = body
	return r
}

// WithRawBody sends body verbatim, for malformed-input tests.
func (r *HTTPTestRequest) WithRawBody(body string) *HTTPTestRequest {
	r.RawBody = body
	return r
}

// WithHeader adds a header to the request.
func (r *HTTPTestRequest) WithHeader(key, value string) *HTTPTestRequest {
	r.Headers[key] = value
	return r
}

// WithAuth adds an Authorization header with a Bearer token.
func (r *HTTPTestRequest) WithAuth(token string) *HTTPTestRequest {
	return r.WithHeader("Authorization", "Bearer "+token)
}

// Build builds the HTTP request.
func (r *HTTPTestRequest) Build(t *testing.T) *http.Request {
	t.Helper()

	var body io.Reader
	switch {
	case r.RawBody != "":
		body = bytes.NewBufferString(r.RawBody)
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(r.Method, r.Path, body)
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

// HTTPTestResponse wraps httptest.ResponseRecorder with helper methods.
type HTTPTestResponse struct {
	*httptest.ResponseRecorder
	t *testing.T
}

// AssertStatus asserts the response status code.
func (r *HTTPTestResponse) AssertStatus(expected int) *HTTPTestResponse {
	r.t.Helper()
	if r.Code != expected {
		r.t.Errorf("expected status %d, got %d: %s", expected, r.Code, r.Body.String())
	}
	return r
}

// AssertOK asserts status 200.
func (r *HTTPTestResponse) AssertOK() *HTTPTestResponse {
	r.t.Helper()
	return r.AssertStatus(http.StatusOK)
}

// AssertErrorCode asserts the status and the error envelope's code.
func (r *HTTPTestResponse) AssertErrorCode(status int, code string) *HTTPTestResponse {
	r.t.Helper()
	r.AssertStatus(status)

	var resp errors.ErrorResponse
	if err := json.Unmarshal(r.Body.Bytes(), &resp); err != nil {
		r.t.Fatalf("failed to decode error envelope: %v", err)
	}
	if resp.Error.Code != code {
		r.t.Errorf("expected error code %s, got %s (%s)", code, resp.Error.Code, resp.Error.Message)
	}
	return r
}

// DecodeData decodes the data member of a success envelope into v.
func (r *HTTPTestResponse) DecodeData(v interface{}) *HTTPTestResponse {
	r.t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &envelope); err != nil {
		r.t.Fatalf("failed to decode JSON: %v", err)
	}
	if !envelope.Success {
		r.t.Fatalf("expected success envelope, got %s", r.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		r.t.Fatalf("failed to decode data: %v", err)
	}
	return r
}

// ExecuteRequest executes a request against a handler.
func ExecuteRequest(t *testing.T, handler http.Handler, req *http.Request) *HTTPTestResponse {
	resp := &HTTPTestResponse{ResponseRecorder: httptest.NewRecorder(), t: t}
	handler.ServeHTTP(resp, req)
	return resp
}
