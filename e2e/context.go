package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext carries shared state across the steps of one scenario: the
// HTTP client, the current identity token, the last response, and the
// review session under test.
type TestContext struct {
	baseURL     string
	signingKey  []byte
	issuer      string
	audience    string
	client      *http.Client
	accessToken string
	sessionID   string

	lastStatus int
	lastBody   []byte
}

// NewTestContext configures the context from the environment. E2E_BASE_URL
// must point at a running claimcheck server; the JWT settings default to the
// server's development defaults.
func NewTestContext() *TestContext {
	return &TestContext{
		baseURL:    strings.TrimRight(envOr("E2E_BASE_URL", "http://localhost:8080"), "/"),
		signingKey: []byte(envOr("E2E_JWT_SIGNING_KEY", "dev-secret-key-change-in-production")),
		issuer:     envOr("E2E_JWT_ISSUER", "claimcheck"),
		audience:   envOr("E2E_JWT_AUDIENCE", "claimcheck-api"),
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Reset clears per-scenario state so scenarios stay independent.
func (tc *TestContext) Reset() {
	tc.accessToken = ""
	tc.sessionID = ""
	tc.lastStatus = 0
	tc.lastBody = nil
}

// AuthenticateAs mints an access token the server accepts, carrying the
// identity claims the review service reads from request context.
func (tc *TestContext) AuthenticateAs(userID, role, country string) error {
	claims := struct {
		UserID  string `json:"user_id"`
		Country string `json:"country"`
		Role    string `json:"role"`
		jwt.RegisteredClaims
	}{
		UserID:  userID,
		Country: country,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tc.issuer,
			Audience:  []string{tc.audience},
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.signingKey)
	if err != nil {
		return fmt.Errorf("mint access token: %w", err)
	}
	tc.accessToken = token
	return nil
}

func (tc *TestContext) GetAccessToken() string      { return tc.accessToken }
func (tc *TestContext) SetAccessToken(token string) { tc.accessToken = token }

func (tc *TestContext) GetSessionID() string   { return tc.sessionID }
func (tc *TestContext) SetSessionID(id string) { tc.sessionID = id }

func (tc *TestContext) GetLastResponseStatus() int  { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }

// POST sends a JSON body to path and records the response.
func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.sendJSON(http.MethodPost, path, body)
}

// PATCH sends a JSON body to path and records the response.
func (tc *TestContext) PATCH(path string, body interface{}) error {
	return tc.sendJSON(http.MethodPatch, path, body)
}

// PUT sends a JSON body to path and records the response.
func (tc *TestContext) PUT(path string, body interface{}) error {
	return tc.sendJSON(http.MethodPut, path, body)
}

// GET requests path with optional extra headers and records the response.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

// DELETE requests path and records the response.
func (tc *TestContext) DELETE(path string) error {
	req, err := http.NewRequest(http.MethodDelete, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

// Upload sends a multipart form with one file part named "receipt" plus any
// extra form values, the shape the intake endpoint expects.
func (tc *TestContext) Upload(path, filename, contentType string, data []byte, fields map[string]string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="receipt"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return tc.do(req)
}

func (tc *TestContext) sendJSON(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	if tc.accessToken != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+tc.accessToken)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	tc.lastStatus = resp.StatusCode
	tc.lastBody = body
	return nil
}

// GetResponseField resolves a dot-separated path into the last JSON
// response. Numeric segments index into arrays, so "compliance.issues.0"
// addresses the first issue.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	if len(tc.lastBody) == 0 {
		return nil, fmt.Errorf("no response body recorded")
	}
	var decoded interface{}
	if err := json.Unmarshal(tc.lastBody, &decoded); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}

	current := decoded
	for _, segment := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			value, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			current = value
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return current, nil
}

// ResponseContains reports whether the dot-separated path resolves in the
// last response.
func (tc *TestContext) ResponseContains(field string) bool {
	_, err := tc.GetResponseField(field)
	return err == nil
}
