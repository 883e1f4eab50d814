package waf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxPayloadBytes is the declared body size ceiling.
const DefaultMaxPayloadBytes int64 = 1 << 20

// DefaultExemptPaths are never analyzed. Login payloads legitimately carry
// punctuation that resembles injection, and the report and session endpoints
// must stay reachable.
var DefaultExemptPaths = []string{
	"/api/security/report",
	"/api/settings/public",
	"/api/auth/login",
	"/api/super-admin/login",
	"/api/auth/verify",
	"/api/auth/session",
}

// Headers whose values are transport metadata and never scanned. Matched
// case-insensitively; a trailing "*" is a prefix match.
var defaultSkipHeaders = []string{
	"accept*",
	"content-*",
	"cookie",
	"sec-fetch-*",
	"sec-ch-*",
	"user-agent",
	"referer",
	"origin",
	"host",
	"connection",
	"cache-control",
	"pragma",
	"authorization",
	"upgrade-insecure-requests",
	"if-*",
	"x-forwarded-*",
	"x-real-ip",
	"x-request-id",
	"traceparent",
	"tracestate",
}

// Config tunes the firewall.
type Config struct {
	MaxPayloadBytes int64
	ExemptPaths     []string
	// SkipHeaders extends the built-in transport header allow-list.
	SkipHeaders []string
	Signatures  *SignatureSet
}

// DefaultConfig returns the built-in policy.
func DefaultConfig() Config {
	return Config{
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		ExemptPaths:     append([]string(nil), DefaultExemptPaths...),
	}
}

// Firewall analyzes requests. It is safe for concurrent use.
type Firewall struct {
	maxPayload int64
	exempt     map[string]struct{}
	skipExact  map[string]struct{}
	skipPrefix []string
	signatures SignatureSet
}

// New builds a Firewall from cfg.
func New(cfg Config) *Firewall {
	f := &Firewall{
		maxPayload: cfg.MaxPayloadBytes,
		exempt:     make(map[string]struct{}, len(cfg.ExemptPaths)),
		skipExact:  make(map[string]struct{}),
	}
	if f.maxPayload <= 0 {
		f.maxPayload = DefaultMaxPayloadBytes
	}
	for _, p := range cfg.ExemptPaths {
		f.exempt[normalizePath(p)] = struct{}{}
	}
	for _, h := range append(append([]string(nil), defaultSkipHeaders...), cfg.SkipHeaders...) {
		h = strings.ToLower(strings.TrimSpace(h))
		if strings.HasSuffix(h, "*") {
			f.skipPrefix = append(f.skipPrefix, strings.TrimSuffix(h, "*"))
			continue
		}
		f.skipExact[h] = struct{}{}
	}
	if cfg.Signatures != nil {
		f.signatures = *cfg.Signatures
	} else {
		f.signatures = DefaultSignatures()
	}
	return f
}

// Exempt reports whether path skips analysis.
func (f *Firewall) Exempt(path string) bool {
	_, ok := f.exempt[normalizePath(path)]
	return ok
}

// Analyze inspects r. The body, when read, is restored so later handlers
// see it unchanged.
func (f *Firewall) Analyze(r *http.Request) Verdict {
	if f.Exempt(r.URL.Path) {
		return Verdict{Exempt: true}
	}
	if r.ContentLength > f.maxPayload {
		return Verdict{
			Blocked:  true,
			Family:   FamilyPayload,
			Severity: severityOf(FamilyPayload),
			Location: "content-length",
			Reason:   fmt.Sprintf("payload too large: %d bytes (max %d)", r.ContentLength, f.maxPayload),
		}
	}

	if v, hit := f.scanHeaders(r.Header); hit {
		return v
	}
	if v, hit := f.scanValues("query", r.URL.Query()); hit {
		return v
	}
	if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
		if v, hit := f.scanBody(r); hit {
			return v
		}
	}
	raw := r.URL.RequestURI()
	if u, err := url.QueryUnescape(raw); err == nil {
		raw = u
	}
	if v, hit := f.check("url", raw); hit {
		return v
	}
	return Verdict{}
}

func (f *Firewall) skipHeader(name string) bool {
	name = strings.ToLower(name)
	if _, ok := f.skipExact[name]; ok {
		return true
	}
	for _, p := range f.skipPrefix {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (f *Firewall) scanHeaders(h http.Header) (Verdict, bool) {
	names := make([]string, 0, len(h))
	for name := range h {
		if !f.skipHeader(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range h[name] {
			if verdict, hit := f.check("headers."+strings.ToLower(name), v); hit {
				return verdict, true
			}
		}
	}
	return Verdict{}, false
}

func (f *Firewall) scanValues(prefix string, values url.Values) (Verdict, bool) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range values[k] {
			if verdict, hit := f.check(prefix+"."+k, v); hit {
				return verdict, true
			}
		}
	}
	return Verdict{}, false
}

func (f *Firewall) scanBody(r *http.Request) (Verdict, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return Verdict{}, false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, f.maxPayload+1))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return Verdict{}, false
	}
	if int64(len(body)) > f.maxPayload {
		return Verdict{
			Blocked:  true,
			Family:   FamilyPayload,
			Severity: severityOf(FamilyPayload),
			Location: "body",
			Reason:   fmt.Sprintf("payload exceeds %d bytes", f.maxPayload),
		}, true
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return Verdict{}, false
		}
		return f.walk("body", v)
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return Verdict{}, false
		}
		return f.scanValues("form", values)
	case strings.HasPrefix(mediaType, "text/"):
		return f.check("body.content", string(body))
	}
	return Verdict{}, false
}

func (f *Firewall) walk(path string, v any) (Verdict, bool) {
	switch val := v.(type) {
	case string:
		return f.check(path, val)
	case []any:
		for i, item := range val {
			if verdict, hit := f.walk(path+"["+strconv.Itoa(i)+"]", item); hit {
				return verdict, true
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if verdict, hit := f.walk(path+"."+k, val[k]); hit {
				return verdict, true
			}
		}
	}
	return Verdict{}, false
}

func (f *Firewall) check(location, value string) (Verdict, bool) {
	if value == "" {
		return Verdict{}, false
	}
	sig, ok := f.signatures.Match(value)
	if !ok {
		return Verdict{}, false
	}
	return Verdict{
		Blocked:  true,
		Family:   sig.Family,
		Severity: severityOf(sig.Family),
		Location: location,
		Reason:   fmt.Sprintf("%s signature %q matched in %s", sig.Family, sig.Name, location),
	}, true
}

func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
