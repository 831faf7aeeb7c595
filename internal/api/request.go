// Package api builds Elasticsearch request descriptors from loosely typed
// parameters and hands them to a Transport.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Params are the caller's request parameters. Keys may be snake_case or
// camelCase. The reserved keys "method" and "body" override the request
// method and supply the request body.
type Params map[string]any

// Request is a transport-independent description of one HTTP call.
type Request struct {
	Method      string
	Path        string
	Querystring url.Values
	// Body is nil, a string, a []byte, or a value encoded as JSON.
	Body any
	// Warnings lists parameters that were sent but are not known to the
	// endpoint.
	Warnings []string
}

// Options are per-call transport options.
type Options struct {
	Headers http.Header
	// Ignore lists status codes that are returned as normal responses
	// instead of errors.
	Ignore []int
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Warnings   []string
	// URL is the node base URL that served the request.
	URL string
}

// Transport performs requests against a cluster.
type Transport interface {
	Perform(ctx context.Context, req *Request, opts Options) (*Response, error)
}

// ConfigurationError reports a request that cannot be built.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func missingParam(names ...string) error {
	return &ConfigurationError{Message: "Missing required parameter: " + strings.Join(names, " or ")}
}

var errBodyNotAllowed = &ConfigurationError{Message: "This API does not require a body"}

// endpoint describes the querystring an API accepts.
type endpoint struct {
	accepted  []string
	snakeCase map[string]string
}

// commonQuerystring is accepted by every endpoint.
var commonQuerystring = []string{"pretty", "human", "error_trace", "source", "filter_path"}

var commonSnakeCase = map[string]string{
	"errorTrace": "error_trace",
	"filterPath": "filter_path",
}

func (e endpoint) accepts(key string) bool {
	for _, k := range e.accepted {
		if k == key {
			return true
		}
	}
	return false
}

// snakeCaseKeys converts the remaining params to query values. Known camelCase
// keys are renamed; unknown keys are still sent and produce a warning.
func (e endpoint) snakeCaseKeys(params Params) (url.Values, []string) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	var warnings []string
	for _, key := range keys {
		v := params[key]
		if v == nil {
			continue
		}
		name := key
		if s, ok := e.snakeCase[key]; ok {
			name = s
		}
		q.Set(name, formatValue(v))
		if !e.accepts(name) {
			warnings = append(warnings, fmt.Sprintf("Client - Unknown parameter: %q, sending it as query parameter", key))
		}
	}
	return q, warnings
}

// take removes and returns the first non-nil value among names.
func (p Params) take(names ...string) any {
	var found any
	for _, n := range names {
		if v, ok := p[n]; ok {
			if found == nil && v != nil {
				found = v
			}
			delete(p, n)
		}
	}
	return found
}

// split copies p and pulls out the reserved method and body keys.
func (p Params) split() (rest Params, method string, body any) {
	rest = make(Params, len(p))
	for k, v := range p {
		rest[k] = v
	}
	if m := rest.take("method"); m != nil {
		method = formatValue(m)
	}
	body = rest.take("body")
	return rest, method, body
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Duration:
		return formatDuration(t)
	case []string:
		return strings.Join(t, ",")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return strconv.FormatInt(int64(d), 10) + "nanos"
	}
	return strconv.FormatInt(int64(d)/int64(time.Millisecond), 10) + "ms"
}

// segment escapes one path segment. Everything except letters, digits and
// -_.!~*'() is percent-encoded, so ':' and '@' never reach the path raw.
func segment(v any) string {
	s := formatValue(v)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedSegmentByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func unreservedSegmentByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
