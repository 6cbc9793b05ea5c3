package dedupe

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
)

// Key identifies a read request: an endpoint path plus its normalized
// parameters. Two keys with the same path and set-equal parameters render to
// byte-identical strings.
type Key struct {
	Path   string
	Params map[string]string
}

// BuildKey normalizes params and pairs them with path. Nil values, including
// typed nil pointers, are dropped. Primitive values are formatted with
// strconv and everything else is encoded as JSON.
func BuildKey(path string, params map[string]any) Key {
	key := Key{Path: path, Params: make(map[string]string, len(params))}
	for name, value := range params {
		if s, ok := formatParam(value); ok {
			key.Params[name] = s
		}
	}
	return key
}

// Query renders the params as URL query values
func (k Key) Query() url.Values {
	q := make(url.Values, len(k.Params))
	for name, value := range k.Params {
		q.Set(name, value)
	}
	return q
}

// String returns the canonical request key, "path" or "path?a=1&b=2" with
// parameters sorted by name.
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Path
	}
	return k.Path + "?" + k.Query().Encode()
}

// URL joins the key onto base, keeping base's own path prefix. Path is
// expected to be escaped already.
func (k Key) URL(base *url.URL) string {
	u := *base
	escaped := singleSlashJoin(base.EscapedPath(), k.Path)
	if p, err := url.PathUnescape(escaped); err == nil {
		u.Path = p
		u.RawPath = escaped
	} else {
		u.Path = escaped
		u.RawPath = ""
	}
	u.RawQuery = k.Query().Encode()
	return u.String()
}

func singleSlashJoin(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	aslash := a[len(a)-1] == '/'
	bslash := b[0] == '/'
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}

func formatParam(value any) (string, bool) {
	if value == nil {
		return "", false
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	value = rv.Interface()

	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}

	// named primitives such as AgentStatus format by value, not by name

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	}

	if v, ok := value.(fmt.Stringer); ok {
		return v.String(), true
	}

	// encoding/json sorts map keys, so equal structures encode identically
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value), true
	}
	return string(b), true
}
