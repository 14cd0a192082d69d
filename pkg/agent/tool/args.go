package tool

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidArguments marks a tool call the model can correct by retrying with other arguments.
// Any other tool error aborts the reasoning loop.
var ErrInvalidArguments = goerr.New("invalid tool arguments")

// String returns a required, non-empty string argument
func String(args map[string]any, key string) (string, error) {
	s, _ := args[key].(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", goerr.Wrap(ErrInvalidArguments, key+" is required", goerr.V("key", key))
	}
	return s, nil
}

// OptionalInt returns an integer argument or def when it is absent.
// JSON numbers arrive as float64 from most providers.
func OptionalInt(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, goerr.Wrap(ErrInvalidArguments, key+" must be an integer",
			goerr.V("key", key), goerr.V("type", fmt.Sprintf("%T", v)))
	}
}

// List splits a comma separated string argument. Array arguments are accepted as well.
func List(args map[string]any, key string) []string {
	var raw []string
	switch v := args[key].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	}

	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
