package middleware

import (
	"context"
	"fmt"
	"reflect"
	"regexp"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.TrajectoryStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks the values of state fields whose names match any pattern,
// including keys of nested objects. It is meant for exported or audit copies: a redacted
// trajectory cannot be resumed faithfully.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.TrajectoryStore) ports.TrajectoryStore {
		return &redactionMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, traj *domain.Trajectory) error {
	cloned := traj.Clone()
	cloned.State = domain.Fields(redactMap(traj.State, m.patterns))
	return m.next.Save(ctx, cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, id string) (*domain.Trajectory, error) {
	return m.next.Load(ctx, id)
}

func (m *redactionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// redactValue returns a copy of v with every map key matching a pattern masked. Maps and
// lists are copied at every level so the caller's value is never shared with the store;
// scalars and lists that cannot hold objects are returned as they are.
func redactValue(v any, patterns []*regexp.Regexp) any {
	switch val := v.(type) {
	case map[string]any:
		return redactMap(val, patterns)
	case domain.Fields:
		return domain.Fields(redactMap(val, patterns))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = redactValue(item, patterns)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = redactMap(item, patterns)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return redactMap(out, patterns)
	case reflect.Slice, reflect.Array:
		switch rv.Type().Elem().Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Interface:
			out := make([]any, rv.Len())
			for i := range out {
				out[i] = redactValue(rv.Index(i).Interface(), patterns)
			}
			return out
		}
	}
	return v
}

func redactMap(m map[string]any, patterns []*regexp.Regexp) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if matches(k, patterns) {
			out[k] = Mask
			continue
		}
		out[k] = redactValue(v, patterns)
	}
	return out
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
