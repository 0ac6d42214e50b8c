package router

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/searchktools/minihttp/core/http"
)

var (
	ErrNotFound         = errors.New("no route matches path")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// MethodNotAllowedError reports a path that exists under other methods.
type MethodNotAllowedError struct {
	Method  string
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed (allowed: %s)", e.Method, strings.Join(e.Allowed, ", "))
}

func (e *MethodNotAllowedError) Unwrap() error {
	return ErrMethodNotAllowed
}

// Route is one registered (method, pattern, handler) entry.
type Route[H any] struct {
	Method  string
	Pattern string
	Handler H

	segments []segment
	params   int // parameter and wildcard segments
	order    int // registration index
	catchAll bool
}

// match checks the route against split path segments and captures parameters.
func (rt *Route[H]) match(parts []string) (http.Params, bool) {
	n := len(rt.segments)
	if rt.catchAll {
		if len(parts) < n-1 {
			return nil, false
		}
	} else if len(parts) != n {
		return nil, false
	}

	for i, seg := range rt.segments {
		switch seg.kind {
		case literal:
			if parts[i] != seg.value {
				return nil, false
			}
		case param:
			if parts[i] == "" {
				return nil, false
			}
		}
	}

	if rt.params == 0 {
		return nil, true
	}
	params := make(http.Params, 0, rt.params)
	for i, seg := range rt.segments {
		switch seg.kind {
		case param:
			params = append(params, http.Param{Key: seg.value, Value: parts[i]})
		case wildcard:
			params = append(params, http.Param{Key: seg.value, Value: strings.Join(parts[i:], "/")})
		}
	}
	return params, true
}

// methodTable holds one method's routes, compiled for lookup.
type methodTable[H any] struct {
	static    map[string]*Route[H] // literal-only patterns by exact path
	bySize    map[int][]*Route[H]  // parameterized patterns by segment count, ranked
	catchAlls []*Route[H]          // wildcard patterns, ranked
}

func newMethodTable[H any]() *methodTable[H] {
	return &methodTable[H]{
		static: make(map[string]*Route[H]),
		bySize: make(map[int][]*Route[H]),
	}
}

func (t *methodTable[H]) add(rt *Route[H]) {
	switch {
	case rt.catchAll:
		t.catchAlls = insertRanked(t.catchAlls, rt)
	case rt.params > 0:
		n := len(rt.segments)
		t.bySize[n] = insertRanked(t.bySize[n], rt)
	default:
		// The first registration of an identical literal pattern wins.
		if _, exists := t.static[rt.Pattern]; !exists {
			t.static[rt.Pattern] = rt
		}
	}
}

// insertRanked keeps routes ordered by fewest parameters, then registration.
func insertRanked[H any](routes []*Route[H], rt *Route[H]) []*Route[H] {
	i := sort.Search(len(routes), func(i int) bool {
		return routes[i].params > rt.params
	})
	routes = append(routes, nil)
	copy(routes[i+1:], routes[i:])
	routes[i] = rt
	return routes
}

func (t *methodTable[H]) lookup(path string, parts []string) (*Route[H], http.Params, bool) {
	if rt, ok := t.static[path]; ok {
		return rt, nil, true
	}
	for _, rt := range t.bySize[len(parts)] {
		if params, ok := rt.match(parts); ok {
			return rt, params, true
		}
	}
	for _, rt := range t.catchAlls {
		if params, ok := rt.match(parts); ok {
			return rt, params, true
		}
	}
	return nil, nil, false
}

// Router maps (method, path) to handlers. Routes are added at startup; after
// Freeze the table is read-only and safe for concurrent Match calls.
type Router[H any] struct {
	tables  map[string]*methodTable[H]
	methods []string // registration order
	routes  []*Route[H]
	frozen  bool
}

// New creates an empty router.
func New[H any]() *Router[H] {
	return &Router[H]{tables: make(map[string]*methodTable[H])}
}

// Add registers a route. It panics on an invalid pattern or once frozen.
func (r *Router[H]) Add(method, pattern string, handler H) {
	if r.frozen {
		panic(fmt.Sprintf("router: cannot add %s %s after the route table is frozen", method, pattern))
	}
	if method == "" {
		panic("router: method must not be empty")
	}
	segs, err := compilePattern(pattern)
	if err != nil {
		panic("router: " + err.Error())
	}

	rt := &Route[H]{
		Method:   method,
		Pattern:  pattern,
		Handler:  handler,
		segments: segs,
		order:    len(r.routes),
	}
	for _, s := range segs {
		if s.kind != literal {
			rt.params++
		}
		if s.kind == wildcard {
			rt.catchAll = true
		}
	}

	t, ok := r.tables[method]
	if !ok {
		t = newMethodTable[H]()
		r.tables[method] = t
		r.methods = append(r.methods, method)
	}
	t.add(rt)
	r.routes = append(r.routes, rt)
}

// Freeze makes the table read-only.
func (r *Router[H]) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Router[H]) Frozen() bool {
	return r.frozen
}

// Routes returns every route in registration order.
func (r *Router[H]) Routes() []*Route[H] {
	return r.routes
}

// Match finds the route for method and path. Among candidates with the same
// segment count the one with the fewest parameters wins, then the earliest
// registered; wildcard routes are tried last. HEAD falls back to the GET
// routes when no HEAD route matches. When the path only matches under other
// methods a *MethodNotAllowedError is returned, otherwise ErrNotFound.
func (r *Router[H]) Match(method, path string) (*Route[H], http.Params, error) {
	parts := splitPath(path)

	if rt, params, ok := r.lookup(method, path, parts); ok {
		return rt, params, nil
	}
	if method == http.MethodHead {
		if rt, params, ok := r.lookup(http.MethodGet, path, parts); ok {
			return rt, params, nil
		}
	}

	var allowed []string
	head := false
	for _, m := range r.methods {
		if m == method {
			continue
		}
		if _, _, ok := r.tables[m].lookup(path, parts); !ok {
			continue
		}
		if m == http.MethodHead {
			if head {
				continue
			}
			head = true
		}
		allowed = append(allowed, m)
		if m == http.MethodGet && !head {
			allowed = append(allowed, http.MethodHead)
			head = true
		}
	}
	if len(allowed) > 0 {
		return nil, nil, &MethodNotAllowedError{Method: method, Allowed: allowed}
	}
	return nil, nil, ErrNotFound
}

func (r *Router[H]) lookup(method, path string, parts []string) (*Route[H], http.Params, bool) {
	t, ok := r.tables[method]
	if !ok {
		return nil, nil, false
	}
	return t.lookup(path, parts)
}
