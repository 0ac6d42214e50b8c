package core

import (
	"strings"

	"github.com/searchktools/minihttp/core/http"
)

// Group registers routes under a common path prefix. The pattern "/" in a
// group maps to the prefix itself.
type Group struct {
	engine *Engine
	prefix string
}

// Group creates a route group mounted at prefix.
func (e *Engine) Group(prefix string) *Group {
	return &Group{engine: e, prefix: strings.TrimSuffix(prefix, "/")}
}

// Group creates a nested group.
func (g *Group) Group(prefix string) *Group {
	return &Group{engine: g.engine, prefix: g.pattern(prefix)}
}

func (g *Group) pattern(p string) string {
	if p == "/" || p == "" {
		if g.prefix == "" {
			return "/"
		}
		return g.prefix
	}
	return g.prefix + p
}

// Handle registers a route relative to the group prefix.
func (g *Group) Handle(method, pattern string, handler http.HandlerFunc) {
	g.engine.Handle(method, g.pattern(pattern), handler)
}

func (g *Group) GET(pattern string, handler http.HandlerFunc) {
	g.Handle(http.MethodGet, pattern, handler)
}

func (g *Group) POST(pattern string, handler http.HandlerFunc) {
	g.Handle(http.MethodPost, pattern, handler)
}

func (g *Group) PUT(pattern string, handler http.HandlerFunc) {
	g.Handle(http.MethodPut, pattern, handler)
}

func (g *Group) DELETE(pattern string, handler http.HandlerFunc) {
	g.Handle(http.MethodDelete, pattern, handler)
}

func (g *Group) PATCH(pattern string, handler http.HandlerFunc) {
	g.Handle(http.MethodPatch, pattern, handler)
}
