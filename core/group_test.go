package core

import (
	"testing"

	"github.com/searchktools/minihttp/core/http"
)

func TestGroupPatterns(t *testing.T) {
	e := NewEngine(Options{})
	noop := func(*http.Context) error { return nil }

	users := e.Group("/users")
	users.GET("/", noop)
	users.GET("/:id", noop)
	users.POST("/", noop)
	users.DELETE("/:id", noop)
	e.Group("/api/").Group("/v1").PUT("/items/:id", noop)
	e.Group("").PATCH("/", noop)

	expected := []struct{ method, pattern string }{
		{"GET", "/users"},
		{"GET", "/users/:id"},
		{"POST", "/users"},
		{"DELETE", "/users/:id"},
		{"PUT", "/api/v1/items/:id"},
		{"PATCH", "/"},
	}

	routes := e.Routes()
	if len(routes) != len(expected) {
		t.Fatalf("Expected %d routes, got %d", len(expected), len(routes))
	}
	for i, want := range expected {
		if routes[i].Method != want.method || routes[i].Pattern != want.pattern {
			t.Errorf("Route %d: expected %s %s, got %s %s", i, want.method, want.pattern, routes[i].Method, routes[i].Pattern)
		}
	}
}
