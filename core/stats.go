package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/searchktools/minihttp/core/http"
	"github.com/searchktools/minihttp/core/observability"
	"github.com/searchktools/minihttp/core/pools"
)

// Stats is a point-in-time view of the engine
type Stats struct {
	Connections ConnectionStats            `json:"connections"`
	Requests    uint64                     `json:"requests"`
	Routes      int                        `json:"routes"`
	Buffers     pools.BufioStats           `json:"buffers"`
	Monitor     observability.Snapshot     `json:"monitor"`
	Bottlenecks []observability.Bottleneck `json:"bottlenecks"`
}

type ConnectionStats struct {
	Accepted uint64         `json:"accepted"`
	Active   int            `json:"active"`
	ByState  map[string]int `json:"by_state"`
}

// Stats collects engine statistics
func (e *Engine) Stats() Stats {
	byState := make(map[string]int)
	e.conns.Range(func(_ uint64, c *conn) bool {
		byState[c.getState().String()]++
		return true
	})

	return Stats{
		Connections: ConnectionStats{
			Accepted: e.accepted.Load(),
			Active:   e.conns.Size(),
			ByState:  byState,
		},
		Requests:    e.requests.Load(),
		Routes:      len(e.router.Routes()),
		Buffers:     e.buffers.Stats(),
		Monitor:     e.monitor.Snapshot(),
		Bottlenecks: e.monitor.Bottlenecks(),
	}
}

// StatsJSON returns engine statistics as JSON string
func (e *Engine) StatsJSON() string {
	data, _ := json.MarshalIndent(e.Stats(), "", "  ")
	return string(data)
}

// StatsText returns engine statistics as human-readable text
func (e *Engine) StatsText() string {
	s := e.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, `Engine Statistics
=================

Connections:
  Accepted: %d
  Active:   %d

Requests:   %d
Routes:     %d

Reader Pool:
  Gets:     %d
  Hit Rate: %.2f%%

Writer Pool:
  Gets:     %d
  Hit Rate: %.2f%%
`,
		s.Connections.Accepted, s.Connections.Active,
		s.Requests, s.Routes,
		s.Buffers.Readers.Gets, s.Buffers.Readers.HitRate*100,
		s.Buffers.Writers.Gets, s.Buffers.Writers.HitRate*100,
	)

	if len(s.Monitor.Routes) > 0 {
		b.WriteString("\nRoutes:\n")
		for _, r := range s.Monitor.Routes {
			fmt.Fprintf(&b, "  %-32s count=%d errors=%d avg=%v\n", r.Route, r.Count, r.Errors, r.AvgDuration)
		}
	}
	for _, bn := range s.Bottlenecks {
		fmt.Fprintf(&b, "  ! [%s] %s: %s\n", bn.Type, bn.Location, bn.Details)
	}
	return b.String()
}

// StatsHandler serves Stats, negotiated by Accept, or as text with ?format=text.
func (e *Engine) StatsHandler() http.HandlerFunc {
	return func(ctx *http.Context) error {
		if ctx.Query("format") == "text" {
			return ctx.String(http.StatusOK, e.StatsText())
		}
		return ctx.Render(http.StatusOK, e.Stats())
	}
}
