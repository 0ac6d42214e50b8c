package core

import (
	"bufio"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestStressKeepAlive drives many keep-alive connections with interleaved
// requests and checks that every response matches its request.
func TestStressKeepAlive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	e := newTestEngine(Options{IdleTimeout: 2 * time.Second})
	addr := startEngine(t, e)

	const (
		clients  = 32
		requests = 200
	)
	var failures atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(client int) {
			defer wg.Done()
			c, err := net.Dial("tcp", addr)
			if err != nil {
				failures.Add(1)
				return
			}
			defer c.Close()
			c.SetDeadline(time.Now().Add(30 * time.Second))
			br := bufio.NewReader(c)
			for j := 0; j < requests; j++ {
				id := client*requests + j
				fmt.Fprintf(c, "GET /items/%d HTTP/1.1\r\nHost: stress\r\n\r\n", id)
				resp, err := readRaw(br)
				if err != nil || resp != fmt.Sprintf(`{"id":"%d"}`, id) {
					failures.Add(1)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if n := failures.Load(); n > 0 {
		t.Fatalf("%d clients saw a wrong or missing response", n)
	}
	// The counter is bumped after the response is flushed.
	deadline := time.Now().Add(time.Second)
	for e.Stats().Requests < clients*requests && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := e.Stats().Requests; got < clients*requests {
		t.Errorf("Expected at least %d requests, stats report %d", clients*requests, got)
	}
}

func BenchmarkKeepAliveRequest(b *testing.B) {
	addr := startEngine(b, newTestEngine(Options{}))
	c, br := dial(b, addr)
	c.SetDeadline(time.Time{})

	req := []byte("GET /hello HTTP/1.1\r\nHost: bench\r\n\r\n")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Write(req); err != nil {
			b.Fatal(err)
		}
		if _, err := readRaw(br); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParallelConnections(b *testing.B) {
	addr := startEngine(b, newTestEngine(Options{}))

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			b.Error(err)
			return
		}
		defer c.Close()
		br := bufio.NewReader(c)
		for pb.Next() {
			io.WriteString(c, "GET /items/7 HTTP/1.1\r\nHost: bench\r\n\r\n")
			if _, err := readRaw(br); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// readRaw reads one response off br and returns its body.
func readRaw(br *bufio.Reader) (string, error) {
	resp, err := nethttp.ReadResponse(br, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}
