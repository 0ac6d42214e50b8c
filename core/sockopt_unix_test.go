//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package core

import "testing"

func TestListenReusePort(t *testing.T) {
	e := NewEngine(Options{ReusePort: true})

	ln1, err := e.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("first listen: %v", err)
	}
	defer ln1.Close()

	ln2, err := e.Listen(ln1.Addr().String())
	if err != nil {
		t.Fatalf("second listen on %s with SO_REUSEPORT: %v", ln1.Addr(), err)
	}
	ln2.Close()
}

func TestListenWithoutReusePort(t *testing.T) {
	e := NewEngine(Options{})

	ln1, err := e.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("first listen: %v", err)
	}
	defer ln1.Close()

	if ln2, err := e.Listen(ln1.Addr().String()); err == nil {
		ln2.Close()
		t.Error("Expected second listen without SO_REUSEPORT to fail")
	}
}
