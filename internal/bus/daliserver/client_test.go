// internal/bus/daliserver/client_test.go
package daliserver

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/tamzrod/emcon/internal/dali"
)

// serve answers every request on conn with the given status/value
// and records the frames it saw.
func serve(t *testing.T, conn net.Conn, status, value byte, frames chan<- uint16) {
	t.Helper()
	go func() {
		defer conn.Close()
		for {
			var req [4]byte
			if _, err := io.ReadFull(conn, req[:]); err != nil {
				return
			}
			frames <- uint16(req[2])<<8 | uint16(req[3])
			if _, err := conn.Write([]byte{protoVersion, status, value, 0}); err != nil {
				return
			}
		}
	}()
}

func TestSend_Reply(t *testing.T) {
	srv, cli := net.Pipe()
	frames := make(chan uint16, 4)
	serve(t, srv, statusReply, 0x5A, frames)

	c := NewClient(cli, time.Second)
	defer c.Close()

	cmd := dali.QueryRatedDuration(dali.MustShort(3))
	r, err := c.Send(context.Background(), cmd)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !r.Present || r.Value != 0x5A {
		t.Fatalf("unexpected response: %+v", r)
	}
	if got := <-frames; got != cmd.Frame {
		t.Fatalf("frame: got=0x%04x want=0x%04x", got, cmd.Frame)
	}
}

func TestSend_NoReply(t *testing.T) {
	srv, cli := net.Pipe()
	frames := make(chan uint16, 4)
	serve(t, srv, statusNoReply, 0, frames)

	c := NewClient(cli, time.Second)
	defer c.Close()

	r, err := c.Send(context.Background(), dali.QueryControlGearPresent(dali.MustShort(1)))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if r.Yes() {
		t.Fatalf("expected no reply, got %+v", r)
	}
}

func TestSend_Framing(t *testing.T) {
	srv, cli := net.Pipe()
	frames := make(chan uint16, 4)
	serve(t, srv, statusFraming, 0, frames)

	c := NewClient(cli, time.Second)
	defer c.Close()

	r, err := c.Send(context.Background(), dali.QueryControlGearPresent(dali.Broadcast()))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !r.Framing || !r.Yes() {
		t.Fatalf("expected framing error response, got %+v", r)
	}
}

func TestSend_UnknownStatus(t *testing.T) {
	srv, cli := net.Pipe()
	frames := make(chan uint16, 4)
	serve(t, srv, 0x07, 0, frames)

	c := NewClient(cli, time.Second)
	defer c.Close()

	if _, err := c.Send(context.Background(), dali.QueryEmergencyMode(dali.MustShort(1))); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestSend_ClosedConnection(t *testing.T) {
	srv, cli := net.Pipe()
	srv.Close()

	c := NewClient(cli, 100*time.Millisecond)
	defer c.Close()

	if _, err := c.Send(context.Background(), dali.Rest(dali.Broadcast())); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
