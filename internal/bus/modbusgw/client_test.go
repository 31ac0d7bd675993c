// internal/bus/modbusgw/client_test.go
package modbusgw

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/emcon/internal/dali"
)

// ---- fake gateway ----

// fakeGateway keeps its registers like a real gateway: they survive
// across client sessions. A transmission completes after lag reply reads;
// until then the reply block still shows the previous one.
type fakeGateway struct {
	holding [3]uint16 // frame, flags, seq
	status  uint16
	value   uint16

	// echoOpcode answers every query with its own opcode.
	echoOpcode bool

	lag     int
	pending int

	ack, ackStatus, ackValue uint16

	failRead          bool
	holdingUnreadable bool
}

func (f *fakeGateway) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	regs := unpackRegisters(value)
	copy(f.holding[:], regs)
	f.pending = f.lag
	return nil, nil
}

func (f *fakeGateway) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if f.holdingUnreadable {
		return nil, errors.New("exception 1")
	}
	return packRegisters(f.holding[:]), nil
}

func (f *fakeGateway) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	if f.failRead {
		return nil, errors.New("exception 2")
	}
	if f.pending > 0 {
		f.pending--
	} else if f.ack != f.holding[2] {
		f.ack = f.holding[2]
		f.ackStatus = f.status
		f.ackValue = f.value
		if f.echoOpcode {
			f.ackValue = f.holding[0] & 0xFF
		}
	}
	return packRegisters([]uint16{f.ack, f.ackStatus, f.ackValue}), nil
}

// ---- tests ----

func TestSend_Reply(t *testing.T) {
	gw := &fakeGateway{status: statusReply, value: 90, lag: 2}
	c := newClient(gw, Config{Timeout: time.Second})

	cmd := dali.QueryRatedDuration(dali.MustShort(4))
	r, err := c.Send(context.Background(), cmd)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !r.Present || r.Value != 90 {
		t.Fatalf("unexpected response: %+v", r)
	}
	if gw.holding[0] != cmd.Frame {
		t.Fatalf("forward frame: got=0x%04x want=0x%04x", gw.holding[0], cmd.Frame)
	}
	if gw.holding[1]&flagAnswer == 0 {
		t.Fatalf("answer flag not set for a query")
	}
}

func TestSend_CommandIgnoresStatus(t *testing.T) {
	gw := &fakeGateway{status: 9}
	c := newClient(gw, Config{Timeout: time.Second})

	r, err := c.Send(context.Background(), dali.Rest(dali.Broadcast()))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if r.Yes() {
		t.Fatalf("command should not carry a reply: %+v", r)
	}
	if gw.holding[1]&flagAnswer != 0 {
		t.Fatalf("answer flag set for a command")
	}
}

func TestSend_BusFault(t *testing.T) {
	gw := &fakeGateway{status: 9}
	c := newClient(gw, Config{Timeout: time.Second})

	if _, err := c.Send(context.Background(), dali.QueryEmergencyStatus(dali.MustShort(1))); err == nil {
		t.Fatalf("expected bus fault error, got nil")
	}
}

func TestSend_Timeout(t *testing.T) {
	gw := &fakeGateway{status: statusReply, lag: 1 << 30}
	c := newClient(gw, Config{Timeout: 20 * time.Millisecond})

	if _, err := c.Send(context.Background(), dali.QueryBatteryCharge(dali.MustShort(1))); err == nil {
		t.Fatalf("expected timeout error, got nil")
	}
}

func TestSend_ReadFailure(t *testing.T) {
	gw := &fakeGateway{failRead: true}
	c := newClient(gw, Config{Timeout: time.Second})

	if _, err := c.Send(context.Background(), dali.QueryBatteryCharge(dali.MustShort(1))); err == nil {
		t.Fatalf("expected read error, got nil")
	}
}

func TestSend_NewSessionIgnoresStaleAck(t *testing.T) {
	gw := &fakeGateway{status: statusReply, echoOpcode: true, lag: 2}

	first, err := newSession(gw, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	r, err := first.Send(context.Background(), dali.QueryRatedDuration(dali.MustShort(1)))
	if err != nil || r.Value != 0xF9 {
		t.Fatalf("first session reply: value=0x%02x err=%v", r.Value, err)
	}

	// a new session on the same gateway, as every bus acquisition makes
	second, err := newSession(gw, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	r, err = second.Send(context.Background(), dali.QueryBatteryCharge(dali.MustShort(2)))
	if err != nil {
		t.Fatalf("second session send: %v", err)
	}
	if r.Value != 0xF1 {
		t.Fatalf("second session reply: got=0x%02x want=0xf1", r.Value)
	}
}

func TestSend_NewSessionAfterUnfinishedTransmission(t *testing.T) {
	gw := &fakeGateway{status: statusReply, echoOpcode: true, lag: 1 << 30}

	first, err := newSession(gw, Config{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	if _, err := first.Send(context.Background(), dali.QueryRatedDuration(dali.MustShort(1))); err == nil {
		t.Fatalf("expected timeout, got nil")
	}
	unfinished := gw.holding[2]

	gw.lag = 0
	second, err := newSession(gw, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if _, err := second.Send(context.Background(), dali.QueryBatteryCharge(dali.MustShort(2))); err != nil {
		t.Fatalf("second session send: %v", err)
	}
	if gw.holding[2] == unfinished {
		t.Fatalf("second session reused sequence %d", unfinished)
	}
}

func TestResync_FallsBackToReplyBlock(t *testing.T) {
	gw := &fakeGateway{
		holding:           [3]uint16{0, 0, 41},
		holdingUnreadable: true,
		ack:               41,
		ackStatus:         statusReply,
	}

	c, err := newSession(gw, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if c.seq != 41 {
		t.Fatalf("seq: got=%d want=41", c.seq)
	}

	gw.failRead = true
	if _, err := newSession(gw, Config{Timeout: time.Second}); err == nil {
		t.Fatalf("expected error when no sequence can be read")
	}
}
