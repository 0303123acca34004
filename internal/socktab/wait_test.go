package socktab_test

import (
	"context"
	"testing"
	"time"

	"github.com/embedstack/socketcore/internal/sockmux"
	"github.com/embedstack/socketcore/internal/socktab"
)

func TestMarkReadyWakesBothEventAndSubscribedSelect(t *testing.T) {
	tbl := newTable(t, 1)
	sock, err := tbl.Open(socktab.Dgram, 0)
	if err != nil {
		t.Fatal(err)
	}

	local := sockmux.NewEvent()
	sock.Subscribe(local, sockmux.MaskRead)

	done := make(chan error, 1)
	go func() { done <- local.Wait(context.Background(), time.Second) }()

	sock.MarkReady(sockmux.MaskRead)

	if err := <-done; err != nil {
		t.Fatalf("subscribed select event was not woken: %v", err)
	}
	if sock.Signaled()&sockmux.MaskRead == 0 {
		t.Fatal("socket's own readiness bits must also reflect MarkReady")
	}
}

func TestUnrelatedMaskDoesNotWakeSubscription(t *testing.T) {
	tbl := newTable(t, 1)
	sock, err := tbl.Open(socktab.Dgram, 0)
	if err != nil {
		t.Fatal(err)
	}
	local := sockmux.NewEvent()
	sock.Subscribe(local, sockmux.MaskWrite)

	sock.MarkReady(sockmux.MaskRead)

	if err := local.Wait(context.Background(), 0); err != sockmux.ErrTimeout {
		t.Fatalf("event fired for a mask the caller never subscribed to: err=%v", err)
	}
}

func TestSelectAcrossTwoSocketsReportsOnlyTheReadyOne(t *testing.T) {
	tbl := newTable(t, 2)
	a, err := tbl.Open(socktab.Dgram, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tbl.Open(socktab.Dgram, 0)
	if err != nil {
		t.Fatal(err)
	}

	b.MarkReady(sockmux.MaskRead)

	entries := []sockmux.Entry{
		{Waiter: a, Want: sockmux.MaskRead},
		{Waiter: b, Want: sockmux.MaskRead},
	}
	ready, n, err := sockmux.Select(context.Background(), entries, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || ready[0] || !ready[1] {
		t.Fatalf("ready=%v n=%d, want only b ready", ready, n)
	}
	if a.UserEvent != nil || b.UserEvent != nil {
		t.Fatal("Select must unsubscribe every entry before returning")
	}
}

func TestCloseSignalsSuspendedWaiters(t *testing.T) {
	tbl := newTable(t, 1)
	sock, err := tbl.Open(socktab.Dgram, 0)
	if err != nil {
		t.Fatal(err)
	}
	event := sock.Event

	done := make(chan error, 1)
	go func() { done <- event.Wait(context.Background(), time.Second) }()

	if err := tbl.Close(sock.Descriptor); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Close must wake goroutines suspended on the slot's event: %v", err)
	}
}
