// Package sockconntest provides an in-memory sockconn.Transport fake
// for this repository's own tests.
//
// Grounded on github.com/dantte-lp/gobfd/internal/netio's
// MockPacketConn: an injectable double with recorded calls instead of
// a live socket, generalized from "one mock per test" to "one shared
// loopback fabric several descriptors can connect/accept through".
package sockconntest

import (
	"context"
	"sync"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/sockconn"
)

// Loopback implements sockconn.Transport entirely in memory: Connect
// succeeds immediately unless ConnectFunc overrides it, Listen/Accept
// hand back queued connections, Bind records the bound endpoint, and
// Shutdown does nothing. It exists so this module's own tests can
// exercise the full connect/bind/listen/accept contract without a live
// NIC.
type Loopback struct {
	mu        sync.Mutex
	bound     map[int]addr.Endpoint
	backlog   map[int][]int // listening descriptor -> queued accepted descriptors
	peers     map[int]addr.Endpoint
	nextFake  int
	connectFn func(ctx context.Context, descriptor int, remote addr.Endpoint) errno.Status
}

// NewLoopback builds an empty Loopback fabric.
func NewLoopback() *Loopback {
	return &Loopback{
		bound:    make(map[int]addr.Endpoint),
		backlog:  make(map[int][]int),
		peers:    make(map[int]addr.Endpoint),
		nextFake: 1 << 16, // fake descriptors live outside the real table's range
	}
}

// ConnectFunc overrides Connect's default always-succeed behavior, for
// tests that need to exercise the EINPROGRESS/ETIMEDOUT paths.
func (l *Loopback) ConnectFunc(fn func(ctx context.Context, descriptor int, remote addr.Endpoint) errno.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connectFn = fn
}

func (l *Loopback) Bind(descriptor int, local addr.Endpoint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bound[descriptor] = local
	return nil
}

func (l *Loopback) Connect(ctx context.Context, descriptor int, remote addr.Endpoint) errno.Status {
	l.mu.Lock()
	fn := l.connectFn
	l.mu.Unlock()
	if fn != nil {
		return fn(ctx, descriptor, remote)
	}
	l.mu.Lock()
	l.peers[descriptor] = remote
	l.mu.Unlock()
	return errno.StatusOK
}

func (l *Loopback) Listen(descriptor, backlog int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.backlog[descriptor]; !ok {
		l.backlog[descriptor] = nil
	}
	return nil
}

// Offer enqueues a simulated inbound connection on a listening
// descriptor, to be returned by the next Accept call.
func (l *Loopback) Offer(listener int, peer addr.Endpoint) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	fake := l.nextFake
	l.nextFake++
	l.peers[fake] = peer
	l.backlog[listener] = append(l.backlog[listener], fake)
	return fake
}

func (l *Loopback) Accept(descriptor int) (int, addr.Endpoint, errno.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.backlog[descriptor]
	if len(q) == 0 {
		return 0, addr.Endpoint{}, errno.StatusWouldBlock
	}
	nd := q[0]
	l.backlog[descriptor] = q[1:]
	return nd, l.peers[nd], errno.StatusOK
}

func (l *Loopback) Shutdown(descriptor int, how sockconn.How) error {
	return nil
}
