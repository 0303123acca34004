package mcast_test

import (
	"errors"
	"testing"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/mcast"
)

func mustAddr(t *testing.T, s string) addr.Addr {
	t.Helper()
	a, code := addr.Pton(addr.V4, s)
	if code != 1 {
		t.Fatalf("Pton(%s) failed", s)
	}
	return a
}

// TestAcceptanceLaw pins spec Testable Property 3.
func TestAcceptanceLaw(t *testing.T) {
	e := mcast.NewEngine(mcast.Bounds{MaxGroups: 4, MaxSources: 4})
	g := mustAddr(t, "239.1.1.1")
	s1 := mustAddr(t, "10.0.0.1")
	s2 := mustAddr(t, "10.0.0.2")

	t.Run("join only accepts any source", func(t *testing.T) {
		var set mcast.Set
		if err := e.Join(&set, g); err != nil {
			t.Fatal(err)
		}
		if !e.Accept(&set, g, s1) || !e.Accept(&set, g, s2) {
			t.Fatal("plain Join must accept any source")
		}
	})

	t.Run("add source accepts only that source", func(t *testing.T) {
		var set mcast.Set
		if err := e.AddSource(&set, g, s1); err != nil {
			t.Fatal(err)
		}
		if !e.Accept(&set, g, s1) {
			t.Fatal("s1 must be accepted")
		}
		if e.Accept(&set, g, s2) {
			t.Fatal("s2 must be rejected")
		}
	})

	t.Run("add then drop source leaves the group", func(t *testing.T) {
		var set mcast.Set
		if err := e.AddSource(&set, g, s1); err != nil {
			t.Fatal(err)
		}
		if err := e.DropSource(&set, g, s1); err != nil {
			t.Fatal(err)
		}
		if len(set.Groups) != 0 {
			t.Fatalf("group must be left once its Include source list empties, got %+v", set.Groups)
		}
		if e.Accept(&set, g, s1) {
			t.Fatal("left group must not accept anything")
		}
	})

	t.Run("join then block source accepts everything but it", func(t *testing.T) {
		var set mcast.Set
		if err := e.Join(&set, g); err != nil {
			t.Fatal(err)
		}
		if err := e.BlockSource(&set, g, s1); err != nil {
			t.Fatal(err)
		}
		if e.Accept(&set, g, s1) {
			t.Fatal("blocked source must be rejected")
		}
		if !e.Accept(&set, g, s2) {
			t.Fatal("unblocked source must be accepted")
		}
	})
}

func TestAcceptRejectsNonMemberDestination(t *testing.T) {
	e := mcast.NewEngine(mcast.Bounds{MaxGroups: 4, MaxSources: 4})
	var set mcast.Set
	other := mustAddr(t, "239.9.9.9")
	src := mustAddr(t, "10.0.0.1")
	if e.Accept(&set, other, src) {
		t.Fatal("destination with no joined group must never be accepted")
	}
}

func TestSourceOverflowReturnsENOBUFS(t *testing.T) {
	e := mcast.NewEngine(mcast.Bounds{MaxGroups: 4, MaxSources: 2})
	g := mustAddr(t, "239.1.1.1")
	var set mcast.Set
	if err := e.AddSource(&set, g, mustAddr(t, "10.0.0.1")); err != nil {
		t.Fatal(err)
	}
	if err := e.AddSource(&set, g, mustAddr(t, "10.0.0.2")); err != nil {
		t.Fatal(err)
	}
	snapshot := append([]addr.Addr(nil), set.Groups[0].Sources...)

	err := e.AddSource(&set, g, mustAddr(t, "10.0.0.3"))
	if !errors.Is(err, errno.Sentinel(errno.ENOBUFS)) {
		t.Fatalf("overflow error = %v, want ENOBUFS", err)
	}
	if len(set.Groups[0].Sources) != len(snapshot) {
		t.Fatal("overflow must leave the existing filter unchanged")
	}
}

func TestSetFilterRejectsNumsrcWithNilList(t *testing.T) {
	e := mcast.NewEngine(mcast.DefaultBounds)
	var set mcast.Set
	err := e.SetFilter(&set, mustAddr(t, "239.1.1.1"), mcast.Include, nil, 2)
	if !errors.Is(err, errno.Sentinel(errno.EINVAL)) {
		t.Fatalf("SetFilter(numsrc>0, nil) = %v, want EINVAL", err)
	}
}

// TestBothFilterBranchesReachable is a regression test for the
// "observed possible bug" in spec §9: a handler that tests
// fmode == MCAST_INCLUDE twice would never reach the Exclude branch.
func TestBothFilterBranchesReachable(t *testing.T) {
	e := mcast.NewEngine(mcast.DefaultBounds)
	g := mustAddr(t, "239.1.1.1")
	src := mustAddr(t, "10.0.0.1")
	other := mustAddr(t, "10.0.0.2")

	var incl mcast.Set
	if err := e.SetFilter(&incl, g, mcast.Include, []addr.Addr{src}, 1); err != nil {
		t.Fatal(err)
	}
	if !e.Accept(&incl, g, src) || e.Accept(&incl, g, other) {
		t.Fatal("Include branch did not apply correctly")
	}

	var excl mcast.Set
	if err := e.SetFilter(&excl, g, mcast.Exclude, []addr.Addr{src}, 1); err != nil {
		t.Fatal(err)
	}
	if e.Accept(&excl, g, src) || !e.Accept(&excl, g, other) {
		t.Fatal("Exclude branch did not apply correctly -- regression of the double-INCLUDE-test bug")
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	e := mcast.NewEngine(mcast.DefaultBounds)
	var set mcast.Set
	g := mustAddr(t, "239.1.1.1")
	if err := e.Leave(&set, g); err != nil {
		t.Fatalf("leaving an unjoined group must succeed, got %v", err)
	}
}
