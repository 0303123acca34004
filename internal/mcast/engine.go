// Package mcast implements the multicast membership and source-filtering
// engine (spec §4.4) and its facade (spec §4.3 MCAST_*, §4.10 "C10"):
// bounded INCLUDE/EXCLUDE source sets per joined group, with the accept
// rule from RFC 3376/3678.
//
// The engine is pure state -- no socket, no transport, no kernel call --
// exactly the way github.com/dantte-lp/gobfd's internal/bfd.Manager keeps
// session bookkeeping independent of the raw-socket layer underneath it.
// The kernel-facing half (actually joining a group on the wire) lives in
// Filter (facade.go), which delegates to a GroupController the way
// gobfd's internal/netio.Receiver delegates packet I/O to a Demuxer.
package mcast

import (
	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
)

// Mode is the RFC 3376/3678 filter mode.
type Mode uint8

const (
	Include Mode = iota
	Exclude
)

func (m Mode) String() string {
	if m == Include {
		return "include"
	}
	return "exclude"
}

// Group is one joined multicast group and its source filter (spec §3:
// "each group owns a bounded array of source addresses plus a filter
// mode"). Invariant 8: in Include mode Sources enumerates accepted
// sources; in Exclude mode it enumerates blocked sources.
type Group struct {
	Addr    addr.Addr
	Mode    Mode
	Sources []addr.Addr
}

func (g *Group) indexOf(src addr.Addr) int {
	for i, s := range g.Sources {
		if s.Equal(src) {
			return i
		}
	}
	return -1
}

// Set is the bounded multicast state embedded in a socket (spec §3).
// The backing slice is reset to nil on socket close/reuse.
type Set struct {
	Groups []Group
}

func (s *Set) indexOf(group addr.Addr) int {
	for i := range s.Groups {
		if s.Groups[i].Addr.Equal(group) {
			return i
		}
	}
	return -1
}

// Bounds are the compile-time-configured capacities G (max groups per
// socket) and S (max sources per group).
type Bounds struct {
	MaxGroups  int
	MaxSources int
}

// DefaultBounds matches typical embedded-stack sizing: a handful of
// groups, a handful of sources each.
var DefaultBounds = Bounds{MaxGroups: 8, MaxSources: 16}

// Engine applies spec §4.4's operations against a Set under the given
// Bounds. It holds no per-socket state itself: every method takes the
// Set to mutate, so one Engine can serve every socket in the table
// (mirrors how one bfd.Manager instance serves every session).
type Engine struct {
	Bounds Bounds
}

// NewEngine builds an Engine with the given bounds, defaulting to
// DefaultBounds when b is the zero value.
func NewEngine(b Bounds) *Engine {
	if b.MaxGroups == 0 {
		b.MaxGroups = DefaultBounds.MaxGroups
	}
	if b.MaxSources == 0 {
		b.MaxSources = DefaultBounds.MaxSources
	}
	return &Engine{Bounds: b}
}

// errGroupExists and errGroupExhausted back Join/overflow paths.
var (
	errGroupExists     = errno.New("mcast.join", errno.EINVAL, nil)
	errGroupExhausted  = errno.New("mcast.join", errno.ENOBUFS, nil)
	errSourceExhausted = errno.New("mcast.source", errno.ENOBUFS, nil)
)

// Join allocates a group entry in Exclude mode with an empty (blocked)
// source list, meaning any-source receive (spec §4.4). Joining a group
// that already has an entry is an error; joining beyond MaxGroups is
// ENOBUFS.
func (e *Engine) Join(s *Set, group addr.Addr) error {
	if s.indexOf(group) >= 0 {
		return errGroupExists
	}
	if len(s.Groups) >= e.Bounds.MaxGroups {
		return errGroupExhausted
	}
	s.Groups = append(s.Groups, Group{Addr: group, Mode: Exclude})
	return nil
}

// Leave frees the group entry. Idempotent: leaving an already-left
// group succeeds with no effect (spec §4.4).
func (e *Engine) Leave(s *Set, group addr.Addr) error {
	idx := s.indexOf(group)
	if idx < 0 {
		return nil
	}
	s.Groups = append(s.Groups[:idx], s.Groups[idx+1:]...)
	return nil
}

func (e *Engine) groupFor(s *Set, group addr.Addr, mode Mode) (*Group, error) {
	idx := s.indexOf(group)
	if idx >= 0 {
		return &s.Groups[idx], nil
	}
	if len(s.Groups) >= e.Bounds.MaxGroups {
		return nil, errGroupExhausted
	}
	s.Groups = append(s.Groups, Group{Addr: group, Mode: mode})
	return &s.Groups[len(s.Groups)-1], nil
}

// AddSource ensures src is present (deduplicated) in group's Include
// source list, allocating the group in Include mode if it did not
// already exist (spec §4.4).
func (e *Engine) AddSource(s *Set, group, src addr.Addr) error {
	g, err := e.groupFor(s, group, Include)
	if err != nil {
		return err
	}
	if g.Mode != Include {
		return errno.New("mcast.addsource", errno.EINVAL, nil)
	}
	if g.indexOf(src) >= 0 {
		return nil
	}
	if len(g.Sources) >= e.Bounds.MaxSources {
		return errSourceExhausted
	}
	g.Sources = append(g.Sources, src)
	return nil
}

// DropSource removes src from group's Include list. When the list
// becomes empty the group is left entirely (spec §4.4).
func (e *Engine) DropSource(s *Set, group, src addr.Addr) error {
	idx := s.indexOf(group)
	if idx < 0 {
		return nil
	}
	g := &s.Groups[idx]
	si := g.indexOf(src)
	if si < 0 {
		return nil
	}
	g.Sources = append(g.Sources[:si], g.Sources[si+1:]...)
	if g.Mode == Include && len(g.Sources) == 0 {
		s.Groups = append(s.Groups[:idx], s.Groups[idx+1:]...)
	}
	return nil
}

// BlockSource adds src to group's Exclude list, switching the group to
// Exclude mode if it was not already (spec §4.4).
func (e *Engine) BlockSource(s *Set, group, src addr.Addr) error {
	g, err := e.groupFor(s, group, Exclude)
	if err != nil {
		return err
	}
	g.Mode = Exclude
	if g.indexOf(src) >= 0 {
		return nil
	}
	if len(g.Sources) >= e.Bounds.MaxSources {
		return errSourceExhausted
	}
	g.Sources = append(g.Sources, src)
	return nil
}

// UnblockSource removes src from group's Exclude list.
func (e *Engine) UnblockSource(s *Set, group, src addr.Addr) error {
	idx := s.indexOf(group)
	if idx < 0 {
		return nil
	}
	g := &s.Groups[idx]
	si := g.indexOf(src)
	if si < 0 {
		return nil
	}
	g.Sources = append(g.Sources[:si], g.Sources[si+1:]...)
	return nil
}

// SetFilter is the bulk variant of Add/BlockSource: it replaces the
// entire filter for group in one call. numsrc > 0 with a nil srcs is
// EINVAL (spec §4.4); exceeding MaxSources is ENOBUFS and leaves the
// existing filter unchanged (spec §9: "standardize on ENOBUFS for any
// attempt that would exceed the bound").
func (e *Engine) SetFilter(s *Set, group addr.Addr, mode Mode, srcs []addr.Addr, numsrc int) error {
	if numsrc > 0 && srcs == nil {
		return errno.New("mcast.setfilter", errno.EINVAL, nil)
	}
	if len(srcs) > e.Bounds.MaxSources {
		return errSourceExhausted
	}
	idx := s.indexOf(group)
	cp := make([]addr.Addr, len(srcs))
	copy(cp, srcs)
	if idx >= 0 {
		s.Groups[idx].Mode = mode
		s.Groups[idx].Sources = cp
		return nil
	}
	if len(s.Groups) >= e.Bounds.MaxGroups {
		return errGroupExhausted
	}
	s.Groups = append(s.Groups, Group{Addr: group, Mode: mode, Sources: cp})
	return nil
}

// GetFilter returns the current mode and source list for group.
// Per spec §4.3, getters for the membership family (plain join/leave)
// return EOPNOTSUPP; GetFilter itself (the bulk get, RFC 3678 get
// source filter) is the one membership getter that IS supported, and
// is what that family's getsockopt ultimately resolves to.
func (e *Engine) GetFilter(s *Set, group addr.Addr) (Mode, []addr.Addr, error) {
	idx := s.indexOf(group)
	if idx < 0 {
		return Include, nil, errno.New("mcast.getfilter", errno.EADDRNOTAVAIL, nil)
	}
	g := s.Groups[idx]
	out := make([]addr.Addr, len(g.Sources))
	copy(out, g.Sources)
	return g.Mode, out, nil
}

// Accept implements the accept rule of spec §4.4 for an incoming
// packet with destination dst and source src.
func (e *Engine) Accept(s *Set, dst, src addr.Addr) bool {
	idx := s.indexOf(dst)
	if idx < 0 {
		return false
	}
	g := s.Groups[idx]
	present := g.indexOf(src) >= 0
	if g.Mode == Include {
		return present // Sources enumerates *accepted* sources in Include mode.
	}
	return !present // Sources enumerates *blocked* sources in Exclude mode.
}
