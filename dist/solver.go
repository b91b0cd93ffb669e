package dist

import (
	"github.com/golang-dep-rework/distcheck/internal/arena"
	"github.com/golang-dep-rework/distcheck/internal/config"
	"github.com/golang-dep-rework/distcheck/internal/debver"
	"github.com/golang-dep-rework/distcheck/internal/trace"
)

// Result is the three-valued answer the solver gives for a single
// installability query (spec §4.3).
type Result uint8

const (
	No Result = iota
	Yes
	GaveUp
)

func (r Result) String() string {
	switch r {
	case Yes:
		return "Yes"
	case GaveUp:
		return "GaveUp"
	default:
		return "No"
	}
}

// matches unions, over every atom of clause, the providers registered
// under the atom's package name that satisfy the atom's relation (spec
// §4.3's matches(clause)). A provider with no concrete version (a
// provides-only contribution) never matches a versioned constraint.
func matches(u *Universe, clause []Atom) []PackageID {
	var out []PackageID
	var seen map[PackageID]bool
	for _, atom := range clause {
		for _, p := range u.Providers(atom.Package) {
			if atom.Relation != Any {
				if !p.hasVersion {
					continue
				}
				if !debver.Satisfies(p.version, atom.Relation, atom.Version) {
					continue
				}
			}
			if seen == nil {
				seen = make(map[PackageID]bool, 4)
			}
			if seen[p.id] {
				continue
			}
			seen[p.id] = true
			out = append(out, p.id)
		}
	}
	return out
}

func canInstall(u *Universe, cp *CollectedPackage) bool {
	if cp.Installed > 0 {
		return true
	}
	if cp.Conflicted != 0 {
		return false
	}
	for _, qid := range matches(u, cp.pkg.Conflicts) {
		if qid == cp.id {
			continue
		}
		if u.byID(qid).Installed > 0 {
			return false
		}
	}
	return true
}

func install(u *Universe, cp *CollectedPackage) {
	if cp.Installed == 0 {
		for _, qid := range matches(u, cp.pkg.Conflicts) {
			if qid == cp.id {
				continue
			}
			u.byID(qid).Conflicted++
		}
	}
	cp.Installed++
}

func uninstall(u *Universe, cp *CollectedPackage) {
	cp.Installed--
	if cp.Installed == 0 {
		for _, qid := range matches(u, cp.pkg.Conflicts) {
			if qid == cp.id {
				continue
			}
			u.byID(qid).Conflicted--
		}
	}
}

// frameRec is one frontier frame's pointer-free bookkeeping: which window
// of the call's shared goal buffer it owns, which alternative within that
// window is current, the frontier length to truncate back to on
// backtrack, and whether its one-shot "forced singleton" subgoal has
// already been inserted. Allocated from an arena.Pool so a deep search
// over a large universe churns through frontier frames the way
// original_source's block allocator was built for, rather than putting
// pressure on the general-purpose allocator (spec §4.1's rationale).
type frameRec struct {
	goalOff  int32
	goalLen  int32
	cursor   int32 // index into the goal window, or cursorNone/cursorExhausted
	cutoff   int32 // frontier length to truncate to on re-entry
	expanded bool
}

const (
	cursorNone      = -1
	cursorExhausted = -2
)

// search holds everything live for a single is_installable call.
type search struct {
	u    *Universe
	cfg  *config.Config
	tr   *trace.Tracer
	a    arena.Arena
	pool *arena.Pool[frameRec]

	goals    []PackageID
	frontier []*frameRec
}

func (s *search) goalWindow(f *frameRec) []PackageID {
	return s.goals[f.goalOff : f.goalOff+f.goalLen]
}

func (s *search) pushGoal(ids []PackageID) *frameRec {
	off := len(s.goals)
	s.goals = append(s.goals, ids...)
	f := s.pool.New()
	f.goalOff = int32(off)
	f.goalLen = int32(len(ids))
	f.cursor = cursorNone
	f.cutoff = -1
	return f
}

// insertAt splices f into the frontier at index i.
func (s *search) insertAt(i int, f *frameRec) {
	s.frontier = append(s.frontier, nil)
	copy(s.frontier[i+1:], s.frontier[i:])
	s.frontier[i] = f
}

// truncateTo drops every frame from index n onward, returning their
// frameRecs to the pool.
func (s *search) truncateTo(n int) {
	for i := n; i < len(s.frontier); i++ {
		s.pool.Free(s.frontier[i])
	}
	s.frontier = s.frontier[:n]
}

// unwindAll uninstalls every currently-selected alternative across the
// live frontier, in reverse order, restoring every CollectedPackage's
// counters to zero (spec §4.3: "the solver guarantees they return to
// zero on every exit path").
func (s *search) unwindAll() {
	for i := len(s.frontier) - 1; i >= 0; i-- {
		f := s.frontier[i]
		if f.cursor >= 0 {
			id := s.goalWindow(f)[f.cursor]
			uninstall(s.u, s.u.byID(id))
		}
	}
}

// IsInstallable answers whether name has a consistent set of installed
// dependencies in u, per spec §4.3. cfg supplies the iteration budget and
// the active dependency-kind mask; tr receives optional diagnostics (nil
// is fine).
func (u *Universe) IsInstallable(name string, cfg *config.Config, tr *trace.Tracer) (Result, error) {
	cp, ok := u.Get(name)
	if !ok {
		return No, badArgument("unknown package %q in architecture %q", name, u.Arch)
	}
	return u.isInstallable([]PackageID{cp.id}, cfg, tr)
}

func (u *Universe) isInstallable(alternatives []PackageID, cfg *config.Config, tr *trace.Tracer) (Result, error) {
	for _, id := range alternatives {
		if u.byID(id).Installability == InstallableYes {
			return Yes, nil
		}
	}

	s := &search{u: u, cfg: cfg, tr: tr, a: *arena.NewArena(cfg.ArenaChunkBytes)}
	s.pool = arena.NewPool[frameRec](&s.a)
	root := s.pushGoal(alternatives)
	root.cutoff = 1
	s.frontier = []*frameRec{root}

	budget := cfg.IterationBudget
	if budget <= 0 {
		budget = config.DefaultIterationBudget
	}

	pointer := 0
	for iter := 0; ; iter++ {
		if iter >= budget {
			involved := len(s.frontier)
			s.unwindAll()
			tr.Logfln("solver gave up after %d iterations with %d frames live", iter, involved)
			return GaveUp, nil
		}

		frame := s.frontier[pointer]
		goal := s.goalWindow(frame)

		if frame.cursor == cursorNone {
			chosen := -1
			for i, id := range goal {
				if u.byID(id).Installed > 0 {
					chosen = i
					break
				}
			}
			if chosen == -1 {
				chosen = 0
			}
			frame.cursor = int32(chosen)
			frame.cutoff = int32(len(s.frontier))
		} else if frame.cursor != cursorExhausted {
			cur := u.byID(goal[frame.cursor])
			uninstall(u, cur)
			s.truncateTo(int(frame.cutoff))
			if cur.Installed > 0 {
				frame.cursor = cursorExhausted
			} else {
				frame.cursor++
			}
		}

		for frame.cursor >= 0 && int(frame.cursor) < len(goal) && !canInstall(u, u.byID(goal[frame.cursor])) {
			frame.cursor++
		}
		if frame.cursor != cursorExhausted && int(frame.cursor) >= len(goal) {
			frame.cursor = cursorExhausted
		}

		if frame.cursor == cursorExhausted {
			if pointer == 0 {
				return No, nil
			}
			pointer--
			continue
		}

		cp := u.byID(goal[frame.cursor])
		firstInstall := cp.Installed == 0
		install(u, cp)

		if firstInstall {
			abandoned := false
			insertPos := int(frame.cutoff)
		kindLoop:
			for k := Kind(0); k < numKinds; k++ {
				if !cfg.ActiveKinds[k] {
					continue
				}
				for _, clause := range cp.pkg.Depends[k] {
					m := matches(u, clause)
					switch {
					case len(m) == 0:
						abandoned = true
						break kindLoop
					case len(m) == 1:
						if len(goal) > 1 && echoesEarlierSkip(goal, frame.cursor, m[0]) {
							abandoned = true
							break kindLoop
						}
						if len(goal) == 1 && !frame.expanded {
							sub := s.pushGoal(m)
							s.insertAt(pointer+1, sub)
							frame.expanded = true
						} else {
							sub := s.pushGoal(m)
							s.insertAt(insertPos, sub)
							insertPos++
						}
					default:
						sub := s.pushGoal(m)
						s.insertAt(len(s.frontier), sub)
					}
				}
				if abandoned {
					break
				}
			}
			if abandoned {
				continue
			}
		}

		pointer++
		if pointer >= len(s.frontier) {
			rootID := goal0(s)
			root := u.byID(rootID)
			root.Installability = InstallableYes
			for _, f := range s.frontier {
				id := s.goalWindow(f)[f.cursor]
				other := u.byID(id)
				if other.id != root.id {
					other.addMayAffect(root.id)
				}
			}
			for i := len(s.frontier) - 1; i >= 0; i-- {
				f := s.frontier[i]
				uninstall(u, u.byID(s.goalWindow(f)[f.cursor]))
			}
			return Yes, nil
		}
	}
}

func goal0(s *search) PackageID {
	f := s.frontier[0]
	return s.goalWindow(f)[f.cursor]
}

// echoesEarlierSkip reports whether candidate equals one of goal's
// entries strictly before cursor — an alternative this frame already
// tried (or skipped over) earlier in its own selection. A dependency
// that resolves, as its only option, to a path already known bad is
// itself bad (spec §4.3's "singleton match" abandonment rule).
func echoesEarlierSkip(goal []PackageID, cursor int32, candidate PackageID) bool {
	for i := int32(0); i < cursor; i++ {
		if goal[i] == candidate {
			return true
		}
	}
	return false
}
