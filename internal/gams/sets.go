package gams

import (
	"fmt"
	"strconv"
	"strings"
)

// SetIndex is one position of an index expression: a named set with an
// optional offset, or the first element of the set.
type SetIndex struct {
	Name   string
	Offset int
	first  bool
}

// Index returns the live index of a set.
func Index(name string) SetIndex {
	return SetIndex{Name: name}
}

// Offset returns the index of a set shifted by off periods.
func Offset(name string, off int) SetIndex {
	return SetIndex{Name: name, Offset: off}
}

// First returns the index selecting the first element of a set.
func First(name string) SetIndex {
	return SetIndex{Name: name, first: true}
}

type setDepth struct {
	current int
	max     int
}

// setRegistry tracks how deeply each named set is nested so that inner uses
// of a set render as a distinct alias (t, tt, ttt, ...).
type setRegistry struct {
	order []string
	sets  map[string]*setDepth
}

func newSetRegistry() *setRegistry {
	return &setRegistry{sets: make(map[string]*setDepth)}
}

func (r *setRegistry) create(name string) {
	if _, ok := r.sets[name]; ok {
		return
	}
	r.order = append(r.order, name)
	r.sets[name] = &setDepth{}
}

func (r *setRegistry) lookup(name string) *setDepth {
	s, ok := r.sets[name]
	if !ok {
		panic(fmt.Sprintf("gams: set '%s' was never created", name))
	}
	return s
}

// enter nests one level deeper into the set and returns the matching
// release, meant to be deferred by the caller.
func (r *setRegistry) enter(name string) func() {
	s := r.lookup(name)
	s.current++
	if s.current > s.max {
		s.max = s.current
	}
	return func() { r.leave(name) }
}

func (r *setRegistry) leave(name string) {
	s := r.lookup(name)
	if s.current == 0 {
		panic(fmt.Sprintf("gams: leave of set '%s' without matching enter", name))
	}
	s.current--
}

// render joins the indices into a GAMS index expression such as "tt, p".
func (r *setRegistry) render(indices ...SetIndex) string {
	var sb strings.Builder
	for i, idx := range indices {
		if i > 0 {
			sb.WriteString(", ")
		}
		if idx.first {
			sb.WriteString("'0'")
			continue
		}
		s := r.lookup(idx.Name)
		sb.WriteString(strings.Repeat(idx.Name, s.current+1))
		switch {
		case idx.Offset > 0:
			sb.WriteString("+")
			sb.WriteString(strconv.Itoa(idx.Offset))
		case idx.Offset < 0:
			sb.WriteString(strconv.Itoa(idx.Offset))
		}
	}
	return sb.String()
}

// aliases returns one alias statement per depth reached below the base
// name, for every set in creation order.
func (r *setRegistry) aliases() []string {
	var out []string
	for _, name := range r.order {
		for n := 1; n <= r.sets[name].max; n++ {
			out = append(out, fmt.Sprintf("alias(%s, %s);", name, strings.Repeat(name, n+1)))
		}
	}
	return out
}

// balanced reports whether every set is back at depth zero.
func (r *setRegistry) balanced() bool {
	for _, s := range r.sets {
		if s.current != 0 {
			return false
		}
	}
	return true
}
