package warehouse

import "strconv"

// Slot is a column position within an archetype/table: a relation kind,
// plus an optional target entity. For plain components and resources the
// target is folded into the kind (HasTarget is false); for user-defined
// relations (ChildOf, Likes, ...) the target is the related entity.
type Slot struct {
	Kind      RelationKindId
	Target    Entity
	HasTarget bool
}

// NoTarget builds a plain (no-target) slot for kind.
func NoTarget(kind RelationKindId) Slot {
	return Slot{Kind: kind}
}

// WithTarget builds a target-bearing slot for kind parameterized by target.
func WithTarget(kind RelationKindId, target Entity) Slot {
	return Slot{Kind: kind, Target: target, HasTarget: true}
}

// Less establishes the canonical lexicographic order over (Kind, HasTarget,
// Target) used whenever slot lists must be sorted for identity purposes
// (spec.md §3 invariant 4/5).
func (s Slot) Less(o Slot) bool {
	if s.Kind != o.Kind {
		return s.Kind < o.Kind
	}
	if s.HasTarget != o.HasTarget {
		return !s.HasTarget // no-target sorts before target-bearing
	}
	if !s.HasTarget {
		return false
	}
	if s.Target.id != o.Target.id {
		return s.Target.id < o.Target.id
	}
	return s.Target.generation < o.Target.generation
}

func (s Slot) String() string {
	if !s.HasTarget {
		return "(" + strconv.FormatUint(uint64(s.Kind), 10) + ")"
	}
	return "(" + strconv.FormatUint(uint64(s.Kind), 10) + "," + s.Target.String() + ")"
}

// sortSlots sorts a slot slice in place by the canonical order. Insertion
// sort is used deliberately: slot lists are small (a handful of components
// per bundle/archetype), making it faster in practice than a generic sort;
// it is also stable.
func sortSlots(s []Slot) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Less(s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// signature renders a sorted slot list into a canonical, comparable string
// key, used for both table and archetype identity maps.
func signature(slots []Slot) string {
	if len(slots) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(slots)*12)
	for i, s := range slots {
		if i > 0 {
			buf = append(buf, '|')
		}
		buf = strconv.AppendUint(buf, uint64(s.Kind), 10)
		if s.HasTarget {
			buf = append(buf, ':')
			buf = strconv.AppendUint(buf, uint64(s.Target.id), 10)
			buf = append(buf, '.')
			buf = strconv.AppendUint(buf, uint64(s.Target.generation), 10)
		}
	}
	return string(buf)
}
