package features

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/athapong/relfeat/pkg/evidence"
)

func segment(ev *evidence.Evidence) *evidence.Segment {
	if ev.Segment == nil {
		return &evidence.Segment{}
	}
	return ev.Segment
}

// EntityOrder returns 1 when the left operand starts before the right one
// in the text, 0 otherwise
func EntityOrder(ev *evidence.Evidence) int {
	return boolInt(ev.Left.Start < ev.Right.Start)
}

// InBetweenOffsets returns the half-open token range [i, j) strictly between
// the two operands in text order. The range is empty (i == j) when the
// operands touch or overlap.
func InBetweenOffsets(ev *evidence.Evidence) (int, int) {
	n := segment(ev).Len()
	i := min(ev.First().End, n)
	j := min(ev.Second().Start, n)
	if j < i {
		j = i
	}
	return i, j
}

// EntityDistance returns the number of tokens between the two operands
func EntityDistance(ev *evidence.Evidence) int {
	i, j := InBetweenOffsets(ev)
	return j - i
}

// OtherEntitiesInBetween counts the distinct entity occurrences of the
// segment that start between the two operands
func OtherEntitiesInBetween(ev *evidence.Evidence) int {
	i, j := InBetweenOffsets(ev)
	count := 0
	allOccurrences(ev).Each(func(o evidence.Occurrence) bool {
		if o.Start >= i && o.Start < j {
			count++
		}
		return false
	})
	return count
}

// TotalNumberOfEntities counts the distinct entity occurrences of the
// segment, the evidence operands included
func TotalNumberOfEntities(ev *evidence.Evidence) int {
	return allOccurrences(ev).Cardinality()
}

func allOccurrences(ev *evidence.Evidence) mapset.Set[evidence.Occurrence] {
	out := mapset.NewThreadUnsafeSet[evidence.Occurrence]()
	for _, o := range segment(ev).Occurrences {
		if o.Len() > 0 {
			out.Add(o)
		}
	}
	for _, o := range []evidence.Occurrence{ev.Left, ev.Right} {
		if o.Len() > 0 {
			out.Add(o)
		}
	}
	return out
}
