// Package features computes relation-classification features over evidences.
//
// Every feature is a pure, total function of one Evidence. Set-valued
// features return a mapset.Set, scalar features an int. Evidences with an
// empty segment or adjacent entities yield the empty set or 0.
package features

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/athapong/relfeat/pkg/evidence"
)

// Value is the result of a feature: an int, a bool, or a mapset.Set of
// string, Bigram, WordPos or WordPosBigram
type Value = any

// Func is a feature callable
type Func func(ev *evidence.Evidence) Value

// Bigram is a pair of consecutive words or tags
type Bigram = [2]string

// WordPos pairs a lower-cased word with its POS tag
type WordPos struct {
	Word string
	POS  string
}

// WordPosBigram is a pair of consecutive WordPos
type WordPosBigram = [2]WordPos

// Wrap adapts a typed feature function to Func
func Wrap[T any](fn func(*evidence.Evidence) T) Func {
	return func(ev *evidence.Evidence) Value {
		return fn(ev)
	}
}

func bag[T comparable](items []T) mapset.Set[T] {
	return mapset.NewThreadUnsafeSet(items...)
}

// Bigrams pairs consecutive items positionally, producing exactly
// max(len(items)-1, 0) pairs
func Bigrams[T comparable](items []T) [][2]T {
	if len(items) < 2 {
		return nil
	}
	out := make([][2]T, 0, len(items)-1)
	for k := 1; k < len(items); k++ {
		out = append(out, [2]T{items[k-1], items[k]})
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
