package features

import (
	"strings"
	"unicode"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/athapong/relfeat/pkg/evidence"
)

// verbTagPrefix marks the Penn Treebank verb tags (VB, VBD, VBG, VBN, VBP, VBZ)
const verbTagPrefix = "VB"

func countVerbs(ts []string) int {
	count := 0
	for _, tag := range ts {
		if strings.HasPrefix(tag, verbTagPrefix) {
			count++
		}
	}
	return count
}

// VerbsCount counts the verbs of the segment
func VerbsCount(ev *evidence.Evidence) int {
	return countVerbs(tags(ev, whole))
}

// VerbsCountInBetween counts the verbs between the two operands
func VerbsCountInBetween(ev *evidence.Evidence) int {
	return countVerbs(tags(ev, InBetweenOffsets))
}

// IsSymbol reports whether tok is made only of non-alphanumeric characters
func IsSymbol(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// SymbolsInBetween returns 1 when a symbol token appears between the two
// operands. It is a presence flag, not a count.
func SymbolsInBetween(ev *evidence.Evidence) int {
	i, j := InBetweenOffsets(ev)
	for _, tok := range segment(ev).Tokens[i:j] {
		if IsSymbol(tok) {
			return 1
		}
	}
	return 0
}

// NumberOfTokens returns the number of tokens between the two operands
func NumberOfTokens(ev *evidence.Evidence) int {
	return EntityDistance(ev)
}

// LemmasCountInBetween returns the number of lemmas between the two operands
func LemmasCountInBetween(ev *evidence.Evidence) int {
	return len(lemmas(ev, InBetweenOffsets))
}

// BagOfTreeTags returns the labels of every inner node of the segment parse trees
func BagOfTreeTags(ev *evidence.Evidence) mapset.Set[string] {
	out := mapset.NewThreadUnsafeSet[string]()
	for _, tree := range segment(ev).Trees {
		out.Append(tree.Labels()...)
	}
	return out
}

// TreeHeight returns the summed height of the segment parse trees
func TreeHeight(ev *evidence.Evidence) int {
	total := 0
	for _, tree := range segment(ev).Trees {
		total += tree.Height()
	}
	return total
}
