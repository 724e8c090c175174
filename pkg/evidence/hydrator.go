package evidence

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Record is the raw form of an evidence as stored in a corpus
type Record struct {
	ID      string   `json:"id"`
	Markup  string   `json:"markup"`
	PosTags []string `json:"postags,omitempty"`
	Lemmas  []string `json:"lemmas,omitempty"`
	Trees   []string `json:"trees,omitempty"`
}

// Hydrator builds evidences from records
type Hydrator struct {
	tagger Tagger
	logger *logrus.Logger
}

// HydratorOption configures a Hydrator
type HydratorOption func(*Hydrator)

// WithTagger sets the tagger used for records without POS tags
func WithTagger(t Tagger) HydratorOption {
	return func(h *Hydrator) {
		h.tagger = t
	}
}

// WithLogger sets the hydrator logger
func WithLogger(l *logrus.Logger) HydratorOption {
	return func(h *Hydrator) {
		h.logger = l
	}
}

// NewHydrator creates a new hydrator. Records without POS tags are tagged
// with prose unless another tagger is configured.
func NewHydrator(opts ...HydratorOption) *Hydrator {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	h := &Hydrator{
		tagger: NewProseTagger(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hydrate parses the record markup and annotates the resulting segment.
//
// Explicit POS tags and lemmas must match the segment length. Without tags
// the tagger runs; lemmas default to the lower-cased tokens.
func (h *Hydrator) Hydrate(rec Record) (*Evidence, error) {
	return h.hydrate(rec, false)
}

func (h *Hydrator) hydrate(rec Record, cycleTags bool) (*Evidence, error) {
	m, err := ParseMarkup(rec.Markup)
	if err != nil {
		return nil, errors.Wrapf(err, "evidence %s", rec.ID)
	}

	n := len(m.Tokens)
	seg := &Segment{
		Tokens:      m.Tokens,
		Occurrences: m.Occurrences,
	}
	if seg.Tokens == nil {
		seg.Tokens = []string{}
	}

	switch {
	case len(rec.PosTags) > 0 && cycleTags:
		seg.PosTags = cycle(rec.PosTags, n)
	case len(rec.PosTags) == n:
		seg.PosTags = append([]string{}, rec.PosTags...)
	case len(rec.PosTags) > 0:
		return nil, errors.Wrapf(ErrMarkup, "evidence %s has %d POS tags for %d tokens", rec.ID, len(rec.PosTags), n)
	default:
		tags, err := h.tagger.Tag(m.Tokens)
		if err != nil {
			return nil, errors.Wrapf(err, "evidence %s", rec.ID)
		}
		seg.PosTags = tags
	}

	switch {
	case len(rec.Lemmas) == n:
		seg.Lemmas = append([]string{}, rec.Lemmas...)
	case len(rec.Lemmas) > 0:
		return nil, errors.Wrapf(ErrMarkup, "evidence %s has %d lemmas for %d tokens", rec.ID, len(rec.Lemmas), n)
	default:
		seg.Lemmas = make([]string, n)
		for i, tok := range m.Tokens {
			seg.Lemmas[i] = strings.ToLower(tok)
		}
	}

	for i, raw := range rec.Trees {
		tree, err := ParseTree(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "evidence %s tree %d", rec.ID, i)
		}
		seg.Trees = append(seg.Trees, tree)
	}

	if m.Left < 0 {
		h.logger.WithFields(logrus.Fields{
			"evidence_id": rec.ID,
			"tokens":      n,
		}).Debug("Evidence markup has no relation operands")
	}

	return New(rec.ID, seg, m.operand(m.Left), m.operand(m.Right)), nil
}

// FromMarkup hydrates markup with the given POS tags, cycled to the segment
// length. Without tags the prose tagger is used.
func FromMarkup(markup string, postags ...string) (*Evidence, error) {
	return NewHydrator().hydrate(Record{Markup: markup, PosTags: postags}, true)
}

func cycle(vals []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = vals[i%len(vals)]
	}
	return out
}
