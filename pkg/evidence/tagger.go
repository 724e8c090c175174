package evidence

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/pkg/errors"
)

// Tagger assigns one part-of-speech tag to each token
type Tagger interface {
	Tag(tokens []string) ([]string, error)
}

// Tokenize splits text into word and punctuation tokens
func Tokenize(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, errors.Wrap(err, "tokenize")
	}

	toks := doc.Tokens()
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Text)
	}
	return out, nil
}

// ProseTagger implements Tagger using the prose averaged perceptron tagger
type ProseTagger struct{}

// NewProseTagger creates a new prose backed tagger
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag tags the tokens in context. When prose tokenizes the joined sentence
// differently from the given tokens, each token is tagged on its own.
func (p *ProseTagger) Tag(tokens []string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	tagged, err := p.tag(strings.Join(tokens, " "))
	if err != nil {
		return nil, err
	}
	if aligned(tagged, tokens) {
		tags := make([]string, len(tagged))
		for i, tok := range tagged {
			tags[i] = tok.Tag
		}
		return tags, nil
	}

	tags := make([]string, len(tokens))
	for i, tok := range tokens {
		single, err := p.tag(tok)
		if err != nil {
			return nil, err
		}
		if len(single) > 0 {
			tags[i] = single[0].Tag
		}
	}
	return tags, nil
}

func (p *ProseTagger) tag(text string) ([]prose.Token, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, errors.Wrap(err, "pos tagging")
	}
	return doc.Tokens(), nil
}

func aligned(tagged []prose.Token, tokens []string) bool {
	if len(tagged) != len(tokens) {
		return false
	}
	for i := range tagged {
		if tagged[i].Text != tokens[i] {
			return false
		}
	}
	return true
}
