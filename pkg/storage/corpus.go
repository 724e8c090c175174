package storage

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/athapong/relfeat/pkg/evidence"
)

// ErrCorpus is returned for malformed corpus lines
var ErrCorpus = errors.New("malformed corpus")

const maxLineSize = 4 * 1024 * 1024

// CorpusReader reads evidences stored as JSON lines. Each line holds one
// record: {"id", "markup", "postags", "lemmas", "trees"}.
type CorpusReader struct {
	hydrator *evidence.Hydrator
	logger   *logrus.Logger
}

// NewCorpusReader creates a corpus reader hydrating records with h
func NewCorpusReader(h *evidence.Hydrator, logger *logrus.Logger) *CorpusReader {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &CorpusReader{
		hydrator: h,
		logger:   logger,
	}
}

// ReadPath reads a corpus file, or every .jsonl file below a directory in
// lexical order
func (c *CorpusReader) ReadPath(ctx context.Context, path string) ([]*evidence.Evidence, error) {
	files, err := corpusFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrCorpus, "no corpus files found in %s", path)
	}

	var out []*evidence.Evidence
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, errors.Wrapf(err, "open corpus %s", file)
		}
		evs, err := c.Read(ctx, file, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, evs...)
	}
	return out, nil
}

// Read hydrates every record in r. Blank lines are skipped. Records without
// an id get one derived from source and line number.
func (c *CorpusReader) Read(ctx context.Context, source string, r io.Reader) ([]*evidence.Evidence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var out []*evidence.Evidence
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		rec, err := ParseRecord(text)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", source, line)
		}
		if rec.ID == "" {
			rec.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+strconv.Itoa(line))).String()
		}

		ev, err := c.hydrator.Hydrate(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", source, line)
		}
		out = append(out, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read corpus %s", source)
	}

	c.logger.WithFields(logrus.Fields{
		"source":    source,
		"evidences": len(out),
	}).Info("Corpus loaded")
	return out, nil
}

// ParseRecord decodes one corpus line
func ParseRecord(line string) (evidence.Record, error) {
	if !gjson.Valid(line) {
		return evidence.Record{}, errors.Wrap(ErrCorpus, "invalid JSON")
	}
	doc := gjson.Parse(line)
	if !doc.IsObject() {
		return evidence.Record{}, errors.Wrap(ErrCorpus, "record is not an object")
	}

	markup := doc.Get("markup")
	if markup.Type != gjson.String {
		return evidence.Record{}, errors.Wrap(ErrCorpus, "record has no markup")
	}

	rec := evidence.Record{
		ID:     doc.Get("id").String(),
		Markup: markup.String(),
	}
	var err error
	if rec.PosTags, err = stringArray(doc, "postags"); err != nil {
		return evidence.Record{}, err
	}
	if rec.Lemmas, err = stringArray(doc, "lemmas"); err != nil {
		return evidence.Record{}, err
	}
	if rec.Trees, err = stringArray(doc, "trees"); err != nil {
		return evidence.Record{}, err
	}
	return rec, nil
}

func stringArray(doc gjson.Result, key string) ([]string, error) {
	field := doc.Get(key)
	if !field.Exists() || field.Type == gjson.Null {
		return nil, nil
	}
	if !field.IsArray() {
		return nil, errors.Wrapf(ErrCorpus, "%s is not an array", key)
	}

	var out []string
	var bad bool
	field.ForEach(func(_, v gjson.Result) bool {
		if v.Type != gjson.String {
			bad = true
			return false
		}
		out = append(out, v.String())
		return true
	})
	if bad {
		return nil, errors.Wrapf(ErrCorpus, "%s holds a non-string item", key)
	}
	return out, nil
}

func corpusFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat corpus %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(p), ".jsonl") {
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
