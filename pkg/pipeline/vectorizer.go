package pipeline

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"

	"github.com/athapong/relfeat/pkg/features"
)

// ErrValue is returned for feature values that cannot be vectorized
var ErrValue = errors.New("unsupported feature value")

// Vectorizer turns rows of feature values into numeric vectors. Numeric
// features take one column each. Set and string features are one-hot
// encoded with one column per item seen during Fit, named "spec=item".
type Vectorizer struct {
	specs   []string
	columns []string
	index   map[string]int
	numeric []bool
}

// NewVectorizer creates a vectorizer for rows aligned with specs
func NewVectorizer(specs []string) *Vectorizer {
	return &Vectorizer{specs: specs}
}

// Columns returns the learned column names
func (v *Vectorizer) Columns() []string {
	return v.columns
}

// Fit learns the columns from rows
func (v *Vectorizer) Fit(rows []Row) error {
	numeric := make([]bool, len(v.specs))
	seen := make([]bool, len(v.specs))
	vocab := make([]mapset.Set[string], len(v.specs))
	for k := range vocab {
		vocab[k] = mapset.NewThreadUnsafeSet[string]()
	}

	for _, row := range rows {
		if len(row.Values) != len(v.specs) {
			return errors.Wrapf(ErrValue, "evidence %s has %d values for %d features", row.EvidenceID, len(row.Values), len(v.specs))
		}
		for k, val := range row.Values {
			_, isNum := number(val)
			items, isCat := categories(val)
			if !isNum && !isCat {
				return errors.Wrapf(ErrValue, "feature %s has value of type %T", v.specs[k], val)
			}
			if seen[k] && numeric[k] != isNum {
				return errors.Wrapf(ErrValue, "feature %s mixes numeric and categorical values", v.specs[k])
			}
			seen[k], numeric[k] = true, isNum
			vocab[k].Append(items...)
		}
	}

	v.numeric = numeric
	v.columns = nil
	v.index = make(map[string]int)
	for k, spec := range v.specs {
		if numeric[k] || !seen[k] {
			v.add(spec)
			continue
		}
		items := vocab[k].ToSlice()
		sort.Strings(items)
		for _, item := range items {
			v.add(spec + "=" + item)
		}
	}
	return nil
}

func (v *Vectorizer) add(col string) {
	v.index[col] = len(v.columns)
	v.columns = append(v.columns, col)
}

// Transform encodes rows with the fitted columns. Items not seen during Fit
// are ignored.
func (v *Vectorizer) Transform(rows []Row) ([][]float64, error) {
	if v.index == nil {
		return nil, errors.New("vectorizer is not fitted")
	}

	out := make([][]float64, len(rows))
	for r, row := range rows {
		if len(row.Values) != len(v.specs) {
			return nil, errors.Wrapf(ErrValue, "evidence %s has %d values for %d features", row.EvidenceID, len(row.Values), len(v.specs))
		}
		vec := make([]float64, len(v.columns))
		for k, val := range row.Values {
			spec := v.specs[k]
			if n, ok := number(val); ok {
				col, known := v.index[spec]
				if !known || !v.numeric[k] {
					return nil, errors.Wrapf(ErrValue, "feature %s was fitted as categorical", spec)
				}
				vec[col] = n
				continue
			}
			items, ok := categories(val)
			if !ok {
				return nil, errors.Wrapf(ErrValue, "feature %s has value of type %T", spec, val)
			}
			for _, item := range items {
				if col, known := v.index[spec+"="+item]; known {
					vec[col] = 1
				}
			}
		}
		out[r] = vec
	}
	return out, nil
}

// FitTransform fits rows and encodes them
func (v *Vectorizer) FitTransform(rows []Row) ([][]float64, error) {
	if err := v.Fit(rows); err != nil {
		return nil, err
	}
	return v.Transform(rows)
}

// Items renders a set or string value as sorted item strings, the same
// strings used to name one-hot columns
func Items(val features.Value) ([]string, bool) {
	items, ok := categories(val)
	sort.Strings(items)
	return items, ok
}

// Number converts a numeric or bool value to float64
func Number(val features.Value) (float64, bool) {
	return number(val)
}

func number(val features.Value) (float64, bool) {
	switch n := val.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func categories(val features.Value) ([]string, bool) {
	switch s := val.(type) {
	case string:
		return []string{s}, true
	case mapset.Set[string]:
		return s.ToSlice(), true
	case mapset.Set[features.Bigram]:
		return render(s.ToSlice(), func(b features.Bigram) string {
			return b[0] + " " + b[1]
		}), true
	case mapset.Set[features.WordPos]:
		return render(s.ToSlice(), wordPos), true
	case mapset.Set[features.WordPosBigram]:
		return render(s.ToSlice(), func(b features.WordPosBigram) string {
			return wordPos(b[0]) + " " + wordPos(b[1])
		}), true
	}
	return nil, false
}

func wordPos(w features.WordPos) string {
	return w.Word + "/" + w.POS
}

func render[T any](items []T, fn func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

// Describe summarizes the fitted columns for logging
func (v *Vectorizer) Describe() string {
	return fmt.Sprintf("%d features, %d columns", len(v.specs), len(v.columns))
}
