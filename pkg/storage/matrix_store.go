package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// FeatureMatrix is an extracted feature matrix. Rows are aligned with IDs and
// every row has one value per column.
type FeatureMatrix struct {
	Relation    string      `json:"relation,omitempty"`
	Columns     []string    `json:"columns"`
	IDs         []string    `json:"ids"`
	Rows        [][]float64 `json:"rows"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Validate checks that rows, ids and columns line up
func (m *FeatureMatrix) Validate() error {
	if len(m.Rows) != len(m.IDs) {
		return errors.Errorf("matrix has %d rows for %d ids", len(m.Rows), len(m.IDs))
	}
	for i, row := range m.Rows {
		if len(row) != len(m.Columns) {
			return errors.Errorf("row %s has %d values for %d columns", m.IDs[i], len(row), len(m.Columns))
		}
	}
	return nil
}

// MatrixStore defines an interface for storing feature matrices
type MatrixStore interface {
	// StoreMatrix persists a feature matrix
	StoreMatrix(ctx context.Context, m *FeatureMatrix) error

	// LoadMatrix loads a feature matrix from storage
	LoadMatrix(ctx context.Context) (*FeatureMatrix, error)
}

// JSONMatrixStore implements MatrixStore using a JSON file
type JSONMatrixStore struct {
	filePath string
}

// NewJSONMatrixStore creates a new JSON matrix store
func NewJSONMatrixStore(filePath string) *JSONMatrixStore {
	return &JSONMatrixStore{
		filePath: filePath,
	}
}

// StoreMatrix stores the matrix as indented JSON
func (s *JSONMatrixStore) StoreMatrix(ctx context.Context, m *FeatureMatrix) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode matrix")
	}
	return os.WriteFile(s.filePath, data, 0644)
}

// LoadMatrix loads a matrix from the JSON file
func (s *JSONMatrixStore) LoadMatrix(ctx context.Context) (*FeatureMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, err
	}

	var m FeatureMatrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decode matrix %s", s.filePath)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
