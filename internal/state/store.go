// Package state persists the dashboard snapshot. Every backend stores the
// whole snapshot as one JSON document and replaces it wholesale on save.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dvloznov/decision-ease/internal/domain"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("state snapshot not found")

// ErrNotSQL is returned by OpenDB for backends without a database.
var ErrNotSQL = errors.New("backend is not SQL")

var errNilState = errors.New("nil state")

// Store loads and saves the dashboard snapshot.
type Store interface {
	// Load returns the saved snapshot or ErrNotFound.
	Load(ctx context.Context) (*domain.State, error)

	// Save overwrites the saved snapshot.
	Save(ctx context.Context, s *domain.State) error

	// Close releases the backend connection.
	Close() error
}

func encode(s *domain.State) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode: %w", errNilState)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*domain.State, error) {
	var s domain.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	s.Normalize()
	return &s, nil
}
