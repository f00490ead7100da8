// Package filestore loads the advisory, shelter list and rumor rules from a
// local data directory.
package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
)

// File names inside the data directory.
const (
	AdvisoryFile = "sample_advisory.json"
	SheltersFile = "shelters.json"
	RumorsFile   = "rumors.json"
)

// Store reads domain documents from a directory on disk.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// LoadAdvisory reads and validates the advisory file.
func (s *Store) LoadAdvisory(ctx context.Context) (domain.Advisory, error) {
	data, err := s.read(ctx, AdvisoryFile)
	if err != nil {
		return domain.Advisory{}, err
	}
	adv, err := domain.ParseAdvisory(data)
	if err != nil {
		return domain.Advisory{}, fmt.Errorf("%s: %w", AdvisoryFile, err)
	}
	return adv, nil
}

// LoadShelters reads and validates the shelter file.
func (s *Store) LoadShelters(ctx context.Context) ([]domain.Shelter, error) {
	data, err := s.read(ctx, SheltersFile)
	if err != nil {
		return nil, err
	}
	shelters, err := domain.ParseShelters(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SheltersFile, err)
	}
	return shelters, nil
}

// LoadRumorRules reads the offline rumor rules. A missing file yields the
// built-in rules.
func (s *Store) LoadRumorRules(ctx context.Context) ([]domain.RumorRule, error) {
	data, err := s.read(ctx, RumorsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.DefaultRumorRules(), nil
	}
	if err != nil {
		return nil, err
	}
	rules, err := domain.ParseRumorRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RumorsFile, err)
	}
	return rules, nil
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	s.logger.Debug("data file loaded", "path", path, "sha256", hex.EncodeToString(sum[:]), "bytes", len(data))
	return data, nil
}
