package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sjsage522/hoyocodeworker/internal/profile"
)

// FileStore keeps one JSON array of codes per game on disk
type FileStore struct {
	dir      string
	profiles profile.Profiles
}

// NewFileStore creates a store writing the cache files of profiles into dir
func NewFileStore(dir string, profiles profile.Profiles) *FileStore {
	return &FileStore{dir: dir, profiles: profiles}
}

// Path returns the cache file of game
func (s *FileStore) Path(game string) (string, error) {
	p, err := s.profiles.Get(game)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, p.CacheFile), nil
}

// Load reads the cache file. Both a plain array of codes and an array of
// objects with a "code" field are accepted.
func (s *FileStore) Load(ctx context.Context, game string) (*KnownCodes, error) {
	path, err := s.Path(game)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewKnownCodes(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	codes, err := decodeCodes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	known := NewKnownCodes(codes)
	known.Persisted = true
	return known, nil
}

func decodeCodes(data []byte) ([]string, error) {
	var codes []string
	if err := json.Unmarshal(data, &codes); err == nil {
		return codes, nil
	}

	var records []struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	codes = make([]string, 0, len(records))
	for _, r := range records {
		codes = append(codes, r.Code)
	}
	return codes, nil
}

// Save rewrites the cache file through a temporary file
func (s *FileStore) Save(ctx context.Context, game string, codes []string) error {
	path, err := s.Path(game)
	if err != nil {
		return err
	}
	if codes == nil {
		codes = []string{}
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("failed to encode codes: %w", err)
	}
	return WriteFileAtomic(path, data)
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}

// WriteFileAtomic replaces path with data so readers never see a partial file
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
