// Package project persists courses and their map and mask assets on disk.
// A store root holds one <name>.json per course plus maps/ and masks/
// directories for the uploaded rasters.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"course-setter/internal/course"
)

const (
	courseExt = ".json"
	mapsDir   = "maps"
	masksDir  = "masks"
)

var (
	// ErrEmptyName rejects saves without a course name.
	ErrEmptyName = errors.New("course name must not be empty")

	// ErrExists is returned when saving would overwrite another course
	// and the caller did not ask for an overwrite.
	ErrExists = errors.New("course already exists")

	// ErrNotFound is returned for loads and deletes of unknown courses.
	ErrNotFound = errors.New("course not found")
)

// Entry describes one stored course in a listing.
type Entry struct {
	Name      string    `json:"name"`
	Published bool      `json:"published"`
	Pairs     int       `json:"pairs"`
	Modified  time.Time `json:"modified"`
}

// Store reads and writes courses under a root directory.
type Store struct {
	root string
}

// Open creates a store rooted at dir, creating the layout if needed.
func Open(dir string) (*Store, error) {
	for _, sub := range []string{dir, filepath.Join(dir, mapsDir), filepath.Join(dir, masksDir)} {
		if err := os.MkdirAll(sub, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) coursePath(name string) string {
	return filepath.Join(s.root, name+courseExt)
}

// MapPath returns the on-disk path for a stored map file name.
func (s *Store) MapPath(mapFile string) string {
	return filepath.Join(s.root, mapsDir, mapFile)
}

// MaskPath returns the mask path paired with a stored map file name.
func (s *Store) MaskPath(mapFile string) string {
	base := strings.TrimSuffix(mapFile, filepath.Ext(mapFile))
	return filepath.Join(s.root, masksDir, "mask_"+base+".png")
}

// Exists reports whether a course with the given name is stored.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.coursePath(name))
	return err == nil
}

// Save writes a course document under name. With overwrite false the save
// aborts with ErrExists when the name is taken, so the caller can confirm.
func (s *Store) Save(name string, doc *course.Document, overwrite bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if !overwrite && s.Exists(name) {
		return ErrExists
	}

	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode course %q: %w", name, err)
	}
	if err := os.WriteFile(s.coursePath(name), data, 0644); err != nil {
		return fmt.Errorf("write course %q: %w", name, err)
	}
	return nil
}

// Load reads a stored course by name.
func (s *Store) Load(name string) (*course.Document, error) {
	data, err := os.ReadFile(s.coursePath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("course %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read course %q: %w", name, err)
	}

	doc, err := course.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode course %q: %w", name, err)
	}
	return doc, nil
}

// Delete removes a course and its map and mask assets.
func (s *Store) Delete(name string) error {
	doc, err := s.Load(name)
	if err != nil {
		return err
	}
	if doc.MapFile != "" {
		// Asset removal is best effort, the course entry is what counts.
		os.Remove(s.MapPath(doc.MapFile))
		os.Remove(s.MaskPath(doc.MapFile))
	}
	if err := os.Remove(s.coursePath(name)); err != nil {
		return fmt.Errorf("delete course %q: %w", name, err)
	}
	return nil
}

// TogglePublish flips a stored course's published flag and returns the
// new value.
func (s *Store) TogglePublish(name string) (bool, error) {
	doc, err := s.Load(name)
	if err != nil {
		return false, err
	}
	doc.Published = !doc.Published
	if err := s.Save(name, doc, true); err != nil {
		return false, err
	}
	return doc.Published, nil
}

// List returns all stored courses, newest first.
func (s *Store) List() ([]Entry, error) {
	names, err := filepath.Glob(filepath.Join(s.root, "*"+courseExt))
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	var entries []Entry
	for _, path := range names {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), courseExt)

		var peek struct {
			Published bool              `json:"published"`
			Pairs     []json.RawMessage `json:"cP"`
		}
		if data, err := os.ReadFile(path); err == nil {
			_ = json.Unmarshal(data, &peek)
		}

		entries = append(entries, Entry{
			Name:      name,
			Published: peek.Published,
			Pairs:     len(peek.Pairs),
			Modified:  info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Modified.After(entries[j].Modified)
	})
	return entries, nil
}

// SaveMap stores an uploaded map image and returns the stored file name.
// The name is made collision-free by appending a counter when needed.
func (s *Store) SaveMap(fileName string, data []byte) (string, error) {
	fileName = filepath.Base(fileName)
	ext := strings.ToLower(filepath.Ext(fileName))
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	stored := base + ext
	for i := 1; ; i++ {
		if _, err := os.Stat(s.MapPath(stored)); errors.Is(err, os.ErrNotExist) {
			break
		}
		stored = fmt.Sprintf("%s_%d%s", base, i, ext)
	}

	if err := os.WriteFile(s.MapPath(stored), data, 0644); err != nil {
		return "", fmt.Errorf("write map %q: %w", stored, err)
	}
	return stored, nil
}

// SaveMask stores the mask raster paired with a map file.
func (s *Store) SaveMask(mapFile string, pngData []byte) error {
	if err := os.WriteFile(s.MaskPath(mapFile), pngData, 0644); err != nil {
		return fmt.Errorf("write mask for %q: %w", mapFile, err)
	}
	return nil
}

// LoadMask reads the mask raster paired with a map file. A missing mask is
// not an error, the editor starts from an empty buffer.
func (s *Store) LoadMask(mapFile string) ([]byte, error) {
	data, err := os.ReadFile(s.MaskPath(mapFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read mask for %q: %w", mapFile, err)
	}
	return data, nil
}
