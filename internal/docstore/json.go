package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitflow/internal/constants"
)

const jsonStoreVersion = 1

type jsonDocument struct {
	Data      Fields    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Seq       int64     `json:"seq"`
}

type jsonFile struct {
	Version     int                                `json:"version"`
	Seq         int64                              `json:"seq"`
	Collections map[string]map[string]jsonDocument `json:"collections"`
}

// JSONStore keeps every collection in one JSON file. Each write replaces
// the file atomically.
type JSONStore struct {
	path string

	mu    sync.Mutex
	store *jsonFile
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = &jsonFile{
		Version:     jsonStoreVersion,
		Collections: make(map[string]map[string]jsonDocument),
	}
	return s.save()
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	store := &jsonFile{}
	if err := json.Unmarshal(data, store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if store.Version > jsonStoreVersion {
		return fmt.Errorf("storage file version (%d) is newer than supported version (%d) - please upgrade the application", store.Version, jsonStoreVersion)
	}
	if store.Collections == nil {
		store.Collections = make(map[string]map[string]jsonDocument)
	}

	s.store = store
	return nil
}

func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = nil
	return nil
}

func (s *JSONStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNotLoaded
	}
	_, err := os.Stat(s.path)
	return err
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

func (s *JSONStore) Collection(name string) Collection {
	return &jsonCollection{store: s, name: name}
}

// save writes the file to a temp sibling and renames it into place.
// Callers hold s.mu.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

// mutate runs fn against the loaded file and persists the result. The
// in-memory state is restored if the write fails.
func (s *JSONStore) mutate(ctx context.Context, fn func(*jsonFile) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return ErrNotLoaded
	}

	snapshot, err := json.Marshal(s.store)
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	if err := fn(s.store); err != nil {
		return err
	}

	if err := s.save(); err != nil {
		restored := &jsonFile{}
		if uerr := json.Unmarshal(snapshot, restored); uerr == nil {
			s.store = restored
		}
		return err
	}
	return nil
}

type jsonCollection struct {
	store *JSONStore
	name  string
}

func (c *jsonCollection) List(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.store == nil {
		return nil, ErrNotLoaded
	}

	type entry struct {
		id  string
		doc jsonDocument
	}
	var entries []entry
	for id, doc := range c.store.store.Collections[c.name] {
		entries = append(entries, entry{id, doc})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].doc.Seq > entries[j].doc.Seq
	})

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, Document{ID: e.id, Fields: cloneFields(e.doc.Data)})
	}
	return docs, nil
}

func (c *jsonCollection) Create(ctx context.Context, fields Fields) (string, error) {
	if _, err := encodeFields(fields); err != nil {
		return "", err
	}
	id := uuid.NewString()
	err := c.store.mutate(ctx, func(f *jsonFile) error {
		docs := f.Collections[c.name]
		if docs == nil {
			docs = make(map[string]jsonDocument)
			f.Collections[c.name] = docs
		}
		f.Seq++
		now := time.Now().UTC()
		docs[id] = jsonDocument{Data: cloneFields(fields), CreatedAt: now, UpdatedAt: now, Seq: f.Seq}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create %s document: %w", c.name, err)
	}
	return id, nil
}

func (c *jsonCollection) Update(ctx context.Context, id string, fields Fields) error {
	if _, err := encodeFields(fields); err != nil {
		return err
	}
	return c.store.mutate(ctx, func(f *jsonFile) error {
		doc, ok := f.Collections[c.name][id]
		if !ok {
			return fmt.Errorf("%s/%s: %w", c.name, id, ErrNotFound)
		}
		if doc.Data == nil {
			doc.Data = Fields{}
		}
		for k, v := range cloneFields(fields) {
			doc.Data[k] = v
		}
		doc.UpdatedAt = time.Now().UTC()
		f.Collections[c.name][id] = doc
		return nil
	})
}

func (c *jsonCollection) Delete(ctx context.Context, id string) error {
	return c.store.mutate(ctx, func(f *jsonFile) error {
		delete(f.Collections[c.name], id)
		return nil
	})
}

// cloneFields deep-copies fields through a JSON round trip so stored
// values never alias caller memory and have the same shapes a reload
// would produce.
func cloneFields(fields Fields) Fields {
	out := Fields{}
	if len(fields) == 0 {
		return out
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}
