// Package preferences persists user preferences (favorite coins and cookie
// consent) in a storage.Store.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Fhatal-Studios/FhatalX/internal/storage"
)

// FavoritesKey is the storage key of the favorite id list.
const FavoritesKey = "fx_favorites"

// Favorites is the ordered set of favorite coin ids.
type Favorites struct {
	store storage.Store
	mu    sync.Mutex
}

// NewFavorites returns a favorites repository backed by store.
func NewFavorites(store storage.Store) *Favorites {
	return &Favorites{store: store}
}

// List returns the stored ids in insertion order. A missing or unparseable
// record is an empty list.
func (f *Favorites) List() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *Favorites) load() ([]string, error) {
	raw, err := f.store.Get(FavoritesKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		slog.Warn("discarding unparseable favorites", "error", err)
		return []string{}, nil
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Contains reports whether id is a favorite.
func (f *Favorites) Contains(id string) (bool, error) {
	ids, err := f.List()
	if err != nil {
		return false, err
	}
	for _, v := range ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

// Toggle adds id at the end when absent, removes it when present, and
// persists the whole list. It returns the new membership and list.
func (f *Favorites) Toggle(id string) (bool, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids, err := f.load()
	if err != nil {
		return false, nil, err
	}

	next := make([]string, 0, len(ids)+1)
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		next = append(next, v)
	}
	if !removed {
		next = append(next, id)
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return false, nil, fmt.Errorf("encode favorites: %w", err)
	}
	if err := f.store.Set(FavoritesKey, raw); err != nil {
		return false, nil, fmt.Errorf("save favorites: %w", err)
	}
	return !removed, next, nil
}
