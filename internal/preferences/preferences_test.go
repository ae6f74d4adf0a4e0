package preferences

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fhatal-Studios/FhatalX/internal/storage"
)

// ── Favorites ──

func TestFavoritesToggle(t *testing.T) {
	favs := NewFavorites(storage.NewMemory())

	ids, err := favs.List()
	require.NoError(t, err)
	assert.Empty(t, ids)

	added, ids, err := favs.Toggle("bitcoin")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"bitcoin"}, ids)

	_, _, err = favs.Toggle("ethereum")
	require.NoError(t, err)

	ok, err := favs.Contains("ethereum")
	require.NoError(t, err)
	assert.True(t, ok)

	added, ids, err = favs.Toggle("bitcoin")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"ethereum"}, ids)
}

func TestFavoritesDoubleToggleRestores(t *testing.T) {
	store := storage.NewMemory()
	favs := NewFavorites(store)
	for _, id := range []string{"a", "b", "c"} {
		_, _, err := favs.Toggle(id)
		require.NoError(t, err)
	}
	before, err := favs.List()
	require.NoError(t, err)

	for _, id := range []string{"b", "zzz"} {
		_, _, err = favs.Toggle(id)
		require.NoError(t, err)
		_, _, err = favs.Toggle(id)
		require.NoError(t, err)

		after, err := favs.List()
		require.NoError(t, err)
		assert.ElementsMatch(t, before, after, "double toggle of %q", id)
	}
}

func TestFavoritesPersisted(t *testing.T) {
	store := storage.NewMemory()
	_, _, err := NewFavorites(store).Toggle("solana")
	require.NoError(t, err)

	raw, err := store.Get(FavoritesKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["solana"]`, string(raw))

	ids, err := NewFavorites(store).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"solana"}, ids)
}

func TestFavoritesUnparseable(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(FavoritesKey, []byte("{oops")))

	favs := NewFavorites(store)
	ids, err := favs.List()
	require.NoError(t, err)
	assert.Empty(t, ids)

	added, ids, err := favs.Toggle("bitcoin")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"bitcoin"}, ids)
}

func TestFavoritesOnBolt(t *testing.T) {
	store, err := storage.Open("bolt", filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer store.Close()

	favs := NewFavorites(store)
	_, _, err = favs.Toggle("cardano")
	require.NoError(t, err)
	ok, err := favs.Contains("cardano")
	require.NoError(t, err)
	assert.True(t, ok)
}

// ── Consent ──

func fixedRepo(store storage.Store, at time.Time) *ConsentRepo {
	r := NewConsentRepo(store)
	r.now = func() time.Time { return at }
	return r
}

func TestConsentMissing(t *testing.T) {
	st, err := NewConsentRepo(storage.NewMemory()).Load()
	require.NoError(t, err)
	assert.True(t, st.NeedsPrompt)
	assert.True(t, st.Necessary)
	assert.False(t, st.Analytics)
	assert.False(t, st.Marketing)
	assert.Nil(t, st.Timestamp)
	assert.Equal(t, ConsentVersion, st.Version)
}

func TestConsentUnparseable(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(ConsentKey, []byte("not-json")))

	st, err := NewConsentRepo(store).Load()
	require.NoError(t, err)
	assert.True(t, st.NeedsPrompt)
	assert.Equal(t, DefaultConsent(), st.Consent)
}

func TestConsentAcceptAllKeepsMarketingOff(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	repo := fixedRepo(storage.NewMemory(), at)

	c, err := repo.AcceptAll()
	require.NoError(t, err)
	assert.True(t, c.Necessary)
	assert.True(t, c.Analytics)
	assert.False(t, c.Marketing)
	require.NotNil(t, c.Timestamp)
	assert.Equal(t, time.UTC, c.Timestamp.Location())
	assert.True(t, c.Timestamp.Equal(at))

	st, err := repo.Load()
	require.NoError(t, err)
	assert.False(t, st.NeedsPrompt)
	assert.True(t, st.Analytics)
	assert.False(t, st.Marketing)
	assert.Equal(t, 3, st.Version)
}

func TestConsentRejectAll(t *testing.T) {
	repo := fixedRepo(storage.NewMemory(), time.Now())
	_, err := repo.AcceptAll()
	require.NoError(t, err)

	c, err := repo.RejectAll()
	require.NoError(t, err)
	assert.False(t, c.Analytics)
	assert.False(t, c.Marketing)

	st, err := repo.Load()
	require.NoError(t, err)
	assert.False(t, st.Analytics)
}

func TestConsentSavePreferences(t *testing.T) {
	for _, analytics := range []bool{true, false} {
		c, err := fixedRepo(storage.NewMemory(), time.Now()).SavePreferences(analytics)
		require.NoError(t, err)
		assert.Equal(t, analytics, c.Analytics)
		assert.False(t, c.Marketing)
	}
}

func TestConsentMergesOverDefaults(t *testing.T) {
	store := storage.NewMemory()
	raw, _ := json.Marshal(map[string]any{"analytics": true, "necessary": false})
	require.NoError(t, store.Set(ConsentKey, raw))

	st, err := NewConsentRepo(store).Load()
	require.NoError(t, err)
	assert.False(t, st.NeedsPrompt)
	assert.True(t, st.Necessary, "necessary is always on")
	assert.True(t, st.Analytics)
	assert.Equal(t, ConsentVersion, st.Version)
}
