package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Fhatal-Studios/FhatalX/internal/storage"
	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// ConsentKey is the storage key of the consent record.
const ConsentKey = "fhatalx_consent_v3"

// ConsentVersion is stamped on every saved record.
const ConsentVersion = 3

// DefaultConsent is the record used before the user has chosen.
func DefaultConsent() models.Consent {
	return models.Consent{
		Necessary: true,
		Version:   ConsentVersion,
	}
}

// ConsentState is a loaded record plus whether the user still has to be asked.
type ConsentState struct {
	models.Consent
	NeedsPrompt bool `json:"needs_prompt"`
}

// ConsentRepo stores the cookie-consent record.
type ConsentRepo struct {
	store storage.Store
	now   func() time.Time
}

// NewConsentRepo returns a consent repository backed by store.
func NewConsentRepo(store storage.Store) *ConsentRepo {
	return &ConsentRepo{store: store, now: time.Now}
}

// Load returns the stored record merged over the defaults. A missing or
// unparseable record yields the defaults with NeedsPrompt set.
func (r *ConsentRepo) Load() (ConsentState, error) {
	raw, err := r.store.Get(ConsentKey)
	if errors.Is(err, storage.ErrNotFound) {
		return ConsentState{Consent: DefaultConsent(), NeedsPrompt: true}, nil
	}
	if err != nil {
		return ConsentState{}, fmt.Errorf("load consent: %w", err)
	}

	c := DefaultConsent()
	if err := json.Unmarshal(raw, &c); err != nil {
		slog.Warn("consent record unreadable, using defaults", "error", err)
		return ConsentState{Consent: DefaultConsent(), NeedsPrompt: true}, nil
	}
	c.Necessary = true
	return ConsentState{Consent: c}, nil
}

// AcceptAll enables analytics. Marketing stays off.
func (r *ConsentRepo) AcceptAll() (models.Consent, error) {
	return r.save(true)
}

// RejectAll disables analytics and marketing.
func (r *ConsentRepo) RejectAll() (models.Consent, error) {
	return r.save(false)
}

// SavePreferences stores the analytics choice. Marketing is always off.
func (r *ConsentRepo) SavePreferences(analytics bool) (models.Consent, error) {
	return r.save(analytics)
}

func (r *ConsentRepo) save(analytics bool) (models.Consent, error) {
	ts := r.now().UTC()
	c := models.Consent{
		Necessary: true,
		Analytics: analytics,
		Marketing: false,
		Timestamp: &ts,
		Version:   ConsentVersion,
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return models.Consent{}, fmt.Errorf("encode consent: %w", err)
	}
	if err := r.store.Set(ConsentKey, raw); err != nil {
		return models.Consent{}, fmt.Errorf("save consent: %w", err)
	}
	return c, nil
}
