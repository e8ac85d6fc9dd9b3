package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
)

// MemoryStore is the in-memory Storage implementation, selected by
// configuration when no database DSN is present. It enforces the same
// fingerprint uniqueness as the Postgres schema.
type MemoryStore struct {
	mu              sync.RWMutex
	sources         map[string]domain.Source
	sourceOrder     []string
	updates         map[string]domain.Update
	byFingerprint   map[string]string
	classifications map[string]domain.Classification
	digests         map[string]domain.Digest
}

var _ ports.Storage = (*MemoryStore)(nil)

// NewMemoryStore seeds the store from the configured source roster.
func NewMemoryStore(seed []domain.Source) *MemoryStore {
	s := &MemoryStore{
		sources:         map[string]domain.Source{},
		updates:         map[string]domain.Update{},
		byFingerprint:   map[string]string{},
		classifications: map[string]domain.Classification{},
		digests:         map[string]domain.Digest{},
	}
	for _, src := range seed {
		if src.ID == "" {
			src.ID = uuid.New().String()
		}
		s.sources[src.ID] = src
		s.sourceOrder = append(s.sourceOrder, src.ID)
	}
	return s
}

// GetActiveSources returns the active roster in seed order.
func (s *MemoryStore) GetActiveSources(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []domain.Source
	for _, id := range s.sourceOrder {
		if src := s.sources[id]; src.Active {
			active = append(active, src)
		}
	}
	return active, nil
}

// GetSource returns one source by identifier.
func (s *MemoryStore) GetSource(_ context.Context, id string) (domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.sources[id]
	if !ok {
		return domain.Source{}, fmt.Errorf("source %s not found", id)
	}
	return src, nil
}

// UpdateSourceStatus records the outcome of a fetch attempt.
func (s *MemoryStore) UpdateSourceStatus(_ context.Context, id string, status domain.SourceStatus, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[id]
	if !ok {
		return fmt.Errorf("source %s not found", id)
	}

	now := time.Now().UTC()
	src.LastChecked = &now
	src.LastStatus = status
	src.LastError = lastError
	s.sources[id] = src
	return nil
}

// GetUpdateByFingerprint returns the stored update or nil when absent.
func (s *MemoryStore) GetUpdateByFingerprint(_ context.Context, fingerprint string) (*domain.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byFingerprint[fingerprint]
	if !ok {
		return nil, nil
	}
	update := s.updates[id]
	return &update, nil
}

// CreateUpdate persists a deduplicated content item.
func (s *MemoryStore) CreateUpdate(_ context.Context, update domain.Update) (domain.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byFingerprint[update.Fingerprint]; exists {
		return domain.Update{}, ports.ErrDuplicateFingerprint
	}

	if update.ID == "" {
		update.ID = uuid.New().String()
	}
	if update.ScrapedAt.IsZero() {
		update.ScrapedAt = time.Now().UTC()
	}

	s.updates[update.ID] = update
	s.byFingerprint[update.Fingerprint] = update.ID
	return update, nil
}

// CreateClassification persists the verdict for one update.
func (s *MemoryStore) CreateClassification(_ context.Context, c domain.Classification) (domain.Classification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.updates[c.UpdateID]; !ok {
		return domain.Classification{}, fmt.Errorf("update %s not found", c.UpdateID)
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	s.classifications[c.UpdateID] = c
	return c, nil
}

// GetUpdatesInRange returns classified updates scraped within the window.
// Updates without a classification are excluded, matching the inner join
// the Postgres store performs.
func (s *MemoryStore) GetUpdatesInRange(_ context.Context, start, end time.Time) ([]domain.ClassifiedUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []domain.ClassifiedUpdate
	for id, update := range s.updates {
		if update.ScrapedAt.Before(start) || update.ScrapedAt.After(end) {
			continue
		}
		classification, ok := s.classifications[id]
		if !ok {
			continue
		}
		rows = append(rows, domain.ClassifiedUpdate{
			Update:         update,
			Classification: classification,
		})
	}
	return rows, nil
}

// CreateDigest persists a periodic rollup.
func (s *MemoryStore) CreateDigest(_ context.Context, d domain.Digest) (domain.Digest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	s.digests[d.ID] = d
	return d, nil
}

// MarkDigestDelivered records the confirmed delivery reference.
func (s *MemoryStore) MarkDigestDelivered(_ context.Context, id, deliveryRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.digests[id]
	if !ok {
		return fmt.Errorf("digest %s not found", id)
	}
	d.Delivered = true
	d.DeliveryRef = deliveryRef
	s.digests[id] = d
	return nil
}
