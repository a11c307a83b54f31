package storage

import (
	"context"
	"sync"

	"github.com/m3rciful/clientdesk/internal/model"
)

// MemoryStore is an in-memory ClientStore for tests and development.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	order     []int64
	clients   map[int64]*model.Client
	encodings []model.FaceEncoding
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		clients: make(map[int64]*model.Client),
	}
}

var _ ClientStore = (*MemoryStore)(nil)

// Create inserts a client and returns its id.
func (s *MemoryStore) Create(_ context.Context, phones []string, comment string, photoURLs []string, encodings [][]float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment == "" {
		comment = model.CommentPlaceholder
	}
	id := s.nextID
	s.nextID++
	c := &model.Client{
		ID:      id,
		Comment: comment,
		Phones:  append([]string(nil), phones...),
		Photos:  append([]string(nil), photoURLs...),
	}
	s.clients[id] = c
	s.order = append(s.order, id)
	for i, enc := range encodings {
		photoURL := ""
		if i < len(photoURLs) {
			photoURL = photoURLs[i]
		}
		s.encodings = append(s.encodings, model.FaceEncoding{
			ClientID: id,
			Vector:   append([]float64(nil), enc...),
			PhotoURL: photoURL,
		})
	}
	return id, nil
}

// GetByID returns a copy of the stored record or ErrNotFound.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneClient(c), nil
}

// IDByPhone finds the first client holding the exact normalized phone.
func (s *MemoryStore) IDByPhone(_ context.Context, normalized string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		for _, p := range s.clients[id].Phones {
			if p == normalized {
				return id, true, nil
			}
		}
	}
	return 0, false, nil
}

// AddPhone appends a phone.
func (s *MemoryStore) AddPhone(_ context.Context, id int64, normalized string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return ErrNotFound
	}
	c.Phones = append(c.Phones, normalized)
	return nil
}

// AddPhoto appends a photo URL.
func (s *MemoryStore) AddPhoto(_ context.Context, id int64, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return ErrNotFound
	}
	c.Photos = append(c.Photos, url)
	return nil
}

// AddEncoding appends a face encoding.
func (s *MemoryStore) AddEncoding(_ context.Context, enc model.FaceEncoding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[enc.ClientID]; !ok {
		return ErrNotFound
	}
	enc.Vector = append([]float64(nil), enc.Vector...)
	s.encodings = append(s.encodings, enc)
	return nil
}

// UpdateComment replaces the comment.
func (s *MemoryStore) UpdateComment(_ context.Context, id int64, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return ErrNotFound
	}
	if comment == "" {
		comment = model.CommentPlaceholder
	}
	c.Comment = comment
	return nil
}

// Delete removes the client and its encodings.
func (s *MemoryStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return false, nil
	}
	delete(s.clients, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	kept := s.encodings[:0]
	for _, enc := range s.encodings {
		if enc.ClientID != id {
			kept = append(kept, enc)
		}
	}
	s.encodings = kept
	return true, nil
}

// Search filters clients through MatchClient in storage order.
func (s *MemoryStore) Search(_ context.Context, query string) ([]*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Client
	for _, id := range s.order {
		c := s.clients[id]
		if MatchClient(c, query) {
			out = append(out, cloneClient(c))
		}
	}
	return out, nil
}

// AllEncodings returns stored encodings in insertion order.
func (s *MemoryStore) AllEncodings(_ context.Context) ([]model.FaceEncoding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FaceEncoding, len(s.encodings))
	copy(out, s.encodings)
	return out, nil
}

func cloneClient(c *model.Client) *model.Client {
	return &model.Client{
		ID:      c.ID,
		Comment: c.Comment,
		Phones:  append([]string(nil), c.Phones...),
		Photos:  append([]string(nil), c.Photos...),
	}
}
