// Package storage persists client records. The PostgreSQL implementation is
// the source of truth; the in-memory implementation serves tests and
// development.
package storage

import (
	"context"
	"errors"

	"github.com/m3rciful/clientdesk/internal/model"
)

// ErrNotFound reports that no client row matched the requested id.
var ErrNotFound = errors.New("storage: client not found")

// ClientStore is the persistence contract consumed by the service layer.
// Phones are always stored in normalized form.
type ClientStore interface {
	// Create inserts a client with its dependent rows and returns the new id.
	Create(ctx context.Context, phones []string, comment string, photoURLs []string, encodings [][]float64) (int64, error)
	// GetByID fetches the full record or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Client, error)
	// IDByPhone returns the id of the client holding the exact normalized
	// phone, with ok=false when none does.
	IDByPhone(ctx context.Context, normalized string) (int64, bool, error)
	AddPhone(ctx context.Context, id int64, normalized string) error
	AddPhoto(ctx context.Context, id int64, url string) error
	AddEncoding(ctx context.Context, enc model.FaceEncoding) error
	UpdateComment(ctx context.Context, id int64, comment string) error
	// Delete removes the client with dependents and reports whether a row
	// was actually removed.
	Delete(ctx context.Context, id int64) (bool, error)
	// Search returns clients matching the free-text query, deduplicated by
	// id, in storage order.
	Search(ctx context.Context, query string) ([]*model.Client, error)
	// AllEncodings returns every stored face encoding for linear matching.
	AllEncodings(ctx context.Context) ([]model.FaceEncoding, error)
}
