// Package service implements the client CRM operations behind the
// conversational handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/clientdesk/internal/faces"
	"github.com/m3rciful/clientdesk/internal/logger"
	"github.com/m3rciful/clientdesk/internal/model"
	"github.com/m3rciful/clientdesk/internal/phone"
	"github.com/m3rciful/clientdesk/internal/photostore"
	"github.com/m3rciful/clientdesk/internal/storage"
)

var (
	// ErrNoPhones reports that registration input contained no phone-like token.
	ErrNoPhones = errors.New("service: no phone found in input")
	// ErrBadPhone reports a phone that is empty or too short after normalization.
	ErrBadPhone = errors.New("service: malformed phone")
	// ErrNotFound mirrors the storage sentinel for callers of this package.
	ErrNotFound = storage.ErrNotFound
)

// PhoneConflictError reports a registration phone already held by a client.
type PhoneConflictError struct {
	ClientID int64
	Phone    string
}

func (e *PhoneConflictError) Error() string {
	return fmt.Sprintf("service: phone %s already belongs to client %d", e.Phone, e.ClientID)
}

// RegisterResult describes a successfully created client.
type RegisterResult struct {
	ClientID int64
	Phones   []string
	Comment  string
}

// Clients orchestrates the client store, the photo store, and the optional
// face matcher.
type Clients struct {
	store   storage.ClientStore
	photos  photostore.Uploader
	encoder faces.Encoder
	matcher *faces.Matcher
}

// NewClients wires the service. encoder may be nil when face matching is
// disabled.
func NewClients(store storage.ClientStore, photos photostore.Uploader, encoder faces.Encoder, matcher *faces.Matcher) *Clients {
	if matcher == nil {
		matcher = faces.NewMatcher(faces.DefaultTolerance)
	}
	return &Clients{store: store, photos: photos, encoder: encoder, matcher: matcher}
}

// FacesEnabled reports whether an encoder is wired.
func (s *Clients) FacesEnabled() bool {
	return s.encoder != nil
}

// UploadPhoto stores image bytes and, when face matching is enabled,
// computes the face encoding for the uploaded photo. A photo without a
// detectable face is not an error; the encoding is simply nil.
func (s *Clients) UploadPhoto(ctx context.Context, ownerID int64, data []byte) (url string, encoding []float64, err error) {
	name := photostore.ObjectName(ownerID)
	url, err = s.photos.Upload(ctx, data, name)
	if err != nil {
		return "", nil, err
	}
	if s.encoder == nil {
		return url, nil, nil
	}
	vec, found, err := s.encoder.Encode(ctx, data)
	if err != nil {
		// The photo is already stored; a failed encoding downgrades to a
		// photo-only upload.
		logger.Warn(ctx, "service.clients", "clients.upload.encode_skipped",
			slog.String("err", err.Error()),
		)
		return url, nil, nil
	}
	if !found {
		return url, nil, nil
	}
	return url, vec, nil
}

// Register parses one free-text message into phones and a comment and
// persists a new client. A duplicate phone yields PhoneConflictError.
func (s *Clients) Register(ctx context.Context, text string, photoURLs []string, encoding []float64) (*RegisterResult, error) {
	phones, comment := phone.Extract(text)
	if len(phones) == 0 {
		return nil, ErrNoPhones
	}
	for _, p := range phones {
		owner, ok, err := s.store.IDByPhone(ctx, p)
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, &PhoneConflictError{ClientID: owner, Phone: p}
		}
	}
	if comment == "" {
		comment = model.CommentPlaceholder
	}
	var encodings [][]float64
	if len(encoding) > 0 {
		encodings = [][]float64{encoding}
	}
	id, err := s.store.Create(ctx, phones, comment, photoURLs, encodings)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "service.clients", "clients.register",
		slog.Int64("client_id", id),
		slog.Int("phones", len(phones)),
		slog.Int("photos", len(photoURLs)),
	)
	return &RegisterResult{ClientID: id, Phones: phones, Comment: comment}, nil
}

// Get fetches one client record.
func (s *Clients) Get(ctx context.Context, id int64) (*model.Client, error) {
	return s.store.GetByID(ctx, id)
}

// Search runs the text search. The minimum query length is the caller's
// concern.
func (s *Clients) Search(ctx context.Context, query string) ([]*model.Client, error) {
	results, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "service.clients", "clients.search",
		slog.String("query", logger.SanitizeLimit(query, 64)),
		slog.Int("hits", len(results)),
	)
	return results, nil
}

// AddPhone normalizes raw input and appends it to the client unless the
// client already holds it. added=false with nil error means a duplicate.
func (s *Clients) AddPhone(ctx context.Context, clientID int64, raw string) (normalized string, added bool, err error) {
	normalized = phone.Normalize(raw)
	if normalized == "" || phone.Digits(normalized) < phone.MinPhoneDigits {
		return "", false, ErrBadPhone
	}
	c, err := s.store.GetByID(ctx, clientID)
	if err != nil {
		return "", false, err
	}
	for _, p := range c.Phones {
		if p == normalized {
			return normalized, false, nil
		}
	}
	if err := s.store.AddPhone(ctx, clientID, normalized); err != nil {
		return "", false, err
	}
	return normalized, true, nil
}

// AddPhoto appends an uploaded photo URL, with its encoding when present.
func (s *Clients) AddPhoto(ctx context.Context, clientID int64, url string, encoding []float64) error {
	if err := s.store.AddPhoto(ctx, clientID, url); err != nil {
		return err
	}
	if len(encoding) > 0 {
		if err := s.store.AddEncoding(ctx, model.FaceEncoding{
			ClientID: clientID,
			Vector:   encoding,
			PhotoURL: url,
		}); err != nil {
			return err
		}
	}
	return nil
}

// UpdateComment replaces the client's comment.
func (s *Clients) UpdateComment(ctx context.Context, clientID int64, comment string) error {
	return s.store.UpdateComment(ctx, clientID, comment)
}

// Delete removes the client and reports whether a row was actually removed.
func (s *Clients) Delete(ctx context.Context, clientID int64) (bool, error) {
	removed, err := s.store.Delete(ctx, clientID)
	if err != nil {
		return false, err
	}
	logger.Info(ctx, "service.clients", "clients.delete",
		slog.Int64("client_id", clientID),
		slog.Bool("removed", removed),
	)
	return removed, nil
}

// MatchFace extracts an embedding from image bytes and scans stored
// encodings for the first client within tolerance. found=false means no
// face was detected in the image; ok=false means no client matched.
func (s *Clients) MatchFace(ctx context.Context, image []byte) (clientID int64, found, ok bool, err error) {
	if s.encoder == nil {
		return 0, false, false, nil
	}
	probe, found, err := s.encoder.Encode(ctx, image)
	if err != nil {
		return 0, false, false, err
	}
	if !found {
		return 0, false, false, nil
	}
	stored, err := s.store.AllEncodings(ctx)
	if err != nil {
		return 0, true, false, err
	}
	clientID, ok = s.matcher.Match(probe, stored)
	return clientID, true, ok, nil
}
