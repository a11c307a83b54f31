// Package model defines the persisted domain records.
package model

// CommentPlaceholder substitutes an empty client comment for storage and display.
const CommentPlaceholder = "—"

// Client is a registered person record.
type Client struct {
	ID      int64    `db:"id"`
	Comment string   `db:"comment"`
	Phones  []string `db:"-"`
	Photos  []string `db:"-"`
}

// FaceEncoding is a fixed-dimension face embedding tied to one client photo.
type FaceEncoding struct {
	ClientID int64     `db:"client_id"`
	Vector   []float64 `db:"encoding"`
	PhotoURL string    `db:"photo_url"`
}

// EncodingDim is the expected embedding dimensionality.
const EncodingDim = 128
