// Package faces extracts face embeddings through an external service and
// matches them against stored encodings.
package faces

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/m3rciful/clientdesk/internal/logger"
	"github.com/m3rciful/clientdesk/internal/model"
)

// encodeTimeout bounds one embedding computation; a timeout is a recoverable
// failure at the current conversational step.
const encodeTimeout = 20 * time.Second

// Encoder extracts zero or one face embedding from image bytes. found=false
// means no face was detected, which is not an error.
type Encoder interface {
	Encode(ctx context.Context, image []byte) (vec []float64, found bool, err error)
}

// HTTPEncoder calls a face embedding service over HTTP. The service accepts
// a JPEG body on POST and answers {"encodings": [[...128 floats...], ...]};
// only the first detected face is used.
type HTTPEncoder struct {
	endpoint string
	client   *http.Client
}

// NewHTTPEncoder builds an encoder for the given service endpoint.
func NewHTTPEncoder(endpoint string) *HTTPEncoder {
	return &HTTPEncoder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: encodeTimeout},
	}
}

var _ Encoder = (*HTTPEncoder)(nil)

// Encode posts the image and parses the first returned embedding.
func (e *HTTPEncoder) Encode(ctx context.Context, image []byte) ([]float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, encodeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, false, fmt.Errorf("faces: build request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		logger.FACES.Error("encode failed",
			slog.String("event", "faces.encode"),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return nil, false, fmt.Errorf("faces: encode: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("faces: encode status %s", resp.Status)
	}

	var payload struct {
		Encodings [][]float64 `json:"encodings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("faces: decode response: %w", err)
	}
	if len(payload.Encodings) == 0 {
		return nil, false, nil
	}
	vec := payload.Encodings[0]
	if len(vec) != model.EncodingDim {
		return nil, false, fmt.Errorf("faces: unexpected encoding dimension %d", len(vec))
	}

	logger.FACES.Debug("encode complete",
		slog.String("event", "faces.encode"),
		slog.Int("faces_detected", len(payload.Encodings)),
		slog.Duration("duration", logger.Took(start)),
	)
	return vec, true, nil
}
