package faces

import (
	"math"

	"github.com/m3rciful/clientdesk/internal/model"
)

// DefaultTolerance is the embedding distance threshold below which two faces
// are considered the same person.
const DefaultTolerance = 0.6

// Matcher compares a probe embedding against stored encodings with a fixed
// distance tolerance.
type Matcher struct {
	tolerance float64
}

// NewMatcher builds a matcher; a non-positive tolerance falls back to the
// default.
func NewMatcher(tolerance float64) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Matcher{tolerance: tolerance}
}

// Match scans stored encodings in order and returns the first client whose
// encoding lies within tolerance of the probe. Ties between several clients
// within tolerance resolve to the earliest stored row; that is an artifact
// of the linear scan, not a contract.
func (m *Matcher) Match(probe []float64, stored []model.FaceEncoding) (clientID int64, ok bool) {
	for _, enc := range stored {
		if len(enc.Vector) != len(probe) {
			continue
		}
		if Distance(probe, enc.Vector) <= m.tolerance {
			return enc.ClientID, true
		}
	}
	return 0, false
}

// Distance is the Euclidean distance between two embeddings. Mismatched
// lengths yield +Inf.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
