package faces

import (
	"math"
	"testing"

	"github.com/m3rciful/clientdesk/internal/model"
)

func vec(fill float64) []float64 {
	v := make([]float64, model.EncodingDim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestDistance(t *testing.T) {
	a := vec(0)
	b := vec(0)
	if d := Distance(a, b); d != 0 {
		t.Fatalf("distance of equal vectors = %v, want 0", d)
	}
	b[0] = 3
	b[1] = 4
	if d := Distance(a, b); math.Abs(d-5) > 1e-9 {
		t.Fatalf("distance = %v, want 5", d)
	}
	if d := Distance(a, []float64{1}); !math.IsInf(d, 1) {
		t.Fatalf("distance of mismatched lengths = %v, want +Inf", d)
	}
}

func TestMatcherFirstWithinTolerance(t *testing.T) {
	probe := vec(0)

	near := vec(0)
	near[0] = 0.5 // distance 0.5, inside tolerance

	alsoNear := vec(0)
	alsoNear[0] = 0.1

	far := vec(1) // distance sqrt(128), outside

	stored := []model.FaceEncoding{
		{ClientID: 10, Vector: far},
		{ClientID: 20, Vector: near},
		{ClientID: 30, Vector: alsoNear},
	}

	m := NewMatcher(DefaultTolerance)
	id, ok := m.Match(probe, stored)
	if !ok {
		t.Fatal("expected a match")
	}
	if id != 20 {
		t.Fatalf("matched client %d, want first within tolerance (20)", id)
	}
}

func TestMatcherNoMatch(t *testing.T) {
	m := NewMatcher(0) // falls back to default tolerance
	probe := vec(0)
	stored := []model.FaceEncoding{{ClientID: 1, Vector: vec(1)}}
	if _, ok := m.Match(probe, stored); ok {
		t.Fatal("unexpected match outside tolerance")
	}
	if _, ok := m.Match(probe, nil); ok {
		t.Fatal("unexpected match against empty store")
	}
}
