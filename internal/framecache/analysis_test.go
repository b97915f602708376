package framecache

import (
	"errors"
	"testing"

	"github.com/longbridgeapp/assert"
)

func TestAnalyzeCoverage(t *testing.T) {
	m := NewManager()
	for _, s := range []int{0, 1, 3} {
		m.PutFrame(s, frameFor(s))
	}

	a, err := m.Analyze(4)
	assert.Nil(t, err)
	assert.Equal(t, 5, a.TotalRequired)
	assert.Equal(t, 3, a.CachedCount)
	assert.Equal(t, 2, a.NeedGeneration)
	assert.Equal(t, []int{2, 4}, a.MissingSeconds)
	assert.Equal(t, 0.6, a.HitRate)
	assert.False(t, a.ExactClip)
	assert.Equal(t, 0, a.DonorDuration)
}

func TestAnalyzeFullHit(t *testing.T) {
	m := NewManager()
	for s := 0; s <= 5; s++ {
		m.PutFrame(s, frameFor(s))
	}

	a, err := m.Analyze(5)
	assert.Nil(t, err)
	assert.Equal(t, 1.0, a.HitRate)
	assert.Equal(t, 0, a.NeedGeneration)
	assert.Equal(t, 0, len(a.MissingSeconds))
}

func TestAnalyzeDonorSelection(t *testing.T) {
	m := NewManager()
	for _, d := range []int{5, 14, 30} {
		frames := make([]Frame, 0, d+1)
		for s := d; s >= 0; s-- {
			frames = append(frames, frameFor(s))
		}
		if err := m.PutClip(d, frames); err != nil {
			t.Fatalf("PutClip(%d): %v", d, err)
		}
	}

	// smallest cached duration strictly greater than the request wins
	a, err := m.Analyze(10)
	assert.Nil(t, err)
	assert.Equal(t, 14, a.DonorDuration)
	assert.False(t, a.ExactClip)

	// an exact hit is reported separately from the donor
	a, err = m.Analyze(14)
	assert.Nil(t, err)
	assert.True(t, a.ExactClip)
	assert.Equal(t, 30, a.DonorDuration)

	// nothing longer than the longest clip
	a, err = m.Analyze(30)
	assert.Nil(t, err)
	assert.True(t, a.ExactClip)
	assert.Equal(t, 0, a.DonorDuration)
}

func TestAnalyzeNegativeDuration(t *testing.T) {
	m := NewManager()
	_, err := m.Analyze(-1)
	assert.Equal(t, ErrInvalidDuration, err)
}

func TestAssembleOrdering(t *testing.T) {
	m := NewManager()
	for s := 0; s <= 5; s++ {
		m.PutFrame(s, frameFor(s))
	}

	frames, err := m.Assemble(5)
	assert.Nil(t, err)
	assert.Equal(t, 6, len(frames))
	// element i corresponds to remaining-seconds value D-i
	for i, f := range frames {
		assert.Equal(t, 5-i, remainingOf(f))
	}
}

func TestAssembleZeroDuration(t *testing.T) {
	m := NewManager()
	m.PutFrame(0, frameFor(0))

	frames, err := m.Assemble(0)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, 0, remainingOf(frames[0]))
}

func TestAssembleMissingFrames(t *testing.T) {
	m := NewManager()
	m.PutFrame(0, frameFor(0))
	m.PutFrame(2, frameFor(2))
	m.PutFrame(5, frameFor(5))

	_, err := m.Assemble(5)
	var missingErr *MissingFramesError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingFramesError, got %v", err)
	}
	assert.Equal(t, []int{1, 3, 4}, missingErr.Missing)
	assert.Equal(t, 5, missingErr.Duration)
}

func TestExtractSubsetFromDonor(t *testing.T) {
	// donor clip for duration 14: 15 frames, remaining 14..0
	donor := make([]Frame, 0, 15)
	for s := 14; s >= 0; s-- {
		donor = append(donor, frameFor(s))
	}

	got, err := ExtractSubset(14, donor, 10)
	assert.Nil(t, err)
	assert.Equal(t, 11, len(got))
	// stride floor(15/14)=1: the subset is the donor's tail, remaining 10..0
	for i, f := range got {
		assert.Equal(t, 10-i, remainingOf(f))
	}
}

func TestExtractSubsetGuards(t *testing.T) {
	donor := make([]Frame, 0, 15)
	for s := 14; s >= 0; s-- {
		donor = append(donor, frameFor(s))
	}

	tests := []struct {
		name          string
		donorDuration int
		donor         []Frame
		target        int
	}{
		{"zero donor duration divides by zero", 0, donor, 5},
		{"negative donor duration", -1, donor, 5},
		{"target not shorter than donor", 14, donor, 14},
		{"negative target", 14, donor, -1},
		{"empty donor sequence", 14, nil, 5},
		{"donor shorter than its duration", 20, donor[:3], 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractSubset(tt.donorDuration, tt.donor, tt.target)
			var extractErr *ExtractionError
			if tt.donorDuration >= 0 && !errors.As(err, &extractErr) {
				t.Fatalf("expected ExtractionError, got %v", err)
			}
			assert.NotNil(t, err)
		})
	}
}

func TestExtractSubsetNeverShortOrLong(t *testing.T) {
	for donorDur := 1; donorDur <= 20; donorDur++ {
		donor := make([]Frame, 0, donorDur+1)
		for s := donorDur; s >= 0; s-- {
			donor = append(donor, frameFor(s))
		}
		for target := 0; target < donorDur; target++ {
			got, err := ExtractSubset(donorDur, donor, target)
			if err != nil {
				continue
			}
			if len(got) != target+1 {
				t.Fatalf("donor %d target %d: got %d frames, want %d",
					donorDur, target, len(got), target+1)
			}
		}
	}
}
