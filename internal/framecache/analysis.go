package framecache

import (
	"timer-stickers/internal/logging"
)

// Analysis is a read-only snapshot of how well the cache covers a
// requested duration.
type Analysis struct {
	Duration       int     `json:"duration"`
	TotalRequired  int     `json:"totalRequired"`
	CachedCount    int     `json:"cachedCount"`
	HitRate        float64 `json:"cacheHitRate"`
	NeedGeneration int     `json:"needGeneration"`

	// MissingSeconds lists every remaining-seconds value absent from the
	// second-indexed tier, ascending.
	MissingSeconds []int `json:"missingSeconds,omitempty"`

	// ExactClip is true when the duration-indexed tier holds this exact
	// duration.
	ExactClip bool `json:"exactClip"`

	// DonorDuration is the smallest cached clip duration strictly greater
	// than the request, or 0 when no donor exists.
	DonorDuration int `json:"donorDuration"`
}

// Analyze scans both tiers for a duration request without mutating
// state. It reports per-frame coverage of seconds 0..d and, if present,
// the smallest longer cached clip usable as an extraction donor.
func (m *Manager) Analyze(d int) (Analysis, error) {
	if d < 0 {
		return Analysis{}, ErrInvalidDuration
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	a := Analysis{
		Duration:      d,
		TotalRequired: d + 1,
	}
	for s := 0; s <= d; s++ {
		if _, ok := m.seconds[s]; ok {
			a.CachedCount++
		} else {
			a.MissingSeconds = append(a.MissingSeconds, s)
		}
	}
	a.HitRate = float64(a.CachedCount) / float64(a.TotalRequired)
	a.NeedGeneration = a.TotalRequired - a.CachedCount

	_, a.ExactClip = m.clips[d]
	for dur := range m.clips {
		if dur > d && (a.DonorDuration == 0 || dur < a.DonorDuration) {
			a.DonorDuration = dur
		}
	}

	logging.Debug("cache analysis for duration %d: %d/%d cached (%.0f%%), exactClip=%v donor=%d",
		d, a.CachedCount, a.TotalRequired, a.HitRate*100, a.ExactClip, a.DonorDuration)
	return a, nil
}

// Assemble builds the full clip sequence for a duration from the
// second-indexed tier. Element i of the result is the frame for
// remaining-seconds value d-i, so the sequence plays the countdown from
// d down to zero. If any frame is absent the call fails with a
// MissingFramesError listing every gap.
func (m *Manager) Assemble(d int) ([]Frame, error) {
	if d < 0 {
		return nil, ErrInvalidDuration
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var missing []int
	for s := 0; s <= d; s++ {
		if _, ok := m.seconds[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFramesError{Duration: d, Missing: missing}
	}

	out := make([]Frame, 0, d+1)
	for s := d; s >= 0; s-- {
		out = append(out, m.seconds[s])
	}
	return out, nil
}

// ExtractSubset re-slices a longer cached clip to serve a shorter
// request. The donor sequence is sampled at a uniform stride of
// floor(len/donorDuration); output position s takes the donor frame at
// index len-(target-s+1)*stride, so the result is drawn from the tail
// of the donor and stays in countdown order. The output always holds
// exactly target+1 frames or the call fails with an ExtractionError;
// a zero donor duration is rejected up front rather than dividing by
// zero.
func ExtractSubset(donorDuration int, donor []Frame, target int) ([]Frame, error) {
	if donorDuration <= 0 {
		return nil, &ExtractionError{DonorDuration: donorDuration, Target: target, Reason: "donor duration must be positive"}
	}
	if target < 0 || target >= donorDuration {
		return nil, &ExtractionError{DonorDuration: donorDuration, Target: target, Reason: "target must be in [0, donor duration)"}
	}
	if len(donor) == 0 {
		return nil, &ExtractionError{DonorDuration: donorDuration, Target: target, Reason: "donor sequence is empty"}
	}

	skip := len(donor) / donorDuration
	if skip == 0 {
		return nil, &ExtractionError{DonorDuration: donorDuration, Target: target, Reason: "donor too short for uniform stride"}
	}

	out := make([]Frame, 0, target+1)
	for s := 0; s <= target; s++ {
		idx := len(donor) - (target-s+1)*skip
		if idx < 0 || idx >= len(donor) {
			return nil, &ExtractionError{
				DonorDuration: donorDuration,
				Target:        target,
				Reason:        "computed donor index out of range",
			}
		}
		out = append(out, donor[idx])
	}
	if len(out) != target+1 {
		return nil, &ExtractionError{
			DonorDuration: donorDuration,
			Target:        target,
			Reason:        "extracted frame count does not equal target+1",
		}
	}
	return out, nil
}
