// Package face compares face descriptors produced by an external embedding model.
package face

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// DescriptorLength is the dimensionality produced by the embedding model.
	DescriptorLength = 128

	// DefaultThreshold is tighter than the usual 0.6 recognition cut-off because a match grants attendance.
	DefaultThreshold = 0.45

	// NoEnrollmentDistance is reported when there is no stored descriptor to compare against.
	NoEnrollmentDistance = 1.0
)

var (
	ErrInvalidDescriptor = errors.New("invalid face descriptor")
	ErrLengthMismatch    = errors.New("face descriptor length mismatch")
	ErrNoFace            = errors.New("no face found in image")
)

// Descriptor is an opaque embedding vector.
type Descriptor []float64

// Validate checks length and that every component is finite.
func (d Descriptor) Validate() error {
	if len(d) != DescriptorLength {
		return fmt.Errorf("%w: expected %d values, got %d", ErrInvalidDescriptor, DescriptorLength, len(d))
	}
	for i, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrInvalidDescriptor, i)
		}
	}
	return nil
}

// Serialize encodes the descriptor as a JSON array, the stored format.
func (d Descriptor) Serialize() (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal([]float64(d))
	if err != nil {
		return "", fmt.Errorf("failed to serialize descriptor: %w", err)
	}
	return string(b), nil
}

// ParseDescriptor decodes a stored descriptor.
func ParseDescriptor(serialized string) (Descriptor, error) {
	var values []float64
	if err := json.Unmarshal([]byte(serialized), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	d := Descriptor(values)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Distance is the Euclidean distance between two descriptors of equal length.
func Distance(a, b Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}

type MatchResult struct {
	IsMatch  bool    `json:"is_match"`
	Distance float64 `json:"distance"`
}

type Matcher struct {
	threshold float64
}

// NewMatcher returns a Matcher; a non-positive threshold falls back to DefaultThreshold.
func NewMatcher(threshold float64) Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Matcher{threshold: threshold}
}

func (m Matcher) Threshold() float64 {
	return m.threshold
}

// Match compares a live descriptor with a stored, serialized one.
// An empty stored value means no enrollment and yields the sentinel distance without computing anything.
func (m Matcher) Match(live Descriptor, stored string) (MatchResult, error) {
	if strings.TrimSpace(stored) == "" {
		return MatchResult{IsMatch: false, Distance: NoEnrollmentDistance}, nil
	}

	enrolled, err := ParseDescriptor(stored)
	if err != nil {
		return MatchResult{}, err
	}

	distance, err := Distance(live, enrolled)
	if err != nil {
		return MatchResult{}, err
	}

	return MatchResult{
		IsMatch:  distance < m.threshold,
		Distance: distance,
	}, nil
}
