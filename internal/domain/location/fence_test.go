package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContains(t *testing.T) {
	office := Location{Latitude: 10, Longitude: 106, RadiusMeters: 100}
	campus := Location{Latitude: 10, Longitude: 106, RadiusMeters: 400}
	// 0.005 degrees of latitude is ~556 m
	far := Point{Latitude: 10.005, Longitude: 106}

	tests := []struct {
		name   string
		loc    Location
		point  Point
		buffer bool
		want   bool
	}{
		{"center with zero radius", Location{Latitude: 10, Longitude: 106}, Point{Latitude: 10, Longitude: 106}, false, true},
		{"center", office, Point{Latitude: 10, Longitude: 106}, false, true},
		{"far outside", office, far, false, false},
		{"accuracy ignored by default", office, Point{Latitude: 10.005, Longitude: 106, Accuracy: 1000}, false, false},
		{"accuracy buffer widens fence", campus, Point{Latitude: 10.005, Longitude: 106, Accuracy: 200}, true, true},
		{"accuracy buffer capped at radius", office, Point{Latitude: 10.005, Longitude: 106, Accuracy: 500}, true, false},
		{"huge accuracy still rejected", office, Point{Latitude: 20, Longitude: 106, Accuracy: 5e6}, true, false},
		{"zero radius gains nothing", Location{Latitude: 10, Longitude: 106}, Point{Latitude: 10.0001, Longitude: 106, Accuracy: 50}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.Contains(tt.point, tt.buffer))
		})
	}
}

func TestContains_BoundaryIsInclusive(t *testing.T) {
	p := Point{Latitude: 10.005, Longitude: 106}
	base := Location{Latitude: 10, Longitude: 106}
	d := base.DistanceTo(p)
	require.InDelta(t, 555.97, d, 0.5)

	exact := base
	exact.RadiusMeters = d
	assert.True(t, exact.Contains(p, false))

	justInside := base
	justInside.RadiusMeters = d + 0.01
	assert.True(t, justInside.Contains(p, false))

	justOutside := base
	justOutside.RadiusMeters = d - 0.01
	assert.False(t, justOutside.Contains(p, false))
}

func TestContains_AccuracyBufferAtMostDoublesRadius(t *testing.T) {
	loc := Location{Latitude: 10, Longitude: 106, RadiusMeters: 300}
	p := Point{Latitude: 10.005, Longitude: 106, Accuracy: 1e9}
	d := loc.DistanceTo(p)

	assert.True(t, d < 2*loc.RadiusMeters)
	assert.True(t, loc.Contains(p, true))

	loc.RadiusMeters = d/2 - 0.01
	assert.False(t, loc.Contains(p, true))
}

func TestParseQRPayload(t *testing.T) {
	p, err := ParseQRPayload(`{"locationId":"loc-1"}`)
	require.NoError(t, err)
	assert.Equal(t, "loc-1", p.LocationID)
	assert.Empty(t, p.Code)

	p, err = ParseQRPayload(`{"locationId":"loc-1","code":"123456"}`)
	require.NoError(t, err)
	assert.Equal(t, "123456", p.Code)

	for _, raw := range []string{"", "loc-1", `{"code":"1"}`, `{"locationId":"  "}`, `[1,2]`} {
		_, err := ParseQRPayload(raw)
		assert.ErrorIs(t, err, ErrInvalidPayload, raw)
	}
}

func TestQRPayloadEncode(t *testing.T) {
	s, err := QRPayload{LocationID: "loc-1"}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"locationId":"loc-1"}`, s)
}
