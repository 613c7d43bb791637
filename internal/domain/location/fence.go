package location

// Contains reports whether p is inside the fence. The boundary is inclusive.
// Reading accuracy is ignored unless useAccuracyBuffer is set, in which case it widens the
// radius by at most the radius itself.
func (l Location) Contains(p Point, useAccuracyBuffer bool) bool {
	limit := l.RadiusMeters
	if useAccuracyBuffer && p.Accuracy > 0 {
		limit += min(p.Accuracy, l.RadiusMeters)
	}
	return l.DistanceTo(p) <= limit
}
