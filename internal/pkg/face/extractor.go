package face

import (
	"context"
	"sync"
)

// Extractor turns an image into a face descriptor. ErrNoFace is returned when no usable face is present.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (Descriptor, error)
}

// LoadFunc initialises the embedding model. It runs at most once per LazyExtractor.
type LoadFunc func(ctx context.Context) (Extractor, error)

// LazyExtractor loads the underlying model on first use and shares it process-wide.
// A failed load is remembered; construct a new LazyExtractor to retry.
type LazyExtractor struct {
	load LoadFunc

	once      sync.Once
	extractor Extractor
	err       error
}

func NewLazyExtractor(load LoadFunc) *LazyExtractor {
	return &LazyExtractor{load: load}
}

// Ready loads the model if needed and reports the load error, if any.
func (l *LazyExtractor) Ready(ctx context.Context) error {
	l.once.Do(func() {
		l.extractor, l.err = l.load(ctx)
	})
	return l.err
}

// Extract implements Extractor.
func (l *LazyExtractor) Extract(ctx context.Context, image []byte) (Descriptor, error) {
	if err := l.Ready(ctx); err != nil {
		return nil, err
	}
	return l.extractor.Extract(ctx, image)
}
