package face

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RemoteExtractor posts images to an embedding service that answers
// {"descriptor":[...]} or {"descriptor":null} when no face was found.
type RemoteExtractor struct {
	endpoint string
	client   *http.Client
}

type remoteResponse struct {
	Descriptor []float64 `json:"descriptor"`
	Error      string    `json:"error,omitempty"`
}

func NewRemoteExtractor(endpoint string, timeout time.Duration) *RemoteExtractor {
	return &RemoteExtractor{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Load is a LoadFunc that returns the extractor once the endpoint is configured.
func (r *RemoteExtractor) Load(ctx context.Context) (Extractor, error) {
	if r.endpoint == "" {
		return nil, fmt.Errorf("face extractor unavailable: FACE_API_URL is not set")
	}
	return r, nil
}

func (r *RemoteExtractor) Extract(ctx context.Context, image []byte) (Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to build face request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(image))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrNoFace
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("face service returned status %d", resp.StatusCode)
	}

	var body remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode face response: %w", err)
	}
	if len(body.Descriptor) == 0 {
		return nil, ErrNoFace
	}

	d := Descriptor(body.Descriptor)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
