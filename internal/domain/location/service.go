package location

import "context"

type LocationService interface {
	CreateLocation(ctx context.Context, req CreateLocationRequest) (LocationResponse, error)
	GetLocation(ctx context.Context, id string) (LocationResponse, error)
	ListLocations(ctx context.Context) ([]LocationResponse, error)
	UpdateLocation(ctx context.Context, req UpdateLocationRequest) (LocationResponse, error)
	DeleteLocation(ctx context.Context, id string) error
	GetQR(ctx context.Context, id string) (QRResponse, error)
	RenderQRPNG(ctx context.Context, id string, size int) ([]byte, error)
}
