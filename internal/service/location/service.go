package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/skip2/go-qrcode"
)

const (
	qrIssuer       = "checkin"
	defaultQRSize  = 512
	maxQRImageSize = 2048
)

type LocationServiceImpl struct {
	locationRepository location.LocationRepository
	qrPeriod           uint
	now                func() time.Time
}

// NewLocationService builds the location service. qrPeriod is the rotating code lifetime in seconds.
func NewLocationService(locationRepository location.LocationRepository, qrPeriod uint) location.LocationService {
	if qrPeriod == 0 {
		qrPeriod = 30
	}
	return &LocationServiceImpl{
		locationRepository: locationRepository,
		qrPeriod:           qrPeriod,
		now:                time.Now,
	}
}

// CreateLocation implements location.LocationService.
func (l *LocationServiceImpl) CreateLocation(ctx context.Context, req location.CreateLocationRequest) (location.LocationResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return location.LocationResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return location.LocationResponse{}, err
	}

	newLocation := location.Location{
		CompanyID:      admin.CompanyID,
		Name:           strings.TrimSpace(req.Name),
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		RadiusMeters:   req.RadiusMeters,
		SelfieRequired: req.SelfieRequired,
	}
	if req.RotatingQR {
		secret, err := utils.GenerateTOTPSecret(qrIssuer, newLocation.Name)
		if err != nil {
			return location.LocationResponse{}, fmt.Errorf("failed to generate QR secret: %w", err)
		}
		newLocation.QRSecret = &secret
	}

	created, err := l.locationRepository.Create(ctx, newLocation)
	if err != nil {
		if database.IsUniqueViolation(err, database.ConstraintLocationName) {
			return location.LocationResponse{}, location.ErrLocationNameExists
		}
		return location.LocationResponse{}, fmt.Errorf("failed to create location: %w", err)
	}
	return toLocationResponse(created), nil
}

// GetLocation implements location.LocationService.
func (l *LocationServiceImpl) GetLocation(ctx context.Context, id string) (location.LocationResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return location.LocationResponse{}, err
	}

	found, err := l.get(ctx, id, admin.CompanyID)
	if err != nil {
		return location.LocationResponse{}, err
	}
	return toLocationResponse(found), nil
}

// ListLocations implements location.LocationService.
func (l *LocationServiceImpl) ListLocations(ctx context.Context) ([]location.LocationResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return nil, err
	}

	locations, err := l.locationRepository.GetByCompanyID(ctx, admin.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	responses := make([]location.LocationResponse, 0, len(locations))
	for _, loc := range locations {
		responses = append(responses, toLocationResponse(loc))
	}
	return responses, nil
}

// UpdateLocation implements location.LocationService. Turning rotation on issues a fresh secret.
func (l *LocationServiceImpl) UpdateLocation(ctx context.Context, req location.UpdateLocationRequest) (location.LocationResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return location.LocationResponse{}, err
	}
	req.CompanyID = admin.CompanyID
	if err := req.Validate(); err != nil {
		return location.LocationResponse{}, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	if req.RotatingQR != nil {
		current, err := l.get(ctx, req.ID, admin.CompanyID)
		if err != nil {
			return location.LocationResponse{}, err
		}
		switch {
		case *req.RotatingQR && !current.Rotating():
			name := current.Name
			if req.Name != nil {
				name = *req.Name
			}
			secret, err := utils.GenerateTOTPSecret(qrIssuer, name)
			if err != nil {
				return location.LocationResponse{}, fmt.Errorf("failed to generate QR secret: %w", err)
			}
			req.QRSecret = &secret
		case !*req.RotatingQR && current.Rotating():
			req.ClearQRSecret = true
		}
	}

	updated, err := l.locationRepository.Update(ctx, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.LocationResponse{}, location.ErrLocationNotFound
		}
		if database.IsUniqueViolation(err, database.ConstraintLocationName) {
			return location.LocationResponse{}, location.ErrLocationNameExists
		}
		return location.LocationResponse{}, fmt.Errorf("failed to update location: %w", err)
	}
	return toLocationResponse(updated), nil
}

// DeleteLocation implements location.LocationService. Employees assigned here resolve to the deleted state.
func (l *LocationServiceImpl) DeleteLocation(ctx context.Context, id string) error {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return err
	}
	if err := l.locationRepository.Delete(ctx, id, admin.CompanyID); err != nil {
		return err
	}
	slog.Info("Location deleted", "location_id", id, "company_id", admin.CompanyID)
	return nil
}

// GetQR implements location.LocationService.
func (l *LocationServiceImpl) GetQR(ctx context.Context, id string) (location.QRResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return location.QRResponse{}, err
	}

	found, err := l.get(ctx, id, admin.CompanyID)
	if err != nil {
		return location.QRResponse{}, err
	}
	return l.qrFor(found)
}

// RenderQRPNG implements location.LocationService.
func (l *LocationServiceImpl) RenderQRPNG(ctx context.Context, id string, size int) ([]byte, error) {
	qr, err := l.GetQR(ctx, id)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRImageSize {
		size = maxQRImageSize
	}

	png, err := qrcode.Encode(qr.Payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

func (l *LocationServiceImpl) qrFor(loc location.Location) (location.QRResponse, error) {
	payload := location.QRPayload{LocationID: loc.ID}
	var expiresIn *int

	if loc.Rotating() {
		now := l.now()
		code, err := utils.GenerateTOTPCode(*loc.QRSecret, now, l.qrPeriod)
		if err != nil {
			return location.QRResponse{}, fmt.Errorf("failed to generate QR code: %w", err)
		}
		payload.Code = code
		remaining := int(l.qrPeriod) - int(now.Unix()%int64(l.qrPeriod))
		expiresIn = &remaining
	}

	text, err := payload.Encode()
	if err != nil {
		return location.QRResponse{}, fmt.Errorf("failed to encode QR payload: %w", err)
	}
	return location.QRResponse{Payload: text, ExpiresIn: expiresIn}, nil
}

func (l *LocationServiceImpl) get(ctx context.Context, id, companyID string) (location.Location, error) {
	found, err := l.locationRepository.GetByID(ctx, id, companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrLocationNotFound
		}
		return location.Location{}, fmt.Errorf("failed to get location: %w", err)
	}
	return found, nil
}

func toLocationResponse(l location.Location) location.LocationResponse {
	return location.LocationResponse{
		ID:             l.ID,
		CompanyID:      l.CompanyID,
		Name:           l.Name,
		Latitude:       l.Latitude,
		Longitude:      l.Longitude,
		RadiusMeters:   l.RadiusMeters,
		SelfieRequired: l.SelfieRequired,
		RotatingQR:     l.Rotating(),
		CreatedAt:      l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      l.UpdatedAt.Format(time.RFC3339),
	}
}
