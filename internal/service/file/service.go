package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoding
	"path"
	"strings"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

var (
	ErrInvalidImage  = errors.New("image must be a base64 encoded JPEG or PNG")
	ErrImageTooLarge = errors.New("image exceeds the maximum allowed size")
)

const (
	maxStoredBytes = 200 * 1024
	maxDimension   = 1280
)

type FileService interface {
	// UploadAttendanceSelfie stores the selfie taken with a scan and returns its storage key.
	UploadAttendanceSelfie(ctx context.Context, companyID, employeeID string, at time.Time, status string, img []byte) (string, error)

	// UploadRequestEvidence stores the evidence image attached to an attendance request.
	UploadRequestEvidence(ctx context.Context, companyID, employeeID string, img []byte) (string, error)

	DeleteFile(ctx context.Context, key string) error
	FileURL(key string) string
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// DecodeBase64Image accepts raw base64 or a data URL and enforces maxBytes on the decoded size.
func DecodeBase64Image(encoded string, maxBytes int64) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i > 0 {
		encoded = encoded[i+1:]
	}
	if encoded == "" {
		return nil, ErrInvalidImage
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(encoded))) > maxBytes+2 {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidImage
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrImageTooLarge
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, ErrInvalidImage
	}
	return data, nil
}

func (s *fileServiceImpl) UploadAttendanceSelfie(ctx context.Context, companyID, employeeID string, at time.Time, status string, img []byte) (string, error) {
	compressed, err := compressImage(img)
	if err != nil {
		return "", err
	}

	// attendance/{company}/{date}/{employee}-{status}-{unix}-{uuid}.jpg
	name := fmt.Sprintf("%s-%s-%d-%s.jpg", employeeID, strings.ToLower(status), at.Unix(), uuid.NewString()[:8])
	key := path.Join("attendance", companyID, at.Format("2006-01-02"), name)

	uploaded, err := s.storage.Upload(ctx, bytes.NewReader(compressed), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload attendance selfie: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) UploadRequestEvidence(ctx context.Context, companyID, employeeID string, img []byte) (string, error) {
	compressed, err := compressImage(img)
	if err != nil {
		return "", err
	}

	key := path.Join("requests", companyID, employeeID, uuid.NewString()+".jpg")

	uploaded, err := s.storage.Upload(ctx, bytes.NewReader(compressed), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload request evidence: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

func (s *fileServiceImpl) FileURL(key string) string {
	return s.storage.URL(key)
}

// compressImage re-encodes to JPEG, downscaling the longest side to maxDimension and
// stepping quality down until the result fits maxStoredBytes or quality reaches 50.
func compressImage(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	img = fitWithin(img, maxDimension)

	var out []byte
	for quality := 85; quality >= 50; quality -= 10 {
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		out = buf.Bytes()
		if len(out) <= maxStoredBytes {
			break
		}
	}
	return out, nil
}

func fitWithin(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return src
	}

	if w >= h {
		h = h * limit / w
		w = limit
	} else {
		w = w * limit / h
		h = limit
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
