package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/response"
)

// defaultMaxImageBytes applies when no image limit is configured.
const defaultMaxImageBytes = 10 << 20

// bodyLimit is the largest JSON body that can carry one base64 image of maxImageBytes.
// The slack covers the remaining fields, including a face descriptor.
func bodyLimit(maxImageBytes int64) int64 {
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}
	return (maxImageBytes+2)/3*4 + 64<<10
}

// decodeLimitedJSON decodes r.Body into dst, reading at most limit bytes.
// On failure it has already written the error response.
func decodeLimitedJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Fail(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Dữ liệu gửi lên vượt quá dung lượng cho phép")
		return err
	}
	response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
	return err
}
