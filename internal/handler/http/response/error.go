package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/face"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/checkin-backend-go/internal/service/file"
)

var geoCauseMessages = map[attendance.GeoCause]string{
	attendance.GeoPermissionDenied:    "Bạn đã từ chối quyền truy cập vị trí. Hãy bật định vị để chấm công",
	attendance.GeoPositionUnavailable: "Không xác định được vị trí hiện tại của thiết bị",
	attendance.GeoTimeout:             "Hết thời gian chờ lấy vị trí, vui lòng thử lại",
	attendance.GeoMissingCoordinates:  "Thiếu tọa độ vị trí",
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var unavailable *attendance.LocationUnavailableError
	if errors.As(err, &unavailable) {
		msg, ok := geoCauseMessages[unavailable.Cause]
		if !ok {
			msg = geoCauseMessages[attendance.GeoPositionUnavailable]
		}
		Fail(w, http.StatusUnprocessableEntity, "LOCATION_UNAVAILABLE", msg)
		return
	}

	switch {
	// Attendance scan errors
	case errors.Is(err, attendance.ErrInvalidQrPayload):
		Fail(w, http.StatusBadRequest, "INVALID_QR_PAYLOAD", "Mã QR không hợp lệ")
	case errors.Is(err, attendance.ErrInvalidLocationToken):
		Fail(w, http.StatusUnprocessableEntity, "INVALID_LOCATION_TOKEN", "Mã QR địa điểm đã hết hạn hoặc không còn hiệu lực")
	case errors.Is(err, attendance.ErrOutOfRange):
		Fail(w, http.StatusForbidden, "OUT_OF_RANGE", "Bạn đang ở ngoài khu vực chấm công")
	case errors.Is(err, attendance.ErrNoFaceDetected), errors.Is(err, face.ErrNoFace):
		Fail(w, http.StatusUnprocessableEntity, "NO_FACE_DETECTED", "Không phát hiện khuôn mặt trong ảnh")
	case errors.Is(err, attendance.ErrFaceMismatch):
		Fail(w, http.StatusForbidden, "FACE_MISMATCH", "Khuôn mặt không khớp với nhân viên đã đăng ký")
	case errors.Is(err, attendance.ErrSelfieRequired):
		ValidationError(w, map[string]string{"selfie": "Cần chụp ảnh selfie để chấm công"})
	case errors.Is(err, attendance.ErrPersistenceFailure):
		slog.Error("Attendance persistence failure", "error", err)
		Fail(w, http.StatusInternalServerError, "PERSISTENCE_FAILURE", err.Error())

	// Attendance request errors
	case errors.Is(err, attendance.ErrInvalidRequestState):
		Fail(w, http.StatusConflict, "INVALID_REQUEST_STATE", "Yêu cầu đã được xử lý trước đó")
	case errors.Is(err, attendance.ErrFutureTimestamp):
		Fail(w, http.StatusUnprocessableEntity, "FUTURE_TIMESTAMP", "Thời gian yêu cầu không được ở tương lai")
	case errors.Is(err, attendance.ErrRequestNotFound):
		NotFound(w, "Không tìm thấy yêu cầu chấm công")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Không tìm thấy bản ghi chấm công")

	// Image errors
	case errors.Is(err, file.ErrInvalidImage):
		Fail(w, http.StatusUnprocessableEntity, "INVALID_IMAGE", "Ảnh phải là JPEG hoặc PNG mã hóa base64")
	case errors.Is(err, file.ErrImageTooLarge):
		Fail(w, http.StatusUnprocessableEntity, "IMAGE_TOO_LARGE", "Ảnh vượt quá dung lượng cho phép")
	case errors.Is(err, face.ErrInvalidDescriptor), errors.Is(err, face.ErrLengthMismatch):
		ValidationError(w, map[string]string{"face_descriptor": "Dữ liệu khuôn mặt không hợp lệ"})

	// Auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Fail(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Sai tài khoản hoặc mật khẩu")
	case errors.Is(err, auth.ErrInvalidDeviceCode):
		Fail(w, http.StatusUnauthorized, "INVALID_DEVICE_CODE", "Mã thiết bị không hợp lệ")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenRevoked):
		Fail(w, http.StatusUnauthorized, "INVALID_TOKEN", "Phiên đăng nhập đã hết hạn")
	case errors.Is(err, auth.ErrUnauthenticated):
		Unauthorized(w, "Vui lòng đăng nhập")
	case errors.Is(err, auth.ErrForbidden):
		Forbidden(w, "Bạn không có quyền thực hiện thao tác này")
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "Không tìm thấy người dùng")

	// Conflicts
	case errors.Is(err, user.ErrEmailExists):
		Conflict(w, "Email đã được sử dụng")
	case errors.Is(err, company.ErrCompanyNameExists):
		Conflict(w, "Tên công ty đã tồn tại")
	case errors.Is(err, employee.ErrUsernameExists):
		Conflict(w, "Tên đăng nhập đã tồn tại")
	case errors.Is(err, employee.ErrDeviceCodeExists):
		Conflict(w, "Mã thiết bị đã được sử dụng")
	case errors.Is(err, shift.ErrShiftNameExists):
		Conflict(w, "Tên ca làm việc đã tồn tại")
	case errors.Is(err, location.ErrLocationNameExists):
		Conflict(w, "Tên địa điểm đã tồn tại")
	case errors.Is(err, employee.ErrFaceNotEnrolled):
		Fail(w, http.StatusConflict, "FACE_NOT_ENROLLED", "Nhân viên chưa đăng ký khuôn mặt")
	case errors.Is(err, employee.ErrFaceInputRequired):
		ValidationError(w, map[string]string{"image": "Cần gửi ảnh hoặc dữ liệu khuôn mặt"})
	case errors.Is(err, shift.ErrInvalidClock):
		ValidationError(w, map[string]string{"time": "Giờ phải theo định dạng HH:MM"})

	// Not found
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Không tìm thấy nhân viên")
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Không tìm thấy công ty")
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Không tìm thấy ca làm việc")
	case errors.Is(err, location.ErrLocationNotFound):
		NotFound(w, "Không tìm thấy địa điểm")

	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "Đã xảy ra lỗi không mong muốn")
	}
}
