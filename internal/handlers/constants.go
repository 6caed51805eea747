package handlers

const (
	// AutomationKeyHeader authenticates deploy pipelines on admin routes
	AutomationKeyHeader = "X-Automation-Key"

	maxBodyBytes = 1 << 20

	ErrInvalidJSON         = "Dữ liệu gửi lên không hợp lệ"
	ErrUnauthorized        = "Vui lòng đăng nhập để tiếp tục"
	ErrForbidden           = "Bạn không có quyền thực hiện thao tác này"
	ErrNotFound            = "Không tìm thấy dữ liệu"
	ErrConflict            = "Thao tác không hợp lệ ở trạng thái hiện tại"
	ErrTooManyRequests     = "Bạn thao tác quá nhanh. Vui lòng thử lại sau."
	ErrInternalServerError = "Có lỗi xảy ra. Vui lòng thử lại sau."
	ErrLevelComingSoon     = "Cấp độ này sắp ra mắt"
	ErrSaveFailed          = "Không thể lưu kết quả. Vui lòng thử lại."
)
