package dto

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// UploadResponse тело ответа загрузки аватара, и при успехе, и при ошибке
type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
