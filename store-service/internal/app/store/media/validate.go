package media

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Limits - допустимые MIME типы и максимальный размер файла
type Limits struct {
	MaxFileSize int64
	ImageTypes  []string
	VideoTypes  []string
}

type UploadErrorCode string

const (
	CodeInvalidType UploadErrorCode = "invalid_type"
	CodeTooLarge    UploadErrorCode = "too_large"
	CodeEmpty       UploadErrorCode = "empty"
)

// UploadError - файл отклонён при валидации, отдаётся клиенту как 400
type UploadError struct {
	Code     UploadErrorCode
	FileName string
	MimeType string
	Limit    int64
}

func (e *UploadError) Error() string {
	switch e.Code {
	case CodeTooLarge:
		return fmt.Sprintf("File too large: %s (max %d bytes)", e.FileName, e.Limit)
	case CodeEmpty:
		return fmt.Sprintf("Empty file: %s", e.FileName)
	default:
		return fmt.Sprintf("Invalid file type: %s", e.MimeType)
	}
}

// Validate проверяет MIME тип и размер файла и определяет вид медиа.
// Функция чистая: не читает файл и не зависит от HTTP
func Validate(mimeType string, size int64, limits Limits) (Kind, error) {
	normalized := normalizeMime(mimeType)

	var kind Kind
	switch {
	case contains(limits.ImageTypes, normalized):
		kind = KindImage
	case contains(limits.VideoTypes, normalized):
		kind = KindVideo
	default:
		return "", &UploadError{Code: CodeInvalidType, MimeType: mimeType}
	}

	if size <= 0 {
		return "", &UploadError{Code: CodeEmpty, MimeType: normalized}
	}
	if limits.MaxFileSize > 0 && size > limits.MaxFileSize {
		return "", &UploadError{Code: CodeTooLarge, MimeType: normalized, Limit: limits.MaxFileSize}
	}

	return kind, nil
}

// normalizeMime отбрасывает параметры ("; codecs=...") и приводит к нижнему регистру
func normalizeMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
