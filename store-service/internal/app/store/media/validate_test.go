package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = Limits{
	MaxFileSize: 50 * 1024 * 1024,
	ImageTypes:  []string{"image/jpeg", "image/jpg", "image/png", "image/webp"},
	VideoTypes:  []string{"video/mp4", "video/webm", "video/ogg"},
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		size     int64
		wantKind Kind
		wantCode UploadErrorCode
	}{
		{name: "jpeg image", mime: "image/jpeg", size: 1024, wantKind: KindImage},
		{name: "webp with params", mime: "image/webp; q=1", size: 10, wantKind: KindImage},
		{name: "uppercase png", mime: "IMAGE/PNG", size: 10, wantKind: KindImage},
		{name: "mp4 video", mime: "video/mp4", size: 1024, wantKind: KindVideo},
		{name: "ogg video at limit", mime: "video/ogg", size: 50 * 1024 * 1024, wantKind: KindVideo},
		{name: "gif rejected", mime: "image/gif", size: 10, wantCode: CodeInvalidType},
		{name: "pdf rejected", mime: "application/pdf", size: 10, wantCode: CodeInvalidType},
		{name: "empty mime rejected", mime: "", size: 10, wantCode: CodeInvalidType},
		{name: "too large", mime: "image/png", size: 50*1024*1024 + 1, wantCode: CodeTooLarge},
		{name: "empty file", mime: "image/png", size: 0, wantCode: CodeEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := Validate(tt.mime, tt.size, testLimits)

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantKind, kind)
				return
			}

			var uploadErr *UploadError
			require.True(t, errors.As(err, &uploadErr))
			assert.Equal(t, tt.wantCode, uploadErr.Code)
			assert.Empty(t, kind)
		})
	}
}

func TestUploadError_MessageNamesOffendingType(t *testing.T) {
	_, err := Validate("image/gif", 10, testLimits)

	require.Error(t, err)
	assert.Equal(t, "Invalid file type: image/gif", err.Error())
}

func TestUploadError_TooLargeMessage(t *testing.T) {
	err := &UploadError{Code: CodeTooLarge, FileName: "big.mp4", Limit: 100}

	assert.Equal(t, "File too large: big.mp4 (max 100 bytes)", err.Error())
}
