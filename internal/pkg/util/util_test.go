package util

import (
	"Alumnet/internal/service"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name             string
		page, size       string
		wantPage, wantSz int
	}{
		{"defaults", "", "", 1, 20},
		{"explicit", "3", "10", 3, 10},
		{"clamped", "2", "500", 2, 50},
		{"garbage", "abc", "-4", 1, 20},
		{"zero page", "0", "5", 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := ParsePagination(tt.page, tt.size, 20, 50)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSz, size)
		})
	}
}

type sample struct {
	Name string `validate:"required,max=3"`
}

func TestValidateDTO(t *testing.T) {
	assert.NoError(t, ValidateDTO(&sample{Name: "abc"}))

	err := ValidateDTO(&sample{Name: "abcd"})
	assert.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindValidation))
}

func TestGetSafeContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	reader := bytes.NewReader(png)

	contentType, err := GetSafeContentType(reader)
	assert.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	// 读取位置已复位
	rest, _ := io.ReadAll(reader)
	assert.Equal(t, png, rest)

	contentType, err = GetSafeContentType(strings.NewReader("plain words"))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(contentType, "text/plain"))
}
