package util

import (
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// GetSafeContentType 按文件头嗅探类型，不信任客户端声明；读取后回到起始位置
func GetSafeContentType(reader io.ReadSeeker) (string, error) {
	mtype, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", err
	}
	if _, err = reader.Seek(0, io.SeekStart); err != nil {
		return "", errors.Join(errors.New("failed to rewind upload"), err)
	}
	return mtype.String(), nil
}
