package util

import "strconv"

// ParsePagination 解析分页参数，page 从 1 开始，pageSize 截断到上限
func ParsePagination(pageStr, sizeStr string, defaultSize, maxSize int) (page, pageSize int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(sizeStr)
	if err != nil || pageSize < 1 {
		pageSize = defaultSize
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}
