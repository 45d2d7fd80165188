package util

import (
	"Alumnet/internal/service"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateDTO 校验失败时返回 Validation 类业务错误
func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			firstError := vErrs[0]
			msg := fmt.Sprintf("field [%s] failed rule [%s]",
				firstError.Field(),
				firstError.Tag())
			return &service.Error{Kind: service.KindValidation, Message: msg}
		}
		return err
	}
	return nil
}
