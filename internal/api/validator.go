package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
)

// CustomValidator はEcho用のカスタムバリデーター
// 違反はフィールド名（JSONタグ）をキーとした reservation.ValidationErrors で返す
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("リクエストを検証できません: %w", err)
	}

	errs := reservation.ValidationErrors{}
	for _, fe := range verrs {
		if _, ok := errs[fe.Field()]; ok {
			continue
		}
		errs[fe.Field()] = fieldMessage(fe)
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "入力されていません"
	case "max":
		return fmt.Sprintf("%s文字以内で入力してください", fe.Param())
	default:
		return "値が不正です"
	}
}
