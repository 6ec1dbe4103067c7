package api

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
)

type sampleRequest struct {
	Room   string `json:"room" validate:"max=5"`
	Name   string `json:"name,omitempty" validate:"required"`
	Hidden string `json:"-" validate:"max=1"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := NewValidator()

	t.Run("違反がなければnil", func(t *testing.T) {
		assert.NoError(t, v.Validate(&sampleRequest{Room: "A", Name: "x"}))
	})

	t.Run("違反はJSON名をキーにまとめる", func(t *testing.T) {
		err := v.Validate(&sampleRequest{Room: strings.Repeat("a", 6)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, reservation.ErrInvalidArgument))

		var verr reservation.ValidationErrors
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, reservation.ValidationErrors{
			"room": "5文字以内で入力してください",
			"name": "入力されていません",
		}, verr)
	})

	t.Run("構造体以外はエラー", func(t *testing.T) {
		err := v.Validate("not a struct")
		require.Error(t, err)
		assert.False(t, errors.Is(err, reservation.ErrInvalidArgument))
	})
}
