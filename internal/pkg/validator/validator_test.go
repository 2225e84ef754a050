package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	First  string `json:"first" validate:"required"`
	Second int64  `json:"second" validate:"required,gt=0"`
	Third  string `json:"third,omitempty" validate:"required"`
}

func TestStruct_ReportsInFieldOrderWithJSONNames(t *testing.T) {
	errs := Struct(sample{Second: -1})
	require.Len(t, errs, 3)

	assert.Equal(t, "first", errs[0].Field)
	assert.Equal(t, "required", errs[0].Tag)
	assert.Equal(t, "second", errs[1].Field)
	assert.Equal(t, "gt", errs[1].Tag)
	assert.Equal(t, "0", errs[1].Param)
	assert.Equal(t, "third", errs[2].Field)
}

func TestStruct_Valid(t *testing.T) {
	assert.Nil(t, Struct(sample{First: "a", Second: 1, Third: "c"}))
}
