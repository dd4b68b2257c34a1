package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotalPages(t *testing.T) {
	cases := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 7, 15},
		{5, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CalculateTotalPages(c.total, c.perPage), "total=%d perPage=%d", c.total, c.perPage)
	}
}

func TestCalculateOffset(t *testing.T) {
	assert.Equal(t, 0, CalculateOffset(0, 20))
	assert.Equal(t, 0, CalculateOffset(1, 20))
	assert.Equal(t, 40, CalculateOffset(3, 20))
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Name  string `validate:"required"`
		Email string `validate:"omitempty,email"`
	}

	errs := ValidateStruct(input{Email: "nope"})
	assert.Equal(t, "This field is required", errs["Name"])
	assert.Equal(t, "Invalid email format", errs["Email"])
	assert.Equal(t, "Email: Invalid email format; Name: This field is required", FormatValidationErrors(errs))

	assert.Nil(t, ValidateStruct(input{Name: "ok"}))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret123")
	assert.NoError(t, err)
	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("other", hash))
}

func TestParseQueryValues(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("abc", 1))

	assert.Nil(t, ParseIntPtr(""))
	require.NotNil(t, ParseIntPtr("5"))
	assert.Equal(t, 5, *ParseIntPtr("5"))

	assert.Nil(t, ParseFloatPtr("x"))
	require.NotNil(t, ParseFloatPtr("12,5"))
	assert.InDelta(t, 12.5, *ParseFloatPtr("12,5"), 1e-9)
}
