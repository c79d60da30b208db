package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidationErrorWrapsInvalidArgument(t *testing.T) {
	err := NewValidationError("months", "%d is not allowed", 7)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "months")
	assert.Contains(t, err.Error(), "7 is not allowed")
}

func TestAssetsNotFoundError(t *testing.T) {
	err := NewAssetsNotFoundError([]string{"BRPETRACNPR6", "BRABEVACNOR1", "BRPETRACNPR6"})

	assert.Equal(t, []string{"BRABEVACNOR1", "BRPETRACNPR6"}, err.Codes)
	assert.True(t, errors.Is(fmt.Errorf("portfolio: %w", err), ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, "assets not found: BRABEVACNOR1, BRPETRACNPR6", err.Error())
}

func TestOversellError(t *testing.T) {
	err := &OversellError{
		AssetCode: "BRVALEACNOR0",
		Date:      time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Missing:   decimal.RequireFromString("2.5"),
	}
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, "sell of BRVALEACNOR0 on 2024-03-04 exceeds held quantity by 2.5", err.Error())
}
