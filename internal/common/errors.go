package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidArgument marks validation failures. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks lookups of records that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks operations whose upstream is not configured.
	ErrUnavailable = errors.New("unavailable")
)

// NewValidationError returns an error wrapping ErrInvalidArgument.
func NewValidationError(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, field, fmt.Sprintf(format, args...))
}

// AssetsNotFoundError lists asset codes referenced by transactions that have
// no matching asset record.
type AssetsNotFoundError struct {
	Codes []string
}

// NewAssetsNotFoundError de-duplicates and sorts the missing codes.
func NewAssetsNotFoundError(codes []string) *AssetsNotFoundError {
	seen := make(map[string]struct{}, len(codes))
	unique := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	sort.Strings(unique)
	return &AssetsNotFoundError{Codes: unique}
}

func (e *AssetsNotFoundError) Error() string {
	return fmt.Sprintf("assets not found: %s", strings.Join(e.Codes, ", "))
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *AssetsNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// OversellError reports a sell that exceeds the unconsumed buy lots of an asset.
type OversellError struct {
	AssetCode string
	Date      time.Time
	Missing   decimal.Decimal
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("sell of %s on %s exceeds held quantity by %s",
		e.AssetCode, e.Date.Format("2006-01-02"), e.Missing.String())
}

// Is makes errors.Is(err, ErrInvalidArgument) hold.
func (e *OversellError) Is(target error) bool {
	return target == ErrInvalidArgument
}
