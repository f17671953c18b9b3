package utils

import (
	"fmt"
	"math"
)

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
// Returns an error if overflow would occur.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil // No overflow when either is zero
	}

	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}

	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no overflow occurs.
// Returns 0 and an error if overflow would occur.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// ValidateBufferSize validates that a buffer size is within reasonable limits.
// maxSize parameter allows different limits for different use cases.
func ValidateBufferSize(size, maxSize uint64, description string) error {
	if size == 0 {
		return fmt.Errorf("%s: size cannot be zero", description)
	}

	if size > maxSize {
		return fmt.Errorf("%s: size %d exceeds maximum %d", description, size, maxSize)
	}

	return nil
}

// Common buffer size limits. idkey.Blob checks its running total against
// MaxBlobSize; the page decoder does its own bounds checks and does not
// consult MaxPageSize or MaxRecordSize.
const (
	// MaxPageSize bounds a single B-tree page to something sane; real IDA
	// databases use pages in the 1-4 KiB range.
	MaxPageSize = 1 << 20 // 1MB

	// MaxRecordSize bounds a single key or value blob read out of a page.
	MaxRecordSize = 1 << 20 // 1MB

	// MaxBlobSize bounds the concatenated result of idkey.Blob.
	MaxBlobSize = 256 * 1024 * 1024 // 256MB
)
