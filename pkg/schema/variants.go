package schema

import (
	"fmt"

	"github.com/samcharles93/tmckit/pkg/container"
)

// GroupVariants splits records row-major into variants groups of elements
// records each.
func GroupVariants[T any](records []T, variants, elements int) ([][]T, error) {
	if variants < 0 || elements < 0 || len(records) != variants*elements {
		return nil, fmt.Errorf("%d records for %d variants of %d elements: %w",
			len(records), variants, elements, container.ErrMisalignedOrTruncated)
	}
	out := make([][]T, variants)
	for i := range out {
		out[i] = records[i*elements : (i+1)*elements : (i+1)*elements]
	}
	return out, nil
}
