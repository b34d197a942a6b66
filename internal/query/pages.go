package query

import (
	"context"
	"errors"
	"fmt"

	"checkers-client/internal/domain"
)

// ErrCursorLoop is returned when a page returns a cursor already followed
// during the same fetch, which would otherwise paginate forever.
var ErrCursorLoop = errors.New("pagination cursor does not advance")

// Paged is a list response that can be merged with its following page.
type Paged[T any] interface {
	NextKey() []byte
	MergePage(next T) T
}

// fetchAll issues fetch from page and then once per returned cursor until
// a page carries no cursor. List fields are concatenated in page order and
// scalar fields take the last page's values.
func fetchAll[T Paged[T]](ctx context.Context, name string, page domain.PageRequest, fetch func(context.Context, domain.PageRequest) (T, error)) (T, error) {
	acc, err := fetch(ctx, page)
	if err != nil {
		return acc, err
	}

	seen := map[string]struct{}{string(page.Key): {}}
	for next := acc.NextKey(); len(next) > 0; next = acc.NextKey() {
		if _, ok := seen[string(next)]; ok {
			var zero T
			return zero, &QueryUnavailableError{Query: name, Err: fmt.Errorf("%w: %x", ErrCursorLoop, next)}
		}
		seen[string(next)] = struct{}{}

		// The cursor replaces the offset; the node rejects requests carrying both.
		page.Key = append([]byte(nil), next...)
		page.Offset = 0

		resp, err := fetch(ctx, page)
		if err != nil {
			var zero T
			return zero, err
		}
		acc = acc.MergePage(resp)
	}
	return acc, nil
}
