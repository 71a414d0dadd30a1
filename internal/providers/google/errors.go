package google

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// wrapError converts a Google API error to a domain sentinel where one
// applies, keeping the original error in the chain.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %s: %w", domain.ErrProviderUnavailable, op, err)
	}

	switch {
	case gerr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s: %w", domain.ErrAuthFailed, op, err)
	case gerr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %w", domain.ErrRateLimited, op, err)
	case gerr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s: %w", domain.ErrProviderUnavailable, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
