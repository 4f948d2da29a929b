package linkedin

import "fmt"

// PublishError reports a non-success response from a platform publish call.
type PublishError struct {
	StatusCode int
	Body       string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("linkedin publish failed: status %d: %s", e.StatusCode, e.Body)
}

// TokenRefreshError reports a failed or malformed token exchange.
type TokenRefreshError struct {
	Reason string
	Err    error
}

func (e *TokenRefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("linkedin token refresh failed: %s: %v", e.Reason, e.Err)
	}
	return "linkedin token refresh failed: " + e.Reason
}

func (e *TokenRefreshError) Unwrap() error {
	return e.Err
}
