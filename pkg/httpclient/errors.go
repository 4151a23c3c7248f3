package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response body is retained.
const maxErrorBody = 64 << 10

// StatusError is returned for a non-success HTTP response. Body holds up to
// 64 KiB of the response body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ReadStatusError drains and closes resp.Body and returns it as a StatusError.
// The caller should only invoke this for non-2xx responses.
func ReadStatusError(resp *http.Response) *StatusError {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		body = []byte{}
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

// IsSuccess reports whether status is a 2xx code.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
