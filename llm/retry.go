package llm

import (
	"math"
	"net/http"
	"time"
)

const maxRetries = 3

var (
	initialBackoff = 1 * time.Second
	maxBackoff     = 32 * time.Second
)

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func backoffFor(attempt int) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// doWithRetry executes the request with exponential backoff on network
// errors and retryable status codes. The request must have GetBody set
// (http.NewRequestWithContext does that for byte readers).
func doWithRetry(client *http.Client, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoffFor(attempt - 1)):
			}
		}

		attemptReq := req
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			attemptReq = req.Clone(req.Context())
			attemptReq.Body = body
		}

		resp, err = client.Do(attemptReq)
		if err != nil {
			if attempt < maxRetries {
				continue
			}
			return nil, err
		}

		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		// close only when another attempt follows, the caller reads
		// the error detail from the final response body
		if attempt < maxRetries {
			_ = resp.Body.Close()
			continue
		}
		return resp, nil
	}

	return resp, err
}
