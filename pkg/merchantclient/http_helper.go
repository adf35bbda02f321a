package merchantclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MuLx10/morph-payment-sdk/pkg/constants"
	"github.com/MuLx10/morph-payment-sdk/pkg/linkhandler"
	"github.com/MuLx10/morph-payment-sdk/pkg/types"
)

// httpRequest sends body as JSON and decodes a 2xx reply into result. Non-2xx replies
// come back as *HTTPError.
func httpRequest(ctx context.Context, client *http.Client, method, url string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, int64(constants.MaxResponseBodySize))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(limitedReader)
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       bodyBytes,
		}
	}

	switch out := result.(type) {
	case nil:
		return nil
	case *[]byte:
		raw, err := io.ReadAll(limitedReader)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		*out = raw
		return nil
	default:
		if err := json.NewDecoder(limitedReader).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
}

// HTTPError is a non-2xx reply from the merchant API
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
	}
	if len(e.Body) > 0 {
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, string(e.Body))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Message returns the server's error message, or "" when the body is not an error document
func (e *HTTPError) Message() string {
	var errResp struct {
		Error string `json:"error"`
	}
	if len(e.Body) == 0 || json.Unmarshal(e.Body, &errResp) != nil {
		return ""
	}
	return errResp.Error
}

func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict reports a payment that is already being submitted
func (e *HTTPError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// FieldErrors extracts the per-field validation failures from an error returned by the client
func FieldErrors(err error) types.ValidationErrors {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || len(httpErr.Body) == 0 {
		return nil
	}
	var resp linkhandler.ErrorResponse
	if json.Unmarshal(httpErr.Body, &resp) != nil {
		return nil
	}
	return resp.Fields
}
