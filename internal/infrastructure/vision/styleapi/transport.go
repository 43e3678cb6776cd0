package styleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// postImage uploads one stored image and returns the response body as a
// reader of produced image bytes.
func (c *Client) postImage(ctx context.Context, endpoint, operation, imageKey string) (io.Reader, error) {
	body, contentType, err := c.multipartFor(ctx, operation, map[string]string{"image": imageKey})
	if err != nil {
		return nil, err
	}

	raw, err := c.post(ctx, endpoint, operation, contentType, body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}

// postImageJSON uploads one stored image and decodes a JSON response.
func (c *Client) postImageJSON(ctx context.Context, endpoint, operation, imageKey string, out any) error {
	body, contentType, err := c.multipartFor(ctx, operation, map[string]string{"image": imageKey})
	if err != nil {
		return err
	}

	raw, err := c.post(ctx, endpoint, operation, contentType, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) postImagePair(ctx context.Context, endpoint, operation, garmentKey, personKey string) (io.Reader, error) {
	body, contentType, err := c.multipartFor(ctx, operation, map[string]string{
		"garment": garmentKey,
		"person":  personKey,
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.post(ctx, endpoint, operation, contentType, body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}

// multipartFor builds the request body from stored images, one form file
// per field.
func (c *Client) multipartFor(ctx context.Context, operation string, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, key := range fields {
		rc, err := c.storage.Open(ctx, key)
		if err != nil {
			return nil, "", fmt.Errorf("open %s image for %s: %w", field, operation, err)
		}
		part, err := w.CreateFormFile(field, path.Base(key))
		if err != nil {
			rc.Close()
			return nil, "", fmt.Errorf("create %s form part: %w", field, err)
		}
		if _, err := io.Copy(part, rc); err != nil {
			rc.Close()
			return nil, "", fmt.Errorf("copy %s image: %w", field, err)
		}
		rc.Close()
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// post runs the HTTP exchange, through the resilience executor when one is
// attached. The multipart body is rebuilt per attempt from the buffered
// bytes so retries never send a drained reader.
func (c *Client) post(ctx context.Context, endpoint, operation, contentType string, body []byte) ([]byte, error) {
	var raw []byte
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", contentType)
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("styleapi %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &HTTPStatusError{
				Operation:  operation,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       string(snippet),
			}
		}

		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s response: %w", operation, err)
		}
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "styleapi."+operation, call, classifyStyleAPIError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded(operation, err)
	}
	return raw, nil
}
