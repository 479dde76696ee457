package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Upload streams an object to the default bucket using the JSON API media
// endpoint. Existing objects at the same path are overwritten.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	objectPath = strings.TrimLeft(objectPath, "/")
	if objectPath == "" {
		return errors.New("object path is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		url.PathEscape(c.defaultBucket),
		url.QueryEscape(objectPath),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(b) > 0 {
			return fmt.Errorf("gcs upload failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}
		return fmt.Errorf("gcs upload failed: %s", resp.Status)
	}

	return nil
}

// Remove deletes an object from the default bucket. A missing object is not
// an error: removal is used by best-effort cleanup paths.
func (c *Client) Remove(ctx context.Context, objectPath string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	objectPath = strings.TrimLeft(objectPath, "/")
	if objectPath == "" {
		return errors.New("object path is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/storage/v1/b/%s/o/%s",
		url.PathEscape(c.defaultBucket),
		url.PathEscape(objectPath),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(b) > 0 {
			return fmt.Errorf("gcs delete failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}
		return fmt.Errorf("gcs delete failed: %s", resp.Status)
	}
}

// ResolveURL maps an object path to its public URL.
func (c *Client) ResolveURL(objectPath string) string {
	if c == nil {
		return ""
	}
	objectPath = strings.TrimLeft(objectPath, "/")
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", c.publicHost, url.PathEscape(c.defaultBucket), strings.Join(segments, "/"))
}
