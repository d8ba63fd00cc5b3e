package media

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"pairchat-service/internal/apperrors"
)

// Client uploads through an unsigned preset endpoint: a multipart POST with
// the file, the preset name and a folder hint, answered with the secure URL
// of the stored asset. No per-request signing is involved.
type Client struct {
	endpoint string
	preset   string
	httpc    *http.Client
}

// NewClient constructs a Client for the given upload endpoint and preset.
func NewClient(endpoint, preset string) *Client {
	return &Client{
		endpoint: endpoint,
		preset:   preset,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload sends the payload and returns the stable content reference. A failed
// upload leaves nothing behind and is safe to retry wholesale.
func (c *Client) Upload(ctx context.Context, fileName string, payload io.Reader, folder string) (string, error) {
	if c.endpoint == "" {
		return "", apperrors.New(apperrors.InvalidArgument, "media uploads not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, payload); err != nil {
		return "", err
	}
	if err := writer.WriteField("upload_preset", c.preset); err != nil {
		return "", err
	}
	if err := writer.WriteField("folder", folder); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Transient, "upload request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Errorf(apperrors.Transient, "upload rejected with status %d", resp.StatusCode)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apperrors.Wrap(apperrors.Transient, "malformed upload response", err)
	}
	if !ValidContentRef(result.SecureURL) {
		return "", apperrors.New(apperrors.Transient, "upload response missing secure url")
	}
	return result.SecureURL, nil
}
