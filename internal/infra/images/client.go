// Package images is the REST client for the hosted image API used as the
// production blob store. Uploads are multipart posts, deletes go by the
// id the API assigned at upload time.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	mediasvc "github.com/chronon/photochron/internal/services/media"
)

type Config struct {
	BaseURL   string
	AccountID string
	Token     string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	token      string
}

func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.BaseURL == "" || cfg.AccountID == "" || cfg.Token == "" {
		return nil, fmt.Errorf("images api base url, account id and token are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		accountID:  cfg.AccountID,
		token:      cfg.Token,
	}, nil
}

type apiResponse struct {
	Success bool `json:"success"`
	Result  struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
	} `json:"result"`
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) Upload(ctx context.Context, up mediasvc.BlobUpload) (mediasvc.BlobInfo, error) {
	metadata, err := json.Marshal(up.Metadata)
	if err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("marshal blob metadata: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("create multipart file part: %w", err)
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("copy file into multipart body: %w", err)
	}
	if err := mw.WriteField("metadata", string(metadata)); err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("write metadata field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/images/v1", c.baseURL, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mediasvc.BlobInfo{}, fmt.Errorf("%w: %v", mediasvc.ErrBlobStoreUnavailable, err)
	}
	defer resp.Body.Close()

	result, err := decodeResponse(resp)
	if err != nil {
		return mediasvc.BlobInfo{}, err
	}
	if result.Result.ID == "" {
		return mediasvc.BlobInfo{}, fmt.Errorf("%w: no image id in response", mediasvc.ErrBlobStoreRejected)
	}

	return mediasvc.BlobInfo{ID: result.Result.ID, Filename: result.Result.Filename}, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/accounts/%s/images/v1/%s", c.baseURL, c.accountID, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", mediasvc.ErrBlobStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if _, err := decodeResponse(resp); err != nil {
		return err
	}
	return nil
}

func decodeResponse(resp *http.Response) (apiResponse, error) {
	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return apiResponse{}, fmt.Errorf("%w: undecodable response (%s)", mediasvc.ErrBlobStoreRejected, resp.Status)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !result.Success {
		message := resp.Status
		if len(result.Errors) > 0 && result.Errors[0].Message != "" {
			message = result.Errors[0].Message
		}
		return apiResponse{}, fmt.Errorf("%w: %s", mediasvc.ErrBlobStoreRejected, message)
	}

	return result, nil
}
