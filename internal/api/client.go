package api

import (
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/models"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/structures"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	userAgent         = "BarcodeDrop-Client/1.0"
	errorBodyLogLimit = 512
)

// ClientInterface is the remote scan service as seen by the store and the session.
type ClientInterface interface {
	GetUserScans(ctx context.Context, user string) ([]models.Scan, error)
	DeleteScans(ctx context.Context, ids []string) error
	DeleteUserScans(ctx context.Context, user string, olderThanSeconds *int) error
	ScanBarcode(ctx context.Context, user, barcode, id string) (string, error)
}

type Client struct {
	client  *http.Client
	baseURL string
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

type deleteScansRequest struct {
	IDs []string `json:"ids"`
}

type scanBarcodeRequest struct {
	Username string `json:"username"`
	Barcode  string `json:"barcode"`
	ID       string `json:"id,omitempty"`
}

func NewClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) ClientInterface {
	return &Client{
		client: &http.Client{
			Timeout: conf.Api.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimRight(conf.Api.BaseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}
}

func (c *Client) GetUserScans(ctx context.Context, user string) ([]models.Scan, error) {
	body, err := c.do(ctx, "get_user_scans", http.MethodGet, "/api/users/"+url.PathEscape(user)+"/scans", nil)
	if err != nil {
		return nil, err
	}
	scans, err := models.DecodeScans(body)
	if err != nil {
		c.metrics.IncTransportErrors("get_user_scans")
		return nil, apperrors.Wrap(apperrors.CodeTransport, err, "undecodable scan list")
	}
	return scans, nil
}

func (c *Client) DeleteScans(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.do(ctx, "delete_scans", http.MethodPost, "/api/scans/delete", deleteScansRequest{IDs: ids})
	return err
}

func (c *Client) DeleteUserScans(ctx context.Context, user string, olderThanSeconds *int) error {
	path := "/api/users/" + url.PathEscape(user) + "/scans"
	if olderThanSeconds != nil {
		path += "?older_than_seconds=" + strconv.Itoa(*olderThanSeconds)
	}
	_, err := c.do(ctx, "delete_user_scans", http.MethodDelete, path, nil)
	return err
}

// ScanBarcode submits one scan. A non-empty id is used by the server as the scan id.
func (c *Client) ScanBarcode(ctx context.Context, user, barcode, id string) (string, error) {
	body, err := c.do(ctx, "scan_barcode", http.MethodPost, "/api/scans", scanBarcodeRequest{
		Username: user,
		Barcode:  barcode,
		ID:       id,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "unable to encode request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "unable to build request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debugf(providers.TypeApi, "%s %s", method, req.URL.Redacted())

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.IncTransportErrors(operation)
		return nil, apperrors.Wrap(apperrors.CodeTransport, err, operation+" failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncTransportErrors(operation)
		return nil, apperrors.Wrap(apperrors.CodeTransport, err, "unable to read "+operation+" response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.IncTransportErrors(operation)
		c.logger.Warnf(providers.TypeApi, "%s returned %d: %s", operation, resp.StatusCode, truncate(body, errorBodyLogLimit))
		return nil, apperrors.New(apperrors.CodeTransport, fmt.Sprintf("%s returned status %d", operation, resp.StatusCode))
	}

	return body, nil
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
