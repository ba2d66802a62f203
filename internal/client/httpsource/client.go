package httpsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
	"github.com/GregMSThompson/dashboard-backend/internal/errs"
)

const (
	serviceName  = "http_source"
	maxBodyBytes = 32 << 20
)

// Client fetches row arrays from JSON endpoints.
type Client struct {
	http    *http.Client
	maxRows int
}

func New(timeout time.Duration, maxRows int) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		maxRows: maxRows,
	}
}

// Request describes one fetch. RowsPath is a dot-separated path to the rows
// array inside the response; empty means the body itself is the array.
type Request struct {
	URL        string
	RowsPath   string
	AuthHeader string
}

type Result struct {
	Rows   []aggregation.Row
	Fields []string
}

// Fetch downloads and decodes the rows. Failures are returned as
// *errs.ExternalServiceError; 5xx, 429 and transport errors are transient.
func (c *Client) Fetch(ctx context.Context, req Request) (Result, error) {
	body, err := c.get(ctx, req)
	if err != nil {
		return Result{}, err
	}

	raw, err := locateRows(body, req.RowsPath)
	if err != nil {
		return Result{}, errs.NewExternalServiceError(serviceName, err.Error(), false, err)
	}

	fields, count, err := scanRows(raw)
	if err != nil {
		return Result{}, errs.NewExternalServiceError(serviceName, "response rows are not JSON objects", false, err)
	}
	if c.maxRows > 0 && count > c.maxRows {
		return Result{}, errs.NewValidationError(fmt.Sprintf("data source returned %d rows, limit is %d", count, c.maxRows))
	}

	rows := make([]aggregation.Row, 0, count)
	if err := json.Unmarshal(raw, &rows); err != nil {
		err = errors.Wrap(err, "decode rows")
		return Result{}, errs.NewExternalServiceError(serviceName, "failed to decode rows", false, err)
	}
	return Result{Rows: rows, Fields: fields}, nil
}

func (c *Client) get(ctx context.Context, req Request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, errs.NewValidationError("invalid data source url")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.AuthHeader != "" {
		httpReq.Header.Set("Authorization", req.AuthHeader)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		err = errors.Wrapf(err, "GET %s", httpReq.URL.Redacted())
		return nil, errs.NewExternalServiceError(serviceName, "data source unreachable", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		err := errors.Errorf("unexpected status %d", resp.StatusCode)
		return nil, errs.NewExternalServiceError(serviceName, fmt.Sprintf("data source responded with status %d", resp.StatusCode), transient, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		err = errors.Wrap(err, "read body")
		return nil, errs.NewExternalServiceError(serviceName, "failed to read data source response", true, err)
	}
	if len(body) > maxBodyBytes {
		return nil, errs.NewValidationError("data source response is too large")
	}
	return body, nil
}

func locateRows(body []byte, rowsPath string) ([]byte, error) {
	var keys []string
	if p := strings.Trim(rowsPath, "."); p != "" {
		keys = strings.Split(p, ".")
	}
	value, dataType, _, err := jsonparser.Get(body, keys...)
	if err != nil {
		return nil, errors.Wrapf(err, "rows path %q not found", rowsPath)
	}
	if dataType != jsonparser.Array {
		return nil, errors.Errorf("rows path %q is a %s, not an array", rowsPath, dataType)
	}
	return value, nil
}

// scanRows counts the array elements and collects object keys in first-seen
// order without decoding the values.
func scanRows(raw []byte) ([]string, int, error) {
	fields := linkedhashset.New()
	count := 0
	var scanErr error

	_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if scanErr != nil {
			return
		}
		count++
		if dataType != jsonparser.Object {
			scanErr = errors.Errorf("row %d is a %s", count, dataType)
			return
		}
		scanErr = jsonparser.ObjectEach(value, func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
			fields.Add(string(key))
			return nil
		})
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		return nil, 0, err
	}

	out := make([]string, 0, fields.Size())
	for _, f := range fields.Values() {
		out = append(out, f.(string))
	}
	return out, count, nil
}
