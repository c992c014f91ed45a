package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/ticket-sync/internal/config"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

// SheetsClient reads and writes the feed through the Google Sheets values
// API. Calls are rate limited to respect API quota and wrapped in a circuit
// breaker so a flapping upstream fails fast instead of piling up requests.
type SheetsClient struct {
	cfg          config.SheetsConfig
	http         *http.Client
	limiter      *rate.Limiter
	readBreaker  *gobreaker.CircuitBreaker[*Table]
	writeBreaker *gobreaker.CircuitBreaker[struct{}]
	logger       *zap.Logger
}

// NewSheetsClient builds the client. Reads and writes trip independently so
// a failing write path does not block feed fetches.
func NewSheetsClient(cfg config.SheetsConfig, logger *zap.Logger) *SheetsClient {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &SheetsClient{
		cfg:          cfg,
		http:         &http.Client{Timeout: cfg.Timeout()},
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		readBreaker:  gobreaker.NewCircuitBreaker[*Table](breakerSettings("sheets-feed-read", logger)),
		writeBreaker: gobreaker.NewCircuitBreaker[struct{}](breakerSettings("sheets-feed-write", logger)),
		logger:       logger,
	}
}

func breakerSettings(name string, logger *zap.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("feed breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
}

type valuesResponse struct {
	Values [][]string `json:"values"`
}

// Fetch retrieves the full feed snapshot: header row plus data rows.
func (c *SheetsClient) Fetch(ctx context.Context) (*Table, error) {
	return c.readBreaker.Execute(func() (*Table, error) {
		return c.fetch(ctx)
	})
}

func (c *SheetsClient) fetch(ctx context.Context) (*Table, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.valuesURL(fmt.Sprintf("%s!%s", c.cfg.SheetName, c.cfg.Range), nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure("feed unreachable", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewUpstreamFailure(
			fmt.Sprintf("feed returned status %d", resp.StatusCode),
			fmt.Errorf("sheets values get: %s", strings.TrimSpace(string(body))))
	}

	var payload valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewUpstreamFailure("feed payload malformed", err)
	}
	if len(payload.Values) == 0 {
		return nil, apperrors.NewUpstreamFailure("feed returned no header row", nil)
	}

	return &Table{Header: payload.Values[0], Rows: payload.Values[1:]}, nil
}

// UpdateStatus locates the row carrying the external key and writes the new
// status into its status cell.
func (c *SheetsClient) UpdateStatus(ctx context.Context, externalKey, status string) error {
	table, err := c.Fetch(ctx)
	if err != nil {
		return err
	}

	keyCol, statusCol := -1, -1
	for i, name := range table.Header {
		switch name {
		case ColumnExternalKey:
			keyCol = i
		case ColumnStatus:
			statusCol = i
		}
	}
	if keyCol < 0 || statusCol < 0 {
		return apperrors.NewUpstreamFailure("feed missing key or status column", nil)
	}

	rowIndex := -1
	for i, row := range table.Rows {
		if keyCol < len(row) && row[keyCol] == externalKey {
			rowIndex = i
			break
		}
	}
	if rowIndex < 0 {
		return ErrRowNotFound
	}

	// Data rows start on sheet row 2 (row 1 is the header).
	cell := fmt.Sprintf("%s!%s%d", c.cfg.SheetName, columnLetter(statusCol), rowIndex+2)
	_, err = c.writeBreaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.updateCell(ctx, cell, status)
	})
	return err
}

func (c *SheetsClient) updateCell(ctx context.Context, cellRange, value string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"values": [][]string{{value}}})
	if err != nil {
		return err
	}

	endpoint := c.valuesURL(cellRange, url.Values{"valueInputOption": []string{"RAW"}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewUpstreamFailure("feed unreachable", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewUpstreamFailure(
			fmt.Sprintf("feed update returned status %d", resp.StatusCode),
			fmt.Errorf("sheets values update: %s", strings.TrimSpace(string(payload))))
	}
	return nil
}

func (c *SheetsClient) valuesURL(valuesRange string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if c.cfg.APIKey != "" {
		query.Set("key", c.cfg.APIKey)
	}
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.SpreadsheetID),
		url.PathEscape(valuesRange))
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// columnLetter converts a zero-based column index to its A1 notation letters.
func columnLetter(index int) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return letters
}
