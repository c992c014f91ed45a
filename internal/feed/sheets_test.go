package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/config"
)

func sheetsTestConfig(baseURL string) config.SheetsConfig {
	return config.SheetsConfig{
		BaseURL:           baseURL,
		SpreadsheetID:     "sheet-1",
		SheetName:         "Sheet1",
		Range:             "A1:H",
		APIKey:            "test-key",
		TimeoutSeconds:    5,
		RequestsPerSecond: 1000,
	}
}

func feedFixture() map[string]any {
	return map[string]any{
		"values": [][]string{
			{"Issue key", "Created", "Updated", "Reporter", "Assignee", "Assignee_mail_id", "Assignee_region", "Status"},
			{"NFLX-1", "2025-01-01 10:00:00", "2025-01-01 11:00:00", "Alex", "Sam", "sam@example.com", "EMEA", "Assigned"},
			{"NFLX-2", "2025-01-02 10:00:00", "2025-01-02 11:00:00", "Alex", "Kim", "kim@example.com", "APAC", "Closed"},
		},
	}
}

func TestSheetsClientFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v4/spreadsheets/sheet-1/values/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(feedFixture())
	}))
	defer server.Close()

	client := NewSheetsClient(sheetsTestConfig(server.URL), zap.NewNop())
	table, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(table.Header) != 8 {
		t.Errorf("header length = %d, want 8", len(table.Header))
	}
	if len(table.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(table.Rows))
	}

	mapping, err := table.ColumnMap()
	if err != nil {
		t.Fatalf("ColumnMap: %v", err)
	}
	if mapping[ColumnRequesterEmail] != 5 {
		t.Errorf("requester email column = %d, want 5", mapping[ColumnRequesterEmail])
	}
}

func TestSheetsClientFetchEmptySheet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"values": []}`))
	}))
	defer server.Close()

	client := NewSheetsClient(sheetsTestConfig(server.URL), zap.NewNop())
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for feed with no header row")
	}
}

func TestSheetsClientUpdateStatus(t *testing.T) {
	t.Parallel()

	var updatedRange string
	var updatedValue string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(feedFixture())
		case http.MethodPut:
			parts := strings.Split(r.URL.Path, "/")
			updatedRange = parts[len(parts)-1]
			var body struct {
				Values [][]string `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if len(body.Values) == 1 && len(body.Values[0]) == 1 {
				updatedValue = body.Values[0][0]
			}
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	client := NewSheetsClient(sheetsTestConfig(server.URL), zap.NewNop())
	if err := client.UpdateStatus(context.Background(), "NFLX-2", "Closed"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	// NFLX-2 is the second data row (sheet row 3); Status is column H.
	if updatedRange != "Sheet1!H3" {
		t.Errorf("updated range = %q, want Sheet1!H3", updatedRange)
	}
	if updatedValue != "Closed" {
		t.Errorf("updated value = %q, want Closed", updatedValue)
	}
}

func TestSheetsClientUpdateStatusRowMissing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(feedFixture())
	}))
	defer server.Close()

	client := NewSheetsClient(sheetsTestConfig(server.URL), zap.NewNop())
	err := client.UpdateStatus(context.Background(), "NFLX-404", "Closed")
	if err != ErrRowNotFound {
		t.Fatalf("err = %v, want ErrRowNotFound", err)
	}
}

func TestSheetsClientUpdateStatusBreakerOpensOnWriteFailures(t *testing.T) {
	t.Parallel()

	var puts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(feedFixture())
		case http.MethodPut:
			puts++
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewSheetsClient(sheetsTestConfig(server.URL), zap.NewNop())
	for i := 0; i < 5; i++ {
		if err := client.UpdateStatus(context.Background(), "NFLX-1", "Closed"); err == nil {
			t.Fatalf("update %d: expected upstream error", i+1)
		}
	}
	if puts != 5 {
		t.Fatalf("puts = %d, want 5", puts)
	}

	// The write circuit is open now: the next update fails fast without
	// another PUT, while fetches keep working on their own circuit.
	err := client.UpdateStatus(context.Background(), "NFLX-1", "Closed")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if puts != 5 {
		t.Errorf("puts = %d after open circuit, want 5", puts)
	}
	if _, err := client.Fetch(context.Background()); err != nil {
		t.Errorf("Fetch with open write circuit: %v", err)
	}
}

func TestColumnMapMissingColumn(t *testing.T) {
	t.Parallel()

	table := &Table{Header: []string{"Issue key", "Created", "Updated"}}
	_, err := table.ColumnMap()

	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingColumnError", err)
	}
	if missing.Column != ColumnManagerName {
		t.Errorf("missing column = %q, want %q", missing.Column, ColumnManagerName)
	}
}

func TestColumnLetter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{7, "H"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
	}
	for _, tc := range cases {
		if got := columnLetter(tc.index); got != tc.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}
