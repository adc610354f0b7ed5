package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
)

type fakeSheets struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
	status int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	f.paths = append(f.paths, r.URL.Path+"?"+r.URL.RawQuery)
	f.bodies = append(f.bodies, body)

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Notifications!A2:C2","updatedRows":1}}`))
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "Notifications"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestDeliverAppendsRow(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	if err := c.Deliver(context.Background(), "Reminder", "A is owed ₹50.00"); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(fake.paths) != 1 {
		t.Fatalf("expected one request, got %d", len(fake.paths))
	}
	p := fake.paths[0]
	if !strings.Contains(p, "/spreadsheets/sheet-1/values/") || !strings.Contains(p, ":append") {
		t.Fatalf("unexpected path %q", p)
	}
	if !strings.Contains(p, "valueInputOption=RAW") || !strings.Contains(p, "insertDataOption=INSERT_ROWS") {
		t.Fatalf("missing query options in %q", p)
	}

	values, ok := fake.bodies[0]["values"].([]any)
	if !ok || len(values) != 1 {
		t.Fatalf("unexpected body %v", fake.bodies[0])
	}
	row := values[0].([]any)
	if row[0] != "2024-03-01T12:00:00Z" || row[1] != "Reminder" || row[2] != "A is owed ₹50.00" {
		t.Fatalf("row = %v", row)
	}
}

func TestDeliverPropagatesAPIError(t *testing.T) {
	fake := &fakeSheets{status: http.StatusForbidden}
	c := newTestClient(t, fake)
	err := c.Deliver(context.Background(), "Reminder", "B owes ₹1.00")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "append to sheet Notifications") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{SheetName: "N"}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if _, err := New(ctx, Config{SpreadsheetID: "x"}, nil); err == nil {
		t.Fatal("expected error for missing sheet name")
	}
	_, err := New(ctx, Config{SpreadsheetID: "x", SheetName: "N"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := loadCredentials(Config{ServiceAccountJSON: `{"inline":true}`, ServiceAccountFile: file})
	if err != nil || string(b) != `{"inline":true}` {
		t.Fatalf("inline json should win, got %q %v", b, err)
	}
	b, err = loadCredentials(Config{ServiceAccountFile: file})
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("file credentials = %q %v", b, err)
	}
	if _, err := loadCredentials(Config{ServiceAccountFile: "/does/not/exist.json"}); err == nil {
		t.Fatal("expected read error")
	}
}
