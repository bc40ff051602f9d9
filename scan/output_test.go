package scan

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/grantelam/webscan/classify"
)

func TestWriteJSON(t *testing.T) {
	results := []Result{
		{URL: "https://example.com/", Status: StatusSuccess, StatusCode: 200, Links: []string{"https://example.com/about"}, Depth: 0},
		{URL: "https://example.com/missing", Status: StatusError, StatusCode: 404, ErrorKind: classify.KindClient, Depth: 1},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, results); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded []Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("decoded length = %d, want 2", len(decoded))
	}
	if !strings.Contains(buf.String(), "https://example.com/about") {
		t.Error("URLs should not be HTML-escaped")
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []Result{}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte("[]\n")) {
		t.Errorf("got %q, want \"[]\\n\"", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	results := []Result{
		{URL: "https://example.com/", Status: StatusSuccess, StatusCode: 200, Depth: 0, Timestamp: "2026-01-01T00:00:00Z"},
		{URL: "https://example.com/missing", Status: StatusError, StatusCode: 404, ErrorKind: classify.KindClient, Depth: 1, Timestamp: "2026-01-01T00:00:01Z"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3 (header + 2 rows)", len(records))
	}
	if records[1][1] != "success" || records[1][2] != "200" {
		t.Errorf("row 1 = %v, want status=success status_code=200", records[1])
	}
	if records[2][1] != "error" || records[2][3] != "client" {
		t.Errorf("row 2 = %v, want status=error error_type=client", records[2])
	}
}

func TestWriteCSVEmptyWithHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Result{}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1 (header only)", len(records))
	}
}
