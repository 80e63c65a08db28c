package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeFeed(t *testing.T, dir string) string {
	t.Helper()
	feed := []map[string]interface{}{
		{"event_name": "taskCreated", "slot": 1, "signature": "sig1", "source_event_sequence": 0},
		{"event_name": "taskClaimed", "slot": 2, "signature": "sig2", "source_event_sequence": 0},
	}
	data, err := json.Marshal(feed)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "feed.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunBackfillThenStatusRoundTrip(t *testing.T) {
	dir := t.TempDir()
	feed := writeFeed(t, dir)
	storePath := filepath.Join(dir, "store.json")

	var out, errOut bytes.Buffer
	code := Run([]string{"replayspine", "backfill", "--store", storePath, "--feed", feed}, &out, &errOut)
	if code != 0 {
		t.Fatalf("backfill exit = %d, stderr = %s", code, errOut.String())
	}

	var resp struct {
		Status   string `json:"status"`
		Sections struct {
			Summary struct {
				Processed int `json:"processed"`
			} `json:"summary"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("parse backfill response: %v\n%s", err, out.String())
	}
	if resp.Status != "ok" {
		t.Fatalf("status = %q, want ok", resp.Status)
	}
	if resp.Sections.Summary.Processed != 2 {
		t.Fatalf("processed = %d, want 2", resp.Sections.Summary.Processed)
	}

	out.Reset()
	errOut.Reset()
	code = Run([]string{"replayspine", "status", "--store", storePath}, &out, &errOut)
	if code != 0 {
		t.Fatalf("status exit = %d, stderr = %s", code, errOut.String())
	}

	var statusResp struct {
		Sections struct {
			Store struct {
				Slot uint64 `json:"slot"`
			} `json:"store"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(out.Bytes(), &statusResp); err != nil {
		t.Fatalf("parse status response: %v\n%s", err, out.String())
	}
	if statusResp.Sections.Store.Slot != 2 {
		t.Fatalf("cursor slot = %d, want 2", statusResp.Sections.Store.Slot)
	}
}

func TestRunUnknownCommandReturnsUsageError(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run([]string{"replayspine", "bogus"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
}

func TestRunNoArgsReturnsUsageError(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run([]string{"replayspine"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
}
