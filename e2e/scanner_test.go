package e2e

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

// Scenario 6: scanner drop. Seed one file under input, remove it from disk,
// run the scanner again, and expect the seed asset's asset_info to be gone
// (detail returns 404), since a seed asset with no surviving path is deleted.
func TestScannerDrop(t *testing.T) {
	env := newTestEnv(t)

	filePath := filepath.Join(env.inputDir, "dropped.bin")
	if err := os.WriteFile(filePath, []byte("will be removed"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if resp := postSeed(t, env); resp.StatusCode != http.StatusOK {
		t.Fatalf("seed status: got %d", resp.StatusCode)
	}

	listResp, listBody := getJSON(t, env.url("/api/assets?include_tags=input&limit=10"))
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("list status: got %d", listResp.StatusCode)
	}
	assets, _ := listBody["assets"].([]any)
	if len(assets) != 1 {
		t.Fatalf("expected one seeded asset, got %d: %v", len(assets), listBody)
	}
	before := assets[0].(map[string]any)
	id := before["id"].(string)

	if err := os.Remove(filePath); err != nil {
		t.Fatalf("os.Remove: %v", err)
	}

	if resp := postSeed(t, env); resp.StatusCode != http.StatusOK {
		t.Fatalf("second seed status: got %d", resp.StatusCode)
	}

	detailResp, err := http.Get(env.url("/api/assets/" + id))
	if err != nil {
		t.Fatalf("GET detail: %v", err)
	}
	defer detailResp.Body.Close()
	if detailResp.StatusCode != http.StatusNotFound {
		t.Errorf("expected the seed asset_info to be deleted after its only path vanished, got status %d", detailResp.StatusCode)
	}
}

func postSeed(t *testing.T, env *testEnv) *http.Response {
	t.Helper()
	resp, err := http.Post(env.url("/api/assets/seed"), "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("POST seed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}
