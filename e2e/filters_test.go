package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"
)

func getJSON(t *testing.T, rawURL string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var decoded map[string]any
	if len(b) > 0 {
		if err := json.Unmarshal(b, &decoded); err != nil {
			t.Fatalf("decode %s response %q: %v", rawURL, b, err)
		}
	}
	return resp, decoded
}

// Scenario 4: tag filter.
func TestTagFilter(t *testing.T) {
	env := newTestEnv(t)

	multipartUpload(t, env.url("/api/assets"), map[string]string{"tags": "input", "name": "bare.bin"}, []byte("aaa"))
	multipartUpload(t, env.url("/api/assets"), map[string]string{"tags": "input,a", "name": "tagged.bin"}, []byte("bbb"))
	multipartUpload(t, env.url("/api/assets"), map[string]string{"tags": "output", "name": "out.bin"}, []byte("ccc"))

	resp, body := getJSON(t, env.url("/api/assets?include_tags=input&exclude_tags=a"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	assets, _ := body["assets"].([]any)
	if len(assets) != 1 {
		t.Fatalf("expected exactly one asset, got %d: %v", len(assets), assets)
	}
	first := assets[0].(map[string]any)
	if first["name"] != "bare.bin" {
		t.Errorf("expected the bare-input asset, got %v", first["name"])
	}
}

// Scenario 5: metadata filter.
func TestMetadataFilter(t *testing.T) {
	env := newTestEnv(t)

	multipartUpload(t, env.url("/api/assets"), map[string]string{
		"tags":          "input",
		"name":          "alice.bin",
		"user_metadata": `{"author":"alice","version":2}`,
	}, []byte("111"))
	multipartUpload(t, env.url("/api/assets"), map[string]string{
		"tags":          "input",
		"name":          "bob.bin",
		"user_metadata": `{"author":"bob","version":2}`,
	}, []byte("222"))

	_, onlyAlice := getJSON(t, env.url("/api/assets?metadata_filter="+urlEncodeJSON(t, map[string]any{"author": "alice", "version": 2})))
	if assets, _ := onlyAlice["assets"].([]any); len(assets) != 1 {
		t.Fatalf("author=alice,version=2: expected 1 row, got %d: %v", len(assets), onlyAlice)
	}

	_, both := getJSON(t, env.url("/api/assets?metadata_filter="+urlEncodeJSON(t, map[string]any{"author": []string{"alice", "bob"}, "version": 2})))
	if assets, _ := both["assets"].([]any); len(assets) != 2 {
		t.Fatalf("author in [alice,bob]: expected 2 rows, got %d: %v", len(assets), both)
	}
}

func urlEncodeJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return url.QueryEscape(string(b))
}
