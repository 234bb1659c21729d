package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hearthside/keeper/assistant"
	"github.com/hearthside/keeper/memory"
	"github.com/hearthside/keeper/memory/embedder/mock"
	"github.com/hearthside/keeper/memory/index/chromem"
	"github.com/hearthside/keeper/schedule"
	"github.com/hearthside/keeper/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	index, err := chromem.New("")
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	store, err := memory.NewStore(memory.Config{
		Index:        index,
		Embedder:     mock.New(),
		MetadataPath: filepath.Join(t.TempDir(), "memories.json"),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	engine := assistant.New(store, schedule.NewMemory())
	ts := httptest.NewServer(server.New(engine))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestVoiceCommandRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	status, out := postJSON(t, ts.URL+"/api/ai/process_voice_command", map[string]string{
		"text": "remind me to drink water at 2:00 pm", "uid": "u1", "session_id": "s1",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if out["intent"] != "task_creation" || out["is_confirmation"] != true {
		t.Fatalf("response = %v", out)
	}

	status, out = postJSON(t, ts.URL+"/api/ai/process_voice_command", map[string]string{
		"text": "yes", "uid": "u1", "session_id": "s1",
	})
	if status != http.StatusOK || out["intent"] != "task_saved" {
		t.Fatalf("confirmation response = %v (status %d)", out, status)
	}
}

func TestRememberAndRecallEndpoints(t *testing.T) {
	ts := newTestServer(t)

	status, out := postJSON(t, ts.URL+"/api/ai/remember", map[string]string{
		"text": "I took my medication at breakfast", "uid": "u1",
	})
	if status != http.StatusOK || out["status"] != "ok" {
		t.Fatalf("remember response = %v (status %d)", out, status)
	}

	status, out = postJSON(t, ts.URL+"/api/ai/recall", map[string]string{
		"text": "I took my medication at breakfast", "uid": "u1",
	})
	if status != http.StatusOK {
		t.Fatalf("recall status = %d", status)
	}
	reply, _ := out["reply"].(string)
	if !strings.Contains(reply, "I took my medication at breakfast") {
		t.Errorf("recall reply %q does not quote the memory", reply)
	}
}

func TestConfirmEndpoint(t *testing.T) {
	ts := newTestServer(t)

	postJSON(t, ts.URL+"/api/ai/process_voice_command", map[string]string{
		"text": "remind me to stretch at 9:00 am", "uid": "u1", "session_id": "s1",
	})
	status, out := postJSON(t, ts.URL+"/api/ai/confirm", map[string]any{
		"session_id": "s1", "accept": false,
	})
	if status != http.StatusOK || out["intent"] != "task_discarded" {
		t.Fatalf("confirm response = %v (status %d)", out, status)
	}
}

func TestBadRequestBody(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/ai/process_voice_command", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestVoiceRequestContextNotRetained(t *testing.T) {
	// Requests must finish inside the HTTP request lifetime.
	ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, _ := json.Marshal(map[string]string{"text": "hello", "uid": "u1", "session_id": "s1"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		ts.URL+"/api/ai/process_voice_command", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
