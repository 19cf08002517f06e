package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"wayfarer/internal/ratelimit"
	"wayfarer/pkg/ai"
	"wayfarer/pkg/domain"
	"wayfarer/pkg/storage"
	"wayfarer/pkg/store"
	"wayfarer/services/journal/internal/app"
)

type staticGenerator struct {
	content string
	tokens  int
}

func (s staticGenerator) GenerateText(context.Context, string, string, string) (ai.Result, error) {
	return ai.Result{Content: s.content, TokensUsed: s.tokens}, nil
}

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	dataStore := store.NewMemoryStore()
	appCore, err := app.New(app.Config{
		Store:      dataStore,
		Objects:    storage.NewMemoryObjectStore(),
		Dispatcher: ai.NewDispatcherFromGenerators(staticGenerator{content: "A fine trip.", tokens: 12}, nil),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	cfg.App = appCore
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, dataStore
}

func createAdventure(t *testing.T, ts *httptest.Server) domain.Adventure {
	t.Helper()
	body := []byte(`{"title":"Coastal Ride","location":"Portugal","stops":[{"name":"Porto"},{"name":"Nazare"}]}`)
	resp, err := http.Post(ts.URL+"/adventures", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create adventure: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create adventure status = %d, want 201", resp.StatusCode)
	}
	var adv domain.Adventure
	if err := json.NewDecoder(resp.Body).Decode(&adv); err != nil {
		t.Fatalf("decode adventure: %v", err)
	}
	return adv
}

func TestAdventureLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	adv := createAdventure(t, ts)
	if adv.StopCount != 2 {
		t.Fatalf("stopCount = %d, want 2", adv.StopCount)
	}

	resp, err := http.Get(ts.URL + "/adventures/" + adv.ID)
	if err != nil {
		t.Fatalf("get adventure: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get adventure status = %d, want 200", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/adventures/"+adv.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete adventure: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", delResp.StatusCode)
	}

	missing, err := http.Get(ts.URL + "/adventures/" + adv.ID)
	if err != nil {
		t.Fatalf("get deleted adventure: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted adventure status = %d, want 404", missing.StatusCode)
	}
}

func TestGenerateSummaryEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	adv := createAdventure(t, ts)

	resp, err := http.Post(ts.URL+"/adventures/"+adv.ID+"/ai/summary", "application/json", nil)
	if err != nil {
		t.Fatalf("generate summary: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d, want 200", resp.StatusCode)
	}
	var artifact domain.Artifact
	if err := json.NewDecoder(resp.Body).Decode(&artifact); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if artifact.Content != "A fine trip." || artifact.TokensUsed != 12 {
		t.Fatalf("unexpected artifact: %+v", artifact)
	}

	cached, err := http.Get(ts.URL + "/adventures/" + adv.ID + "/ai/summary")
	if err != nil {
		t.Fatalf("get cached: %v", err)
	}
	defer cached.Body.Close()
	if cached.StatusCode != http.StatusOK {
		t.Fatalf("cached status = %d, want 200", cached.StatusCode)
	}
}

func TestGenerateStoryRejectsUnknownStyle(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	adv := createAdventure(t, ts)

	resp, err := http.Post(ts.URL+"/adventures/"+adv.ID+"/ai/story", "application/json",
		strings.NewReader(`{"style":"sonnet"}`))
	if err != nil {
		t.Fatalf("generate story: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCachedArtifactMissReturns404(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	adv := createAdventure(t, ts)

	resp, err := http.Get(ts.URL + "/adventures/" + adv.ID + "/ai/story")
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAIConfigUpdateRequiresAdminToken(t *testing.T) {
	ts, dataStore := newTestServer(t, Config{AdminToken: "secret"})

	body := `{"provider":"vertex","vertexProject":"my-project"}`
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/ai/config", strings.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated put status = %d, want 401", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/ai/config", strings.NewReader(body))
	req.Header.Set("X-Admin-Token", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put config with token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authorized put status = %d, want 200", resp.StatusCode)
	}

	cfg, err := dataStore.GetAIConfig()
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cfg.Provider != "vertex" {
		t.Fatalf("provider = %q, want vertex", cfg.Provider)
	}
}

func TestAIStatusEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/ai/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	var status ai.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.OpenAI || status.Vertex {
		t.Fatalf("status = %+v, want openai only", status)
	}
}

func TestGenerationRateLimit(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(redisSrv.Addr(), "", "test:ratelimit", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	ts, _ := newTestServer(t, Config{Limiter: limiter})
	adv := createAdventure(t, ts)

	first, err := http.Post(ts.URL+"/adventures/"+adv.ID+"/ai/summary", "application/json", nil)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first generate status = %d, want 200", first.StatusCode)
	}

	second, err := http.Post(ts.URL+"/adventures/"+adv.ID+"/ai/summary", "application/json", nil)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second generate status = %d, want 429", second.StatusCode)
	}
}
