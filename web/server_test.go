package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"docchat/config"
	"docchat/database"
	"docchat/web/format"
	"docchat/web/services"
	"docchat/web/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLLM struct {
	answer string
	err    error
	models []types.Model
}

func (s *stubLLM) Chat(ctx context.Context, model, prompt string) (string, error) {
	return s.answer, s.err
}

func (s *stubLLM) ListModels(ctx context.Context) ([]types.Model, error) {
	return s.models, s.err
}

type testEnv struct {
	server *Server
	store  database.Store
	cfg    *config.Config
	llm    *stubLLM
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		UploadDir:               t.TempDir(),
		AllowedExtensions:       []string{".pdf", ".txt", ".md"},
		DefaultModel:            config.DefaultModel,
		MaxContentLength:        10000,
		MaxUploadSizeMB:         1,
		RateLimitMessagesPerMin: 600,
		RateLimitFilesPerHour:   100,
		RateLimitBurstSize:      50,
	}
	logger := zap.NewNop()
	store, err := database.NewMemoryStore(16, logger)
	require.NoError(t, err)

	llm := &stubLLM{
		answer: "## Result\n**yes**",
		models: []types.Model{{ID: config.DefaultModel, Name: "GPT OSS 20B"}},
	}
	docs := services.NewDocumentService(cfg.MaxContentLength, logger)
	stores := services.NewStoreService(store, logger)
	svc := Services{
		Uploads: services.NewUploadService(store, docs, cfg, logger),
		Chat:    services.NewChatService(store, llm, docs, cfg.DefaultModel, logger),
		Stores:  stores,
		Models:  services.NewModelService(llm, 0, logger),
	}

	server := NewServer(cfg, svc, format.FormatText, logger)
	t.Cleanup(server.limiter.Stop)
	return &testEnv{server: server, store: store, cfg: cfg, llm: llm}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, v interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestUploadChatDeleteFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "/upload", "notes.md", "# Notes\nThe answer is yes."))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	upload := decode[types.UploadResponse](t, rec)
	assert.True(t, upload.Success)
	assert.Equal(t, "notes.md", upload.Filename)
	require.NotEmpty(t, upload.StoreID)

	rec = env.do(jsonRequest(t, http.MethodPost, "/chat", types.ChatRequest{Question: "Is it?", StoreID: upload.StoreID}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	chat := decode[types.ChatResponse](t, rec)
	assert.Equal(t, "## Result\n**yes**", chat.Answer)
	assert.Equal(t, "notes.md", chat.Filename)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/stores", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	stores := decode[types.StoresResponse](t, rec)
	assert.Equal(t, []types.StoreInfo{{StoreID: upload.StoreID, Filename: "notes.md"}}, stores.Stores)

	stored, err := env.store.GetStore(context.Background(), upload.StoreID)
	require.NoError(t, err)
	assert.FileExists(t, stored.FilePath)

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/store/"+upload.StoreID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[types.DeleteResponse](t, rec).Success)
	assert.NoFileExists(t, stored.FilePath)

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/store/"+upload.StoreID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Store not found", decode[types.ErrorResponse](t, rec).Detail)
}

func TestUploadRejectsBadExtension(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "/upload", "tool.exe", "MZ"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only PDF, TXT, and MD files are allowed", decode[types.ErrorResponse](t, rec).Detail)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	entries, err := os.ReadDir(env.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChatErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonRequest(t, http.MethodPost, "/chat", types.ChatRequest{Question: "q", StoreID: "missing"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Document not found. Please upload a document first.", decode[types.ErrorResponse](t, rec).Detail)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, env.do(req).Code)

	require.NoError(t, env.store.SaveStore(context.Background(), types.StoreRecord{ID: "s1", Filename: "a.txt", Content: "x"}))
	rec = env.do(jsonRequest(t, http.MethodPost, "/chat", types.ChatRequest{Question: "  ", StoreID: "s1"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.llm.err = errors.New("upstream down")
	rec = env.do(jsonRequest(t, http.MethodPost, "/chat", types.ChatRequest{Question: "q", StoreID: "s1"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[types.ErrorResponse](t, rec).Detail, "error generating response")
}

func TestModelsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, env.llm.models, decode[types.ModelsResponse](t, rec).Data)

	env.llm.err = errors.New("API key not configured")
	rec = env.do(httptest.NewRequest(http.MethodGet, "/models", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "API key not configured", decode[types.ErrorResponse](t, rec).Detail)
}

func TestUploadRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.server.limiter.Stop()
	env.cfg.RateLimitFilesPerHour = 1
	env.server = NewServer(env.cfg, env.server.svc, format.FormatText, zap.NewNop())
	t.Cleanup(env.server.limiter.Stop)

	assert.Equal(t, http.StatusOK, env.do(uploadRequest(t, "/upload", "a.txt", "a")).Code)
	rec := env.do(uploadRequest(t, "/upload", "b.txt", "b"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/ui/upload"`)

	rec = env.do(uploadRequest(t, "/ui/upload", "doc.txt", "hello"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/ui/chat/"))
	storeID := strings.TrimPrefix(location, "/ui/chat/")

	form := url.Values{"question": {"What?"}}
	req := httptest.NewRequest(http.MethodPost, location, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = env.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, location, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "What?")
	assert.Contains(t, body, "<h3>Result</h3>")
	assert.Contains(t, body, "<strong>yes</strong>")

	rec = env.do(httptest.NewRequest(http.MethodPost, location+"/close", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, err := env.store.GetStore(context.Background(), storeID)
	assert.Error(t, err)

	rec = env.do(httptest.NewRequest(http.MethodGet, location, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(uploadRequest(t, "/ui/upload", "bad.exe", "x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error uploading file: Only PDF, TXT, and MD files are allowed")
}

func TestCleanupStaleStores(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	old := time.Now().Add(-48 * time.Hour)
	path := env.cfg.UploadDir + "/old.txt"
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, env.store.SaveStore(ctx, types.StoreRecord{ID: "old", FilePath: path, CreatedAt: old, LastActive: old}))
	require.NoError(t, env.store.SaveStore(ctx, types.StoreRecord{ID: "fresh", CreatedAt: time.Now(), LastActive: time.Now()}))

	cs := NewCleanupService(env.store, env.server.svc.Stores, zap.NewNop())
	deleted, err := cs.CleanupStaleStores(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.NoFileExists(t, path)

	stores, err := env.store.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "fresh", stores[0].StoreID)
}

func TestStartStoreCleanupDisabledReturns(t *testing.T) {
	done := make(chan struct{})
	go func() {
		StartStoreCleanup(context.Background(), &config.Config{}, nil, zap.NewNop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not return when disabled")
	}
}
