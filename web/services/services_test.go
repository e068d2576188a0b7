package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"docchat/config"
	"docchat/database"
	apperrors "docchat/errors"
	"docchat/web/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLLM struct {
	mu      sync.Mutex
	answer  string
	err     error
	models  []types.Model
	prompts []string
	used    []string
	lists   int
}

func (f *fakeLLM) Chat(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.used = append(f.used, model)
	return f.answer, f.err
}

func (f *fakeLLM) ListModels(ctx context.Context) ([]types.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.models, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		UploadDir:         t.TempDir(),
		AllowedExtensions: []string{".pdf", ".txt", ".md"},
		DefaultModel:      config.DefaultModel,
		MaxContentLength:  10000,
		MaxUploadSizeMB:   1,
	}
}

func newStore(t *testing.T) database.Store {
	t.Helper()
	store, err := database.NewMemoryStore(16, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestDocumentServiceExtractText(t *testing.T) {
	ds := NewDocumentService(100, zap.NewNop())
	dir := t.TempDir()

	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\nhello"), 0o644))
	text, err := ds.ExtractText(path, ".md")
	require.NoError(t, err)
	assert.Equal(t, "# Notes\nhello", text)

	_, err = ds.ExtractText(path, ".exe")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFileType)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe, 0x00}, 0o644))
	_, err = ds.ExtractText(bad, ".txt")
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = ds.ExtractText(filepath.Join(dir, "missing.pdf"), ".pdf")
	assert.Error(t, err)
}

func TestDocumentServiceTruncate(t *testing.T) {
	ds := NewDocumentService(40, zap.NewNop())

	short := "Short enough."
	assert.Equal(t, short, ds.Truncate(short))

	out := ds.Truncate("First sentence here. Second sentence is longer than the cut.")
	assert.True(t, strings.HasPrefix(out, "First sentence here."))
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.NotContains(t, out, "Second")

	word := strings.Repeat("x", 60)
	assert.Equal(t, strings.Repeat("x", 40)+"...", ds.Truncate(word))

	unlimited := NewDocumentService(0, zap.NewNop())
	assert.Equal(t, word, unlimited.Truncate(word))
}

func TestUploadServiceProcessUpload(t *testing.T) {
	cfg := testConfig(t)
	store := newStore(t)
	us := NewUploadService(store, NewDocumentService(cfg.MaxContentLength, zap.NewNop()), cfg, zap.NewNop())
	ctx := context.Background()

	resp, err := us.ProcessUpload(ctx, "../My Notes.TXT", 11, strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "My Notes.TXT", resp.Filename)
	assert.NotEmpty(t, resp.StoreID)

	rec, err := store.GetStore(ctx, resp.StoreID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", rec.Content)
	assert.Equal(t, filepath.Join(cfg.UploadDir, resp.StoreID+".txt"), rec.FilePath)
	assert.FileExists(t, rec.FilePath)
}

func TestUploadServiceRejects(t *testing.T) {
	cfg := testConfig(t)
	us := NewUploadService(newStore(t), NewDocumentService(100, zap.NewNop()), cfg, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		size     int64
		body     string
		check    func(error) bool
	}{
		{"bad_extension", "tool.exe", 3, "abc", apperrors.IsInvalidInput},
		{"no_extension", "README", 3, "abc", apperrors.IsInvalidInput},
		{"declared_too_large", "big.txt", 2 * 1024 * 1024, "abc", apperrors.IsInvalidInput},
		{"actual_too_large", "big.txt", 1, strings.Repeat("a", 1024*1024+1), apperrors.IsInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := us.ProcessUpload(ctx, tt.filename, tt.size, strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}

	entries, err := os.ReadDir(cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChatServiceAsk(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveStore(ctx, types.StoreRecord{
		ID: "s1", Filename: "doc.txt", Content: "The sky is blue.", CreatedAt: time.Now(), LastActive: time.Now(),
	}))

	llm := &fakeLLM{answer: "It is **blue**."}
	cs := NewChatService(store, llm, NewDocumentService(100, zap.NewNop()), config.DefaultModel, zap.NewNop())

	resp, err := cs.Ask(ctx, types.ChatRequest{Question: "  What colour?  ", StoreID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, types.ChatResponse{Success: true, Answer: "It is **blue**.", Filename: "doc.txt"}, resp)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "The sky is blue.")
	assert.Contains(t, llm.prompts[0], "What colour?")
	assert.Equal(t, []string{config.DefaultModel}, llm.used)

	rec, err := cs.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, rec.Messages, 2)
	assert.Equal(t, types.RoleUser, rec.Messages[0].Role)
	assert.Equal(t, "What colour?", rec.Messages[0].Content)
	assert.Equal(t, types.RoleAssistant, rec.Messages[1].Role)

	_, err = cs.Ask(ctx, types.ChatRequest{Question: "x", StoreID: "s1", Model: "other/model"})
	require.NoError(t, err)
	assert.Equal(t, "other/model", llm.used[1])
}

func TestChatServiceErrors(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveStore(ctx, types.StoreRecord{ID: "s1", Filename: "doc.txt"}))

	llm := &fakeLLM{err: apperrors.WrapError(apperrors.ErrLLMCommunication, "boom")}
	cs := NewChatService(store, llm, NewDocumentService(100, zap.NewNop()), config.DefaultModel, zap.NewNop())

	_, err := cs.Ask(ctx, types.ChatRequest{Question: "   ", StoreID: "s1"})
	assert.True(t, apperrors.IsInvalidInput(err))

	_, err = cs.Ask(ctx, types.ChatRequest{Question: "q", StoreID: "missing"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = cs.Ask(ctx, types.ChatRequest{Question: "q", StoreID: "s1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLLMCommunication)
	assert.True(t, strings.HasPrefix(err.Error(), "error generating response"))

	rec, err := store.GetStore(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)
}

func TestStoreServiceDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	path := filepath.Join(t.TempDir(), "s1.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, store.SaveStore(ctx, types.StoreRecord{ID: "s1", Filename: "a.txt", FilePath: path}))

	ss := NewStoreService(store, zap.NewNop())
	stores, err := ss.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stores, 1)

	require.NoError(t, ss.Delete(ctx, "s1"))
	assert.NoFileExists(t, path)
	assert.True(t, apperrors.IsNotFound(ss.Delete(ctx, "s1")))
}

func TestModelServiceCaches(t *testing.T) {
	llm := &fakeLLM{models: []types.Model{{ID: "a/b", Name: "B"}}}
	ms := NewModelService(llm, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		models, err := ms.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, llm.models, models)
	}
	assert.Equal(t, 1, llm.lists)

	uncached := NewModelService(llm, 0, zap.NewNop())
	_, _ = uncached.List(context.Background())
	_, _ = uncached.List(context.Background())
	assert.Equal(t, 3, llm.lists)
}

func TestModelServiceDoesNotCacheErrors(t *testing.T) {
	llm := &fakeLLM{err: errors.New("down")}
	ms := NewModelService(llm, time.Minute, zap.NewNop())

	_, err := ms.List(context.Background())
	require.Error(t, err)

	llm.err = nil
	llm.models = nil
	models, err := ms.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
	assert.NotNil(t, models)
	assert.Equal(t, 2, llm.lists)
}
