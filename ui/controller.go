// Package ui holds the client-side logic of the document chat page: session
// state, the model picker, uploads, chat and closing a document. Rendering is
// delegated to a View; user actions arrive as events on a Bus.
package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"docchat/client"
	"docchat/utils"
	"docchat/web/format"
	"docchat/web/types"

	"go.uber.org/zap"
)

// User-facing texts.
const (
	MsgBadFileType  = "Please upload a PDF, TXT, or MD file."
	MsgUploading    = "Uploading and processing document..."
	MsgUploadError  = "Error uploading file: "
	MsgSelectModel  = "Please select an AI model"
	MsgChatError    = "Sorry, I encountered an error: "
	MsgConfirmClose = "Are you sure you want to close this document? The chat history will be lost."
	MsgUnknownModel = "Unknown model: "
)

// AllowedExtensions are the upload types accepted before any network call.
var AllowedExtensions = []string{".pdf", ".txt", ".md"}

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrNoModel         = errors.New("no model selected")
	ErrUnknownModel    = errors.New("unknown model")
	ErrBusy            = errors.New("a message is already being sent")
)

// API is the server surface the controller needs. *client.Client
// implements it.
type API interface {
	ListModels(ctx context.Context) ([]types.Model, error)
	Upload(ctx context.Context, filename string, r io.Reader) (*types.UploadResponse, error)
	Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
	DeleteStore(ctx context.Context, id string) error
}

type Controller struct {
	api    API
	view   View
	render format.Renderer
	logger *zap.Logger

	fuzzy    bool
	debounce *Debouncer

	mu      sync.Mutex
	session Session
	catalog *Catalog
	sending bool
}

type Option func(*Controller)

// WithRenderer sets the renderer used for assistant answers.
func WithRenderer(r format.Renderer) Option {
	return func(c *Controller) { c.render = r }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithFuzzySearch ranks search results by fuzzy score.
func WithFuzzySearch(enabled bool) Option {
	return func(c *Controller) { c.fuzzy = enabled }
}

// WithSearchDelay overrides SearchDelay.
func WithSearchDelay(d time.Duration) Option {
	return func(c *Controller) { c.debounce = NewDebouncer(d) }
}

func NewController(api API, view View, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		view:     view,
		render:   format.FormatText,
		logger:   zap.NewNop(),
		debounce: NewDebouncer(SearchDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register subscribes the controller to every event it handles.
func (c *Controller) Register(bus *Bus) {
	bus.Subscribe(EventRefreshModels, func(ctx context.Context, ev Event) error {
		return c.LoadModels(ctx)
	})
	bus.Subscribe(EventSearchInput, func(ctx context.Context, ev Event) error {
		c.SearchInput(ev.Text)
		return nil
	})
	bus.Subscribe(EventSearchFocus, func(ctx context.Context, ev Event) error {
		c.SearchFocus()
		return nil
	})
	bus.Subscribe(EventSelectModel, func(ctx context.Context, ev Event) error {
		return c.SelectModel(ev.Text)
	})
	bus.Subscribe(EventFileSelected, func(ctx context.Context, ev Event) error {
		return c.HandleFile(ctx, ev.Name, ev.File)
	})
	bus.Subscribe(EventSendMessage, func(ctx context.Context, ev Event) error {
		return c.SendMessage(ctx, ev.Text)
	})
	bus.Subscribe(EventCloseDocument, func(ctx context.Context, ev Event) error {
		c.CloseDocument(ctx)
		return nil
	})
}

// Session returns a copy of the current state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Close cancels a pending search.
func (c *Controller) Close() {
	c.debounce.Cancel()
}

// LoadModels fetches the model list and replaces the catalog. The default
// model is selected when it is available and no listed model is selected.
func (c *Controller) LoadModels(ctx context.Context) error {
	c.view.ShowNotice(NoticeLoading)
	c.view.SetRefreshEnabled(false)
	defer c.view.SetRefreshEnabled(true)

	models, err := c.api.ListModels(ctx)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("Failed to load models", zap.Error(err))
			c.view.ShowNotice(NoticeFailed)
		} else {
			c.logger.Error("Error loading models", zap.Error(err))
			c.view.ShowNotice(NoticeError)
		}
		return err
	}

	catalog := NewCatalog(models, c.fuzzy)

	c.mu.Lock()
	c.catalog = catalog
	_, stillListed := catalog.Find(c.session.SelectedModel)
	c.mu.Unlock()

	c.showModels(catalog.Initial())

	if !stillListed {
		if def, ok := catalog.Find(DefaultModelID); ok {
			c.selectModel(def)
		}
	}

	c.logger.Debug("Models loaded", zap.Int("count", catalog.Len()))
	return nil
}

// SearchInput schedules Search for query. Only the last query of a burst
// of inputs is searched.
func (c *Controller) SearchInput(query string) {
	c.debounce.Trigger(func() { c.Search(query) })
}

// Search filters the cached models immediately and opens the dropdown.
func (c *Controller) Search(query string) {
	c.mu.Lock()
	catalog := c.catalog
	c.mu.Unlock()

	c.showModels(catalog.Filter(query))
	c.view.SetDropdownVisible(true)
}

// SearchFocus opens the dropdown when models are cached.
func (c *Controller) SearchFocus() {
	c.mu.Lock()
	n := c.catalog.Len()
	c.mu.Unlock()
	if n > 0 {
		c.view.SetDropdownVisible(true)
	}
}

// SelectModel picks a model by id. Before any model list has loaded, any id
// is accepted as is.
func (c *Controller) SelectModel(id string) error {
	id = strings.TrimSpace(id)

	c.mu.Lock()
	catalog := c.catalog
	c.mu.Unlock()

	if m, ok := catalog.Find(id); ok {
		c.selectModel(m)
		c.view.SetDropdownVisible(false)
		return nil
	}
	if id != "" && catalog.Len() == 0 {
		c.selectModel(types.Model{ID: id, Name: id})
		c.view.SetDropdownVisible(false)
		return nil
	}

	c.view.Alert(MsgUnknownModel + id)
	return ErrUnknownModel
}

func (c *Controller) selectModel(m types.Model) {
	c.mu.Lock()
	c.session.SelectedModel = m.ID
	c.mu.Unlock()

	if m.Name == m.ID {
		c.view.SetSearchText(m.ID)
	} else {
		c.view.SetSearchText(Label(m))
	}
}

// HandleFile validates and uploads a document, then switches to chat.
func (c *Controller) HandleFile(ctx context.Context, name string, r io.Reader) error {
	if !utils.HasAllowedExtension(name, AllowedExtensions) {
		c.view.Alert(MsgBadFileType)
		return ErrUnsupportedFile
	}

	c.view.ShowLoading(MsgUploading)
	defer c.view.HideLoading()

	resp, err := c.api.Upload(ctx, name, r)
	if err != nil {
		c.logger.Error("Upload error", zap.String("file", name), zap.Error(err))
		c.view.Alert(MsgUploadError + err.Error())
		return err
	}

	c.mu.Lock()
	c.session.StoreID = resp.StoreID
	c.session.FileName = resp.Filename
	c.session.Transcript = nil
	c.mu.Unlock()

	c.view.ShowChat(resp.Filename)
	return nil
}

// SendMessage asks a question about the open document. Blank text and a
// missing document are ignored.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	question := strings.TrimSpace(text)

	c.mu.Lock()
	storeID, model := c.session.StoreID, c.session.SelectedModel
	if question == "" || storeID == "" {
		c.mu.Unlock()
		return nil
	}
	if model == "" {
		c.mu.Unlock()
		c.view.Alert(MsgSelectModel)
		return ErrNoModel
	}
	if c.sending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.sending = true
	user := c.session.appendMessage(types.RoleUser, question, "")
	c.mu.Unlock()

	c.view.SetInputEnabled(false)
	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
		c.view.SetInputEnabled(true)
	}()
	c.view.AppendMessage(user)

	resp, err := c.api.Chat(ctx, types.ChatRequest{
		Question: question,
		StoreID:  storeID,
		Model:    model,
	})

	var answer string
	if err != nil {
		c.logger.Error("Chat error", zap.String("store_id", storeID), zap.Error(err))
		answer = MsgChatError + err.Error()
	} else {
		answer = resp.Answer
	}

	c.mu.Lock()
	msg := c.session.appendMessage(types.RoleAssistant, answer, c.render(answer))
	c.mu.Unlock()
	c.view.AppendMessage(msg)

	return err
}

// CloseDocument deletes the open store after confirmation and returns to
// the upload section. Delete failures are only logged.
func (c *Controller) CloseDocument(ctx context.Context) {
	if !c.view.Confirm(MsgConfirmClose) {
		return
	}

	c.mu.Lock()
	storeID := c.session.StoreID
	c.mu.Unlock()

	if storeID != "" {
		if err := c.api.DeleteStore(ctx, storeID); err != nil {
			c.logger.Error("Error deleting store", zap.String("store_id", storeID), zap.Error(err))
		}
	}

	c.mu.Lock()
	c.session.Reset()
	c.mu.Unlock()

	c.view.ClearMessages()
	c.view.ShowUpload()
}

func (c *Controller) showModels(models []types.Model) {
	if len(models) == 0 {
		c.view.ShowNotice(NoticeNoResults)
		return
	}
	c.view.ShowModels(models)
}
