package types

import (
	"time"
)

// Message roles used in transcripts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Model is an entry of the /models listing.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModelsResponse mirrors the upstream model list envelope.
type ModelsResponse struct {
	Data []Model `json:"data"`
}

// ChatMessage represents a single message in a store transcript.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreRecord is one uploaded document together with its extracted text.
type StoreRecord struct {
	ID         string
	Filename   string
	FilePath   string
	Content    string
	Messages   []ChatMessage
	CreatedAt  time.Time
	LastActive time.Time
}

// StoreInfo is the public view of a StoreRecord.
type StoreInfo struct {
	StoreID  string `json:"store_id"`
	Filename string `json:"filename"`
}

type UploadResponse struct {
	Success  bool   `json:"success"`
	StoreID  string `json:"store_id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

type ChatRequest struct {
	Question string `json:"question" form:"question"`
	StoreID  string `json:"store_id" form:"store_id"`
	Model    string `json:"model" form:"model"`
}

type ChatResponse struct {
	Success  bool   `json:"success"`
	Answer   string `json:"answer"`
	Filename string `json:"filename"`
}

type StoresResponse struct {
	Stores []StoreInfo `json:"stores"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}
