package ui

import "docchat/web/types"

// DropdownNotice is a non-selectable row shown in the model dropdown.
type DropdownNotice string

const (
	NoticeLoading   DropdownNotice = "Loading models..."
	NoticeFailed    DropdownNotice = "Failed to load models"
	NoticeError     DropdownNotice = "Error loading models"
	NoticeNoResults DropdownNotice = "No models found"
)

// View renders controller state. Implementations must be safe for use from
// the debounce goroutine as well as the caller's.
type View interface {
	// Model dropdown
	ShowModels(models []types.Model)
	ShowNotice(notice DropdownNotice)
	SetDropdownVisible(visible bool)
	SetSearchText(text string)
	SetRefreshEnabled(enabled bool)

	// Dialogs
	Alert(message string)
	Confirm(message string) bool
	ShowLoading(text string)
	HideLoading()

	// Sections
	ShowChat(fileName string)
	ShowUpload()

	// Transcript
	AppendMessage(msg Message)
	ClearMessages()
	SetInputEnabled(enabled bool)
}
