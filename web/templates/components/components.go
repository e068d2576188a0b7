package components

import (
	"context"
	"fmt"
	"io"

	"docchat/web/format"
	"docchat/web/types"

	"github.com/a-h/templ"
)

// write renders each part in order, stopping at the first error.
func write(ctx context.Context, w io.Writer, parts ...templ.Component) error {
	for _, p := range parts {
		if err := p.Render(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func text(s string) templ.Component {
	return templ.Raw(templ.EscapeString(s))
}

// UserMessage renders a question as plain text.
func UserMessage(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(ctx, w,
			templ.Raw(`<div class="message user-message"><div class="message-content">`),
			text(content),
			templ.Raw(`</div></div>`),
		)
	})
}

// AssistantMessage renders an answer through render and sanitizes the result.
func AssistantMessage(content string, render format.Renderer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(ctx, w,
			templ.Raw(`<div class="message assistant-message"><div class="message-content">`),
			templ.Raw(format.Sanitize(render(content))),
			templ.Raw(`</div></div>`),
		)
	})
}

// Messages renders a transcript in order.
func Messages(msgs []types.ChatMessage, render format.Renderer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div id="chatMessages" class="chat-messages">`); err != nil {
			return err
		}
		for _, msg := range msgs {
			var c templ.Component
			if msg.Role == types.RoleUser {
				c = UserMessage(msg.Content)
			} else {
				c = AssistantMessage(msg.Content, render)
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// Alert renders an error banner. An empty message renders nothing.
func Alert(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		return write(ctx, w,
			templ.Raw(`<div class="alert" role="alert">`),
			text(message),
			templ.Raw(`</div>`),
		)
	})
}

// UploadForm renders the document upload form.
func UploadForm() templ.Component {
	return templ.Raw(`<section id="uploadSection" class="upload-section">` +
		`<form method="post" action="/ui/upload" enctype="multipart/form-data">` +
		`<label for="fileInput">Upload a PDF, TXT, or MD file</label>` +
		`<input id="fileInput" type="file" name="file" accept=".pdf,.txt,.md" required>` +
		`<button type="submit">Upload</button>` +
		`</form></section>`)
}

// StoreList renders links to the open documents.
func StoreList(stores []types.StoreInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(stores) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<ul class="store-list">`); err != nil {
			return err
		}
		for _, s := range stores {
			href := fmt.Sprintf("/ui/chat/%s", s.StoreID)
			if err := write(ctx, w,
				templ.Raw(`<li><a href="`+templ.EscapeString(href)+`">`),
				text(s.Filename),
				templ.Raw(`</a></li>`),
			); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}

// ChatForm renders the question form for a store, preselecting model.
func ChatForm(storeID, model string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		action := templ.EscapeString("/ui/chat/" + storeID)
		return write(ctx, w,
			templ.Raw(`<form class="chat-form" method="post" action="`+action+`">`),
			templ.Raw(`<input type="text" name="model" placeholder="Model" value="`+templ.EscapeString(model)+`">`),
			templ.Raw(`<input type="text" name="question" placeholder="Ask a question about your document..." required autofocus>`),
			templ.Raw(`<button type="submit">Send</button></form>`),
			templ.Raw(`<form method="post" action="`+action+`/close">`),
			templ.Raw(`<button type="submit" class="close-btn">Close document</button></form>`),
		)
	})
}
