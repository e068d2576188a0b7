package pages

import (
	"context"
	"io"

	"docchat/web/format"
	"docchat/web/templates/components"
	"docchat/web/types"

	"github.com/a-h/templ"
)

func layout(title string, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head := `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">` +
			`<meta name="viewport" content="width=device-width, initial-scale=1">` +
			`<title>` + templ.EscapeString(title) + `</title>` +
			`<link rel="stylesheet" href="/static/style.css"></head><body><main>`
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		for _, c := range body {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// IndexPage is the upload page with the list of open documents.
func IndexPage(stores []types.StoreInfo, alert string) templ.Component {
	return layout("Document Chat",
		templ.Raw(`<h1>Document Chat</h1>`),
		components.Alert(alert),
		components.UploadForm(),
		components.StoreList(stores),
	)
}

// ChatPage shows the transcript of a document and the question form.
func ChatPage(rec types.StoreRecord, model string, render format.Renderer, alert string) templ.Component {
	return layout(rec.Filename+" - Document Chat",
		templ.Raw(`<h1 id="fileName">`+templ.EscapeString(rec.Filename)+`</h1>`),
		components.Alert(alert),
		components.Messages(rec.Messages, render),
		components.ChatForm(rec.ID, model),
	)
}
