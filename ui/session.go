package ui

// Message is one transcript entry as shown to the user. HTML is set for
// assistant messages only.
type Message struct {
	Role string
	Text string
	HTML string
}

// Session is the client state of one browser tab: the open document, the
// chosen model and the transcript.
type Session struct {
	StoreID       string
	FileName      string
	SelectedModel string
	Transcript    []Message
}

// HasDocument reports whether a document is open.
func (s Session) HasDocument() bool {
	return s.StoreID != ""
}

// Reset closes the document. The selected model is kept.
func (s *Session) Reset() {
	s.StoreID = ""
	s.FileName = ""
	s.Transcript = nil
}

func (s *Session) appendMessage(role, text, html string) Message {
	m := Message{Role: role, Text: text, HTML: html}
	s.Transcript = append(s.Transcript, m)
	return m
}

func (s Session) clone() Session {
	s.Transcript = append([]Message(nil), s.Transcript...)
	return s
}
