package model

type SessionState string

const (
	StateMainMenu         SessionState = "main_menu"
	StateGeneralChat      SessionState = "general_chat"
	StateChoosingDocument SessionState = "choosing_document"
	StateDocumentChat     SessionState = "document_chat"
	StateAwaitingFeedback SessionState = "awaiting_feedback"
)

func (s SessionState) Valid() bool {
	switch s {
	case StateMainMenu, StateGeneralChat, StateChoosingDocument, StateDocumentChat, StateAwaitingFeedback:
		return true
	}
	return false
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// UserSession is the durable per-chat state. DocumentChat implies
// SelectedDocument is set; transitions that enter it must assign both.
type UserSession struct {
	ID                 string        `json:"id"`
	State              SessionState  `json:"state"`
	History            []Turn        `json:"history,omitempty"`
	SelectedDocument   *DocumentRef  `json:"selected_document,omitempty"`
	LastQueryAt        int64         `json:"last_query_at,omitempty"`
	AvailableDocuments []DocumentRef `json:"available_documents,omitempty"`
	CreatedAt          int64         `json:"created_at,omitempty"`
}

// AppendTurns adds turns and keeps only the most recent maxTurns entries.
func (s *UserSession) AppendTurns(maxTurns int, turns ...Turn) {
	s.History = append(s.History, turns...)
	if maxTurns > 0 && len(s.History) > maxTurns {
		s.History = s.History[len(s.History)-maxTurns:]
	}
}

func (s *UserSession) ResolveDocument(id string) (DocumentRef, bool) {
	for _, doc := range s.AvailableDocuments {
		if doc.ID == id {
			return doc, true
		}
	}
	return DocumentRef{}, false
}
