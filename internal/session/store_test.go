package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/model"
)

func TestUpsertCreatesDefaultSession(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)

	_, ok := st.Get("u1")
	require.False(t, ok)

	var seen model.SessionState
	require.NoError(t, st.Upsert("u1", func(s *model.UserSession) {
		seen = s.State
	}))
	require.Equal(t, model.StateMainMenu, seen)

	sess, ok := st.Get("u1")
	require.True(t, ok)
	require.Equal(t, model.StateMainMenu, sess.State)
	require.Empty(t, sess.History)
}

func TestUpsertPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	st, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, st.Upsert("u1", func(s *model.UserSession) {
		s.State = model.StateDocumentChat
		s.SelectedDocument = &model.DocumentRef{ID: "doc-1", Name: "guide.pdf"}
		s.AppendTurns(10, model.Turn{Role: model.RoleUser, Text: "hi"})
	}))

	st2, err := Open(path)
	require.NoError(t, err)
	sess, ok := st2.Get("u1")
	require.True(t, ok)
	require.Equal(t, model.StateDocumentChat, sess.State)
	require.NotNil(t, sess.SelectedDocument)
	require.Equal(t, "doc-1", sess.SelectedDocument.ID)
	require.Len(t, sess.History, 1)
}

func TestHistoryBoundedToMaxTurns(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)

	// 6 exchanges of 2 turns each; only the 5 most recent survive.
	for i := 0; i < 6; i++ {
		require.NoError(t, st.Upsert("u1", func(s *model.UserSession) {
			s.AppendTurns(10,
				model.Turn{Role: model.RoleUser, Text: "q"},
				model.Turn{Role: model.RoleModel, Text: "a"},
			)
		}))
	}
	sess, _ := st.Get("u1")
	require.Len(t, sess.History, 10)
}

func TestGetReturnsCopy(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)
	require.NoError(t, st.Upsert("u1", func(s *model.UserSession) {
		s.AppendTurns(10, model.Turn{Role: model.RoleUser, Text: "original"})
	}))

	sess, _ := st.Get("u1")
	sess.History[0].Text = "mutated"

	again, _ := st.Get("u1")
	require.Equal(t, "original", again.History[0].Text)
}

func TestInvalidStateResetToMainMenu(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)
	require.NoError(t, st.Upsert("u1", func(s *model.UserSession) {
		s.State = model.SessionState("bogus")
	}))
	sess, _ := st.Get("u1")
	require.Equal(t, model.StateMainMenu, sess.State)
}
