package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xxxsen/common/logutil"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/ingest"
	"github.com/xxxsen/docchat/internal/member"
	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/ratelimit"
	"github.com/xxxsen/docchat/internal/report"
	"github.com/xxxsen/docchat/internal/retrieval"
	"github.com/xxxsen/docchat/internal/segment"
	"github.com/xxxsen/docchat/internal/session"
	"github.com/xxxsen/docchat/internal/source"
	"github.com/xxxsen/docchat/internal/transport"
)

// Action ids carried back from menu taps.
const (
	ActionGeneralChat  = "general_chat"
	ActionDocumentChat = "doc_chat"
	ActionBack         = "back"
	ActionHelp         = "help"
	ActionFeedback     = "feedback"
	actionDocPrefix    = "doc:"
)

const (
	msgWelcome         = "Hi! What would you like to do?"
	msgNotMember       = "This assistant is only available to members. Please contact the administrator to get access."
	msgGeneralChat     = "You are in general chat now. Ask me anything."
	msgPickDocument    = "Pick a document to chat with:"
	msgPickFromList    = "Please pick a document from the list below."
	msgNoDocuments     = "There are no documents available right now."
	msgListFailed      = "I could not load the document list. Please try again later."
	msgPreparing       = "Preparing the document, this may take a moment..."
	msgFeedbackPrompt  = "Please type your feedback and I will pass it on."
	msgFeedbackThanks  = "Thank you for the feedback!"
	msgUnsupportedDoc  = "That document format is not supported yet."
	msgEmptyDoc        = "That document has no readable text."
	msgSourceDown      = "The document storage is unreachable right now. Please try again later."
	msgPrepareFailed   = "Preparing the document failed. Please try again later."
	msgCooldownPattern = "Please wait %d seconds before asking your next question."
	msgHelpPattern     = "Here is how this assistant works:\n" +
		"- General chat: a free conversation with the model.\n" +
		"- Chat with a document: pick a document from the list; answers come only from that document, and picking a new document starts a fresh conversation.\n" +
		"- You can ask one question every %d seconds, and long answers arrive in several parts.\n" +
		"- Send /menu at any time to return to the main menu, or use the feedback option to tell us what to improve."
)

// Chat drives the per-user conversation state machine. It owns no transport:
// every call receives the Sender to answer through, so the same service backs
// any delivery channel.
type Chat struct {
	sessions   *session.Store
	cooldown   *ratelimit.Cooldown
	checker    member.Checker
	src        source.Source
	indexer    *ingest.Indexer
	engine     *retrieval.Engine
	orch       *ai.Orchestrator
	emitter    *segment.Emitter
	reporter   report.Reporter
	historyMax int
}

type ChatOptions struct {
	Sessions   *session.Store
	Cooldown   *ratelimit.Cooldown
	Checker    member.Checker
	Source     source.Source
	Indexer    *ingest.Indexer
	Engine     *retrieval.Engine
	Orch       *ai.Orchestrator
	Emitter    *segment.Emitter
	Reporter   report.Reporter
	HistoryMax int
}

func NewChat(opts ChatOptions) *Chat {
	if opts.Reporter == nil {
		opts.Reporter = report.NewNopReporter()
	}
	if opts.HistoryMax <= 0 {
		opts.HistoryMax = 10
	}
	return &Chat{
		sessions:   opts.Sessions,
		cooldown:   opts.Cooldown,
		checker:    opts.Checker,
		src:        opts.Source,
		indexer:    opts.Indexer,
		engine:     opts.Engine,
		orch:       opts.Orch,
		emitter:    opts.Emitter,
		reporter:   opts.Reporter,
		historyMax: opts.HistoryMax,
	}
}

// HandleMessage processes one free-text message from the user.
func (c *Chat) HandleMessage(ctx context.Context, userID string, text string, sender transport.Sender) error {
	ok, err := c.gate(ctx, userID, sender)
	if err != nil || !ok {
		return err
	}
	text = strings.TrimSpace(text)
	switch text {
	case "/start", "/menu":
		return c.toMainMenu(ctx, userID, sender)
	case "/help":
		return c.sendHelp(ctx, userID, sender)
	case "/feedback":
		return c.toFeedback(ctx, userID, sender)
	}
	sess, err := c.ensureSession(ctx, userID)
	if err != nil {
		return err
	}
	switch sess.State {
	case model.StateGeneralChat:
		return c.answerGeneral(ctx, userID, sess, text, sender)
	case model.StateDocumentChat:
		return c.answerDocument(ctx, userID, sess, text, sender)
	case model.StateChoosingDocument:
		return sender.SendMenu(ctx, userID, msgPickFromList, documentMenu(sess.AvailableDocuments))
	case model.StateAwaitingFeedback:
		return c.captureFeedback(ctx, userID, text, sender)
	default:
		return sender.SendMenu(ctx, userID, msgWelcome, mainMenu())
	}
}

// HandleAction processes one menu tap.
func (c *Chat) HandleAction(ctx context.Context, userID string, action string, sender transport.Sender) error {
	ok, err := c.gate(ctx, userID, sender)
	if err != nil || !ok {
		return err
	}
	sess, err := c.ensureSession(ctx, userID)
	if err != nil {
		return err
	}
	switch {
	case action == ActionGeneralChat:
		if err := c.sessions.Upsert(userID, func(s *model.UserSession) {
			s.State = model.StateGeneralChat
		}); err != nil {
			return err
		}
		return sender.SendText(ctx, userID, msgGeneralChat)
	case action == ActionDocumentChat:
		return c.toDocumentList(ctx, userID, sender)
	case action == ActionBack:
		return c.toMainMenu(ctx, userID, sender)
	case action == ActionHelp:
		return c.sendHelp(ctx, userID, sender)
	case action == ActionFeedback:
		return c.toFeedback(ctx, userID, sender)
	case strings.HasPrefix(action, actionDocPrefix):
		return c.selectDocument(ctx, userID, sess, strings.TrimPrefix(action, actionDocPrefix), sender)
	default:
		return sender.SendMenu(ctx, userID, msgWelcome, mainMenu())
	}
}

func (c *Chat) gate(ctx context.Context, userID string, sender transport.Sender) (bool, error) {
	if c.checker == nil {
		return true, nil
	}
	allowed, err := c.checker.Allowed(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("membership check: %w", err)
	}
	if !allowed {
		return false, sender.SendText(ctx, userID, msgNotMember)
	}
	return true, nil
}

func (c *Chat) ensureSession(ctx context.Context, userID string) (model.UserSession, error) {
	sess, ok := c.sessions.Get(userID)
	if ok {
		return sess, nil
	}
	if err := c.sessions.Upsert(userID, func(s *model.UserSession) {}); err != nil {
		return model.UserSession{}, err
	}
	c.reporter.Report(ctx, report.EventSessionCreated, zap.String("user_id", userID))
	sess, _ = c.sessions.Get(userID)
	return sess, nil
}

func (c *Chat) toMainMenu(ctx context.Context, userID string, sender transport.Sender) error {
	if _, err := c.ensureSession(ctx, userID); err != nil {
		return err
	}
	if err := c.sessions.Upsert(userID, func(s *model.UserSession) {
		s.State = model.StateMainMenu
	}); err != nil {
		return err
	}
	return sender.SendMenu(ctx, userID, msgWelcome, mainMenu())
}

// sendHelp explains the flows and limits without changing the session state,
// so the user continues wherever they were.
func (c *Chat) sendHelp(ctx context.Context, userID string, sender transport.Sender) error {
	cooldownSec := int(c.cooldown.Window().Seconds())
	return sender.SendMenu(ctx, userID,
		fmt.Sprintf(msgHelpPattern, cooldownSec),
		[]transport.MenuItem{{ID: ActionBack, Label: "Back to menu"}},
	)
}

func (c *Chat) toFeedback(ctx context.Context, userID string, sender transport.Sender) error {
	if _, err := c.ensureSession(ctx, userID); err != nil {
		return err
	}
	if err := c.sessions.Upsert(userID, func(s *model.UserSession) {
		s.State = model.StateAwaitingFeedback
	}); err != nil {
		return err
	}
	return sender.SendText(ctx, userID, msgFeedbackPrompt)
}

func (c *Chat) captureFeedback(ctx context.Context, userID string, text string, sender transport.Sender) error {
	c.reporter.Report(ctx, report.EventFeedback,
		zap.String("user_id", userID),
		zap.String("feedback", text),
	)
	if err := c.sessions.Upsert(userID, func(s *model.UserSession) {
		s.State = model.StateMainMenu
	}); err != nil {
		return err
	}
	if err := sender.SendText(ctx, userID, msgFeedbackThanks); err != nil {
		return err
	}
	return sender.SendMenu(ctx, userID, msgWelcome, mainMenu())
}

func (c *Chat) toDocumentList(ctx context.Context, userID string, sender transport.Sender) error {
	docs, err := c.src.List(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("list documents failed", zap.Error(err))
		return sender.SendText(ctx, userID, msgListFailed)
	}
	if len(docs) == 0 {
		if err := sender.SendText(ctx, userID, msgNoDocuments); err != nil {
			return err
		}
		return sender.SendMenu(ctx, userID, msgWelcome, mainMenu())
	}
	if err := c.sessions.Upsert(userID, func(s *model.UserSession) {
		s.State = model.StateChoosingDocument
		s.AvailableDocuments = docs
	}); err != nil {
		return err
	}
	return sender.SendMenu(ctx, userID, msgPickDocument, documentMenu(docs))
}

// selectDocument prepares the chosen document and, only on success, enters
// document chat with a fresh history.
func (c *Chat) selectDocument(ctx context.Context, userID string, sess model.UserSession, docID string, sender transport.Sender) error {
	doc, ok := sess.ResolveDocument(docID)
	if !ok {
		return sender.SendMenu(ctx, userID, msgPickFromList, documentMenu(sess.AvailableDocuments))
	}
	if err := sender.SendText(ctx, userID, msgPreparing); err != nil {
		return err
	}
	if _, err := c.indexer.EnsureIndexed(ctx, doc); err != nil {
		logutil.GetLogger(ctx).Error("prepare document failed",
			zap.String("document_id", doc.ID), zap.Error(err))
		return sender.SendText(ctx, userID, ingestFailureMessage(err))
	}
	if err := c.sessions.Upsert(userID, func(s *model.UserSession) {
		s.State = model.StateDocumentChat
		s.SelectedDocument = &doc
		s.History = nil
	}); err != nil {
		return err
	}
	return sender.SendMenu(ctx, userID,
		fmt.Sprintf("You can now ask questions about %s.", doc.Name),
		[]transport.MenuItem{
			{ID: ActionDocumentChat, Label: "Back to document list"},
			{ID: ActionBack, Label: "Back to menu"},
		},
	)
}

func (c *Chat) answerGeneral(ctx context.Context, userID string, sess model.UserSession, text string, sender transport.Sender) error {
	ok, err := c.acquireCooldown(ctx, userID, sess, sender)
	if err != nil || !ok {
		return err
	}
	answer := c.orch.Answer(ctx, text, sess.History, "")
	if err := c.appendExchange(userID, text, answer); err != nil {
		return err
	}
	return c.emit(ctx, userID, answer, sender)
}

func (c *Chat) answerDocument(ctx context.Context, userID string, sess model.UserSession, text string, sender transport.Sender) error {
	if sess.SelectedDocument == nil {
		return c.toMainMenu(ctx, userID, sender)
	}
	ok, err := c.acquireCooldown(ctx, userID, sess, sender)
	if err != nil || !ok {
		return err
	}
	result, err := c.engine.Retrieve(ctx, sess.SelectedDocument.ID, text)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoRelevantContext) {
			return sender.SendText(ctx, userID, ai.NotInSourceSentinel)
		}
		logutil.GetLogger(ctx).Error("retrieve failed",
			zap.String("document_id", sess.SelectedDocument.ID), zap.Error(err))
		return sender.SendText(ctx, userID, ai.MsgDegraded)
	}
	if result.Cached() {
		return c.emit(ctx, userID, result.CachedAnswer, sender)
	}
	answer := c.orch.Answer(ctx, text, sess.History, result.Context)
	if err := c.appendExchange(userID, text, answer); err != nil {
		return err
	}
	return c.emit(ctx, userID, answer, sender)
}

// acquireCooldown gates a generative query. On acceptance the session's
// last-query time moves to now, before any model call.
func (c *Chat) acquireCooldown(ctx context.Context, userID string, sess model.UserSession, sender transport.Sender) (bool, error) {
	var persisted time.Time
	if sess.LastQueryAt > 0 {
		persisted = time.Unix(sess.LastQueryAt, 0)
	}
	accepted, remaining, at := c.cooldown.Acquire(userID, persisted)
	if !accepted {
		c.reporter.Report(ctx, report.EventCooldownHit,
			zap.String("user_id", userID),
			zap.Int("remaining", remaining),
		)
		return false, sender.SendText(ctx, userID, fmt.Sprintf(msgCooldownPattern, remaining))
	}
	if err := c.sessions.Upsert(userID, func(s *model.UserSession) {
		s.LastQueryAt = at.Unix()
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Chat) appendExchange(userID string, question string, answer string) error {
	return c.sessions.Upsert(userID, func(s *model.UserSession) {
		s.AppendTurns(c.historyMax,
			model.Turn{Role: model.RoleUser, Text: question},
			model.Turn{Role: model.RoleModel, Text: answer},
		)
	})
}

func (c *Chat) emit(ctx context.Context, userID string, text string, sender transport.Sender) error {
	return c.emitter.Emit(ctx, text, func(ctx context.Context, part string) error {
		return sender.SendText(ctx, userID, part)
	})
}

func mainMenu() []transport.MenuItem {
	return []transport.MenuItem{
		{ID: ActionGeneralChat, Label: "General chat"},
		{ID: ActionDocumentChat, Label: "Chat with a document"},
		{ID: ActionHelp, Label: "Help"},
		{ID: ActionFeedback, Label: "Leave feedback"},
	}
}

func documentMenu(docs []model.DocumentRef) []transport.MenuItem {
	items := make([]transport.MenuItem, 0, len(docs)+1)
	for _, doc := range docs {
		items = append(items, transport.MenuItem{ID: actionDocPrefix + doc.ID, Label: doc.Name})
	}
	items = append(items, transport.MenuItem{ID: ActionBack, Label: "Back to menu"})
	return items
}

func ingestFailureMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnsupportedFormat):
		return msgUnsupportedDoc
	case errors.Is(err, apperrors.ErrEmptyDocument):
		return msgEmptyDoc
	case errors.Is(err, apperrors.ErrSourceUnavailable):
		return msgSourceDown
	default:
		return msgPrepareFailed
	}
}

// SessionCount exposes the number of known sessions for the ops API.
func (c *Chat) SessionCount() int {
	return c.sessions.Count()
}
