// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/storage"
	"github.com/jeranaias/gemchat/internal/store"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// TurnSender produces one assistant reply for a conversation's contents.
// *gemini.Client satisfies this; tests substitute a fake.
type TurnSender interface {
	SendTurn(ctx context.Context, model string, contents []gemini.Content, callback gemini.StreamCallback) (string, error)
}

// Listener is notified with a state snapshot after every dispatch.
type Listener func(state *store.ChatState)

// ErrEmptyInput is returned when SendMessage is called with blank text.
var ErrEmptyInput = errors.New("message is empty")

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator owns the chat state and coordinates turns. All methods are
// safe for concurrent use.
type Orchestrator struct {
	client TurnSender
	store  *storage.ChatStore // nil disables persistence
	cancel *cancelManager

	// SystemPrompt frames every turn; set before first use.
	SystemPrompt string

	mu    sync.RWMutex
	state *store.ChatState

	// turnLocks serializes turns per conversation
	turnMu    sync.Mutex
	turnLocks map[string]*sync.Mutex

	listenerMu sync.Mutex
	listeners  []Listener
}

// New creates an orchestrator with a fresh single-conversation state.
// chatStore may be nil to run without persistence.
func New(client TurnSender, chatStore *storage.ChatStore) *Orchestrator {
	return &Orchestrator{
		client:       client,
		store:        chatStore,
		cancel:       newCancelManager(),
		SystemPrompt: gemini.DefaultSystemPrompt,
		state:        store.NewChatState(),
		turnLocks:    make(map[string]*sync.Mutex),
	}
}

// Restore loads persisted conversations into the state, keeping the fresh
// default state when nothing was persisted.
func (o *Orchestrator) Restore() error {
	if o.store == nil {
		return nil
	}

	conversations, currentID, err := o.store.LoadConversations()
	if err != nil {
		return err
	}
	if len(conversations) == 0 {
		return nil
	}

	o.mu.Lock()
	o.state.Conversations = conversations
	o.state.CurrentID = currentID
	if o.state.ConversationByID(currentID) == nil {
		o.state.CurrentID = conversations[0].ID
	}
	o.state.Messages = o.state.Current().Messages
	o.mu.Unlock()

	o.notify()
	return nil
}

// State returns the current state snapshot. The returned value must be
// treated as read-only; transitions never mutate it in place.
func (o *Orchestrator) State() *store.ChatState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Subscribe registers a listener called after every state change.
func (o *Orchestrator) Subscribe(fn Listener) {
	o.listenerMu.Lock()
	o.listeners = append(o.listeners, fn)
	o.listenerMu.Unlock()
}

// Dispatch applies an event to the state and persists the result.
func (o *Orchestrator) Dispatch(event store.Event) *store.ChatState {
	o.mu.Lock()
	next := store.Transition(o.state, event)
	changed := next != o.state
	o.state = next
	o.mu.Unlock()

	if changed {
		o.persist()
		o.notify()
	}
	return next
}

func (o *Orchestrator) notify() {
	state := o.State()
	o.listenerMu.Lock()
	listeners := make([]Listener, len(o.listeners))
	copy(listeners, o.listeners)
	o.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// persist writes the conversation set. On a stale-state conflict the
// on-disk set is reloaded and merged with ours before retrying, so a
// concurrent writer's conversations survive instead of being overwritten.
func (o *Orchestrator) persist() {
	if o.store == nil {
		return
	}

	state := o.State()
	err := o.store.SaveConversations(state.Conversations, state.CurrentID)
	if !errors.Is(err, storage.ErrStaleState) {
		return
	}

	onDisk, _, reloadErr := o.store.LoadConversations()
	if reloadErr != nil {
		return
	}

	// Adopt the merge into our own state too, otherwise the next save
	// would clobber the other writer's conversations all over again
	o.mu.Lock()
	next := *o.state
	next.Conversations = mergeConversations(onDisk, next.Conversations)
	if current := next.ConversationByID(next.CurrentID); current != nil {
		next.Messages = current.Messages
	}
	o.state = &next
	merged, currentID := next.Conversations, next.CurrentID
	o.mu.Unlock()

	o.store.SaveConversations(merged, currentID)
}

// mergeConversations unions two conversation sets by ID, keeping the more
// recently updated copy when both writers have one. Ordering follows ours;
// conversations only the other writer has are appended after.
func mergeConversations(theirs, ours []*model.Conversation) []*model.Conversation {
	inOurs := make(map[string]bool, len(ours))
	byID := make(map[string]*model.Conversation, len(theirs))
	for _, conv := range theirs {
		byID[conv.ID] = conv
	}

	merged := make([]*model.Conversation, 0, len(ours)+len(theirs))
	for _, conv := range ours {
		inOurs[conv.ID] = true
		if other, ok := byID[conv.ID]; ok && other.LastUpdatedAt.After(conv.LastUpdatedAt) {
			merged = append(merged, other)
			continue
		}
		merged = append(merged, conv)
	}
	for _, conv := range theirs {
		if !inOurs[conv.ID] {
			merged = append(merged, conv)
		}
	}
	return merged
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

// SendMessage runs one conversation turn with the given user text.
// It blocks until the assistant reply (or failure) has been applied.
// onDelta, when non-nil, receives streaming text fragments as they arrive.
func (o *Orchestrator) SendMessage(ctx context.Context, text string, onDelta func(string)) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	conversationID := o.State().CurrentID
	lock := o.turnLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	// The conversation may have been deleted while waiting for the lock
	if o.State().ConversationByID(conversationID) == nil {
		return nil
	}

	userMsg := model.NewUserMessage(text)
	placeholder := model.NewPlaceholderMessage()
	o.Dispatch(store.AppendMessage{Message: userMsg})
	o.Dispatch(store.AppendMessage{Message: placeholder})
	o.Dispatch(store.SetProcessing{IsProcessing: true})
	defer o.Dispatch(store.SetProcessing{IsProcessing: false})

	ctx = o.cancel.Register(ctx, conversationID)
	defer o.cancel.Release(conversationID)

	state := o.State()
	conv := state.ConversationByID(conversationID)
	contents := gemini.BuildContents(o.SystemPrompt, conv.Transcript())

	var callback gemini.StreamCallback
	if onDelta != nil {
		callback = func(chunk gemini.StreamChunk) {
			if chunk.Content != "" {
				onDelta(chunk.Content)
			}
		}
	}

	reply, err := o.client.SendTurn(ctx, state.Model, contents, callback)
	switch {
	case err == nil:
		o.Dispatch(store.ReviseMessageContent{ID: placeholder.ID, Content: reply})
		o.Dispatch(store.SetMessageLoading{ID: placeholder.ID, IsLoading: false})
		return nil

	case gemini.IsCancelled(err):
		// A cancelled turn leaves no error bubble, just no reply
		o.Dispatch(store.SetMessageLoading{ID: placeholder.ID, IsLoading: false})
		return err

	default:
		o.Dispatch(store.ReviseMessageContent{ID: placeholder.ID, Content: errorText(err)})
		o.Dispatch(store.SetMessageLoading{ID: placeholder.ID, IsLoading: false})
		o.Dispatch(store.SetMessageError{ID: placeholder.ID, IsError: true})
		return err
	}
}

// CancelTurn aborts the in-flight turn for the active conversation.
// Returns whether a turn was cancelled.
func (o *Orchestrator) CancelTurn() bool {
	return o.cancel.Cancel(o.State().CurrentID)
}

// Shutdown cancels all in-flight turns and closes persistence.
func (o *Orchestrator) Shutdown() error {
	o.cancel.CancelAll()
	if o.store == nil {
		return nil
	}
	return o.store.Close()
}

// turnLock returns the per-conversation mutex, creating it on first use.
func (o *Orchestrator) turnLock(conversationID string) *sync.Mutex {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	lock, ok := o.turnLocks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		o.turnLocks[conversationID] = lock
	}
	return lock
}

// errorText formats a turn failure for display in the transcript.
func errorText(err error) string {
	switch {
	case gemini.IsNotConfigured(err):
		return "No API key configured. Set one with /key or the GEMINI_API_KEY environment variable."
	case gemini.IsTimeout(err):
		return "The request timed out. Check your connection and try again."
	default:
		return "Something went wrong: " + err.Error()
	}
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// NewConversation creates a conversation and makes it active.
func (o *Orchestrator) NewConversation() *model.Conversation {
	conv := model.NewConversation()
	o.Dispatch(store.CreateConversation{Conversation: conv})
	return conv
}

// SelectConversation switches the active conversation.
func (o *Orchestrator) SelectConversation(id string) error {
	if o.State().ConversationByID(id) == nil {
		return storage.ErrConversationNotFound
	}
	o.Dispatch(store.SelectConversation{ID: id})
	return nil
}

// RenameConversation sets a conversation's title.
func (o *Orchestrator) RenameConversation(id, title string) error {
	if o.State().ConversationByID(id) == nil {
		return storage.ErrConversationNotFound
	}
	o.Dispatch(store.RenameConversation{ID: id, Title: title})
	return nil
}

// ClearConversation resets a conversation to its welcome state.
func (o *Orchestrator) ClearConversation(id string) error {
	if o.State().ConversationByID(id) == nil {
		return storage.ErrConversationNotFound
	}
	o.cancel.Cancel(id)
	o.Dispatch(store.ResetConversation{ID: id})
	return nil
}

// DeleteConversation removes a conversation. Deleting the last conversation
// leaves a fresh one in its place.
func (o *Orchestrator) DeleteConversation(id string) error {
	if o.State().ConversationByID(id) == nil {
		return storage.ErrConversationNotFound
	}
	o.cancel.Cancel(id)
	o.Dispatch(store.DeleteConversation{ID: id})
	return nil
}

// =============================================================================
// SETTINGS OPERATIONS
// =============================================================================

// SetAPIKey updates the key in state and on the client when it is a
// *gemini.Client.
func (o *Orchestrator) SetAPIKey(key string) {
	o.Dispatch(store.SetCredentials{APIKey: key})
	if client, ok := o.client.(*gemini.Client); ok {
		client.SetAPIKey(key)
	}
	o.persistSettings()
}

// SetModel updates the model in state and on the client.
func (o *Orchestrator) SetModel(name string) {
	o.Dispatch(store.SetModel{Model: name})
	if client, ok := o.client.(*gemini.Client); ok {
		client.SetModel(name)
	}
	o.persistSettings()
}

// SetEndpoint updates the API base URL in state.
func (o *Orchestrator) SetEndpoint(apiURL string) {
	o.Dispatch(store.SetEndpoint{APIURL: apiURL})
	o.persistSettings()
}

func (o *Orchestrator) persistSettings() {
	if o.store == nil {
		return
	}
	state := o.State()
	o.store.SaveSettings(&storage.StoredSettings{
		APIKey: state.APIKey,
		APIURL: state.APIURL,
		Model:  state.Model,
	})
}
