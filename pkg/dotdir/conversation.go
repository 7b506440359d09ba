package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	conversationFile = "conversation.json"
)

// ErrConversationExists is returned when saving a conversation id while a
// different one is already stored.
var ErrConversationExists = errors.New("a different conversation id is already stored")

// ConversationState is the persisted conversation the assistant continues.
type ConversationState struct {
	// ConversationID is the server-assigned conversation id.
	ConversationID string `json:"conversationId"`

	// UpdatedAt is when the id was stored.
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoadConversationState loads the state from a target .jobpilot/conversation.json.
// Returns nil, nil if no conversation is stored.
func (m *Manager) LoadConversationState(overrideDir string) (*ConversationState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, conversationFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading conversation state: %w", err)
	}

	state := &ConversationState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing conversation state: %w", err)
	}

	return state, nil
}

// LoadConversationID returns the stored conversation id, or "" if none is
// stored.
func (m *Manager) LoadConversationID(overrideDir string) (string, error) {
	state, err := m.LoadConversationState(overrideDir)
	if err != nil || state == nil {
		return "", err
	}
	return state.ConversationID, nil
}

// SaveConversationID stores id unless a conversation is already stored. The
// first id written wins: saving the stored id again is a no-op and saving a
// different one returns ErrConversationExists without touching the file.
func (m *Manager) SaveConversationID(id, overrideDir string) error {
	if id == "" {
		return errors.New("cannot save empty conversation id")
	}

	current, err := m.LoadConversationID(overrideDir)
	if err != nil {
		return err
	}

	switch current {
	case "":
	case id:
		return nil
	default:
		return ErrConversationExists
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(&ConversationState{
		ConversationID: id,
		UpdatedAt:      time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling conversation state: %w", err)
	}

	// Linked into place so readers never see a partial file and only one
	// of several racing writers succeeds.
	tmp, err := os.CreateTemp(dir, conversationFile+".*")
	if err != nil {
		return fmt.Errorf("writing conversation state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing conversation state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing conversation state: %w", err)
	}

	if err := os.Link(tmp.Name(), filepath.Join(dir, conversationFile)); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("writing conversation state: %w", err)
		}

		winner, lerr := m.LoadConversationID(overrideDir)
		if lerr != nil {
			return lerr
		}
		if winner != id {
			return ErrConversationExists
		}
	}

	return nil
}

// ClearConversation removes the conversation state file so the next chat
// starts a new conversation.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearConversation(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, conversationFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing conversation state: %w", err)
	}

	return nil
}

// ConversationStore binds a Manager to one directory. It satisfies
// session.ConversationStore.
type ConversationStore struct {
	manager *Manager
	dir     string
}

// NewConversationStore returns a store over the conversation file in the
// directory resolved from overrideDir.
func NewConversationStore(m *Manager, overrideDir string) *ConversationStore {
	return &ConversationStore{manager: m, dir: overrideDir}
}

func (s *ConversationStore) LoadConversationID() (string, error) {
	return s.manager.LoadConversationID(s.dir)
}

func (s *ConversationStore) SaveConversationID(id string) error {
	return s.manager.SaveConversationID(id, s.dir)
}

func (s *ConversationStore) ClearConversationID() error {
	return s.manager.ClearConversation(s.dir)
}
