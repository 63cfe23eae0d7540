package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/lheh1167/slack-pair-bot/pkg/service/slack"
	goslack "github.com/slack-go/slack"
)

func testEntries() []*model.DirectoryEntry {
	return []*model.DirectoryEntry{
		{ID: "U1", Handle: "alice", RealName: "Alice Anderson", Email: "alice@co.com"},
		{ID: "U2", Handle: "bob", RealName: "Bob Brown", Email: "bob@co.com"},
		{ID: "U3", Handle: "carol", DisplayName: "Caz", RealName: "Carol Chen", Email: "carol@co.com"},
		{ID: "B1", Handle: "deploybot", IsAutomated: true},
	}
}

func testSnapshot() *model.DirectorySnapshot {
	return model.NewDirectorySnapshot(testEntries(), time.Now(), time.Minute)
}

func validatePairs(raw string) []model.ValidatedPair {
	return model.ValidatePairs(model.ParsePairLines(raw), testSnapshot())
}

type mockProvider struct {
	mu      sync.Mutex
	entries []*model.DirectoryEntry
	listErr error
	lookups int
}

func (m *mockProvider) ListUsers(ctx context.Context) ([]*model.DirectoryEntry, error) {
	return m.entries, m.listErr
}

func (m *mockProvider) LookupByEmail(ctx context.Context, email string) (*model.DirectoryEntry, error) {
	m.mu.Lock()
	m.lookups++
	m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	for _, e := range m.entries {
		if e.Email == email {
			return e, nil
		}
	}
	return nil, nil
}

// sentMessage is one intro captured by recordingMessenger
type sentMessage struct {
	conversation model.ConversationRef
	text         string
}

type recordingMessenger struct {
	mu       sync.Mutex
	opened   [][2]model.UserID
	sent     []sentMessage
	openErr  map[model.UserID]error // keyed by the first user of a pair
	postErr  error
	onOpened func()
}

func (m *recordingMessenger) OpenDirect(ctx context.Context, a, b model.UserID) (model.ConversationRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opened = append(m.opened, [2]model.UserID{a, b})
	if m.onOpened != nil {
		m.onOpened()
	}
	if err := m.openErr[a]; err != nil {
		return "", err
	}
	return model.ConversationRef("D-" + string(a) + "-" + string(b)), nil
}

func (m *recordingMessenger) Post(ctx context.Context, conversation model.ConversationRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postErr != nil {
		return m.postErr
	}
	m.sent = append(m.sent, sentMessage{conversation: conversation, text: text})
	return nil
}

type countingPolicy struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPolicy) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return nil
}

type postedResponse struct {
	url    string
	blocks []goslack.Block
	text   string
}

type postedMessage struct {
	channelID string
	blocks    []goslack.Block
	text      string
}

type mockSlackService struct {
	mu            sync.Mutex
	responses     []postedResponse
	messages      []postedMessage
	conversations [][]string
	views         []goslack.ModalViewRequest
	triggerIDs    []string
}

var _ slack.Service = &mockSlackService{}

func (m *mockSlackService) ListUsers(ctx context.Context) ([]*slack.User, error) {
	return nil, nil
}

func (m *mockSlackService) GetUserByEmail(ctx context.Context, email string) (*slack.User, error) {
	return nil, nil
}

func (m *mockSlackService) OpenConversation(ctx context.Context, userIDs ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations = append(m.conversations, userIDs)
	return "D" + userIDs[0], nil
}

func (m *mockSlackService) PostMessage(ctx context.Context, channelID string, blocks []goslack.Block, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, postedMessage{channelID: channelID, blocks: blocks, text: text})
	return "1700000000.000100", nil
}

func (m *mockSlackService) PostResponse(ctx context.Context, responseURL string, blocks []goslack.Block, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, postedResponse{url: responseURL, blocks: blocks, text: text})
	return nil
}

func (m *mockSlackService) OpenView(ctx context.Context, triggerID string, view goslack.ModalViewRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggerIDs = append(m.triggerIDs, triggerID)
	m.views = append(m.views, view)
	return nil
}
