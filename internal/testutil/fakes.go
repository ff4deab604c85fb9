package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/mail"
	"github.com/newsroom-api/server/internal/mq"
	"github.com/newsroom-api/server/types"
	"github.com/stretchr/testify/require"
)

// ErrSendFailed is what a failing Mailer returns.
var ErrSendFailed = errors.New("smtp unavailable")

// Mailer records every message. Set Fail to simulate an outage and Queue
// to behave like a broker-backed sender.
type Mailer struct {
	mu    sync.Mutex
	Sent  []mail.Message
	Fail  bool
	Queue bool
}

func (m *Mailer) Send(_ context.Context, msg mail.Message) (mail.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return mail.Receipt{}, ErrSendFailed
	}
	m.Sent = append(m.Sent, msg)
	return mail.Receipt{Queued: m.Queue, ID: fmt.Sprintf("m-%d", len(m.Sent))}, nil
}

// Last returns the most recent message, failing the test if none was sent.
func (m *Mailer) Last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.Sent, "no mail sent")
	return m.Sent[len(m.Sent)-1]
}

// Broker is an in-process mq.Backend. Subscribe replays what has been
// published so far and returns.
type Broker struct {
	mu       sync.Mutex
	messages map[string][]mq.Message
}

func NewBroker() *Broker {
	return &Broker{messages: map[string][]mq.Message{}}
}

func (b *Broker) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := fmt.Sprintf("%s-%d", channel, len(b.messages[channel])+1)
	b.messages[channel] = append(b.messages[channel], mq.Message{ID: id, Data: data, Attributes: attrs})
	return id, nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	b.mu.Lock()
	pending := b.messages[channel]
	b.messages[channel] = nil
	b.mu.Unlock()

	for _, msg := range pending {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broker) Close() error { return nil }

// Pending reports how many messages wait on channel.
func (b *Broker) Pending(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages[channel])
}

// Objects is an in-memory services.ObjectStore.
type Objects struct {
	mu    sync.Mutex
	Items map[string][]byte
	Types map[string]string
}

func NewObjects() *Objects {
	return &Objects{Items: map[string][]byte{}, Types: map[string]string{}}
}

func (o *Objects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Items[key] = data
	o.Types[key] = contentType
	return nil
}

func (o *Objects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.Items, key)
	delete(o.Types, key)
	return nil
}

func (o *Objects) URL(key string) string {
	return "https://media.test/" + key
}

// Password is the plaintext used by SeedUser.
const Password = "Secret12"

// SeedUser inserts an active account with the given role and Password.
func (s *Store) SeedUser(t *testing.T, name, email, role string) types.User {
	t.Helper()
	hash, err := auth.HashPassword(Password)
	require.NoError(t, err)
	user, err := s.Users().Create(context.Background(), types.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       types.UserStatusActive,
		Role:         role,
	})
	require.NoError(t, err)
	return user
}

// SeedArticle inserts an article by reporter with the given status.
func (s *Store) SeedArticle(t *testing.T, reporter types.User, title, category, status string) types.Article {
	t.Helper()
	article, err := s.Articles().Create(context.Background(), types.Article{
		ReporterID: reporter.ID,
		Title:      title,
		Content:    "<p>" + title + "</p>",
		Category:   category,
		Status:     status,
	})
	require.NoError(t, err)
	return article
}
