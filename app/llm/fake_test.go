package llm

import (
	"context"
	"sync"
	"time"
)

type fakeChat struct {
	mu      sync.Mutex
	replies map[string]string
	reply   string
	err     error
	calls   []fakeCall
}

type fakeCall struct {
	system string
	user   string
}

func (f *fakeChat) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeCall{system: systemPrompt, user: userContent})
	if f.err != nil {
		return "", f.err
	}
	if reply, ok := f.replies[userContent]; ok {
		return reply, nil
	}
	return f.reply, nil
}

type memoryCache struct {
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) Health(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{"status": "healthy"}
}

func (m *memoryCache) Close() error {
	return nil
}
