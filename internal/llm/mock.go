package llm

import (
	"context"
	"sync"
)

// MockTransport is a test double for Transport. Responses are replayed in
// order; the last one repeats once the queue is drained.
type MockTransport struct {
	SendFunc func(ctx context.Context, req *WireRequest) ([]byte, error)

	mu        sync.Mutex
	Requests  []*WireRequest
	responses []mockReply
}

type mockReply struct {
	body []byte
	err  error
}

// Reply queues a successful response body.
func (m *MockTransport) Reply(body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockReply{body: []byte(body)})
	return m
}

// Fail queues an error.
func (m *MockTransport) Fail(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockReply{err: err})
	return m
}

// Calls returns how many requests were sent.
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func (m *MockTransport) Send(ctx context.Context, req *WireRequest) ([]byte, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	if m.SendFunc != nil {
		m.mu.Unlock()
		return m.SendFunc(ctx, req)
	}
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return []byte(`{}`), nil
	}
	r := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return r.body, r.err
}
