package provider

import (
	"context"
	"sync"
)

// MockProvider is a scripted provider for tests. It records every request.
type MockProvider struct {
	mu        sync.Mutex
	responses map[string]string
	response  string
	err       error
	requests  []Request
}

// NewMockProvider creates a new mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		responses: make(map[string]string),
	}
}

// SetResponse sets the reply for a given source text
func (m *MockProvider) SetResponse(content, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[content] = response
}

// SetDefaultResponse sets the reply for content without a specific response
func (m *MockProvider) SetDefaultResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

// SetError makes every call fail with err
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}
	if response, ok := m.responses[req.Content]; ok {
		return response, nil
	}
	return m.response, nil
}

// Requests returns a copy of the requests seen so far
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns how many requests were made
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
