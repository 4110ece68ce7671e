package llm

import "context"

// MockClient allows tests to exercise enrichment/RAG logic without calling
// a real model. Grounded on the teacher's internal/llm/mock.go.
type MockClient struct {
	Content string
	Err     error

	// Responses, when non-empty, is consumed in order (one entry per Chat
	// call) so a test can script a sequence of pass responses.
	Responses []string
	calls     int
}

func (m *MockClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if m.Err != nil {
		return ChatResponse{}, m.Err
	}
	var content string
	if len(m.Responses) > 0 {
		idx := m.calls
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		content = m.Responses[idx]
		m.calls++
	} else {
		content = m.Content
	}
	var resp ChatResponse
	resp.Message.Content = content
	return resp, nil
}
