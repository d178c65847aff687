package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockCostService is a mock implementation of CostService for testing
type MockCostService struct {
	CalculateCostFunc func(provider, model string, inputTokens, outputTokens int) float64
}

func (m *MockCostService) CalculateCost(provider, model string, inputTokens, outputTokens int) float64 {
	if m.CalculateCostFunc != nil {
		return m.CalculateCostFunc(provider, model, inputTokens, outputTokens)
	}
	return 0.0015 // Default mock cost
}

// NewMockCostService creates a new mock cost service
func NewMockCostService() *MockCostService {
	return &MockCostService{}
}

// MockModelServer is a fake OpenAI or Anthropic endpoint. It replies with
// Reply as the assistant text, or with StatusCode when that is not 200.
type MockModelServer struct {
	Server     *httptest.Server
	Reply      string
	StatusCode int

	mu       sync.Mutex
	requests []map[string]any
}

// NewMockOpenAIServer serves POST /chat/completions
func NewMockOpenAIServer() *MockModelServer {
	mock := &MockModelServer{StatusCode: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", mock.handle(func(w http.ResponseWriter) {
		writeJSON(w, map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1735689600,
			"model":   "gpt-4.1-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": mock.Reply},
			}},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		})
	}))
	mock.Server = httptest.NewServer(mux)
	return mock
}

// NewMockAnthropicServer serves POST /v1/messages
func NewMockAnthropicServer() *MockModelServer {
	mock := &MockModelServer{StatusCode: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/messages", mock.handle(func(w http.ResponseWriter) {
		writeJSON(w, map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-3-5-haiku-20241022",
			"content":       []map[string]any{{"type": "text", "text": mock.Reply}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 100, "output_tokens": 20},
		})
	}))
	mock.Server = httptest.NewServer(mux)
	return mock
}

func (m *MockModelServer) handle(reply func(w http.ResponseWriter)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(body, &decoded)
		m.mu.Lock()
		m.requests = append(m.requests, decoded)
		m.mu.Unlock()

		if m.StatusCode != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(m.StatusCode)
			w.Write([]byte(`{"error":{"type":"server_error","message":"mock failure"}}`))
			return
		}
		reply(w)
	}
}

// URL is the base URL to hand to the SDK client
func (m *MockModelServer) URL() string {
	return m.Server.URL + "/"
}

// Requests returns the decoded request bodies received so far
func (m *MockModelServer) Requests() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]any(nil), m.requests...)
}

// Close closes the mock server
func (m *MockModelServer) Close() {
	m.Server.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
