package extract

import (
	"context"
	"sync/atomic"

	"github.com/orderlens/orderlens/internal/schema"
)

// MockExtractor is an Extractor for testing.
type MockExtractor struct {
	// Result is returned from successful calls.
	Result *schema.OrderExtraction
	// Err, when set, is returned from every call.
	Err error
	// FailAfter fails calls after N successes (0 = never).
	FailAfter int

	calls atomic.Int64
}

// Name returns the client identifier.
func (m *MockExtractor) Name() string {
	return "mock"
}

// Calls returns how many Extract calls were made.
func (m *MockExtractor) Calls() int {
	return int(m.calls.Load())
}

// Extract returns the configured result or error.
func (m *MockExtractor) Extract(ctx context.Context, req *Request) (*schema.OrderExtraction, error) {
	count := m.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.FailAfter > 0 && int(count) > m.FailAfter {
		return nil, &Error{Kind: KindTransport, Err: context.DeadlineExceeded}
	}
	return m.Result, nil
}
