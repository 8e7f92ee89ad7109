package mqtt

import (
	"fmt"
	"sync"

	coremetrics "github.com/atelio/fieldops/core/metrics"
	"github.com/atelio/fieldops/core/workload"
)

// AdvisoryPublisher pushes scheduling advisories to dashboards over MQTT.
type AdvisoryPublisher interface {
	PublishSuggestion(orderID string, sg workload.SupportSuggestion) error
	PublishTriage(ev coremetrics.TriageEvent) error
	Disconnect()
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Suggestions map[string]workload.SupportSuggestion
	Triages     []coremetrics.TriageEvent
	FailAll     bool
	mu          sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Suggestions: make(map[string]workload.SupportSuggestion)}
}

// PublishSuggestion records the advisory or returns an error if configured
// to fail.
func (m *MockPublisher) PublishSuggestion(orderID string, sg workload.SupportSuggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return fmt.Errorf("publish failed")
	}
	m.Suggestions[orderID] = sg
	return nil
}

// PublishTriage records the triage event.
func (m *MockPublisher) PublishTriage(ev coremetrics.TriageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return fmt.Errorf("publish failed")
	}
	m.Triages = append(m.Triages, ev)
	return nil
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}
