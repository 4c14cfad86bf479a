package notify

import (
	"context"
	"errors"
	"testing"

	"trendbuild/internal/domain"
)

type countingNotifier struct {
	alerts int
	err    error
}

func (n *countingNotifier) NotifyAlert(context.Context, domain.Alert) error {
	n.alerts++
	return n.err
}

func (n *countingNotifier) NotifySummary(context.Context, domain.CycleSummary) error {
	return n.err
}

func TestMulti_ContinuesPastFailingSink(t *testing.T) {
	boom := errors.New("down")
	failing := &countingNotifier{err: boom}
	healthy := &countingNotifier{}

	m := NewMulti(nil, Named{Name: "a", Notifier: failing}, Named{Name: "b", Notifier: healthy})

	err := m.NotifyAlert(context.Background(), testAlert())
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
	if failing.alerts != 1 || healthy.alerts != 1 {
		t.Errorf("every sink should be called once, got %d/%d", failing.alerts, healthy.alerts)
	}
}

func TestMulti_Empty(t *testing.T) {
	m := NewMulti(nil)
	if err := m.NotifySummary(context.Background(), domain.CycleSummary{}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestBuild_DisabledSinks(t *testing.T) {
	s, err := Build(DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Close()

	if s.Notifier.Len() != 0 {
		t.Errorf("expected no sinks, got %d", s.Notifier.Len())
	}
	if len(s.Publishers) != 0 {
		t.Errorf("expected no publishers, got %d", len(s.Publishers))
	}
}

func TestBuild_HubIsNotifierAndPublisher(t *testing.T) {
	s, err := Build(DefaultConfig(), NewHub(nil), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Close()

	if s.Notifier.Len() != 1 || len(s.Publishers) != 1 {
		t.Errorf("notifiers/publishers = %d/%d, want 1/1", s.Notifier.Len(), len(s.Publishers))
	}
}
