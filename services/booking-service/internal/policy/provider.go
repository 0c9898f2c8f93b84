package policy

import (
	"context"
	"time"
)

// Provider answers reminder policy questions for a company. The gRPC
// implementation asks agenda-service; the static one serves fixed offsets.
type Provider interface {
	ReminderOffsets(ctx context.Context, companyID string) ([]time.Duration, error)
}

type staticProvider struct {
	offsets []time.Duration
}

func NewStaticProvider(offsets []time.Duration) Provider {
	return &staticProvider{offsets: offsets}
}

func (p *staticProvider) ReminderOffsets(_ context.Context, _ string) ([]time.Duration, error) {
	return p.offsets, nil
}
