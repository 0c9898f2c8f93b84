//go:build !protogen

package scheduling

import (
	"context"

	"github.com/agendasim/agendasim/services/booking-service/internal/agenda"
)

// AgendaConfig is the per-professional scheduling setup owned by
// agenda-service: the availability rules plus the company's slot policy.
type AgendaConfig struct {
	Active          bool
	Timezone        string
	DurationMinutes int
	SlotStepMinutes int
	Rules           []agenda.Rule
}

type Provider interface {
	GetAgendaConfig(ctx context.Context, companyID, professionalID, serviceID string) (AgendaConfig, error)
}

func NewProvider(_ string) (Provider, error) {
	return nil, nil
}
