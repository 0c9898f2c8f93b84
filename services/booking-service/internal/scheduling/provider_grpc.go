//go:build protogen

package scheduling

import (
	"context"
	"time"

	"github.com/agendasim/agendasim/libs/grpcx"
	agendav1 "github.com/agendasim/agendasim/protos/gen/agenda/v1"
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

type grpcProvider struct {
	client agendav1.AgendaServiceClient
}

func NewProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: agendav1.NewAgendaServiceClient(conn)}, nil
}

func (p *grpcProvider) GetAgendaConfig(ctx context.Context, companyID, professionalID, serviceID string) (AgendaConfig, error) {
	resp, err := p.client.GetAgendaConfig(ctx, &agendav1.AgendaConfigRequest{
		CompanyId:      companyID,
		ProfessionalId: professionalID,
		ServiceId:      serviceID,
	})
	if err != nil {
		return AgendaConfig{}, err
	}
	cfg := AgendaConfig{
		Active:          resp.GetActive(),
		Timezone:        resp.GetTimezone(),
		DurationMinutes: int(resp.GetDurationMinutes()),
		SlotStepMinutes: int(resp.GetSlotStepMinutes()),
	}
	for _, r := range resp.GetRules() {
		rule := agenda.Rule{
			ID:          r.GetId(),
			Kind:        agenda.RuleKind(r.GetKind()),
			Weekdays:    agenda.Weekdays(r.GetWeekdays()),
			StartMinute: int(r.GetStartMinute()),
			EndMinute:   int(r.GetEndMinute()),
			Note:        r.GetNote(),
		}
		if r.GetStartAt() != nil {
			rule.StartAt = r.GetStartAt().AsTime()
		}
		if r.GetEndAt() != nil {
			rule.EndAt = r.GetEndAt().AsTime()
		}
		cfg.Rules = append(cfg.Rules, rule)
	}
	return cfg, nil
}
