//go:build protogen

package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/agendasim/agendasim/libs/grpcx"
	agendav1 "github.com/agendasim/agendasim/protos/gen/agenda/v1"
)

type grpcProvider struct {
	client agendav1.AgendaServiceClient
}

func NewCompanyPolicyProvider(logger *slog.Logger, fallback []time.Duration, addr string) (Provider, error) {
	if addr == "" {
		return NewStaticProvider(fallback), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("grpc policy provider unavailable, using fallback", "err", err)
		return NewStaticProvider(fallback), nil
	}

	logger.Info("grpc policy provider enabled", "addr", addr)
	return &grpcProvider{client: agendav1.NewAgendaServiceClient(conn)}, nil
}

func (p *grpcProvider) ReminderOffsets(ctx context.Context, companyID string) ([]time.Duration, error) {
	resp, err := p.client.GetCompanyProfile(ctx, &agendav1.CompanyProfileRequest{CompanyId: companyID})
	if err != nil {
		return nil, err
	}
	var offsets []time.Duration
	for _, mins := range resp.GetReminderPolicy().GetReminderOffsetsMinutes() {
		if mins <= 0 {
			continue
		}
		offsets = append(offsets, time.Duration(mins)*time.Minute)
	}
	return offsets, nil
}
