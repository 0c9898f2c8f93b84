//go:build protogen

package grpcserver

import (
	"context"
	"strconv"
	"strings"

	"github.com/agendasim/agendasim/libs/config"
	"github.com/agendasim/agendasim/libs/db"
	agendav1 "github.com/agendasim/agendasim/protos/gen/agenda/v1"
	"github.com/agendasim/agendasim/services/agenda-service/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type server struct {
	agendav1.UnimplementedAgendaServiceServer
	pool *db.Pool
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, pool *db.Pool, repo *storage.Repository) {
	agendav1.RegisterAgendaServiceServer(grpcServer, &server{pool: pool, repo: repo})
}

func (s *server) GetCompanyProfile(ctx context.Context, req *agendav1.CompanyProfileRequest) (*agendav1.CompanyProfileResponse, error) {
	offsets := parseOffsets(config.String("REMINDER_OFFSETS_MINUTES", "1440,60"))
	timezone := config.String("TIMEZONE", "UTC")
	name := "Demo Company"

	if s.repo != nil && req.GetCompanyId() != "" {
		p, err := s.repo.GetOrCreateProfile(ctx, req.GetCompanyId())
		if err == nil {
			if strings.TrimSpace(p.Timezone) != "" {
				timezone = strings.TrimSpace(p.Timezone)
			}
			if strings.TrimSpace(p.Name) != "" {
				name = strings.TrimSpace(p.Name)
			}
			if len(p.OffsetsMins) > 0 {
				offsets = nil
				for _, v := range p.OffsetsMins {
					if v <= 0 {
						continue
					}
					offsets = append(offsets, int32(v))
				}
				if len(offsets) == 0 {
					offsets = parseOffsets("1440,60")
				}
			}
		}
	}

	return &agendav1.CompanyProfileResponse{
		CompanyId: req.CompanyId,
		Name:      name,
		ReminderPolicy: &agendav1.ReminderPolicy{
			ReminderOffsetsMinutes: offsets,
			Timezone:               timezone,
		},
	}, nil
}

// GetAgendaConfig ships the professional's raw availability rules along with
// the company's slot policy. Slot math happens on the booking side so every
// caller computes availability the same way.
func (s *server) GetAgendaConfig(ctx context.Context, req *agendav1.AgendaConfigRequest) (*agendav1.AgendaConfigResponse, error) {
	resp := &agendav1.AgendaConfigResponse{
		CompanyId:       req.GetCompanyId(),
		ProfessionalId:  req.GetProfessionalId(),
		ServiceId:       req.GetServiceId(),
		Timezone:        "UTC",
		DurationMinutes: 30,
		SlotStepMinutes: 0,
		Active:          false,
	}
	if s.repo == nil || req.GetCompanyId() == "" || req.GetProfessionalId() == "" {
		return resp, nil
	}

	profile, err := s.repo.GetOrCreateProfile(ctx, req.GetCompanyId())
	if err == nil {
		if strings.TrimSpace(profile.Timezone) != "" {
			resp.Timezone = strings.TrimSpace(profile.Timezone)
		}
		if profile.SlotStepMins > 0 {
			resp.SlotStepMinutes = int32(profile.SlotStepMins)
		}
	}

	if req.GetServiceId() != "" {
		durationMins, err := s.repo.GetServiceDuration(ctx, req.GetCompanyId(), req.GetServiceId())
		if err == nil && durationMins > 0 {
			resp.DurationMinutes = int32(durationMins)
		}
	}

	professional, err := s.repo.GetProfessional(ctx, req.GetCompanyId(), req.GetProfessionalId())
	if err != nil {
		return resp, nil
	}
	resp.Active = professional.IsActive
	if !professional.IsActive {
		return resp, nil
	}

	rules, err := s.repo.ListRules(ctx, req.GetCompanyId(), req.GetProfessionalId())
	if err != nil {
		resp.Active = false
		return resp, nil
	}
	for _, r := range rules {
		rule := &agendav1.AvailabilityRule{
			Id:          r.ID,
			Kind:        r.Kind,
			Weekdays:    int32(r.Weekdays),
			StartMinute: int32(r.StartMinute),
			EndMinute:   int32(r.EndMinute),
			Note:        r.Note,
		}
		if r.StartAt != nil {
			rule.StartAt = timestamppb.New(*r.StartAt)
		}
		if r.EndAt != nil {
			rule.EndAt = timestamppb.New(*r.EndAt)
		}
		resp.Rules = append(resp.Rules, rule)
	}
	return resp, nil
}

func parseOffsets(raw string) []int32 {
	var out []int32
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mins, err := strconv.Atoi(part)
		if err != nil || mins <= 0 {
			continue
		}
		out = append(out, int32(mins))
	}
	if len(out) == 0 {
		out = []int32{1440}
	}
	return out
}
