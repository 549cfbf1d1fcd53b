package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/models"
)

// UnknownReporter is shown when the reporting student can no longer be found.
const UnknownReporter = "N/A"

type MaintenanceGateway interface {
	ListMaintenanceRequests(ctx context.Context) ([]models.MaintenanceRequest, error)
	GetMaintenanceRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type MaintenanceDetail struct {
	models.MaintenanceRequest
	ReporterName string `json:"reporter_name"`
}

// MaintenanceService is read-only: requests are raised by students elsewhere.
type MaintenanceService struct {
	gw     MaintenanceGateway
	logger *zap.Logger
}

func NewMaintenanceService(gw MaintenanceGateway, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{gw: gw, logger: logger}
}

func (s *MaintenanceService) List(ctx context.Context) ([]models.MaintenanceRequest, error) {
	rows, err := s.gw.ListMaintenanceRequests(ctx)
	if err != nil {
		return nil, &FetchError{Op: "maintenance requests", Err: err}
	}
	return rows, nil
}

func (s *MaintenanceService) Get(ctx context.Context, id int64) (*MaintenanceDetail, error) {
	r, err := s.gw.GetMaintenanceRequest(ctx, id)
	if err != nil {
		return nil, &FetchError{Op: "maintenance request", Err: err}
	}
	detail := &MaintenanceDetail{MaintenanceRequest: *r, ReporterName: UnknownReporter}
	if r.ReportedByID == nil {
		return detail, nil
	}

	p, err := s.gw.GetProfile(ctx, *r.ReportedByID)
	switch {
	case err == nil:
		if p.FullName != "" {
			detail.ReporterName = p.FullName
		}
	case errors.Is(err, gateway.ErrNotFound):
	default:
		// The request itself was read; a failed reporter lookup only costs the name.
		s.logger.Warn("reporter lookup failed", zap.Int64("request_id", id), zap.Error(err))
	}
	return detail, nil
}
