package usecase

import (
	"context"

	"clinica-dental-backend/internal/converter"
	"clinica-dental-backend/internal/delivery/dto"
	"clinica-dental-backend/internal/delivery/http/middleware"
	"clinica-dental-backend/internal/domain/entity"
	"clinica-dental-backend/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProfileRepairer runs the repair sweep.
type ProfileRepairer interface {
	RepairAll(ctx context.Context) (*service.RepairReport, error)
}

type ProfileRepairUsecase interface {
	RepairProfiles(ctx context.Context) (*dto.RepairReportResponse, error)
}

type profileRepairUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	repairer     ProfileRepairer
	auditService service.AuditService
}

func NewProfileRepairUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	repairer ProfileRepairer,
	auditService service.AuditService,
) ProfileRepairUsecase {
	return &profileRepairUsecase{
		db:           db,
		log:          log,
		repairer:     repairer,
		auditService: auditService,
	}
}

// RepairProfiles runs the sweep and records its report in the audit log.
// A partial report is still returned when paging fails midway.
func (u *profileRepairUsecase) RepairProfiles(ctx context.Context) (*dto.RepairReportResponse, error) {
	report, err := u.repairer.RepairAll(ctx)
	if err != nil {
		u.log.Warnf("Profile repair sweep stopped early: %+v", err)
	}

	if report != nil {
		actorID, _ := middleware.GetUserIDFromContext(ctx)
		if auditErr := u.auditService.LogEvent(ctx, u.db, &actorID, entity.AuditActionProfileRepair, entity.JSON{
			"scanned":        report.Scanned,
			"processed":      report.Processed,
			"corrected":      report.Corrected,
			"still_degraded": report.StillDegraded,
			"failed":         report.Failed,
		}); auditErr != nil {
			u.log.Warnf("Failed to create audit log: %+v", auditErr)
		}
	}

	return converter.RepairReportToResponse(report), err
}
