package service

import (
	"context"
	"fmt"
	"time"

	"clinica-dental-backend/internal/domain/entity"
	"clinica-dental-backend/internal/domain/repository"
	"clinica-dental-backend/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultRepairBatchSize = 200

// RepairReport is the outcome of a repair sweep.
type RepairReport struct {
	Scanned   int `json:"scanned"`
	Processed int `json:"processed"`
	Corrected int `json:"corrected"`
	// StillDegraded lists users kept with several profiles because clinical
	// records still reference a stale one.
	StillDegraded []uuid.UUID `json:"still_degraded"`
	Failed        []uuid.UUID `json:"failed"`
}

// ProfileRepairService sweeps every user and re-applies profile
// reconciliation to those whose profiles do not match their role.
type ProfileRepairService struct {
	db        *gorm.DB
	log       *logrus.Logger
	userRepo  repository.UserRepository
	sync      ProfileSyncService
	batchSize int

	// transact runs fn in its own transaction.
	transact func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewProfileRepairService(db *gorm.DB, log *logrus.Logger, userRepo repository.UserRepository, sync ProfileSyncService, batchSize int) *ProfileRepairService {
	if batchSize <= 0 {
		batchSize = defaultRepairBatchSize
	}
	return &ProfileRepairService{
		db:        db,
		log:       log,
		userRepo:  userRepo,
		sync:      sync,
		batchSize: batchSize,
		transact: func(ctx context.Context, fn func(tx *gorm.DB) error) error {
			return db.WithContext(ctx).Transaction(fn)
		},
	}
}

// RepairAll is idempotent: users already matching their role are only
// counted as scanned. Each mismatched user is repaired in its own
// transaction. The returned error only reports failures to page through users.
func (s *ProfileRepairService) RepairAll(ctx context.Context) (*RepairReport, error) {
	s.log.Info("Starting profile repair sweep...")
	startTime := time.Now()

	report := &RepairReport{
		StillDegraded: []uuid.UUID{},
		Failed:        []uuid.UUID{},
	}
	offset := 0

	for {
		users, err := s.userRepo.FindAllWithProfiles(ctx, s.db, s.batchSize, offset)
		if err != nil {
			s.log.Errorf("Failed to load users at offset %d: %+v", offset, err)
			return report, fmt.Errorf("load users at offset %d: %w", offset, err)
		}

		for i := range users {
			s.repairUser(ctx, &users[i], report)
		}
		report.Scanned += len(users)

		if len(users) < s.batchSize {
			break
		}
		offset += s.batchSize

		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}
	}

	s.log.Infof("Profile repair completed in %v: scanned=%d processed=%d corrected=%d degraded=%d failed=%d",
		time.Since(startTime), report.Scanned, report.Processed, report.Corrected, len(report.StillDegraded), len(report.Failed))

	return report, nil
}

func (s *ProfileRepairService) repairUser(ctx context.Context, user *entity.User, report *RepairReport) {
	if user.HasMatchingProfile(user.Role.RoleName) {
		return
	}
	report.Processed++

	var result *ReconcileResult
	err := s.transact(ctx, func(tx *gorm.DB) error {
		result = s.sync.Reconcile(ctx, tx, RoleChange{
			UserID: user.ID,
			RoleID: user.RoleID,
			Repair: true,
		})
		return nil
	})

	switch {
	case err != nil:
		s.log.Warnf("Failed to commit profile repair for user %s: %+v", user.ID, err)
		report.Failed = append(report.Failed, user.ID)
		metrics.ProfileRepairUsersTotal.WithLabelValues("failed").Inc()
	case result.Consistent:
		report.Corrected++
		metrics.ProfileRepairUsersTotal.WithLabelValues("corrected").Inc()
	case len(result.Blocking) > 0:
		report.StillDegraded = append(report.StillDegraded, user.ID)
		metrics.ProfileRepairUsersTotal.WithLabelValues("degraded").Inc()
	default:
		report.Failed = append(report.Failed, user.ID)
		metrics.ProfileRepairUsersTotal.WithLabelValues("failed").Inc()
	}
}
