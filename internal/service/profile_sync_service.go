package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinica-dental-backend/internal/domain/entity"
	"clinica-dental-backend/internal/domain/repository"
	"clinica-dental-backend/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReconcileOutcome summarizes what a reconciliation run did.
type ReconcileOutcome string

const (
	OutcomeSkipped        ReconcileOutcome = "skipped"
	OutcomeReentrant      ReconcileOutcome = "reentrant"
	OutcomeUnresolvedRole ReconcileOutcome = "unresolved_role"
	OutcomeUnchanged      ReconcileOutcome = "unchanged"
	OutcomeCreated        ReconcileOutcome = "created"
	OutcomeReconciled     ReconcileOutcome = "reconciled"
	OutcomeDegraded       ReconcileOutcome = "degraded"
	OutcomePartial        ReconcileOutcome = "partial"
	OutcomeFailed         ReconcileOutcome = "failed"
)

// RoleChange describes a persisted User write. PreviousRoleID is the role
// read from storage before the write, nil for a new user.
type RoleChange struct {
	UserID         uuid.UUID
	RoleID         int
	PreviousRoleID *int
	Created        bool
	// SkipSync is set by provisioning flows that create the right profile
	// themselves.
	SkipSync bool
	// Repair forces the role-change procedure even when the role did not
	// change. Used by the repair sweep.
	Repair bool
}

// ReconcileResult reports the effect of one reconciliation run.
type ReconcileResult struct {
	UserID   uuid.UUID
	RoleName string
	Outcome  ReconcileOutcome
	Created  []entity.ProfileKind
	Deleted  []entity.ProfileKind
	Blocking map[entity.ProfileKind]entity.ClinicalReferences
	Failures []error
	// Profiles is the set of variants left for the user. Only populated
	// when the run inspected storage.
	Profiles []entity.ProfileKind
	// Consistent is true when Profiles is exactly the variant the role needs.
	Consistent bool
}

// Summary renders the result for logs and audit metadata.
func (r *ReconcileResult) Summary() map[string]interface{} {
	failures := make([]string, 0, len(r.Failures))
	for _, err := range r.Failures {
		failures = append(failures, err.Error())
	}
	blocking := make(map[string]string, len(r.Blocking))
	for kind, refs := range r.Blocking {
		blocking[string(kind)] = refs.String()
	}
	return map[string]interface{}{
		"outcome":    string(r.Outcome),
		"role":       r.RoleName,
		"created":    r.Created,
		"deleted":    r.Deleted,
		"blocking":   blocking,
		"failures":   failures,
		"profiles":   r.Profiles,
		"consistent": r.Consistent,
	}
}

// RoleNameResolver resolves a role id to its canonical name.
type RoleNameResolver interface {
	RoleName(ctx context.Context, db *gorm.DB, roleID int) (string, error)
}

// ProfileSyncService keeps a user's profile variants in line with its role.
// Reconcile never returns an error: the User write it follows must not fail
// because of it.
type ProfileSyncService interface {
	Reconcile(ctx context.Context, db *gorm.DB, change RoleChange) *ReconcileResult
}

type profileSyncService struct {
	log          *logrus.Logger
	roleResolver RoleNameResolver
	// savepoint runs fn in a savepoint of db. A failed statement rolls back
	// to the savepoint, so the caller's transaction stays usable.
	savepoint func(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error
	profileRepo  repository.ProfileRepository
	refRepo      repository.ClinicalReferenceRepository
}

func NewProfileSyncService(
	log *logrus.Logger,
	roleResolver RoleNameResolver,
	profileRepo repository.ProfileRepository,
	refRepo repository.ClinicalReferenceRepository,
) ProfileSyncService {
	return &profileSyncService{
		log:          log,
		roleResolver: roleResolver,
		profileRepo:  profileRepo,
		refRepo:      refRepo,
		savepoint:    nestedTransaction,
	}
}

// nestedTransaction relies on gorm turning Transaction on an open
// transaction into SAVEPOINT / ROLLBACK TO SAVEPOINT.
func nestedTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

type reconcileKey struct{}

// reconciling reports whether a reconciliation for userID is already running
// further up this call chain.
func reconciling(ctx context.Context, userID uuid.UUID) bool {
	id, ok := ctx.Value(reconcileKey{}).(uuid.UUID)
	return ok && id == userID
}

func (s *profileSyncService) Reconcile(ctx context.Context, db *gorm.DB, change RoleChange) (result *ReconcileResult) {
	result = &ReconcileResult{UserID: change.UserID}

	if change.SkipSync {
		result.Outcome = OutcomeSkipped
		metrics.ProfileReconciliationsTotal.WithLabelValues(string(result.Outcome)).Inc()
		return result
	}
	if reconciling(ctx, change.UserID) {
		s.log.Debugf("Profile reconciliation already running for user %s, skipping nested call", change.UserID)
		result.Outcome = OutcomeReentrant
		return result
	}
	ctx = context.WithValue(ctx, reconcileKey{}, change.UserID)

	log := s.log.WithField("user_id", change.UserID.String())

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("reconciliation panic: %v", p)
			log.Errorf("Profile reconciliation aborted: %+v", err)
			result.Failures = append(result.Failures, err)
			result.Outcome = OutcomeFailed
			result.Consistent = false
		}
		metrics.ProfileReconciliationsTotal.WithLabelValues(string(result.Outcome)).Inc()
	}()

	var roleName string
	err := s.savepoint(ctx, db, func(tx *gorm.DB) error {
		var err error
		roleName, err = s.roleResolver.RoleName(ctx, tx, change.RoleID)
		return err
	})
	if err != nil || !entity.IsKnownRole(roleName) {
		if err == nil {
			err = fmt.Errorf("unknown role name %q", roleName)
		}
		log.Warnf("Cannot resolve role %d, profiles left untouched: %+v", change.RoleID, err)
		result.Failures = append(result.Failures, err)
		result.Outcome = OutcomeUnresolvedRole
		return result
	}
	roleName = strings.ToLower(strings.TrimSpace(roleName))
	result.RoleName = roleName
	log = log.WithField("role", roleName)
	target, hasTarget := entity.ProfileKindForRole(roleName)

	if change.Created || (change.PreviousRoleID == nil && !change.Repair) {
		s.reconcileCreated(ctx, db, log, change, target, hasTarget, result)
		return result
	}

	if !change.Repair && *change.PreviousRoleID == change.RoleID {
		result.Outcome = OutcomeUnchanged
		return result
	}

	s.reconcileRoleChange(ctx, db, log, change, target, hasTarget, result)
	return result
}

func (s *profileSyncService) reconcileCreated(
	ctx context.Context,
	db *gorm.DB,
	log *logrus.Entry,
	change RoleChange,
	target entity.ProfileKind,
	hasTarget bool,
	result *ReconcileResult,
) {
	result.Outcome = OutcomeUnchanged
	if !hasTarget {
		result.Consistent = true
		return
	}

	created, exists := s.ensureProfile(ctx, db, log, change.UserID, target, result)
	switch {
	case created:
		result.Outcome = OutcomeCreated
	case !exists:
		result.Outcome = OutcomeFailed
	}
	if exists {
		result.Profiles = []entity.ProfileKind{target}
		result.Consistent = true
	}
}

func (s *profileSyncService) reconcileRoleChange(
	ctx context.Context,
	db *gorm.DB,
	log *logrus.Entry,
	change RoleChange,
	target entity.ProfileKind,
	hasTarget bool,
	result *ReconcileResult,
) {
	existing, err := s.existingProfiles(ctx, db, change.UserID)
	if err != nil {
		log.Warnf("Failed to load profiles, reconciliation aborted: %+v", err)
		result.Failures = append(result.Failures, err)
		result.Outcome = OutcomeFailed
		return
	}

	// A variant whose references cannot be counted is treated as referenced.
	blocked := false
	for _, kind := range existing {
		var refs entity.ClinicalReferences
		err := s.savepoint(ctx, db, func(tx *gorm.DB) error {
			var err error
			refs, err = s.refRepo.CountReferences(ctx, tx, kind, change.UserID)
			return err
		})
		if err != nil {
			log.Warnf("Failed to count clinical references of %s profile: %+v", kind, err)
			result.Failures = append(result.Failures, err)
			blocked = true
			continue
		}
		if refs.Total() > 0 {
			if result.Blocking == nil {
				result.Blocking = make(map[entity.ProfileKind]entity.ClinicalReferences)
			}
			result.Blocking[kind] = refs
			blocked = true
		}
	}

	remaining := make(map[entity.ProfileKind]bool, len(existing))
	for _, kind := range existing {
		remaining[kind] = true
	}

	if blocked {
		metrics.ProfileDeletionsBlockedTotal.Inc()
		log.Warnf("Profile deletion blocked by clinical references (%s); keeping existing profiles", describeBlocking(result.Blocking))
	} else {
		for _, kind := range existing {
			if hasTarget && kind == target {
				continue
			}
			err := s.savepoint(ctx, db, func(tx *gorm.DB) error {
				return s.profileRepo.Delete(ctx, tx, kind, change.UserID)
			})
			if err != nil {
				metrics.ProfileOperationsTotal.WithLabelValues(string(kind), "delete", "error").Inc()
				if isForeignKeyViolation(err) {
					log.Warnf("Failed to delete %s profile, still referenced: %+v", kind, err)
				} else {
					log.Warnf("Failed to delete %s profile: %+v", kind, err)
				}
				result.Failures = append(result.Failures, fmt.Errorf("delete %s profile: %w", kind, err))
				continue
			}
			metrics.ProfileOperationsTotal.WithLabelValues(string(kind), "delete", "ok").Inc()
			result.Deleted = append(result.Deleted, kind)
			delete(remaining, kind)
		}
	}

	if hasTarget && !remaining[target] {
		if created, _ := s.ensureProfile(ctx, db, log, change.UserID, target, result); created {
			remaining[target] = true
		}
	}

	for _, kind := range entity.ProfileKinds {
		if remaining[kind] {
			result.Profiles = append(result.Profiles, kind)
		}
	}
	result.Consistent = matchesRole(result.Profiles, target, hasTarget)

	switch {
	case len(result.Blocking) > 0 && !result.Consistent:
		result.Outcome = OutcomeDegraded
		if len(result.Profiles) > 1 {
			log.Warnf("User now holds %d profiles (%v) after role change", len(result.Profiles), result.Profiles)
		}
	case len(result.Failures) > 0:
		result.Outcome = OutcomePartial
	case len(result.Created) == 0 && len(result.Deleted) == 0:
		result.Outcome = OutcomeUnchanged
	default:
		result.Outcome = OutcomeReconciled
	}
}

// ensureProfile creates the target variant unless it already exists.
// It returns whether a row was inserted and whether the variant exists now.
func (s *profileSyncService) ensureProfile(
	ctx context.Context,
	db *gorm.DB,
	log *logrus.Entry,
	userID uuid.UUID,
	kind entity.ProfileKind,
	result *ReconcileResult,
) (created bool, exists bool) {
	exists, err := s.exists(ctx, db, kind, userID)
	if err != nil {
		log.Warnf("Failed to check %s profile: %+v", kind, err)
		result.Failures = append(result.Failures, fmt.Errorf("check %s profile: %w", kind, err))
		return false, false
	}
	if exists {
		return false, true
	}

	err = s.savepoint(ctx, db, func(tx *gorm.DB) error {
		return s.profileRepo.Create(ctx, tx, kind, userID)
	})
	if err != nil {
		metrics.ProfileOperationsTotal.WithLabelValues(string(kind), "create", "error").Inc()
		log.Warnf("Failed to create %s profile: %+v", kind, err)
		result.Failures = append(result.Failures, fmt.Errorf("create %s profile: %w", kind, err))
		return false, false
	}
	metrics.ProfileOperationsTotal.WithLabelValues(string(kind), "create", "ok").Inc()
	result.Created = append(result.Created, kind)
	return true, true
}

func (s *profileSyncService) existingProfiles(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]entity.ProfileKind, error) {
	var kinds []entity.ProfileKind
	for _, kind := range entity.ProfileKinds {
		ok, err := s.exists(ctx, db, kind, userID)
		if err != nil {
			return nil, fmt.Errorf("check %s profile: %w", kind, err)
		}
		if ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

func (s *profileSyncService) exists(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.savepoint(ctx, db, func(tx *gorm.DB) error {
		var err error
		exists, err = s.profileRepo.Exists(ctx, tx, kind, userID)
		return err
	})
	return exists, err
}

func matchesRole(profiles []entity.ProfileKind, target entity.ProfileKind, hasTarget bool) bool {
	if !hasTarget {
		return len(profiles) == 0
	}
	return len(profiles) == 1 && profiles[0] == target
}

func describeBlocking(blocking map[entity.ProfileKind]entity.ClinicalReferences) string {
	if len(blocking) == 0 {
		return "reference count unavailable"
	}
	parts := make([]string, 0, len(blocking))
	for _, kind := range entity.ProfileKinds {
		if refs, ok := blocking[kind]; ok {
			parts = append(parts, fmt.Sprintf("%s profile: %s", kind, refs))
		}
	}
	return strings.Join(parts, "; ")
}

// isForeignKeyViolation checks for PostgreSQL error 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
