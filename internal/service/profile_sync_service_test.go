package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clinica-dental-backend/internal/domain/entity"
	"clinica-dental-backend/internal/domain/repository"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

// savepointTx stands in for the transaction handed to a savepoint callback.
var savepointTx = &gorm.DB{}

// unscoped collects calls that reached a repository outside a savepoint.
type unscoped []string

func (u *unscoped) check(db *gorm.DB, call string) {
	if db != savepointTx {
		*u = append(*u, call)
	}
}

var roleNames = map[int]string{
	entity.RoleIDAdministrator: entity.RoleAdministrator,
	entity.RoleIDPatient:       entity.RolePatient,
	entity.RoleIDDentist:       entity.RoleDentist,
	entity.RoleIDReceptionist:  entity.RoleReceptionist,
}

type stubResolver struct {
	names    map[int]string
	err      error
	hook     func(ctx context.Context)
	unscoped unscoped
}

func (r *stubResolver) RoleName(ctx context.Context, db *gorm.DB, roleID int) (string, error) {
	r.unscoped.check(db, "role")
	if r.hook != nil {
		r.hook(ctx)
	}
	if r.err != nil {
		return "", r.err
	}
	name, ok := r.names[roleID]
	if !ok {
		return "", ErrRoleNotFound
	}
	return name, nil
}

type stubProfileRepo struct {
	profiles  map[entity.ProfileKind]bool
	createErr map[entity.ProfileKind]error
	deleteErr map[entity.ProfileKind]error
	existsErr error
	calls     []string
	unscoped  unscoped
}

func newStubProfileRepo(kinds ...entity.ProfileKind) *stubProfileRepo {
	r := &stubProfileRepo{profiles: map[entity.ProfileKind]bool{}}
	for _, k := range kinds {
		r.profiles[k] = true
	}
	return r
}

func (r *stubProfileRepo) Exists(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) (bool, error) {
	r.calls = append(r.calls, "exists:"+string(kind))
	r.unscoped.check(db, "exists:"+string(kind))
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.profiles[kind], nil
}

func (r *stubProfileRepo) Create(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) error {
	r.calls = append(r.calls, "create:"+string(kind))
	r.unscoped.check(db, "create:"+string(kind))
	if err := r.createErr[kind]; err != nil {
		return err
	}
	r.profiles[kind] = true
	return nil
}

func (r *stubProfileRepo) Delete(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) error {
	r.calls = append(r.calls, "delete:"+string(kind))
	r.unscoped.check(db, "delete:"+string(kind))
	if err := r.deleteErr[kind]; err != nil {
		return err
	}
	delete(r.profiles, kind)
	return nil
}

func (r *stubProfileRepo) writes() []string {
	var out []string
	for _, c := range r.calls {
		if !strings.HasPrefix(c, "exists:") {
			out = append(out, c)
		}
	}
	return out
}

type stubReferenceRepo struct {
	refs     map[entity.ProfileKind]entity.ClinicalReferences
	errs     map[entity.ProfileKind]error
	calls    int
	unscoped unscoped
}

func (r *stubReferenceRepo) CountReferences(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) (entity.ClinicalReferences, error) {
	r.calls++
	r.unscoped.check(db, "count:"+string(kind))
	if err := r.errs[kind]; err != nil {
		return nil, err
	}
	return r.refs[kind], nil
}

type syncFixture struct {
	svc        ProfileSyncService
	resolver   *stubResolver
	profiles   *stubProfileRepo
	refs       *stubReferenceRepo
	hook       *test.Hook
	savepoints int
	rolledBack int
}

// newTestSyncService runs savepoint callbacks inline on savepointTx.
func newTestSyncService(log *logrus.Logger, resolver RoleNameResolver, profiles repository.ProfileRepository, refs repository.ClinicalReferenceRepository) *profileSyncService {
	svc := NewProfileSyncService(log, resolver, profiles, refs).(*profileSyncService)
	svc.savepoint = func(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
		return fn(savepointTx)
	}
	return svc
}

func newSyncFixture(existing ...entity.ProfileKind) *syncFixture {
	log, hook := test.NewNullLogger()
	f := &syncFixture{
		resolver: &stubResolver{names: roleNames},
		profiles: newStubProfileRepo(existing...),
		refs:     &stubReferenceRepo{},
		hook:     hook,
	}
	svc := newTestSyncService(log, f.resolver, f.profiles, f.refs)
	svc.savepoint = func(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
		f.savepoints++
		err := fn(savepointTx)
		if err != nil {
			f.rolledBack++
		}
		return err
	}
	f.svc = svc
	return f
}

func (f *syncFixture) warnings() []string {
	var out []string
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestReconcile_CreatedUserGetsProfileForRole(t *testing.T) {
	tests := []struct {
		name     string
		roleID   int
		expected entity.ProfileKind
	}{
		{name: "patient", roleID: entity.RoleIDPatient, expected: entity.ProfileKindPatient},
		{name: "dentist", roleID: entity.RoleIDDentist, expected: entity.ProfileKindDentist},
		{name: "receptionist", roleID: entity.RoleIDReceptionist, expected: entity.ProfileKindReceptionist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			f := newSyncFixture()

			result := f.svc.Reconcile(context.Background(), nil, RoleChange{
				UserID:  uuid.New(),
				RoleID:  tt.roleID,
				Created: true,
			})

			c.Assert(result.Outcome, qt.Equals, OutcomeCreated)
			c.Assert(result.Created, qt.DeepEquals, []entity.ProfileKind{tt.expected})
			c.Assert(result.Profiles, qt.DeepEquals, []entity.ProfileKind{tt.expected})
			c.Assert(result.Consistent, qt.IsTrue)
			c.Assert(f.profiles.writes(), qt.DeepEquals, []string{"create:" + string(tt.expected)})
		})
	}
}

func TestReconcile_CreatedAdministratorGetsNoProfile(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture()

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:  uuid.New(),
		RoleID:  entity.RoleIDAdministrator,
		Created: true,
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeUnchanged)
	c.Assert(result.Consistent, qt.IsTrue)
	c.Assert(f.profiles.calls, qt.HasLen, 0)
}

func TestReconcile_CreatedUserKeepsExistingProfile(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient)

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:  uuid.New(),
		RoleID:  entity.RoleIDPatient,
		Created: true,
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeUnchanged)
	c.Assert(result.Consistent, qt.IsTrue)
	c.Assert(f.profiles.writes(), qt.HasLen, 0)
}

func TestReconcile_SkipSyncDoesNothing(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture()

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:   uuid.New(),
		RoleID:   entity.RoleIDDentist,
		Created:  true,
		SkipSync: true,
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeSkipped)
	c.Assert(f.profiles.calls, qt.HasLen, 0)
}

func TestReconcile_UnchangedRoleTouchesNothing(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindDentist)

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDDentist,
		PreviousRoleID: intPtr(entity.RoleIDDentist),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeUnchanged)
	c.Assert(f.profiles.calls, qt.HasLen, 0)
}

func TestReconcile_RoleChangeReplacesUnreferencedProfile(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient)

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDDentist,
		PreviousRoleID: intPtr(entity.RoleIDPatient),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeReconciled)
	c.Assert(result.Deleted, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindPatient})
	c.Assert(result.Created, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindDentist})
	c.Assert(result.Profiles, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindDentist})
	c.Assert(result.Consistent, qt.IsTrue)
	c.Assert(f.profiles.writes(), qt.DeepEquals, []string{"delete:patient", "create:dentist"})
}

func TestReconcile_PatientToReceptionistBlockedByAppointments(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient)
	f.refs.refs = map[entity.ProfileKind]entity.ClinicalReferences{
		entity.ProfileKindPatient: {{Category: "appointment(s) as patient", Count: 3}},
	}
	userID := uuid.New()

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         userID,
		RoleID:         entity.RoleIDReceptionist,
		PreviousRoleID: intPtr(entity.RoleIDPatient),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeDegraded)
	c.Assert(result.Deleted, qt.HasLen, 0)
	c.Assert(result.Created, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindReceptionist})
	c.Assert(result.Profiles, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindPatient, entity.ProfileKindReceptionist})
	c.Assert(result.Consistent, qt.IsFalse)
	c.Assert(result.Blocking[entity.ProfileKindPatient].String(), qt.Equals, "3 appointment(s) as patient")
	c.Assert(f.profiles.writes(), qt.DeepEquals, []string{"create:receptionist"})

	warnings := strings.Join(f.warnings(), "\n")
	c.Assert(warnings, qt.Contains, "patient profile: 3 appointment(s) as patient")

	// A later save without a role change leaves the degraded state alone.
	again := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         userID,
		RoleID:         entity.RoleIDReceptionist,
		PreviousRoleID: intPtr(entity.RoleIDReceptionist),
	})

	c.Assert(again.Outcome, qt.Equals, OutcomeUnchanged)
	c.Assert(f.profiles.writes(), qt.DeepEquals, []string{"create:receptionist"})
	c.Assert(f.profiles.profiles, qt.DeepEquals, map[entity.ProfileKind]bool{
		entity.ProfileKindPatient:      true,
		entity.ProfileKindReceptionist: true,
	})
}

func TestReconcile_AnyReferencedProfileBlocksEveryDelete(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient, entity.ProfileKindReceptionist)
	f.refs.refs = map[entity.ProfileKind]entity.ClinicalReferences{
		entity.ProfileKindReceptionist: {{Category: "appointment(s) as receptionist", Count: 1}},
	}

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDAdministrator,
		PreviousRoleID: intPtr(entity.RoleIDReceptionist),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeDegraded)
	c.Assert(result.Deleted, qt.HasLen, 0)
	c.Assert(f.profiles.writes(), qt.HasLen, 0)
}

func TestReconcile_AdministratorToPatient(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture()

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDPatient,
		PreviousRoleID: intPtr(entity.RoleIDAdministrator),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeReconciled)
	c.Assert(result.Created, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindPatient})
	c.Assert(result.Consistent, qt.IsTrue)
}

func TestReconcile_PatientToAdministrator(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient)

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDAdministrator,
		PreviousRoleID: intPtr(entity.RoleIDPatient),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeReconciled)
	c.Assert(result.Deleted, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindPatient})
	c.Assert(result.Profiles, qt.HasLen, 0)
	c.Assert(result.Consistent, qt.IsTrue)
}

func TestReconcile_DeleteFailureDoesNotStopOtherVariants(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient, entity.ProfileKindReceptionist)
	f.profiles.deleteErr = map[entity.ProfileKind]error{
		entity.ProfileKindPatient: errors.New("connection reset"),
	}

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDDentist,
		PreviousRoleID: intPtr(entity.RoleIDReceptionist),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomePartial)
	c.Assert(result.Failures, qt.HasLen, 1)
	c.Assert(result.Deleted, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindReceptionist})
	c.Assert(result.Created, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindDentist})
	c.Assert(result.Profiles, qt.DeepEquals, []entity.ProfileKind{entity.ProfileKindPatient, entity.ProfileKindDentist})
	c.Assert(f.profiles.writes(), qt.DeepEquals, []string{"delete:patient", "delete:receptionist", "create:dentist"})
}

func TestReconcile_CreateFailureIsReported(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture()
	f.profiles.createErr = map[entity.ProfileKind]error{
		entity.ProfileKindDentist: errors.New("duplicate key"),
	}

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:  uuid.New(),
		RoleID:  entity.RoleIDDentist,
		Created: true,
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeFailed)
	c.Assert(result.Failures, qt.HasLen, 1)
	c.Assert(result.Consistent, qt.IsFalse)
}

func TestReconcile_ReferenceCountFailureIsTreatedAsBlocked(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient)
	f.refs.errs = map[entity.ProfileKind]error{
		entity.ProfileKindPatient: errors.New("timeout"),
	}

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDDentist,
		PreviousRoleID: intPtr(entity.RoleIDPatient),
	})

	c.Assert(result.Deleted, qt.HasLen, 0)
	c.Assert(result.Outcome, qt.Equals, OutcomePartial)
	c.Assert(result.Consistent, qt.IsFalse)
	c.Assert(f.profiles.writes(), qt.DeepEquals, []string{"create:dentist"})
}

func TestReconcile_RepairIsIdempotent(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindDentist)

	for i := 0; i < 2; i++ {
		result := f.svc.Reconcile(context.Background(), nil, RoleChange{
			UserID: uuid.New(),
			RoleID: entity.RoleIDDentist,
			Repair: true,
		})

		c.Assert(result.Outcome, qt.Equals, OutcomeUnchanged)
		c.Assert(result.Consistent, qt.IsTrue)
	}
	c.Assert(f.profiles.writes(), qt.HasLen, 0)
}

func TestReconcile_UnresolvedRoleLeavesProfilesUntouched(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient)
	f.resolver.err = ErrRoleNotFound

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         99,
		PreviousRoleID: intPtr(entity.RoleIDPatient),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeUnresolvedRole)
	c.Assert(f.profiles.calls, qt.HasLen, 0)
	c.Assert(strings.Join(f.warnings(), "\n"), qt.Contains, "Cannot resolve role 99")
}

func TestReconcile_UnknownRoleNameLeavesProfilesUntouched(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture()
	f.resolver.names = map[int]string{7: "hygienist"}

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:  uuid.New(),
		RoleID:  7,
		Created: true,
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeUnresolvedRole)
	c.Assert(f.profiles.calls, qt.HasLen, 0)
}

func TestReconcile_NestedCallForSameUserIsSkipped(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture()
	userID := uuid.New()

	var nested *ReconcileResult
	f.resolver.hook = func(ctx context.Context) {
		nested = f.svc.Reconcile(ctx, nil, RoleChange{UserID: userID, RoleID: entity.RoleIDPatient, Created: true})
	}

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:  userID,
		RoleID:  entity.RoleIDPatient,
		Created: true,
	})

	c.Assert(nested.Outcome, qt.Equals, OutcomeReentrant)
	c.Assert(result.Outcome, qt.Equals, OutcomeCreated)
	c.Assert(f.profiles.writes(), qt.DeepEquals, []string{"create:patient"})
}

func TestReconcile_PanicIsRecovered(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture()
	f.resolver.hook = func(ctx context.Context) {
		panic("boom")
	}

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:  uuid.New(),
		RoleID:  entity.RoleIDPatient,
		Created: true,
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeFailed)
	c.Assert(result.Failures, qt.HasLen, 1)
	c.Assert(result.Failures[0], qt.ErrorMatches, "reconciliation panic: boom")
}

func TestReconcileResult_Summary(t *testing.T) {
	c := qt.New(t)

	result := &ReconcileResult{
		RoleName: entity.RoleDentist,
		Outcome:  OutcomeDegraded,
		Blocking: map[entity.ProfileKind]entity.ClinicalReferences{
			entity.ProfileKindPatient: {{Category: "appointment(s) as patient", Count: 2}},
		},
		Failures: []error{errors.New("boom")},
	}

	summary := result.Summary()
	c.Assert(summary["outcome"], qt.Equals, "degraded")
	c.Assert(summary["blocking"], qt.DeepEquals, map[string]string{"patient": "2 appointment(s) as patient"})
	c.Assert(summary["failures"], qt.DeepEquals, []string{"boom"})
}

func TestReconcile_EveryStatementRunsInASavepoint(t *testing.T) {
	c := qt.New(t)
	f := newSyncFixture(entity.ProfileKindPatient)

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDDentist,
		PreviousRoleID: intPtr(entity.RoleIDPatient),
	})

	c.Assert(result.Outcome, qt.Equals, OutcomeReconciled)
	c.Assert(f.resolver.unscoped, qt.HasLen, 0)
	c.Assert(f.profiles.unscoped, qt.HasLen, 0)
	c.Assert(f.refs.unscoped, qt.HasLen, 0)
	c.Assert(f.savepoints, qt.Equals, 1+len(f.profiles.calls)+f.refs.calls)
	c.Assert(f.rolledBack, qt.Equals, 0)
}

func TestReconcile_ReadFailuresRollBackOnlyTheirSavepoint(t *testing.T) {
	c := qt.New(t)
	aborted := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}

	f := newSyncFixture(entity.ProfileKindPatient)
	f.refs.errs = map[entity.ProfileKind]error{entity.ProfileKindPatient: aborted}

	result := f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDDentist,
		PreviousRoleID: intPtr(entity.RoleIDPatient),
	})

	c.Assert(f.rolledBack, qt.Equals, 1)
	c.Assert(f.refs.unscoped, qt.HasLen, 0)
	c.Assert(f.profiles.unscoped, qt.HasLen, 0)
	c.Assert(result.Outcome, qt.Equals, OutcomePartial)
	c.Assert(result.Failures, qt.HasLen, 1)
	c.Assert(errors.Is(result.Failures[0], aborted), qt.IsTrue)
	c.Assert(f.profiles.writes(), qt.DeepEquals, []string{"create:dentist"})

	f = newSyncFixture(entity.ProfileKindPatient)
	f.profiles.existsErr = aborted

	result = f.svc.Reconcile(context.Background(), nil, RoleChange{
		UserID:         uuid.New(),
		RoleID:         entity.RoleIDDentist,
		PreviousRoleID: intPtr(entity.RoleIDPatient),
	})

	c.Assert(f.rolledBack, qt.Equals, 1)
	c.Assert(f.profiles.unscoped, qt.HasLen, 0)
	c.Assert(result.Outcome, qt.Equals, OutcomeFailed)
	c.Assert(f.profiles.writes(), qt.HasLen, 0)
}
