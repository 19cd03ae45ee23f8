package usecase

import (
	"context"
	"errors"
	"testing"

	"clinica-dental-backend/internal/domain/entity"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

type memAuditLogRepo struct {
	logs []entity.AuditLog
	err  error
}

func (r *memAuditLogRepo) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memAuditLogRepo) FindAll(ctx context.Context, db *gorm.DB) ([]entity.AuditLog, error) {
	return r.logs, r.err
}

func (r *memAuditLogRepo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.AuditLog, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.logs {
		if r.logs[i].ID == id {
			return &r.logs[i], nil
		}
	}
	return nil, nil
}

func TestAuditLogUsecase_ListsRoleChanges(t *testing.T) {
	c := qt.New(t)
	log, _ := test.NewNullLogger()
	repo := &memAuditLogRepo{logs: []entity.AuditLog{
		{ID: 1, Action: entity.AuditActionUserCreate},
		{ID: 2, Action: entity.AuditActionUserRoleChange, Metadata: entity.JSON{"reconciliation": map[string]interface{}{"outcome": "degraded"}}},
	}}
	uc := NewAuditLogUsecase(nil, log, repo)

	list, err := uc.GetAllAuditLogs(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(list.Total, qt.Equals, 2)
	c.Assert(list.Logs[1].Action, qt.Equals, entity.AuditActionUserRoleChange)

	one, err := uc.GetAuditLog(context.Background(), 2)
	c.Assert(err, qt.IsNil)
	c.Assert(one.Metadata["reconciliation"], qt.DeepEquals, map[string]interface{}{"outcome": "degraded"})
}

func TestAuditLogUsecase_Errors(t *testing.T) {
	c := qt.New(t)
	log, hook := test.NewNullLogger()

	_, err := NewAuditLogUsecase(nil, log, &memAuditLogRepo{}).GetAuditLog(context.Background(), 7)
	c.Assert(errors.Is(err, ErrAuditLogNotFound), qt.IsTrue)

	_, err = NewAuditLogUsecase(nil, log, &memAuditLogRepo{err: errors.New("connection refused")}).GetAllAuditLogs(context.Background())
	c.Assert(err, qt.ErrorMatches, "connection refused")
	c.Assert(hook.LastEntry().Message, qt.Contains, "Failed to find all audit logs")
}
