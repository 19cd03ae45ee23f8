package usecase

import (
	"context"
	"time"

	"clinica-dental-backend/internal/converter"
	"clinica-dental-backend/internal/delivery/dto"
	"clinica-dental-backend/internal/delivery/http/middleware"
	"clinica-dental-backend/internal/domain/entity"
	"clinica-dental-backend/internal/domain/repository"
	"clinica-dental-backend/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserUsecase interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserWriteResponse, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	ListUsers(ctx context.Context) (*dto.UserListResponse, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserWriteResponse, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type userUsecase struct {
	db                      *gorm.DB
	log                     *logrus.Logger
	userRepo                repository.UserRepository
	roleRepo                repository.RoleRepository
	patientProfileRepo      repository.PatientProfileRepository
	dentistProfileRepo      repository.DentistProfileRepository
	receptionistProfileRepo repository.ReceptionistProfileRepository
	profileSync             service.ProfileSyncService
	auditService            service.AuditService
}

func NewUserUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	patientProfileRepo repository.PatientProfileRepository,
	dentistProfileRepo repository.DentistProfileRepository,
	receptionistProfileRepo repository.ReceptionistProfileRepository,
	profileSync service.ProfileSyncService,
	auditService service.AuditService,
) UserUsecase {
	return &userUsecase{
		db:                      db,
		log:                     log,
		userRepo:                userRepo,
		roleRepo:                roleRepo,
		patientProfileRepo:      patientProfileRepo,
		dentistProfileRepo:      dentistProfileRepo,
		receptionistProfileRepo: receptionistProfileRepo,
		profileSync:             profileSync,
		auditService:            auditService,
	}
}

// CreateUser creates a user with the requested role. When the request carries
// profile details for that role the profile is provisioned from them and
// reconciliation is skipped; otherwise reconciliation creates an empty profile.
func (u *userUsecase) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserWriteResponse, error) {
	var dob *time.Time
	if req.Patient != nil && req.Patient.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.Patient.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		dob = &parsed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	role, err := u.roleRepo.FindByName(ctx, tx, req.Role)
	if err != nil {
		u.log.Warnf("Failed to find role: %+v", err)
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	active := true
	user := &entity.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		FullName: req.FullName,
		RoleID:   role.ID,
		IsActive: &active,
	}

	if err := u.userRepo.Create(ctx, tx, user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	provisioned, err := u.provisionProfile(ctx, tx, user.ID, role.RoleName, req, dob)
	if err != nil {
		if isDuplicateKeyError(err, "license") {
			return nil, ErrLicenseAlreadyExists
		}
		u.log.Warnf("Failed to provision profile: %+v", err)
		return nil, err
	}

	result := u.profileSync.Reconcile(ctx, tx, service.RoleChange{
		UserID:   user.ID,
		RoleID:   user.RoleID,
		Created:  true,
		SkipSync: provisioned,
	})

	actorID, _ := middleware.GetUserIDFromContext(ctx)
	if err := u.auditService.LogCreate(ctx, tx, &actorID, entity.AuditActionUserCreate, "user", user.ID.String(), map[string]interface{}{
		"email":          user.Email,
		"role":           role.RoleName,
		"reconciliation": result.Summary(),
	}); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return u.writeResponse(ctx, user.ID, result)
}

func (u *userUsecase) GetUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find user: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

func (u *userUsecase) ListUsers(ctx context.Context) (*dto.UserListResponse, error) {
	users, err := u.userRepo.FindAllWithProfiles(ctx, u.db, -1, -1)
	if err != nil {
		u.log.Warnf("Failed to find all users: %+v", err)
		return nil, err
	}

	responses := converter.UsersToResponses(users)
	return &dto.UserListResponse{
		Users: responses,
		Total: len(responses),
	}, nil
}

// UpdateUser applies the changes and reconciles profiles inside the same
// transaction. The previous role is read from storage before the write with
// a plain select: concurrent updates are last-write-wins, and reconciliation
// works from the profiles that exist rather than from the previous role.
func (u *userUsecase) UpdateUser(ctx context.Context, userID uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserWriteResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user, err := u.userRepo.FindByID(ctx, tx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	previousRoleID := user.RoleID
	oldValue := map[string]interface{}{
		"email":     user.Email,
		"full_name": user.FullName,
		"role_id":   user.RoleID,
		"is_active": user.IsActive,
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.IsActive != nil {
		user.IsActive = req.IsActive
	}
	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			u.log.Warnf("Failed to hash password: %+v", err)
			return nil, err
		}
		user.Password = string(hashedPassword)
	}
	if req.Role != "" {
		role, err := u.roleRepo.FindByName(ctx, tx, req.Role)
		if err != nil {
			u.log.Warnf("Failed to find role: %+v", err)
			return nil, err
		}
		if role == nil {
			return nil, ErrRoleNotFound
		}
		user.RoleID = role.ID
	}

	if err := u.userRepo.Update(ctx, tx, user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to update user: %+v", err)
		return nil, err
	}

	result := u.profileSync.Reconcile(ctx, tx, service.RoleChange{
		UserID:         user.ID,
		RoleID:         user.RoleID,
		PreviousRoleID: &previousRoleID,
	})

	actorID, _ := middleware.GetUserIDFromContext(ctx)
	newValue := map[string]interface{}{
		"email":     user.Email,
		"full_name": user.FullName,
		"role_id":   user.RoleID,
		"is_active": user.IsActive,
	}
	if err := u.auditService.LogUpdate(ctx, tx, &actorID, entity.AuditActionUserUpdate, "user", user.ID.String(), oldValue, newValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}
	if previousRoleID != user.RoleID {
		if err := u.auditService.LogEvent(ctx, tx, &actorID, entity.AuditActionUserRoleChange, entity.JSON{
			"entity":           "user",
			"entity_id":        user.ID.String(),
			"previous_role_id": previousRoleID,
			"role_id":          user.RoleID,
			"reconciliation":   result.Summary(),
		}); err != nil {
			u.log.Warnf("Failed to create audit log: %+v", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return u.writeResponse(ctx, user.ID, result)
}

// DeleteUser removes the user. Profile rows cascade with it; clinical
// records referencing a profile block the delete.
func (u *userUsecase) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user, err := u.userRepo.FindByID(ctx, tx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user: %+v", err)
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	oldValue := converter.UserToResponse(user)

	affectedRows, err := u.userRepo.Delete(ctx, tx, userID)
	if err != nil {
		if isForeignKeyError(err, "profile") {
			return ErrUserHasClinicalRecords
		}
		u.log.Warnf("Failed delete user: %+v", err)
		return err
	}
	if affectedRows == 0 {
		return ErrUserNotFound
	}

	actorID, _ := middleware.GetUserIDFromContext(ctx)
	if err := u.auditService.LogDelete(ctx, tx, &actorID, entity.AuditActionUserDelete, "user", userID.String(), oldValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}

// provisionProfile creates the detailed profile for roleName when the request
// carries details for it. It reports whether a profile was created.
func (u *userUsecase) provisionProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID, roleName string, req *dto.CreateUserRequest, dob *time.Time) (bool, error) {
	switch {
	case roleName == entity.RolePatient && req.Patient != nil:
		return true, u.patientProfileRepo.Create(ctx, tx, &entity.PatientProfile{
			UserID:           userID,
			PhoneNumber:      req.Patient.PhoneNumber,
			DateOfBirth:      dob,
			Gender:           req.Patient.Gender,
			Address:          req.Patient.Address,
			EmergencyContact: req.Patient.EmergencyContact,
		})
	case roleName == entity.RoleDentist && req.Dentist != nil:
		license := req.Dentist.LicenseNumber
		return true, u.dentistProfileRepo.Create(ctx, tx, &entity.DentistProfile{
			UserID:        userID,
			LicenseNumber: &license,
			Specialty:     req.Dentist.Specialty,
			Biography:     req.Dentist.Biography,
		})
	case roleName == entity.RoleReceptionist && req.Receptionist != nil:
		return true, u.receptionistProfileRepo.Create(ctx, tx, &entity.ReceptionistProfile{
			UserID:      userID,
			PhoneNumber: req.Receptionist.PhoneNumber,
			Shift:       req.Receptionist.Shift,
		})
	}
	return false, nil
}

func (u *userUsecase) writeResponse(ctx context.Context, userID uuid.UUID, result *service.ReconcileResult) (*dto.UserWriteResponse, error) {
	user, err := u.userRepo.FindByID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to reload user: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return &dto.UserWriteResponse{
		User:           converter.UserToResponse(user),
		Reconciliation: converter.ReconcileResultToResponse(result),
	}, nil
}
