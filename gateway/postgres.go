package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/hostel-server/models"
	"github.com/vnkhanh/hostel-server/utils"
)

// Postgres runs the gateway directly on the database, for deployments without
// the hosted API. allocate_room and signup are reproduced as transactions.
type Postgres struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ Gateway = (*Postgres)(nil)

func NewPostgres(db *gorm.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *Postgres) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := p.db.WithContext(ctx).Order("room_number asc").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (p *Postgres) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	if err := p.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (p *Postgres) InsertRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	room.ID = 0
	if err := p.db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (p *Postgres) UpdateRoom(ctx context.Context, id int64, upd models.RoomUpdate) (*models.Room, error) {
	res := p.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Updates(map[string]any{
		"room_number": upd.RoomNumber,
		"type":        upd.Type,
		"status":      upd.Status,
		"occupants":   upd.Occupants,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return p.GetRoom(ctx, id)
}

func (p *Postgres) DeleteRoom(ctx context.Context, id int64) error {
	return p.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}

func (p *Postgres) ListActiveAllocations(ctx context.Context) ([]models.ActiveAllocation, error) {
	var rows []struct {
		RoomID    int64
		StudentID uuid.UUID
		FullName  *string
	}
	err := p.db.WithContext(ctx).
		Table("room_allocations AS a").
		Select("a.room_id, a.student_id, p.full_name").
		Joins("LEFT JOIN profiles p ON p.id = a.student_id").
		Where("a.is_active = ?", true).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.ActiveAllocation, 0, len(rows))
	for _, r := range rows {
		a := models.ActiveAllocation{RoomID: r.RoomID, StudentID: r.StudentID}
		if r.FullName != nil {
			a.Profile = &models.ProfileName{FullName: *r.FullName}
		}
		out = append(out, a)
	}
	return out, nil
}

// AllocateRoom is the local rendition of the allocate_room procedure: the room
// row is locked for the duration so concurrent allocations serialise on it.
func (p *Postgres) AllocateRoom(ctx context.Context, studentID uuid.UUID, roomID int64) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &Error{Status: 404, Code: "P0002", Message: "Room not found"}
			}
			return err
		}
		// Serializes allocations of the same student into different rooms.
		var student models.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", studentID).Take(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &Error{Status: 404, Code: "P0002", Message: "Student not found"}
			}
			return err
		}
		if room.Status == models.RoomMaintenance {
			return ErrRoomUnavailable
		}

		var taken int64
		if err := tx.Model(&models.RoomAllocation{}).
			Where("student_id = ? AND is_active = ?", studentID, true).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrAlreadyAllocated
		}

		var count int64
		if err := tx.Model(&models.RoomAllocation{}).
			Where("room_id = ? AND is_active = ?", roomID, true).
			Count(&count).Error; err != nil {
			return err
		}
		if int(count) >= room.Type.Capacity() {
			return ErrRoomFull
		}

		alloc := models.RoomAllocation{RoomID: roomID, StudentID: studentID, IsActive: true}
		if err := tx.Create(&alloc).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyAllocated
			}
			return err
		}
		status := statusAfterAllocation(room, int(count)+1)
		if status != room.Status {
			if err := tx.Model(&room).Update("status", status).Error; err != nil {
				return err
			}
		}
		p.logger.Info("room allocated",
			zap.Int64("room_id", roomID),
			zap.String("student_id", studentID.String()),
			zap.Int64("occupants", count+1),
		)
		return nil
	})
}

func (p *Postgres) DeallocateStudent(ctx context.Context, studentID uuid.UUID) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var alloc models.RoomAllocation
		err := tx.Where("student_id = ? AND is_active = ?", studentID, true).First(&alloc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveRoom
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&alloc).Update("is_active", false).Error; err != nil {
			return err
		}

		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, alloc.RoomID).Error; err != nil {
			return notFound(err)
		}
		var count int64
		if err := tx.Model(&models.RoomAllocation{}).
			Where("room_id = ? AND is_active = ?", room.ID, true).
			Count(&count).Error; err != nil {
			return err
		}
		if status := statusAfterAllocation(room, int(count)); status != room.Status {
			return tx.Model(&room).Update("status", status).Error
		}
		return nil
	})
}

func (p *Postgres) ListStudents(ctx context.Context) ([]models.Profile, error) {
	var students []models.Profile
	err := p.db.WithContext(ctx).
		Where("role = ?", models.RoleStudent).
		Order("created_at desc").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (p *Postgres) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (p *Postgres) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	fields := map[string]any{}
	if upd.FullName != nil {
		fields["full_name"] = *upd.FullName
	}
	if upd.Phone != nil {
		fields["phone"] = *upd.Phone
	}
	if upd.Course != nil {
		fields["course"] = *upd.Course
	}
	if len(fields) > 0 {
		res := p.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return p.GetProfile(ctx, id)
}

// DeleteProfile removes the profiles row only; auth_users is left untouched.
func (p *Postgres) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	return p.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Profile{}).Error
}

func (p *Postgres) SignUp(ctx context.Context, req models.SignUpRequest) (*models.SignUpResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	var result models.SignUpResult

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AuthUser
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			// Same answer the hosted provider gives: a user without identities.
			existing.Identities = []models.Identity{}
			result.User = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return err
		}
		now := time.Now()
		user := models.AuthUser{
			ID:                 uuid.New(),
			Email:              email,
			PasswordHash:       hash,
			UserMetadata:       req.Metadata,
			ConfirmationSentAt: &now,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := profileFromMetadata(user.ID, email, req.Metadata, now)
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		user.Identities = []models.Identity{{ID: user.ID.String(), Provider: "email"}}
		result.User = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (p *Postgres) ListMaintenanceRequests(ctx context.Context) ([]models.MaintenanceRequest, error) {
	var rows []models.MaintenanceRequest
	if err := p.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *Postgres) GetMaintenanceRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	var r models.MaintenanceRequest
	if err := p.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
