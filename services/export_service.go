package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vnkhanh/hostel-server/models"
)

const (
	rosterFolder      = "roster"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	studentsSheetName = "Students"
	roomsSheetName    = "Rooms"
)

// Uploader stores a generated file and returns where it can be downloaded.
type Uploader interface {
	Upload(folder, name, contentType string, data []byte) (string, error)
}

// ExportGateway is the read side the roster export needs.
type ExportGateway interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListStudents(ctx context.Context) ([]models.Profile, error)
	ListActiveAllocations(ctx context.Context) ([]models.ActiveAllocation, error)
}

type ExportService struct {
	gw       ExportGateway
	uploader Uploader
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService accepts a nil uploader; PublishRoster then fails with
// ErrStorageDisabled while BuildRoster keeps working.
func NewExportService(gw ExportGateway, uploader Uploader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{gw: gw, uploader: uploader, logger: logger, now: time.Now}
}

// rosterSnapshot is one read of each collection; every sheet is derived from it.
type rosterSnapshot struct {
	students    []models.Profile
	rooms       []models.Room
	allocations []models.ActiveAllocation
}

func (s *ExportService) snapshot(ctx context.Context) (*rosterSnapshot, error) {
	var snap rosterSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if snap.students, err = s.gw.ListStudents(gctx); err != nil {
			return &FetchError{Op: "students", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if snap.rooms, err = s.gw.ListRooms(gctx); err != nil {
			return &FetchError{Op: "rooms", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if snap.allocations, err = s.gw.ListActiveAllocations(gctx); err != nil {
			return &FetchError{Op: "room allocations", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// BuildRoster renders the current roster and room overview as an xlsx workbook.
func (s *ExportService) BuildRoster(ctx context.Context) (*models.RosterExport, []byte, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	occupants := NewOccupancy(snap.allocations)

	numbers := make(map[int64]string, len(snap.rooms))
	for _, r := range snap.rooms {
		numbers[r.ID] = r.RoomNumber
	}
	roomOf := make(map[uuid.UUID]string, len(snap.allocations))
	for _, a := range snap.allocations {
		roomOf[a.StudentID] = numbers[a.RoomID]
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", studentsSheetName); err != nil {
		return nil, nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, nil, err
	}
	if err := writeHeader(f, studentsSheetName, header, "Full name", "Email", "Phone", "Course", "Joining date", "Room"); err != nil {
		return nil, nil, err
	}
	for i, st := range snap.students {
		if err := writeRow(f, studentsSheetName, i+2,
			st.FullName, st.Email, deref(st.Phone), deref(st.Course), deref(st.JoiningDate), roomOf[st.ID],
		); err != nil {
			return nil, nil, err
		}
	}

	if _, err := f.NewSheet(roomsSheetName); err != nil {
		return nil, nil, err
	}
	if err := writeHeader(f, roomsSheetName, header, "Room number", "Type", "Status", "Capacity", "Occupants"); err != nil {
		return nil, nil, err
	}
	for i, r := range snap.rooms {
		if err := writeRow(f, roomsSheetName, i+2,
			r.RoomNumber, string(r.Type), string(r.Status), CapacityOf(r.Type), occupants.Count(r.ID),
		); err != nil {
			return nil, nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("write roster workbook: %w", err)
	}

	now := s.now()
	meta := &models.RosterExport{
		FileName:    fmt.Sprintf("roster_%s.xlsx", now.Format("20060102_150405")),
		Format:      "xlsx",
		Students:    len(snap.students),
		Rooms:       len(snap.rooms),
		GeneratedAt: now,
	}
	return meta, bytes.Clone(buf.Bytes()), nil
}

// PublishRoster builds the workbook and uploads it to the storage bucket.
func (s *ExportService) PublishRoster(ctx context.Context) (*models.RosterExport, error) {
	if s.uploader == nil {
		return nil, ErrStorageDisabled
	}
	meta, data, err := s.BuildRoster(ctx)
	if err != nil {
		return nil, err
	}
	url, err := s.uploader.Upload(rosterFolder, meta.FileName, xlsxContentType, data)
	if err != nil {
		return nil, &MutationError{Op: "upload roster", Err: err}
	}
	meta.URL = &url
	s.logger.Info("roster published", zap.String("file", meta.FileName), zap.Int("students", meta.Students))
	return meta, nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeHeader(f *excelize.File, sheet string, style int, titles ...any) error {
	if err := writeRow(f, sheet, 1, titles...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
