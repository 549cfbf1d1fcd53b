package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/hostel-server/models"
)

type fakeUploader struct {
	folder, name, contentType string
	data                      []byte
	err                       error
}

func (f *fakeUploader) Upload(folder, name, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.folder, f.name, f.contentType, f.data = folder, name, contentType, data
	return "https://cdn.example.com/" + folder + "/" + name, nil
}

func newExportFixture(t *testing.T, up Uploader) (*ExportService, *spyGateway) {
	t.Helper()
	gw := newSpy()
	svc := NewExportService(gw, up, nil)
	svc.now = func() time.Time { return time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC) }

	room := seedRoom(t, gw, "101", models.RoomDouble)
	seedRoom(t, gw, "102", models.RoomSingle)
	a := seedStudent(t, gw, "Asha Rao", "asha@example.com")
	seedStudent(t, gw, "Ben Okafor", "ben@example.com")
	allocate(t, gw, a.ID, room.ID)
	return svc, gw
}

func TestBuildRoster(t *testing.T) {
	svc, _ := newExportFixture(t, nil)

	meta, data, err := svc.BuildRoster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "roster_20241105_143000.xlsx", meta.FileName)
	assert.Equal(t, 2, meta.Students)
	assert.Equal(t, 2, meta.Rooms)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	students, err := f.GetRows(studentsSheetName)
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "Full name", students[0][0])

	roomOf := map[string]string{}
	for _, row := range students[1:] {
		room := ""
		if len(row) > 5 {
			room = row[5]
		}
		roomOf[row[0]] = room
	}
	assert.Equal(t, "101", roomOf["Asha Rao"])
	assert.Equal(t, "", roomOf["Ben Okafor"])

	rooms, err := f.GetRows(roomsSheetName)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, []string{"101", "Double", "Vacant", "2", "1"}, rooms[1][:5])
}

func TestBuildRoster_ReadsEachCollectionOnce(t *testing.T) {
	svc, gw := newExportFixture(t, nil)
	gw.reset()

	_, _, err := svc.BuildRoster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gw.count("ListActiveAllocations"))
	assert.Equal(t, 1, gw.count("ListStudents"))
	assert.Equal(t, 1, gw.count("ListRooms"))
}

func TestBuildRoster_FetchError(t *testing.T) {
	svc, gw := newExportFixture(t, nil)
	gw.failOn("ListActiveAllocations", errors.New("connection reset"))

	_, _, err := svc.BuildRoster(context.Background())
	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "room allocations", ferr.Op)
}

func TestPublishRoster(t *testing.T) {
	up := &fakeUploader{}
	svc, _ := newExportFixture(t, up)

	meta, err := svc.PublishRoster(context.Background())
	require.NoError(t, err)
	require.NotNil(t, meta.URL)
	assert.True(t, strings.HasSuffix(*meta.URL, "/roster/roster_20241105_143000.xlsx"))
	assert.Equal(t, xlsxContentType, up.contentType)
	assert.NotEmpty(t, up.data)
}

func TestPublishRoster_Errors(t *testing.T) {
	svc, _ := newExportFixture(t, nil)
	_, err := svc.PublishRoster(context.Background())
	assert.ErrorIs(t, err, ErrStorageDisabled)

	svc, _ = newExportFixture(t, &fakeUploader{err: errors.New("bucket not found")})
	_, err = svc.PublishRoster(context.Background())
	var merr *MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "bucket not found", RemoteMessage(err))
}
