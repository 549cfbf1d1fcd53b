package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/hostel-server/services"
)

type RoomController struct {
	rooms *services.RoomService
}

func NewRoomController(rooms *services.RoomService) *RoomController {
	return &RoomController{rooms: rooms}
}

// GET /api/rooms
// A failed read still answers 200 with empty collections so the console can
// render its empty state.
func (rc *RoomController) ListRooms(c *gin.Context) {
	overview, err := rc.rooms.Overview(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusOK, gin.H{
			"rooms":     []any{},
			"occupants": gin.H{},
			"error":     services.RemoteMessage(err),
		})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GET /api/rooms/:id
func (rc *RoomController) GetRoom(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	detail, err := rc.rooms.GetRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// POST /api/rooms
func (rc *RoomController) CreateRoom(c *gin.Context) {
	var req services.CreateRoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	room, err := rc.rooms.CreateRoom(c.Request.Context(), req)
	var partial *services.PartialSuccessError
	switch {
	case errors.As(err, &partial):
		c.JSON(http.StatusCreated, gin.H{
			"room":             room,
			"allocation_error": partial.Error(),
			"refetch":          []string{refetchRooms, refetchAllocations},
		})
		return
	case err != nil:
		respondError(c, err)
		return
	}
	refetch := []string{refetchRooms}
	if req.StudentID != nil {
		refetch = append(refetch, refetchAllocations)
	}
	c.JSON(http.StatusCreated, gin.H{"room": room, "refetch": refetch})
}

// PUT /api/rooms/:id
func (rc *RoomController) UpdateRoom(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req services.UpdateRoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	room, err := rc.rooms.UpdateRoom(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "refetch": []string{refetchRooms}})
}

// DELETE /api/rooms/:id
func (rc *RoomController) DeleteRoom(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := rc.rooms.DeleteRoom(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted", "refetch": []string{refetchRooms}})
}

// POST /api/rooms/:id/allocations
func (rc *RoomController) AllocateStudent(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req struct {
		StudentID uuid.UUID `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := rc.rooms.AllocateStudent(c.Request.Context(), id, req.StudentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Student allocated",
		"refetch": []string{refetchRooms, refetchAllocations},
	})
}

// DELETE /api/allocations/:student_id
func (rc *RoomController) DeallocateStudent(c *gin.Context) {
	studentID, err := uuidParam(c, "student_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := rc.rooms.DeallocateStudent(c.Request.Context(), studentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Student deallocated",
		"refetch": []string{refetchRooms, refetchAllocations},
	})
}
