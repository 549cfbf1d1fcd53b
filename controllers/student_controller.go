package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/hostel-server/services"
)

type StudentController struct {
	students *services.StudentService
}

func NewStudentController(students *services.StudentService) *StudentController {
	return &StudentController{students: students}
}

// GET /api/students?search=&status=all|allocated|unallocated
func (sc *StudentController) ListStudents(c *gin.Context) {
	status, err := services.ParseStatusFilter(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	roster, err := sc.students.Roster(c.Request.Context(), c.Query("search"), status)
	if err != nil {
		var ferr *services.FetchError
		if errors.As(err, &ferr) {
			_ = c.Error(err)
			c.JSON(http.StatusOK, gin.H{"students": []any{}, "total": 0, "error": services.RemoteMessage(err)})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

// GET /api/students/unallocated
func (sc *StudentController) ListUnallocated(c *gin.Context) {
	students, err := sc.students.ListUnallocatedStudents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// GET /api/students/:id
func (sc *StudentController) GetStudent(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	detail, err := sc.students.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// POST /api/students
func (sc *StudentController) CreateStudent(c *gin.Context) {
	var req services.CreateStudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	created, err := sc.students.CreateStudentAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"account": created,
		"message": accountCreatedMessage(created.VerificationRequired),
		"refetch": []string{refetchStudents},
	})
}

func accountCreatedMessage(verificationRequired bool) string {
	if verificationRequired {
		return "Student account created. They must verify their email before signing in."
	}
	return "Student account created. They can sign in now."
}

// PUT /api/students/:id
func (sc *StudentController) UpdateStudent(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	var req services.UpdateStudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := sc.students.UpdateStudent(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": profile, "refetch": []string{refetchStudents}})
}

// DELETE /api/students/:id
func (sc *StudentController) DeleteStudent(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := sc.students.DeleteStudent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Student profile deleted. The sign-in account must be removed separately.",
		"refetch": []string{refetchStudents, refetchAllocations},
	})
}
