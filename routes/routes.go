package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vnkhanh/hostel-server/controllers"
	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/middleware"
	"github.com/vnkhanh/hostel-server/services"
)

type Deps struct {
	Gateway       gateway.Gateway
	JWTSecret     string
	SignupLimiter *middleware.IPRateLimiter
	Uploader      services.Uploader // nil disables POST /api/exports/roster
	Logger        *zap.Logger
}

func SetupRoutes(r *gin.Engine, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	roomSvc := services.NewRoomService(d.Gateway, d.Logger.Named("rooms"))
	studentSvc := services.NewStudentService(d.Gateway, d.Logger.Named("students"))
	maintenanceSvc := services.NewMaintenanceService(d.Gateway, d.Logger.Named("maintenance"))
	exportSvc := services.NewExportService(d.Gateway, d.Uploader, d.Logger.Named("exports"))

	roomCtl := controllers.NewRoomController(roomSvc)
	studentCtl := controllers.NewStudentController(studentSvc)
	maintenanceCtl := controllers.NewMaintenanceController(maintenanceSvc)
	exportCtl := controllers.NewExportController(exportSvc)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck(d.Gateway))

	api := r.Group("/api")
	api.Use(middleware.AuthJWT(d.JWTSecret, d.Gateway, d.Logger), middleware.RequireAdmin())
	{
		rooms := api.Group("/rooms")
		{
			rooms.GET("", roomCtl.ListRooms)
			rooms.POST("", roomCtl.CreateRoom)
			rooms.GET("/:id", roomCtl.GetRoom)
			rooms.PUT("/:id", roomCtl.UpdateRoom)
			rooms.DELETE("/:id", roomCtl.DeleteRoom)
			rooms.POST("/:id/allocations", roomCtl.AllocateStudent)
		}
		api.DELETE("/allocations/:student_id", roomCtl.DeallocateStudent)

		students := api.Group("/students")
		{
			students.GET("", studentCtl.ListStudents)
			students.GET("/unallocated", studentCtl.ListUnallocated)
			students.POST("", middleware.RateLimitByIP(d.SignupLimiter), studentCtl.CreateStudent)
			students.GET("/:id", studentCtl.GetStudent)
			students.PUT("/:id", studentCtl.UpdateStudent)
			students.DELETE("/:id", studentCtl.DeleteStudent)
		}

		maintenance := api.Group("/maintenance")
		{
			maintenance.GET("", maintenanceCtl.List)
			maintenance.GET("/:id", maintenanceCtl.Get)
		}

		exports := api.Group("/exports")
		{
			exports.GET("/roster", exportCtl.DownloadRoster)
			exports.POST("/roster", exportCtl.PublishRoster)
		}
	}
}
