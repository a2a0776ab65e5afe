package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"klimr/backend/config"
	"klimr/backend/internal/api/handler"
	"klimr/backend/internal/api/middleware"
	"klimr/backend/internal/model"
	"klimr/backend/pkg/jwt"
	"klimr/backend/pkg/redis"
)

// 未认证入口的限流参数
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Pinger 健康检查依赖的存储
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：此时不做黑名单检查与限流；db 为 nil 时健康检查只报告进程存活
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db Pinger, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders(cfg.Auth.Cookie.Secure))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logger.Warn("健康检查：数据库不可用", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.RateLimit(rdb, loginRateLimit, loginRateWindow)
	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher)

	// ── 外部身份登录桥 ──
	login := r.Group("/login")
	{
		login.GET("", limiter, h.Login.Begin)
		login.POST("/callback", limiter, h.Login.Callback)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", limiter, h.Auth.Login)
			auth.POST("/refresh", limiter, h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentAccount)
			authorized.POST("/auth/accounts", admin, h.Auth.CreateAccount)

			info := authorized.Group("/info")
			registerCalendar(info, h, admin)
			registerOrganization(info, h, admin)
			registerPeople(info, h, admin, staff)
			registerCatalog(info, h, admin, staff)
			registerGroups(info, h, admin)

			// 排课模块
			schedule := authorized.Group("/schedule")
			{
				schedule.GET("", h.Schedule.ListLessons)
				schedule.POST("", admin, h.Schedule.CreateLesson)
				schedule.GET("/lesson", h.Schedule.ListLessons)
				schedule.GET("/lesson/:id", h.Schedule.GetLesson)
				schedule.POST("/lesson", admin, h.Schedule.CreateLesson)
				schedule.PUT("/lesson/:id", staff, h.Schedule.UpdateLesson)
				schedule.DELETE("/lesson/:id", admin, h.Schedule.DeleteLesson)

				schedule.GET("/group/:group_id", h.Schedule.ListGroupLessons)
				schedule.GET("/group/:group_id/calendar.ics", h.Export.ExportGroupCalendar)

				schedule.GET("/prototype", h.Schedule.ListPrototypes)
				schedule.GET("/prototype/:id", h.Schedule.GetPrototype)
				schedule.POST("/prototype", admin, h.Schedule.CreatePrototype)
				schedule.PUT("/prototype/:id", admin, h.Schedule.UpdatePrototype)
				schedule.DELETE("/prototype/:id", admin, h.Schedule.DeletePrototype)
			}

			// 答疑队列模块
			queue := authorized.Group("/queue")
			{
				queue.POST("", h.Queue.AddRecord)
				queue.GET("/lesson/:lesson_id", h.Queue.ListRecords)
				queue.POST("/measurement", staff, h.Queue.AddMeasurement)
				queue.GET("/lesson/:lesson_id/measurement", staff, h.Queue.ListMeasurements)
				queue.POST("/lesson/:lesson_id/advised", staff, h.Queue.SetAdvice)
				queue.GET("/lesson/:lesson_id/advised", h.Queue.ListAdvice)
			}
		}
	}

	return r
}

// registerCalendar 学期、节假日与课时
func registerCalendar(info *gin.RouterGroup, h *handler.Handler, admin gin.HandlerFunc) {
	semesters := info.Group("/semester")
	{
		semesters.GET("", h.Semester.ListSemesters)
		semesters.GET("/:id", h.Semester.GetSemester)
		semesters.POST("", admin, h.Semester.CreateSemester)
		semesters.PUT("/:id", admin, h.Semester.UpdateSemester)
		semesters.DELETE("/:id", admin, h.Semester.DeleteSemester)
	}

	holidays := info.Group("/holiday")
	{
		holidays.GET("", h.Semester.ListHolidays)
		holidays.GET("/:id", h.Semester.GetHoliday)
		holidays.POST("", admin, h.Semester.CreateHoliday)
		holidays.POST("/import", admin, h.Semester.ImportHolidays)
		holidays.PUT("/:id", admin, h.Semester.UpdateHoliday)
		holidays.DELETE("/:id", admin, h.Semester.DeleteHoliday)
	}

	timings := info.Group("/lesson-timing")
	{
		timings.GET("", h.Semester.ListTimings)
		timings.GET("/:id", h.Semester.GetTiming)
		timings.POST("", admin, h.Semester.CreateTiming)
		timings.PUT("/:id", admin, h.Semester.UpdateTiming)
		timings.DELETE("/:id", admin, h.Semester.DeleteTiming)
	}
}

// registerOrganization 院系与专业方向
func registerOrganization(info *gin.RouterGroup, h *handler.Handler, admin gin.HandlerFunc) {
	departments := info.Group("/department")
	{
		departments.GET("", h.Department.ListDepartments)
		departments.GET("/:id", h.Department.GetDepartment)
		departments.POST("", admin, h.Department.CreateDepartment)
		departments.PUT("/:id", admin, h.Department.UpdateDepartment)
		departments.DELETE("/:id", admin, h.Department.DeleteDepartment)
	}

	courses := info.Group("/course")
	{
		courses.GET("", h.Department.ListCourses)
		courses.GET("/:id", h.Department.GetCourse)
		courses.POST("", admin, h.Department.CreateCourse)
		courses.PUT("/:id", admin, h.Department.UpdateCourse)
		courses.DELETE("/:id", admin, h.Department.DeleteCourse)
	}
}

// registerPeople 人员、学生与教师
func registerPeople(info *gin.RouterGroup, h *handler.Handler, admin, staff gin.HandlerFunc) {
	persons := info.Group("/person")
	{
		persons.GET("", h.Person.ListPersons)
		persons.GET("/:id", h.Person.GetPerson)
		persons.POST("", admin, h.Person.CreatePerson)
		persons.PUT("/:id", admin, h.Person.UpdatePerson)
		persons.DELETE("/:id", admin, h.Person.DeletePerson)
	}

	students := info.Group("/student")
	{
		students.GET("", h.Person.ListStudents)
		students.GET("/:id", h.Person.GetStudent)
		students.POST("", admin, h.Person.CreateStudent)
		students.PUT("/:id", admin, h.Person.UpdateStudent)
		students.DELETE("/:id", admin, h.Person.DeleteStudent)
		students.GET("/:id/completed", h.Person.ListCompleted)
		students.POST("/:id/completed", staff, h.Person.CompleteAssignment)
	}

	teachers := info.Group("/teacher")
	{
		teachers.GET("", h.Person.ListTeachers)
		teachers.GET("/:id", h.Person.GetTeacher)
		teachers.POST("", admin, h.Person.CreateTeacher)
		teachers.PUT("/:id", admin, h.Person.UpdateTeacher)
		teachers.DELETE("/:id", admin, h.Person.DeleteTeacher)
	}
}

// registerCatalog 学科、教室与作业
func registerCatalog(info *gin.RouterGroup, h *handler.Handler, admin, staff gin.HandlerFunc) {
	disciplines := info.Group("/discipline")
	{
		disciplines.GET("", h.Catalog.ListDisciplines)
		disciplines.GET("/:id", h.Catalog.GetDiscipline)
		disciplines.POST("", admin, h.Catalog.CreateDiscipline)
		disciplines.PUT("/:id", admin, h.Catalog.UpdateDiscipline)
		disciplines.DELETE("/:id", admin, h.Catalog.DeleteDiscipline)
	}

	classrooms := info.Group("/classroom")
	{
		classrooms.GET("", h.Catalog.ListClassrooms)
		classrooms.GET("/:id", h.Catalog.GetClassroom)
		classrooms.POST("", admin, h.Catalog.CreateClassroom)
		classrooms.PUT("/:id", admin, h.Catalog.UpdateClassroom)
		classrooms.DELETE("/:id", admin, h.Catalog.DeleteClassroom)
	}

	assignments := info.Group("/assignment")
	{
		assignments.GET("", h.Catalog.ListAssignments)
		assignments.GET("/:id", h.Catalog.GetAssignment)
		assignments.POST("", staff, h.Catalog.CreateAssignment)
		assignments.PUT("/:id", staff, h.Catalog.UpdateAssignment)
		assignments.DELETE("/:id", staff, h.Catalog.DeleteAssignment)
	}
}

// registerGroups 班级注册表（状态、子组、名单导出）
func registerGroups(info *gin.RouterGroup, h *handler.Handler, admin gin.HandlerFunc) {
	groups := info.Group("/group")
	{
		groups.GET("", h.Group.ListGroups)
		groups.POST("", admin, h.Group.CreateGroup)
		groups.GET("/:id", h.Group.GetGroup)
		groups.DELETE("/:id", admin, h.Group.DeleteGroup)
		groups.GET("/:id/roster.xlsx", h.Export.ExportRoster)

		groups.GET("/:id/state", h.Group.ListStates)
		groups.POST("/:id/state", admin, h.Group.CreateState)
		groups.GET("/:id/state/as-of", h.Group.GetStateAsOf)
		groups.GET("/:id/state/:state_id", h.Group.GetState)
		groups.POST("/:id/state/:state_id/subgroup", admin, h.Group.AddSubgroup)
		groups.PUT("/:id/state/:state_id/subgroup/:subgroup_id", admin, h.Group.ReplaceSubgroup)
	}
}
