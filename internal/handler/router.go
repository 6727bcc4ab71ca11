package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles every route handler for registration.
type Handlers struct {
	Dashboard     *DashboardHandler
	Teachers      *TeacherHandler
	Students      *StudentHandler
	Departments   *DepartmentHandler
	Classes       *ClassHandler
	Courses       *CourseHandler
	Chapters      *ChapterHandler
	Exams         *ExamHandler
	Assignments   *AssignmentHandler
	Results       *ResultHandler
	Events        *EventHandler
	Announcements *AnnouncementHandler
	Chat          *ChatHandler
	Audit         *AuditHandler
}

// Middleware carries the chain applied to the API group. Audit is a
// factory so each mutation route records its own action and resource.
type Middleware struct {
	Session gin.HandlerFunc
	Guard   gin.HandlerFunc
	Audit   func(action, resource string) gin.HandlerFunc
}

// RegisterRoutes mounts the API under prefix. Every route sits behind the
// session check and the role route guard; mutations additionally write an
// audit record.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, mw Middleware) {
	api := r.Group(prefix)
	api.Use(mw.Session)
	api.Use(mw.Guard)

	api.GET("/dashboard", h.Dashboard.Summary)

	registerCRUD(api, "/teachers", "teacher", mw, crudHandlers{
		list: h.Teachers.List, get: h.Teachers.Get,
		create: h.Teachers.Create, update: h.Teachers.Update, delete: h.Teachers.Delete,
	})
	registerCRUD(api, "/students", "student", mw, crudHandlers{
		list: h.Students.List, get: h.Students.Get,
		create: h.Students.Create, update: h.Students.Update, delete: h.Students.Delete,
	})
	registerCRUD(api, "/departments", "department", mw, crudHandlers{
		list: h.Departments.List, get: h.Departments.Get,
		create: h.Departments.Create, update: h.Departments.Update, delete: h.Departments.Delete,
	})
	registerCRUD(api, "/classes", "class", mw, crudHandlers{
		list: h.Classes.List, get: h.Classes.Get,
		create: h.Classes.Create, update: h.Classes.Update, delete: h.Classes.Delete,
	})
	registerCRUD(api, "/courses", "course", mw, crudHandlers{
		list: h.Courses.List, get: h.Courses.Get,
		create: h.Courses.Create, update: h.Courses.Update, delete: h.Courses.Delete,
	})
	registerCRUD(api, "/chapters", "chapter", mw, crudHandlers{
		list: h.Chapters.List, get: h.Chapters.Get,
		create: h.Chapters.Create, update: h.Chapters.Update, delete: h.Chapters.Delete,
	})
	registerCRUD(api, "/exams", "exam", mw, crudHandlers{
		list: h.Exams.List, get: h.Exams.Get,
		create: h.Exams.Create, update: h.Exams.Update, delete: h.Exams.Delete,
	})
	registerCRUD(api, "/assignments", "assignment", mw, crudHandlers{
		list: h.Assignments.List, get: h.Assignments.Get,
		create: h.Assignments.Create, update: h.Assignments.Update, delete: h.Assignments.Delete,
	})
	registerCRUD(api, "/events", "event", mw, crudHandlers{
		list: h.Events.List, get: h.Events.Get,
		create: h.Events.Create, update: h.Events.Update, delete: h.Events.Delete,
	})
	registerCRUD(api, "/announcements", "announcement", mw, crudHandlers{
		list: h.Announcements.List, get: h.Announcements.Get,
		create: h.Announcements.Create, update: h.Announcements.Update, delete: h.Announcements.Delete,
	})

	results := api.Group("/results")
	results.GET("", h.Results.List)
	results.GET("/export", h.Results.Export)
	results.GET("/:id", h.Results.Get)
	results.POST("", mw.Audit("create", "result"), h.Results.Create)
	results.PUT("/:id", mw.Audit("update", "result"), h.Results.Update)
	results.DELETE("/:id", mw.Audit("delete", "result"), h.Results.Delete)

	chat := api.Group("/chat")
	chat.GET("/token", h.Chat.Token)
	chat.GET("/channels", h.Chat.Channels)
	chat.GET("/unread", h.Chat.Unread)
	chat.POST("/sync", mw.Audit("sync", "chat"), h.Chat.Sync)

	api.GET("/audit", h.Audit.List)
}

type crudHandlers struct {
	list   gin.HandlerFunc
	get    gin.HandlerFunc
	create gin.HandlerFunc
	update gin.HandlerFunc
	delete gin.HandlerFunc
}

func registerCRUD(api *gin.RouterGroup, path, resource string, mw Middleware, h crudHandlers) {
	g := api.Group(path)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", mw.Audit("create", resource), h.create)
	g.PUT("/:id", mw.Audit("update", resource), h.update)
	g.DELETE("/:id", mw.Audit("delete", resource), h.delete)
}
