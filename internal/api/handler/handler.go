package handler

import (
	"klimr/backend/config"
	"klimr/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Login      *LoginHandler
	Semester   *SemesterHandler
	Department *DepartmentHandler
	Person     *PersonHandler
	Catalog    *CatalogHandler
	Group      *GroupHandler
	Schedule   *ScheduleHandler
	Queue      *QueueHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	cookies := newCookieWriter(&cfg.Auth.Cookie)
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, cookies, &cfg.Auth),
		Login:      NewLoginHandler(svc.Auth, cookies, cfg.OIDC.StateTTL),
		Semester:   NewSemesterHandler(svc.Semester),
		Department: NewDepartmentHandler(svc.Department),
		Person:     NewPersonHandler(svc.Person),
		Catalog:    NewCatalogHandler(svc.Catalog),
		Group:      NewGroupHandler(svc.Group),
		Schedule:   NewScheduleHandler(svc.Schedule),
		Queue:      NewQueueHandler(svc.Queue),
		Export:     NewExportHandler(svc.Export),
	}
}
