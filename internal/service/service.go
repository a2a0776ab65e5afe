package service

import (
	"time"

	"go.uber.org/zap"

	"klimr/backend/config"
	"klimr/backend/internal/repository"
	"klimr/backend/pkg/jwt"
	"klimr/backend/pkg/oidc"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Semester   SemesterService
	Department DepartmentService
	Person     PersonService
	Catalog    CatalogService
	Group      GroupService
	Schedule   ScheduleService
	Queue      QueueService
	Export     ExportService
}

// NewService 创建 Service 聚合
// blacklist、verifier 可为 nil，含义见 NewAuthService
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	verifier *oidc.Verifier,
	logger *zap.Logger,
) *Service {
	loc, err := time.LoadLocation(cfg.Database.Timezone)
	if err != nil {
		logger.Warn("时区无效，课堂日历使用 UTC", zap.String("timezone", cfg.Database.Timezone), zap.Error(err))
		loc = time.UTC
	}

	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, blacklist, verifier, logger),
		Semester:   NewSemesterService(repo, logger),
		Department: NewDepartmentService(repo, logger),
		Person:     NewPersonService(repo, logger),
		Catalog:    NewCatalogService(repo, logger),
		Group:      NewGroupService(&cfg.Registry, repo, logger),
		Schedule:   NewScheduleService(repo, logger),
		Queue:      NewQueueService(repo, logger),
		Export:     NewExportService(repo, loc, logger),
	}
}
