package service

import (
	"investbot/pkg/ai"
	"investbot/pkg/bot"
	"investbot/pkg/logger"
	"investbot/pkg/notify"
	"investbot/storage"
)

type IServiceManager interface {
	Admin() AdminService
}

type service struct {
	adminService AdminService
}

func New(registry *bot.Registry, engine *notify.Engine, responder *ai.Responder, stg storage.IStorage, log logger.ILogger) IServiceManager {
	return &service{
		adminService: NewAdminService(registry, engine, responder, stg, log),
	}
}

func (s *service) Admin() AdminService {
	return s.adminService
}
