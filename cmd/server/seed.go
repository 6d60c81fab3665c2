package main

import (
	"context"
	stderrors "errors"
	"fmt"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/config"
	"quill/pkg/logger"

	"gorm.io/gorm"
)

// seedData 初始化种子数据：未配置管理员密码时跳过
func seedData(ctx context.Context, cfg config.SeedConfig, users services.UserStore) error {
	appLogger := logger.GetLogger()
	if cfg.AdminPassword == "" {
		appLogger.Info("SEED_ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	if err := createDefaultAdmin(ctx, cfg, users); err != nil {
		return fmt.Errorf("创建默认管理员失败: %w", err)
	}
	return nil
}

// createDefaultAdmin 创建默认管理员
func createDefaultAdmin(ctx context.Context, cfg config.SeedConfig, users services.UserStore) error {
	existing, err := users.GetByLogin(ctx, cfg.AdminUsername)
	if err == nil {
		logger.GetLogger().WithField("user_id", existing.ID).Info("默认管理员已存在，跳过创建")
		return nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin := &models.User{
		Username:  cfg.AdminUsername,
		Email:     cfg.AdminEmail,
		Role:      string(acl.RoleAdmin),
		FirstName: "Site",
		LastName:  "Admin",
	}
	if err := users.Create(ctx, admin, cfg.AdminPassword); err != nil {
		return err
	}
	logger.GetLogger().WithField("user_id", admin.ID).Info("默认管理员创建成功")
	return nil
}
