package database

import (
	"sync"

	"quill/pkg/config"
	"quill/pkg/denylist"
)

var (
	denylistInstance *denylist.RedisDenylist
	denylistOnce     sync.Once
)

// GetTokenDenylist 获取令牌吊销列表的单例实例
func GetTokenDenylist() *denylist.RedisDenylist {
	denylistOnce.Do(func() {
		cfg := config.GetConfig()
		denylistInstance = denylist.NewRedisDenylist(&denylist.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return denylistInstance
}

// CloseTokenDenylist 关闭Redis连接
func CloseTokenDenylist() error {
	if denylistInstance != nil {
		return denylistInstance.Close()
	}
	return nil
}
