package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quill/pkg/config"
	"quill/pkg/logger"
	"quill/pkg/metrics"

	"github.com/robfig/cron/v3"
)

const schedulerJobTimeout = 5 * time.Minute

// 任务名称
const (
	JobPublish = "publish"
	JobPurge   = "purge"
)

// JobStatus 定时任务状态
type JobStatus struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev,omitempty"`
}

// SchedulerStatus 调度器状态
type SchedulerStatus struct {
	Running bool        `json:"running"`
	Jobs    []JobStatus `json:"jobs"`
}

// ContentScheduler 内容定时任务：定时发布、软删除清理
type ContentScheduler struct {
	content ContentMaintainer
	cfg     config.SchedulerConfig
	cron    *cron.Cron
	now     func() time.Time
	mu      sync.Mutex
	running bool
	jobs    map[string]cron.EntryID
}

// NewContentScheduler 创建内容调度器
func NewContentScheduler(content ContentMaintainer, cfg config.SchedulerConfig) *ContentScheduler {
	return &ContentScheduler{
		content: content,
		cfg:     cfg,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		now:     time.Now,
		jobs:    make(map[string]cron.EntryID),
	}
}

// Start 启动调度器
func (s *ContentScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}

	if s.cfg.PublishCron != "" {
		id, err := s.cron.AddFunc(s.cfg.PublishCron, s.RunPublish)
		if err != nil {
			return fmt.Errorf("添加定时发布任务失败: %w", err)
		}
		s.jobs[JobPublish] = id
	}
	if s.cfg.PurgeCron != "" && s.cfg.PurgeRetentionDay > 0 {
		id, err := s.cron.AddFunc(s.cfg.PurgeCron, s.RunPurge)
		if err != nil {
			return fmt.Errorf("添加清理任务失败: %w", err)
		}
		s.jobs[JobPurge] = id
	}

	s.cron.Start()
	s.running = true
	logger.GetLogger().Infof("内容调度器启动成功，发布: %q，清理: %q（保留 %d 天）",
		s.cfg.PublishCron, s.cfg.PurgeCron, s.cfg.PurgeRetentionDay)
	return nil
}

// Stop 停止调度器并等待运行中的任务结束
func (s *ContentScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	logger.GetLogger().Info("内容调度器已停止")
}

// Status 调度器状态
func (s *ContentScheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{Running: s.running, Jobs: []JobStatus{}}
	for _, name := range []string{JobPublish, JobPurge} {
		id, ok := s.jobs[name]
		if !ok {
			continue
		}
		entry := s.cron.Entry(id)
		schedule := s.cfg.PublishCron
		if name == JobPurge {
			schedule = s.cfg.PurgeCron
		}
		status.Jobs = append(status.Jobs, JobStatus{
			Name:     name,
			Schedule: schedule,
			Next:     entry.Next,
			Prev:     entry.Prev,
		})
	}
	return status
}

// RunPublish 发布计划时间已到的草稿
func (s *ContentScheduler) RunPublish() {
	ctx, cancel := context.WithTimeout(context.Background(), schedulerJobTimeout)
	defer cancel()

	count, err := s.content.PublishDue(ctx, s.now().UTC())
	if err != nil {
		logger.GetLogger().Errorf("定时发布失败: %v", err)
		return
	}
	if count > 0 {
		metrics.ScheduledPublishTotal.Add(float64(count))
		logger.GetLogger().Infof("定时发布 %d 条内容", count)
	}
}

// RunPurge 永久删除超过保留期的软删除内容
func (s *ContentScheduler) RunPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), schedulerJobTimeout)
	defer cancel()

	before := s.now().UTC().AddDate(0, 0, -s.cfg.PurgeRetentionDay)
	count, err := s.content.PurgeDeleted(ctx, before)
	if err != nil {
		logger.GetLogger().Errorf("清理软删除内容失败: %v", err)
		return
	}
	if count > 0 {
		metrics.PurgedRecordsTotal.WithLabelValues("content").Add(float64(count))
		logger.GetLogger().Infof("清理 %d 条软删除内容（早于 %s）", count, before.Format(time.RFC3339))
	}
}
