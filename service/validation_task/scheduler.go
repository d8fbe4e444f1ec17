/*
 * @module service/validation_task/scheduler
 * @description 校验任务调度器，负责定时触发校验任务执行
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 启动调度器 -> 加载任务 -> 定时检查 -> 触发执行
 * @rules 支持cron、interval、once、manual四种调度类型；多实例部署时通过分布式锁防止重复触发
 * @dependencies github.com/robfig/cron/v3, gorm.io/gorm
 * @refs service/quality/validation_service.go, service/models/validation.go
 */

package validation_task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dataquality-service/service/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// TaskRunner 任务执行入口，由校验服务实现
type TaskRunner interface {
	ExecuteTask(ctx context.Context, taskID string) (*models.ValidationReportRecord, error)
}

// Scheduler 校验任务调度器
type Scheduler struct {
	db     *gorm.DB
	runner TaskRunner
	cron   *cron.Cron
	ticker *time.Ticker
	ctx    context.Context
	cancel context.CancelFunc
	lock   DistributedLock

	mu      sync.Mutex
	started bool
	entries map[string]cron.EntryID
}

// NewScheduler 创建校验任务调度器
func NewScheduler(db *gorm.DB, runner TaskRunner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		db:      db,
		runner:  runner,
		cron:    cron.New(cron.WithSeconds()),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// SetDistributedLock 设置分布式锁，未设置时单实例直接执行
func (s *Scheduler) SetDistributedLock(lock DistributedLock) {
	s.lock = lock
	if lock != nil {
		slog.Info("校验任务调度器已启用分布式锁")
	}
}

// Start 启动调度器并加载现有调度任务
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("调度器已经启动")
	}

	slog.Info("启动校验任务调度器")
	s.cron.Start()

	// 间隔任务检查器，每分钟检查一次
	s.ticker = time.NewTicker(1 * time.Minute)
	go s.runIntervalChecker()

	if err := s.loadScheduledTasks(); err != nil {
		return err
	}

	s.started = true
	slog.Info("校验任务调度器启动完成")
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	slog.Info("停止校验任务调度器")
	s.cancel()
	s.cron.Stop()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.started = false
}

// RegisterTask 注册单个任务的调度，任务创建或更新后调用
func (s *Scheduler) RegisterTask(task *models.ValidationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerTaskLocked(task)
}

// UnregisterTask 取消任务的调度
func (s *Scheduler) UnregisterTask(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[taskID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, taskID)
	}
}

// loadScheduledTasks 加载启用且配置了调度的任务
func (s *Scheduler) loadScheduledTasks() error {
	var tasks []models.ValidationTask
	err := s.db.Where("is_enabled = ? AND schedule_type IN (?, ?, ?)",
		true, "cron", "interval", "once").
		Find(&tasks).Error
	if err != nil {
		return fmt.Errorf("获取调度任务失败: %w", err)
	}
	slog.Info("加载校验调度任务", "count", len(tasks))

	for i := range tasks {
		if err := s.registerTaskLocked(&tasks[i]); err != nil {
			slog.Error("注册调度任务失败", "task", tasks[i].Name, "error", err)
		}
	}
	return nil
}

func (s *Scheduler) registerTaskLocked(task *models.ValidationTask) error {
	switch task.ScheduleType {
	case "cron":
		taskID := task.ID
		entryID, err := s.cron.AddFunc(task.CronExpression, func() {
			s.triggerTask(taskID)
		})
		if err != nil {
			return fmt.Errorf("注册cron任务失败: %w", err)
		}
		s.entries[task.ID] = entryID
	case "once":
		// 一次性任务在注册后异步执行一次，随后禁用
		taskID := task.ID
		go func() {
			s.triggerTask(taskID)
			s.db.Model(&models.ValidationTask{}).Where("id = ?", taskID).Update("is_enabled", false)
		}()
	case "interval", "manual":
		// interval由间隔检查器触发，manual只能手工触发
	}
	return nil
}

// runIntervalChecker 间隔任务检查循环
func (s *Scheduler) runIntervalChecker() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C:
			s.checkIntervalTasks()
		}
	}
}

// checkIntervalTasks 检查并触发到期的间隔任务
func (s *Scheduler) checkIntervalTasks() {
	var tasks []models.ValidationTask
	err := s.db.Where("is_enabled = ? AND schedule_type = ?", true, "interval").Find(&tasks).Error
	if err != nil {
		slog.Error("获取间隔任务失败", "error", err)
		return
	}
	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if task.IntervalSeconds <= 0 {
			continue
		}
		if task.LastRunAt != nil && now.Sub(*task.LastRunAt) < time.Duration(task.IntervalSeconds)*time.Second {
			continue
		}
		s.triggerTask(task.ID)
	}
}

// triggerTask 触发任务执行，多实例部署时先获取分布式锁
func (s *Scheduler) triggerTask(taskID string) {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Minute)
	defer cancel()

	if s.lock != nil {
		lockKey := "validation_task_lock:" + taskID
		acquired, err := s.lock.TryLock(ctx, lockKey, 10*time.Minute)
		if err != nil {
			slog.Error("获取任务锁失败", "task_id", taskID, "error", err)
			return
		}
		if !acquired {
			slog.Debug("任务已被其他实例执行", "task_id", taskID)
			return
		}
		defer func() {
			if err := s.lock.Unlock(context.Background(), lockKey); err != nil {
				slog.Error("释放任务锁失败", "task_id", taskID, "error", err)
			}
		}()
	}

	report, err := s.runner.ExecuteTask(ctx, taskID)
	if err != nil {
		slog.Error("调度任务执行失败", "task_id", taskID, "error", err)
		return
	}
	slog.Info("调度任务执行完成", "task_id", taskID,
		"report_id", report.ID, "success", report.Success)
}
