/*
 * @module service/validation_task/scheduler_test
 * @description 调度器测试，覆盖任务注册、间隔任务触发和取消注册
 * @architecture 测试层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 内存数据库初始化 -> 任务注册 -> 触发断言
 * @rules 使用桩执行器记录触发，不依赖真实cron时钟
 * @dependencies testing, github.com/stretchr/testify, dataquality-service/testutil
 * @refs scheduler.go
 */

package validation_task

import (
	"context"
	"sync"
	"testing"
	"time"

	"dataquality-service/service/models"
	"dataquality-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner 记录触发的任务ID
type stubRunner struct {
	mu       sync.Mutex
	executed []string
}

func (r *stubRunner) ExecuteTask(ctx context.Context, taskID string) (*models.ValidationReportRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed = append(r.executed, taskID)
	return &models.ValidationReportRecord{ID: "report-" + taskID, Success: true}, nil
}

func (r *stubRunner) executedTasks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.executed...)
}

func TestRegisterCronTask(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	runner := &stubRunner{}
	s := NewScheduler(tdb.DB, runner)

	task := &models.ValidationTask{
		ID:             "task-1",
		Name:           "每日校验",
		ScheduleType:   "cron",
		CronExpression: "0 0 2 * * *",
	}
	require.NoError(t, s.RegisterTask(task))
	assert.Contains(t, s.entries, "task-1")

	s.UnregisterTask("task-1")
	assert.NotContains(t, s.entries, "task-1")
}

func TestRegisterCronTaskInvalidExpression(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	s := NewScheduler(tdb.DB, &stubRunner{})

	err := s.RegisterTask(&models.ValidationTask{
		ID:             "task-bad",
		ScheduleType:   "cron",
		CronExpression: "not a cron",
	})
	require.Error(t, err)
}

func TestCheckIntervalTasksTriggersDueTask(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	suite := factory.CreateSuiteDef()
	source := factory.CreateDataSourceDef()

	// 到期任务：上次执行在间隔之前
	past := time.Now().Add(-time.Hour)
	due := factory.CreateValidationTask(suite.ID, source.ID, func(task *models.ValidationTask) {
		task.ScheduleType = "interval"
		task.IntervalSeconds = 60
		task.LastRunAt = &past
	})
	// 未到期任务：刚刚执行过
	now := time.Now()
	factory.CreateValidationTask(suite.ID, source.ID, func(task *models.ValidationTask) {
		task.ScheduleType = "interval"
		task.IntervalSeconds = 3600
		task.LastRunAt = &now
	})

	runner := &stubRunner{}
	s := NewScheduler(tdb.DB, runner)
	s.checkIntervalTasks()

	assert.Equal(t, []string{due.ID}, runner.executedTasks())
}

func TestCheckIntervalTasksSkipsDisabled(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	suite := factory.CreateSuiteDef()
	source := factory.CreateDataSourceDef()

	disabled := factory.CreateValidationTask(suite.ID, source.ID, func(task *models.ValidationTask) {
		task.ScheduleType = "interval"
		task.IntervalSeconds = 60
	})
	require.NoError(t, tdb.DB.Model(disabled).Update("is_enabled", false).Error)

	runner := &stubRunner{}
	s := NewScheduler(tdb.DB, runner)
	s.checkIntervalTasks()

	assert.Empty(t, runner.executedTasks())
}
