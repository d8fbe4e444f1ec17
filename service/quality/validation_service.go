/*
 * @module service/quality/validation_service
 * @description 数据校验服务，负责套件定义管理、数据源管理、校验执行编排、报告落库与API密钥管理
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 套件构建 -> 数据集载入 -> 运行器执行 -> 报告落库 -> 事件发布
 * @rules 配置错误在构建期快速失败；数据质量问题只体现为报告失败，不产生服务错误
 * @dependencies gorm.io/gorm, golang.org/x/crypto/bcrypt, service/validation, service/datasource
 * @refs api/controllers/validation_controller.go, service/validation_task
 */

package quality

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dataquality-service/service/datasource"
	"dataquality-service/service/event"
	"dataquality-service/service/models"
	"dataquality-service/service/utils"
	"dataquality-service/service/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ValidationService 数据校验服务
type ValidationService struct {
	db        *gorm.DB
	runner    *validation.Runner
	crypto    *utils.CryptoUtils
	publisher *event.Publisher
}

// NewValidationService 创建数据校验服务实例
func NewValidationService(db *gorm.DB, crypto *utils.CryptoUtils, publisher *event.Publisher, workers int) *ValidationService {
	if workers <= 0 {
		workers = 1
	}
	return &ValidationService{
		db:        db,
		runner:    &validation.Runner{Workers: workers},
		crypto:    crypto,
		publisher: publisher,
	}
}

// === 套件定义管理 ===

// CreateSuite 创建期望套件定义
// 先构建一次套件验证全部规则配置，非法定义在落库前拒绝
func (s *ValidationService) CreateSuite(name, description string, defs []validation.ExpectationDef) (*models.ExpectationSuiteDef, error) {
	if _, err := validation.BuildSuite(name, defs); err != nil {
		return nil, err
	}
	expectations, err := DefsToJSONB(defs)
	if err != nil {
		return nil, err
	}
	suite := &models.ExpectationSuiteDef{
		Name:         name,
		Description:  description,
		Expectations: expectations,
		IsEnabled:    true,
	}
	if err := s.db.Create(suite).Error; err != nil {
		return nil, fmt.Errorf("保存套件定义失败: %w", err)
	}
	return suite, nil
}

// GetSuites 分页获取套件定义列表
func (s *ValidationService) GetSuites(page, size int) ([]models.ExpectationSuiteDef, int64, error) {
	var suites []models.ExpectationSuiteDef
	var total int64

	if err := s.db.Model(&models.ExpectationSuiteDef{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * size
	if err := s.db.Order("created_at DESC").Offset(offset).Limit(size).Find(&suites).Error; err != nil {
		return nil, 0, err
	}
	return suites, total, nil
}

// GetSuiteByID 根据ID获取套件定义
func (s *ValidationService) GetSuiteByID(id string) (*models.ExpectationSuiteDef, error) {
	var suite models.ExpectationSuiteDef
	if err := s.db.First(&suite, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &suite, nil
}

// UpdateSuite 更新套件定义，新的规则定义同样先构建验证
func (s *ValidationService) UpdateSuite(id string, description *string, defs []validation.ExpectationDef) error {
	suite, err := s.GetSuiteByID(id)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if description != nil {
		updates["description"] = *description
	}
	if defs != nil {
		if _, err := validation.BuildSuite(suite.Name, defs); err != nil {
			return err
		}
		expectations, err := DefsToJSONB(defs)
		if err != nil {
			return err
		}
		updates["expectations"] = expectations
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.Model(suite).Updates(updates).Error
}

// DeleteSuite 删除套件定义，内置套件不可删除
func (s *ValidationService) DeleteSuite(id string) error {
	suite, err := s.GetSuiteByID(id)
	if err != nil {
		return err
	}
	if suite.IsBuiltIn {
		return fmt.Errorf("内置套件 %s 不可删除", suite.Name)
	}
	return s.db.Delete(suite).Error
}

// BuildSuiteFromModel 将落库的套件定义构建为可执行套件
func (s *ValidationService) BuildSuiteFromModel(def *models.ExpectationSuiteDef) (*validation.Suite, error) {
	raw, err := json.Marshal(def.Expectations)
	if err != nil {
		return nil, fmt.Errorf("套件 %s 规则定义序列化失败: %w", def.Name, err)
	}
	var defs []validation.ExpectationDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("套件 %s 规则定义解析失败: %w", def.Name, err)
	}
	return validation.BuildSuite(def.Name, defs)
}

// === 数据源管理 ===

// CreateDataSource 创建数据源定义，连接配置中的password字段加密存储
func (s *ValidationService) CreateDataSource(name, dsType string, config map[string]interface{}) (*models.DataSourceDef, error) {
	switch dsType {
	case "csv", "postgresql":
	default:
		return nil, fmt.Errorf("不支持的数据源类型: %s", dsType)
	}
	if password, ok := config["password"].(string); ok && password != "" {
		encrypted, err := s.crypto.Encrypt(password)
		if err != nil {
			return nil, fmt.Errorf("数据源密码加密失败: %w", err)
		}
		config["password"] = encrypted
	}
	def := &models.DataSourceDef{
		Name:   name,
		Type:   dsType,
		Config: models.JSONB(config),
	}
	if err := s.db.Create(def).Error; err != nil {
		return nil, fmt.Errorf("保存数据源定义失败: %w", err)
	}
	return def, nil
}

// GetDataSources 获取数据源定义列表
func (s *ValidationService) GetDataSources() ([]models.DataSourceDef, error) {
	var defs []models.DataSourceDef
	if err := s.db.Order("created_at DESC").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// GetDataSourceByID 根据ID获取数据源定义
func (s *ValidationService) GetDataSourceByID(id string) (*models.DataSourceDef, error) {
	var def models.DataSourceDef
	if err := s.db.First(&def, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

// DeleteDataSource 删除数据源定义
func (s *ValidationService) DeleteDataSource(id string) error {
	return s.db.Delete(&models.DataSourceDef{}, "id = ?", id).Error
}

// === 校验执行 ===

// RunAdHoc 对内联数据行执行内联套件定义，即主要对外契约的HTTP化入口
func (s *ValidationService) RunAdHoc(ctx context.Context, suiteName string, rows []validation.Row, defs []validation.ExpectationDef) (*models.ValidationReportRecord, error) {
	suite, err := validation.BuildSuite(suiteName, defs)
	if err != nil {
		return nil, err
	}
	ds := validation.NewDataset(rows)
	return s.execute(ctx, "", suite, ds, "inline")
}

// RunSuite 对注册数据源执行落库的套件定义
func (s *ValidationService) RunSuite(ctx context.Context, suiteID, dataSourceID string) (*models.ValidationReportRecord, error) {
	suiteDef, err := s.GetSuiteByID(suiteID)
	if err != nil {
		return nil, fmt.Errorf("获取套件定义失败: %w", err)
	}
	suite, err := s.BuildSuiteFromModel(suiteDef)
	if err != nil {
		return nil, err
	}
	sourceDef, err := s.GetDataSourceByID(dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("获取数据源定义失败: %w", err)
	}
	ds, err := s.loadDataset(ctx, sourceDef)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, suiteDef.ID, suite, ds, sourceDef.Name)
}

// execute 执行套件并落库报告、发布事件
func (s *ValidationService) execute(ctx context.Context, suiteID string, suite *validation.Suite, ds *validation.Dataset, datasetName string) (*models.ValidationReportRecord, error) {
	start := time.Now()
	results := s.runner.Run(ctx, ds, suite)
	report := validation.Summarize(suite.Name(), results)
	elapsed := time.Since(start)
	validation.ObserveRun(suite.Name(), report, elapsed)

	if report.Success {
		slog.Info("数据校验通过", "suite", suite.Name(), "passed", report.PassedChecks, "total", report.TotalChecks)
	} else {
		slog.Warn("数据校验未通过", "suite", suite.Name(),
			"failed", report.FailedChecks, "total", report.TotalChecks,
			"failed_expectations", report.FailedExpectations)
	}

	resultRows, err := resultsToJSONB(report.Results)
	if err != nil {
		return nil, err
	}
	record := &models.ValidationReportRecord{
		ReportName:         fmt.Sprintf("校验报告_%s_%s", suite.Name(), start.Format("20060102_150405")),
		SuiteID:            suiteID,
		SuiteName:          suite.Name(),
		DatasetName:        datasetName,
		Success:            report.Success,
		TotalChecks:        report.TotalChecks,
		PassedChecks:       report.PassedChecks,
		FailedChecks:       report.FailedChecks,
		FailedExpectations: models.JSONBStringArray(report.FailedExpectations),
		Results:            resultRows,
		DurationMs:         elapsed.Milliseconds(),
		GeneratedAt:        start,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("保存校验报告失败: %w", err)
	}

	s.publisher.PublishValidationCompleted(ctx, &event.ValidationCompletedEvent{
		ReportID:           record.ID,
		SuiteID:            suiteID,
		SuiteName:          suite.Name(),
		Success:            report.Success,
		TotalChecks:        report.TotalChecks,
		FailedChecks:       report.FailedChecks,
		FailedExpectations: report.FailedExpectations,
		GeneratedAt:        record.GeneratedAt,
	})

	return record, nil
}

// loadDataset 按数据源类型载入数据集
func (s *ValidationService) loadDataset(ctx context.Context, def *models.DataSourceDef) (*validation.Dataset, error) {
	switch def.Type {
	case "csv":
		path, _ := def.Config["path"].(string)
		if path == "" {
			return nil, fmt.Errorf("CSV数据源 %s 配置错误: 缺少path", def.Name)
		}
		encoding, _ := def.Config["encoding"].(string)
		return datasource.LoadCSV(path, datasource.CSVOptions{Encoding: encoding})
	case "postgresql":
		return s.loadPostgresDataset(ctx, def)
	default:
		return nil, fmt.Errorf("不支持的数据源类型: %s", def.Type)
	}
}

// loadPostgresDataset 建立独立连接载入PostgreSQL数据集
func (s *ValidationService) loadPostgresDataset(ctx context.Context, def *models.DataSourceDef) (*validation.Dataset, error) {
	dsn, err := s.buildPostgresDSN(def)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据源 %s 失败: %w", def.Name, err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	table, _ := def.Config["table"].(string)
	sql, _ := def.Config["sql"].(string)
	limit := 0
	if v, ok := def.Config["limit"].(float64); ok {
		limit = int(v)
	}
	return datasource.LoadPostgres(ctx, db, datasource.PostgresQuery{Table: table, SQL: sql, Limit: limit})
}

// buildPostgresDSN 从数据源配置构建连接串，密码解密后使用
func (s *ValidationService) buildPostgresDSN(def *models.DataSourceDef) (string, error) {
	host, _ := def.Config["host"].(string)
	if host == "" {
		host = "localhost"
	}
	port, _ := def.Config["port"].(string)
	if port == "" {
		port = "5432"
	}
	user, _ := def.Config["user"].(string)
	dbname, _ := def.Config["dbname"].(string)
	sslmode, _ := def.Config["sslmode"].(string)
	if sslmode == "" {
		sslmode = "disable"
	}

	password, _ := def.Config["password"].(string)
	if password != "" {
		decrypted, err := s.crypto.Decrypt(password)
		if err != nil {
			return "", fmt.Errorf("数据源 %s 密码解密失败: %w", def.Name, err)
		}
		password = decrypted
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode), nil
}

// === 校验报告管理 ===

// GetReports 分页获取校验报告列表
func (s *ValidationService) GetReports(page, size int, suiteID string) ([]models.ValidationReportRecord, int64, error) {
	query := s.db.Model(&models.ValidationReportRecord{})
	if suiteID != "" {
		query = query.Where("suite_id = ?", suiteID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reports []models.ValidationReportRecord
	offset := (page - 1) * size
	if err := query.Order("generated_at DESC").Offset(offset).Limit(size).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// GetReportByID 根据ID获取校验报告
func (s *ValidationService) GetReportByID(id string) (*models.ValidationReportRecord, error) {
	var report models.ValidationReportRecord
	if err := s.db.First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// === 调度任务管理 ===

// CreateTask 创建校验调度任务
func (s *ValidationService) CreateTask(task *models.ValidationTask) error {
	switch task.ScheduleType {
	case "cron":
		if task.CronExpression == "" {
			return fmt.Errorf("cron调度任务必须配置cron表达式")
		}
	case "interval":
		if task.IntervalSeconds <= 0 {
			return fmt.Errorf("interval调度任务的间隔秒数必须大于0")
		}
	case "once", "manual":
	default:
		return fmt.Errorf("不支持的调度类型: %s", task.ScheduleType)
	}
	if _, err := s.GetSuiteByID(task.SuiteID); err != nil {
		return fmt.Errorf("套件不存在: %w", err)
	}
	if _, err := s.GetDataSourceByID(task.DataSourceID); err != nil {
		return fmt.Errorf("数据源不存在: %w", err)
	}
	return s.db.Create(task).Error
}

// GetTasks 获取校验调度任务列表
func (s *ValidationService) GetTasks() ([]models.ValidationTask, error) {
	var tasks []models.ValidationTask
	if err := s.db.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTaskByID 根据ID获取校验调度任务
func (s *ValidationService) GetTaskByID(id string) (*models.ValidationTask, error) {
	var task models.ValidationTask
	if err := s.db.First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask 删除校验调度任务
func (s *ValidationService) DeleteTask(id string) error {
	return s.db.Delete(&models.ValidationTask{}, "id = ?", id).Error
}

// ExecuteTask 执行一次调度任务并更新任务状态
func (s *ValidationService) ExecuteTask(ctx context.Context, taskID string) (*models.ValidationReportRecord, error) {
	task, err := s.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s.db.Model(task).Updates(map[string]interface{}{"status": "running", "last_run_at": now})

	report, err := s.RunSuite(ctx, task.SuiteID, task.DataSourceID)
	if err != nil {
		s.db.Model(task).Update("status", "failed")
		return nil, fmt.Errorf("任务 %s 执行失败: %w", task.Name, err)
	}

	s.db.Model(task).Updates(map[string]interface{}{
		"status":         "completed",
		"last_report_id": report.ID,
	})
	return report, nil
}

// === API密钥管理 ===

// CreateApiKey 创建API密钥，返回的明文密钥仅此一次可见
func (s *ValidationService) CreateApiKey(name string, expiresAt *time.Time) (*models.ApiKey, string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", fmt.Errorf("生成API密钥失败: %w", err)
	}
	plaintext := "dqs_" + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("API密钥哈希失败: %w", err)
	}

	key := &models.ApiKey{
		Name:      name,
		KeyPrefix: plaintext[:12],
		KeyHash:   string(hash),
		IsEnabled: true,
		ExpiresAt: expiresAt,
	}
	if err := s.db.Create(key).Error; err != nil {
		return nil, "", fmt.Errorf("保存API密钥失败: %w", err)
	}
	return key, plaintext, nil
}

// VerifyApiKey 校验API密钥，按前缀定位后比较bcrypt哈希
func (s *ValidationService) VerifyApiKey(plaintext string) (*models.ApiKey, error) {
	if len(plaintext) < 12 {
		return nil, fmt.Errorf("API密钥格式非法")
	}
	var keys []models.ApiKey
	if err := s.db.Where("key_prefix = ? AND is_enabled = ?", plaintext[:12], true).Find(&keys).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range keys {
		key := &keys[i]
		if key.ExpiresAt != nil && key.ExpiresAt.Before(now) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(plaintext)) == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("API密钥无效")
}

// === 辅助函数 ===

// DefsToJSONB 规则定义转JSONB数组
func DefsToJSONB(defs []validation.ExpectationDef) (models.JSONBArray, error) {
	raw, err := json.Marshal(defs)
	if err != nil {
		return nil, fmt.Errorf("规则定义序列化失败: %w", err)
	}
	var arr models.JSONBArray
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, fmt.Errorf("规则定义转换失败: %w", err)
	}
	return arr, nil
}

// resultsToJSONB 评估结果转JSONB数组
func resultsToJSONB(results []validation.Result) (models.JSONBArray, error) {
	raw, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("评估结果序列化失败: %w", err)
	}
	var arr models.JSONBArray
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, fmt.Errorf("评估结果转换失败: %w", err)
	}
	return arr, nil
}
