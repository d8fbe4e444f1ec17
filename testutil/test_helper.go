/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"dataquality-service/service/models"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.ExpectationSuiteDef{},
		&models.DataSourceDef{},
		&models.ValidationReportRecord{},
		&models.ValidationTask{},
		&models.ApiKey{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"expectation_suite_defs",
		"data_source_defs",
		"validation_report_records",
		"validation_tasks",
		"api_keys",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// SuiteDefOption 套件定义选项函数类型
type SuiteDefOption func(*models.ExpectationSuiteDef)

// CreateSuiteDef 创建测试套件定义
func (f *TestDataFactory) CreateSuiteDef(opts ...SuiteDefOption) *models.ExpectationSuiteDef {
	suite := &models.ExpectationSuiteDef{
		Name:        "test_suite_" + generateSuffix(),
		Description: "这是一个测试套件",
		Expectations: models.JSONBArray{
			{"type": "expect_column_to_exist", "column": "customerID"},
			{"type": "expect_column_values_to_not_be_null", "column": "customerID"},
		},
		IsEnabled: true,
		CreatedBy: "test",
		UpdatedBy: "test",
	}

	// 应用选项
	for _, opt := range opts {
		opt(suite)
	}

	err := f.DB.Create(suite).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test suite def: %v", err))
	}

	return suite
}

// DataSourceDefOption 数据源定义选项函数类型
type DataSourceDefOption func(*models.DataSourceDef)

// CreateDataSourceDef 创建测试数据源定义
func (f *TestDataFactory) CreateDataSourceDef(opts ...DataSourceDefOption) *models.DataSourceDef {
	def := &models.DataSourceDef{
		Name: "test_datasource_" + generateSuffix(),
		Type: "csv",
		Config: models.JSONB{
			"path": "/data/test.csv",
		},
		CreatedBy: "test",
		UpdatedBy: "test",
	}

	// 应用选项
	for _, opt := range opts {
		opt(def)
	}

	err := f.DB.Create(def).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test data source def: %v", err))
	}

	return def
}

// ValidationTaskOption 校验任务选项函数类型
type ValidationTaskOption func(*models.ValidationTask)

// CreateValidationTask 创建测试校验任务
func (f *TestDataFactory) CreateValidationTask(suiteID, dataSourceID string, opts ...ValidationTaskOption) *models.ValidationTask {
	task := &models.ValidationTask{
		Name:         "测试校验任务_" + generateSuffix(),
		SuiteID:      suiteID,
		DataSourceID: dataSourceID,
		ScheduleType: "manual",
		IsEnabled:    true,
		Status:       "pending",
		CreatedBy:    "test",
		UpdatedBy:    "test",
	}

	// 应用选项
	for _, opt := range opts {
		opt(task)
	}

	err := f.DB.Create(task).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test validation task: %v", err))
	}

	return task
}

// 辅助函数
func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
