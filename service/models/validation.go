/*
 * @module service/models/validation
 * @description 数据校验相关模型定义，包括期望套件、数据源、校验报告、调度任务和API密钥
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 套件定义 -> 任务调度 -> 校验执行 -> 报告落库
 * @rules 主键使用UUID，创建前钩子自动填充
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/validation, service/validation_task
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExpectationSuiteDef 期望套件定义模型
// Expectations 为规则定义数组，与校验引擎的五种规则类型一一对应
type ExpectationSuiteDef struct {
	ID           string     `gorm:"type:uuid;primary_key" json:"id"`
	Name         string     `gorm:"not null;uniqueIndex" json:"name"`
	Description  string     `json:"description"`
	Expectations JSONBArray `gorm:"type:jsonb;not null" json:"expectations"`
	IsBuiltIn    bool       `gorm:"not null;default:false" json:"is_built_in"`
	IsEnabled    bool       `gorm:"not null;default:true" json:"is_enabled"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy    string     `gorm:"not null;default:'system';size:100" json:"created_by"`
	UpdatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy    string     `gorm:"not null;default:'system';size:100" json:"updated_by"`
}

// BeforeCreate 创建前钩子
func (s *ExpectationSuiteDef) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedBy == "" {
		s.CreatedBy = "system"
	}
	if s.UpdatedBy == "" {
		s.UpdatedBy = "system"
	}
	return nil
}

// DataSourceDef 数据源定义模型
// Type 支持 csv 和 postgresql，连接配置中的密码字段加密存储
type DataSourceDef struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	Type      string    `gorm:"not null" json:"type"` // csv/postgresql
	Config    JSONB     `gorm:"type:jsonb;not null" json:"config"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy string    `gorm:"not null;default:'system';size:100" json:"created_by"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy string    `gorm:"not null;default:'system';size:100" json:"updated_by"`
}

// BeforeCreate 创建前钩子
func (d *DataSourceDef) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedBy == "" {
		d.CreatedBy = "system"
	}
	if d.UpdatedBy == "" {
		d.UpdatedBy = "system"
	}
	return nil
}

// ValidationReportRecord 校验报告模型，每次运行落库一条
type ValidationReportRecord struct {
	ID                 string           `gorm:"type:uuid;primary_key" json:"id"`
	ReportName         string           `gorm:"not null" json:"report_name"`
	SuiteID            string           `gorm:"index" json:"suite_id"`
	SuiteName          string           `gorm:"not null" json:"suite_name"`
	DatasetName        string           `json:"dataset_name"`
	Success            bool             `gorm:"not null" json:"success"`
	TotalChecks        int              `gorm:"not null" json:"total_checks"`
	PassedChecks       int              `gorm:"not null" json:"passed_checks"`
	FailedChecks       int              `gorm:"not null" json:"failed_checks"`
	FailedExpectations JSONBStringArray `gorm:"type:jsonb" json:"failed_expectations"`
	Results            JSONBArray       `gorm:"type:jsonb" json:"results"`
	DurationMs         int64            `gorm:"not null;default:0" json:"duration_ms"`
	GeneratedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"generated_at"`
	GeneratedBy        string           `gorm:"not null;default:'system';size:100" json:"generated_by"`
}

// BeforeCreate 创建前钩子
func (r *ValidationReportRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.GeneratedBy == "" {
		r.GeneratedBy = "system"
	}
	return nil
}

// ValidationTask 校验调度任务模型
// 支持 cron、interval、once、manual 四种调度类型
type ValidationTask struct {
	ID              string     `gorm:"type:uuid;primary_key" json:"id"`
	Name            string     `gorm:"not null" json:"name"`
	SuiteID         string     `gorm:"not null;index" json:"suite_id"`
	DataSourceID    string     `gorm:"not null;index" json:"data_source_id"`
	ScheduleType    string     `gorm:"not null;default:'manual'" json:"schedule_type"` // cron/interval/once/manual
	CronExpression  string     `json:"cron_expression"`
	IntervalSeconds int        `json:"interval_seconds"`
	IsEnabled       bool       `gorm:"not null;default:true" json:"is_enabled"`
	Status          string     `gorm:"not null;default:'pending'" json:"status"` // pending/running/completed/failed
	LastRunAt       *time.Time `json:"last_run_at"`
	LastReportID    *string    `json:"last_report_id"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy       string     `gorm:"not null;default:'system';size:100" json:"created_by"`
	UpdatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy       string     `gorm:"not null;default:'system';size:100" json:"updated_by"`
}

// BeforeCreate 创建前钩子
func (t *ValidationTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedBy == "" {
		t.CreatedBy = "system"
	}
	if t.UpdatedBy == "" {
		t.UpdatedBy = "system"
	}
	return nil
}

// ApiKey API密钥模型，密钥以bcrypt哈希存储，仅创建时返回明文一次
type ApiKey struct {
	ID        string     `gorm:"type:uuid;primary_key" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	KeyPrefix string     `gorm:"not null;index" json:"key_prefix"`
	KeyHash   string     `gorm:"not null" json:"-"`
	IsEnabled bool       `gorm:"not null;default:true" json:"is_enabled"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy string     `gorm:"not null;default:'system';size:100" json:"created_by"`
}

// BeforeCreate 创建前钩子
func (k *ApiKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.New().String()
	}
	if k.CreatedBy == "" {
		k.CreatedBy = "system"
	}
	return nil
}
