/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、模型迁移、内置套件种子数据和全局服务装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/quality/validation_service.go, service/validation_task
 */

package service

import (
	"fmt"
	"log"
	"os"
	"strings"

	"dataquality-service/service/event"
	"dataquality-service/service/models"
	"dataquality-service/service/quality"
	"dataquality-service/service/utils"
	"dataquality-service/service/validation"
	"dataquality-service/service/validation_task"

	"github.com/spf13/cast"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                      *gorm.DB
	GlobalValidationService *quality.ValidationService
	GlobalScheduler         *validation_task.Scheduler
	GlobalEventPublisher    *event.Publisher
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "things2024")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移并写入内置套件
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := DB.AutoMigrate(
		&models.ExpectationSuiteDef{},
		&models.DataSourceDef{},
		&models.ValidationReportRecord{},
		&models.ValidationTask{},
		&models.ApiKey{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := seedBuiltinSuite(DB); err != nil {
		log.Fatalf("内置套件初始化失败: %v", err)
	}
	log.Println("所有数据库迁移任务完成")
}

// seedBuiltinSuite 写入内置的电信客户流失校验套件，已存在时跳过
func seedBuiltinSuite(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ExpectationSuiteDef{}).
		Where("name = ?", validation.BuiltinTelcoChurnSuiteName).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	expectations, err := quality.DefsToJSONB(validation.BuiltinTelcoChurnDefs())
	if err != nil {
		return err
	}
	suite := &models.ExpectationSuiteDef{
		Name:         validation.BuiltinTelcoChurnSuiteName,
		Description:  "电信客户流失数据集内置校验套件",
		Expectations: expectations,
		IsBuiltIn:    true,
		IsEnabled:    true,
	}
	return db.Create(suite).Error
}

// initServices 初始化服务
func initServices() {
	crypto := utils.NewCryptoUtils(os.Getenv("DATA_ENCRYPTION_KEY"))

	// Kafka事件发布器，未配置KAFKA_BROKERS时禁用
	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	GlobalEventPublisher = event.NewPublisher(brokers, os.Getenv("KAFKA_VALIDATION_TOPIC"))

	workers := cast.ToInt(getEnvWithDefault("VALIDATION_WORKERS", "1"))
	GlobalValidationService = quality.NewValidationService(DB, crypto, GlobalEventPublisher, workers)

	// 调度器，多实例部署时启用Redis分布式锁
	GlobalScheduler = validation_task.NewScheduler(DB, GlobalValidationService)
	if os.Getenv("REDIS_HOST") != "" {
		lock, err := validation_task.NewRedisLock()
		if err != nil {
			log.Printf("Redis分布式锁初始化失败，调度器以单实例模式运行: %v", err)
		} else {
			GlobalScheduler.SetDistributedLock(lock)
		}
	}
	if err := GlobalScheduler.Start(); err != nil {
		log.Printf("启动校验任务调度器失败: %v", err)
	}

	log.Println("服务初始化完成")
}
