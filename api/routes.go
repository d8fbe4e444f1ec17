/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers/validation_controller.go
 */

package api

import (
	"dataquality-service/api/controllers"
	"dataquality-service/api/middleware"
	"dataquality-service/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API密钥鉴权，API_KEY_AUTH=true时启用
	authMiddleware := middleware.NewApiKeyAuthMiddleware(service.GlobalValidationService)
	r.Use(authMiddleware.Middleware)

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 数据校验
	r.Route("/validation", func(r chi.Router) {
		validationController := controllers.NewValidationController(service.GlobalValidationService)

		// 即席校验
		r.Post("/run", validationController.RunValidation)

		// 套件管理
		r.Route("/suites", func(r chi.Router) {
			r.Post("/", validationController.CreateSuite)
			r.Get("/", validationController.GetSuites)
			r.Get("/{id}", validationController.GetSuiteByID)
			r.Put("/{id}", validationController.UpdateSuite)
			r.Delete("/{id}", validationController.DeleteSuite)

			// 套件执行
			r.Post("/{id}/run", validationController.RunSuite)
		})

		// 数据源管理
		r.Route("/datasources", func(r chi.Router) {
			r.Post("/", validationController.CreateDataSource)
			r.Get("/", validationController.GetDataSources)
			r.Delete("/{id}", validationController.DeleteDataSource)
		})

		// 校验报告
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", validationController.GetReports)
			r.Get("/{id}", validationController.GetReportByID)
		})

		// 调度任务
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", validationController.CreateTask)
			r.Get("/", validationController.GetTasks)
			r.Get("/{id}", validationController.GetTaskByID)
			r.Delete("/{id}", validationController.DeleteTask)
			r.Post("/{id}/execute", validationController.ExecuteTask)
		})

		// API密钥管理
		r.Post("/api-keys", validationController.CreateApiKey)
	})
}
