/*
 * @module api/controllers/validation_controller
 * @description 数据校验控制器，提供套件管理、数据源管理、校验执行、报告查询、调度任务和API密钥管理接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow HTTP请求处理流程
 * @rules 统一的错误处理和响应格式；规则配置错误返回400，数据质量失败体现在报告中，仍返回200
 * @dependencies dataquality-service/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/quality/validation_service.go
 */

package controllers

import (
	"net/http"
	"strconv"
	"time"

	"dataquality-service/service"
	"dataquality-service/service/models"
	"dataquality-service/service/quality"
	"dataquality-service/service/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// ValidationController 数据校验控制器
type ValidationController struct {
	validationService *quality.ValidationService
}

// NewValidationController 创建数据校验控制器实例
func NewValidationController(validationService *quality.ValidationService) *ValidationController {
	return &ValidationController{
		validationService: validationService,
	}
}

// === 校验执行 ===

// RunValidationRequest 即席校验请求
type RunValidationRequest struct {
	SuiteName    string                      `json:"suite_name"`
	Rows         []validation.Row            `json:"rows"`
	Expectations []validation.ExpectationDef `json:"expectations"`
}

// RunValidation 对内联数据执行内联套件
// @Summary 即席校验
// @Description 对请求体中的数据行执行请求体中定义的期望套件，返回完整校验报告
// @Tags 数据校验
// @Accept json
// @Produce json
// @Param request body RunValidationRequest true "校验请求"
// @Success 200 {object} APIResponse{data=models.ValidationReportRecord} "校验完成"
// @Failure 400 {object} APIResponse "规则配置错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /validation/run [post]
func (c *ValidationController) RunValidation(w http.ResponseWriter, r *http.Request) {
	var req RunValidationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}
	if req.SuiteName == "" {
		req.SuiteName = "ad_hoc_suite"
	}

	report, err := c.validationService.RunAdHoc(r.Context(), req.SuiteName, req.Rows, req.Expectations)
	if err != nil {
		// 构建期错误全部属于规则配置问题
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "校验完成",
		Data:   report,
	})
}

// RunSuiteRequest 套件执行请求
type RunSuiteRequest struct {
	DataSourceID string `json:"data_source_id"`
}

// RunSuite 对注册数据源执行落库套件
// @Summary 执行期望套件
// @Description 对指定数据源执行落库的期望套件，返回完整校验报告
// @Tags 数据校验
// @Accept json
// @Produce json
// @Param id path string true "套件ID"
// @Param request body RunSuiteRequest true "执行请求"
// @Success 200 {object} APIResponse{data=models.ValidationReportRecord} "校验完成"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /validation/suites/{id}/run [post]
func (c *ValidationController) RunSuite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RunSuiteRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}
	if req.DataSourceID == "" {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "data_source_id不能为空",
		})
		return
	}

	report, err := c.validationService.RunSuite(r.Context(), id, req.DataSourceID)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "校验完成",
		Data:   report,
	})
}

// === 套件管理 ===

// CreateSuiteRequest 套件创建请求
type CreateSuiteRequest struct {
	Name         string                      `json:"name"`
	Description  string                      `json:"description"`
	Expectations []validation.ExpectationDef `json:"expectations"`
}

// CreateSuite 创建期望套件
// @Summary 创建期望套件
// @Description 创建新的期望套件定义，规则配置在落库前整体校验
// @Tags 套件管理
// @Accept json
// @Produce json
// @Param request body CreateSuiteRequest true "套件定义"
// @Success 201 {object} APIResponse{data=models.ExpectationSuiteDef} "创建成功"
// @Failure 400 {object} APIResponse "规则配置错误"
// @Router /validation/suites [post]
func (c *ValidationController) CreateSuite(w http.ResponseWriter, r *http.Request) {
	var req CreateSuiteRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}
	if req.Name == "" {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "套件名称不能为空",
		})
		return
	}

	suite, err := c.validationService.CreateSuite(req.Name, req.Description, req.Expectations)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusCreated,
		Msg:    "创建期望套件成功",
		Data:   suite,
	})
}

// GetSuites 获取套件列表
// @Summary 获取期望套件列表
// @Description 分页获取期望套件定义列表
// @Tags 套件管理
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.ExpectationSuiteDef} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /validation/suites [get]
func (c *ValidationController) GetSuites(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)

	suites, total, err := c.validationService.GetSuites(page, size)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "获取期望套件列表失败",
		})
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: http.StatusOK,
		Msg:    "获取期望套件列表成功",
		Data:   suites,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetSuiteByID 获取套件详情
// @Summary 获取期望套件详情
// @Tags 套件管理
// @Produce json
// @Param id path string true "套件ID"
// @Success 200 {object} APIResponse{data=models.ExpectationSuiteDef} "获取成功"
// @Failure 404 {object} APIResponse "套件不存在"
// @Router /validation/suites/{id} [get]
func (c *ValidationController) GetSuiteByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	suite, err := c.validationService.GetSuiteByID(id)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusNotFound,
			Msg:    "期望套件不存在",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取期望套件成功",
		Data:   suite,
	})
}

// UpdateSuiteRequest 套件更新请求
type UpdateSuiteRequest struct {
	Description  *string                     `json:"description"`
	Expectations []validation.ExpectationDef `json:"expectations"`
}

// UpdateSuite 更新套件定义
// @Summary 更新期望套件
// @Description 更新套件描述或规则定义，新规则同样先整体校验
// @Tags 套件管理
// @Accept json
// @Produce json
// @Param id path string true "套件ID"
// @Param request body UpdateSuiteRequest true "更新内容"
// @Success 200 {object} APIResponse "更新成功"
// @Failure 400 {object} APIResponse "规则配置错误"
// @Failure 404 {object} APIResponse "套件不存在"
// @Router /validation/suites/{id} [put]
func (c *ValidationController) UpdateSuite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateSuiteRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}

	if err := c.validationService.UpdateSuite(id, req.Description, req.Expectations); err != nil {
		if err == gorm.ErrRecordNotFound {
			render.JSON(w, r, APIResponse{
				Status: http.StatusNotFound,
				Msg:    "期望套件不存在",
			})
			return
		}
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "更新期望套件成功",
	})
}

// DeleteSuite 删除套件
// @Summary 删除期望套件
// @Description 删除套件定义，内置套件不可删除
// @Tags 套件管理
// @Produce json
// @Param id path string true "套件ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 400 {object} APIResponse "内置套件不可删除"
// @Failure 404 {object} APIResponse "套件不存在"
// @Router /validation/suites/{id} [delete]
func (c *ValidationController) DeleteSuite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.validationService.DeleteSuite(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			render.JSON(w, r, APIResponse{
				Status: http.StatusNotFound,
				Msg:    "期望套件不存在",
			})
			return
		}
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "删除期望套件成功",
	})
}

// === 数据源管理 ===

// CreateDataSourceRequest 数据源创建请求
type CreateDataSourceRequest struct {
	Name   string                 `json:"name"`
	Type   string                 `json:"type"`
	Config map[string]interface{} `json:"config"`
}

// CreateDataSource 创建数据源
// @Summary 创建数据源
// @Description 注册CSV或PostgreSQL数据源，连接密码加密存储
// @Tags 数据源管理
// @Accept json
// @Produce json
// @Param request body CreateDataSourceRequest true "数据源定义"
// @Success 201 {object} APIResponse{data=models.DataSourceDef} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /validation/datasources [post]
func (c *ValidationController) CreateDataSource(w http.ResponseWriter, r *http.Request) {
	var req CreateDataSourceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}
	if req.Name == "" || req.Config == nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "数据源名称和配置不能为空",
		})
		return
	}

	def, err := c.validationService.CreateDataSource(req.Name, req.Type, req.Config)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusCreated,
		Msg:    "创建数据源成功",
		Data:   def,
	})
}

// GetDataSources 获取数据源列表
// @Summary 获取数据源列表
// @Tags 数据源管理
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.DataSourceDef} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /validation/datasources [get]
func (c *ValidationController) GetDataSources(w http.ResponseWriter, r *http.Request) {
	defs, err := c.validationService.GetDataSources()
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "获取数据源列表失败",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取数据源列表成功",
		Data:   defs,
	})
}

// DeleteDataSource 删除数据源
// @Summary 删除数据源
// @Tags 数据源管理
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /validation/datasources/{id} [delete]
func (c *ValidationController) DeleteDataSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.validationService.DeleteDataSource(id); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "删除数据源失败",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "删除数据源成功",
	})
}

// === 校验报告管理 ===

// GetReports 获取报告列表
// @Summary 获取校验报告列表
// @Description 分页获取校验报告，可按套件过滤
// @Tags 校验报告
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Param suite_id query string false "套件ID"
// @Success 200 {object} PaginatedResponse{data=[]models.ValidationReportRecord} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /validation/reports [get]
func (c *ValidationController) GetReports(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)
	suiteID := r.URL.Query().Get("suite_id")

	reports, total, err := c.validationService.GetReports(page, size, suiteID)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "获取校验报告列表失败",
		})
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: http.StatusOK,
		Msg:    "获取校验报告列表成功",
		Data:   reports,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetReportByID 获取报告详情
// @Summary 获取校验报告详情
// @Tags 校验报告
// @Produce json
// @Param id path string true "报告ID"
// @Success 200 {object} APIResponse{data=models.ValidationReportRecord} "获取成功"
// @Failure 404 {object} APIResponse "报告不存在"
// @Router /validation/reports/{id} [get]
func (c *ValidationController) GetReportByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := c.validationService.GetReportByID(id)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusNotFound,
			Msg:    "校验报告不存在",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取校验报告成功",
		Data:   report,
	})
}

// === 调度任务管理 ===

// CreateTask 创建调度任务
// @Summary 创建校验调度任务
// @Description 创建定时校验任务，支持cron、interval、once、manual四种调度类型
// @Tags 调度任务
// @Accept json
// @Produce json
// @Param task body models.ValidationTask true "任务定义"
// @Success 201 {object} APIResponse{data=models.ValidationTask} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /validation/tasks [post]
func (c *ValidationController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var task models.ValidationTask
	if err := render.DecodeJSON(r.Body, &task); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}

	if err := c.validationService.CreateTask(&task); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    err.Error(),
		})
		return
	}

	// 新任务注册到调度器，cron任务立即生效
	if service.GlobalScheduler != nil && task.IsEnabled {
		if err := service.GlobalScheduler.RegisterTask(&task); err != nil {
			render.JSON(w, r, APIResponse{
				Status: http.StatusInternalServerError,
				Msg:    "任务已创建但调度注册失败: " + err.Error(),
			})
			return
		}
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusCreated,
		Msg:    "创建调度任务成功",
		Data:   task,
	})
}

// GetTasks 获取调度任务列表
// @Summary 获取校验调度任务列表
// @Tags 调度任务
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.ValidationTask} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /validation/tasks [get]
func (c *ValidationController) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := c.validationService.GetTasks()
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "获取调度任务列表失败",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取调度任务列表成功",
		Data:   tasks,
	})
}

// GetTaskByID 获取调度任务详情
// @Summary 获取校验调度任务详情
// @Tags 调度任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse{data=models.ValidationTask} "获取成功"
// @Failure 404 {object} APIResponse "任务不存在"
// @Router /validation/tasks/{id} [get]
func (c *ValidationController) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := c.validationService.GetTaskByID(id)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusNotFound,
			Msg:    "调度任务不存在",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "获取调度任务成功",
		Data:   task,
	})
}

// DeleteTask 删除调度任务
// @Summary 删除校验调度任务
// @Tags 调度任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /validation/tasks/{id} [delete]
func (c *ValidationController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.validationService.DeleteTask(id); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "删除调度任务失败",
		})
		return
	}
	if service.GlobalScheduler != nil {
		service.GlobalScheduler.UnregisterTask(id)
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "删除调度任务成功",
	})
}

// ExecuteTask 手动触发任务
// @Summary 手动触发校验调度任务
// @Description 立即执行一次任务，返回本次校验报告
// @Tags 调度任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse{data=models.ValidationReportRecord} "执行完成"
// @Failure 500 {object} APIResponse "执行失败"
// @Router /validation/tasks/{id}/execute [post]
func (c *ValidationController) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := c.validationService.ExecuteTask(r.Context(), id)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    err.Error(),
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusOK,
		Msg:    "任务执行完成",
		Data:   report,
	})
}

// === API密钥管理 ===

// CreateApiKeyRequest API密钥创建请求
type CreateApiKeyRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateApiKeyResponse API密钥创建响应，明文密钥仅此一次返回
type CreateApiKeyResponse struct {
	Key    models.ApiKey `json:"key"`
	ApiKey string        `json:"api_key"`
}

// CreateApiKey 创建API密钥
// @Summary 创建API密钥
// @Description 创建新的API密钥，明文仅在创建时返回一次
// @Tags API密钥
// @Accept json
// @Produce json
// @Param request body CreateApiKeyRequest true "密钥信息"
// @Success 201 {object} APIResponse{data=CreateApiKeyResponse} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /validation/api-keys [post]
func (c *ValidationController) CreateApiKey(w http.ResponseWriter, r *http.Request) {
	var req CreateApiKeyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "请求参数格式错误",
		})
		return
	}
	if req.Name == "" {
		render.JSON(w, r, APIResponse{
			Status: http.StatusBadRequest,
			Msg:    "密钥名称不能为空",
		})
		return
	}

	key, plaintext, err := c.validationService.CreateApiKey(req.Name, req.ExpiresAt)
	if err != nil {
		render.JSON(w, r, APIResponse{
			Status: http.StatusInternalServerError,
			Msg:    "创建API密钥失败",
		})
		return
	}

	render.JSON(w, r, APIResponse{
		Status: http.StatusCreated,
		Msg:    "创建API密钥成功",
		Data: CreateApiKeyResponse{
			Key:    *key,
			ApiKey: plaintext,
		},
	})
}

// parsePagination 解析分页参数
func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	return page, size
}
