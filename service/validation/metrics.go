/*
 * @module service/validation/metrics
 * @description 校验运行的Prometheus指标采集，统计运行次数、失败规则数和运行耗时
 * @architecture 分层架构 - 监控层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 校验运行完成 -> 指标更新 -> /metrics暴露
 * @rules 指标采集不影响校验结果，仅作观测用途
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs main.go
 */

package validation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_runs_total",
		Help: "校验运行总次数，按套件和整体结果区分",
	}, []string{"suite", "result"})

	failedExpectationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_failed_expectations_total",
		Help: "失败的期望规则累计数量，按套件区分",
	}, []string{"suite"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "validation_run_duration_seconds",
		Help:    "校验运行耗时分布",
		Buckets: prometheus.DefBuckets,
	}, []string{"suite"})
)

// ObserveRun 记录一次校验运行的观测指标
func ObserveRun(suite string, report *Report, elapsed time.Duration) {
	result := "success"
	if !report.Success {
		result = "failure"
	}
	runsTotal.WithLabelValues(suite, result).Inc()
	failedExpectationsTotal.WithLabelValues(suite).Add(float64(report.FailedChecks))
	runDuration.WithLabelValues(suite).Observe(elapsed.Seconds())
}
