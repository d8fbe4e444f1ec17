/*
 * @module service/validation/runner
 * @description 校验运行器，按套件顺序独立评估每条规则，支持可选的并行评估
 * @architecture 分层架构 - 执行层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 套件迭代 -> 规则独立评估 -> 结果按套件顺序汇总
 * @rules 规则之间互不影响；单条规则失败不中断整体运行；并行时结果仍按套件顺序返回
 * @dependencies service/validation/expectation.go, service/validation/report.go
 * @refs service/quality/validation_service.go
 */

package validation

import (
	"context"
	"sync"
	"time"
)

// Runner 校验运行器
// Workers大于1时并行评估规则，数据集只读共享，无需加锁
type Runner struct {
	Workers int
}

// NewRunner 创建默认的串行运行器
func NewRunner() *Runner {
	return &Runner{Workers: 1}
}

// Run 对数据集执行套件中的全部规则
// 不做短路：即使前面的规则已失败，后续规则仍然全部评估，
// 结果序列与套件顺序一致，每条规则写入各自的结果槽位
func (r *Runner) Run(ctx context.Context, ds *Dataset, suite *Suite) []Result {
	expectations := suite.List()
	results := make([]Result, len(expectations))

	workers := r.Workers
	if workers <= 1 || len(expectations) <= 1 {
		for i, exp := range expectations {
			results[i] = exp.Evaluate(ds)
		}
		return results
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, exp := range expectations {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, e *Expectation) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = e.Evaluate(ds)
		}(i, exp)
	}
	wg.Wait()
	return results
}

// Validate 主要对外契约：执行套件并返回整体成败与失败规则标识列表
func (r *Runner) Validate(ctx context.Context, ds *Dataset, suite *Suite) (bool, []string) {
	start := time.Now()
	results := r.Run(ctx, ds, suite)
	report := Summarize(suite.Name(), results)
	ObserveRun(suite.Name(), report, time.Since(start))
	return report.Success, report.FailedExpectations
}
