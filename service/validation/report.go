/*
 * @module service/validation/report
 * @description 校验报告聚合，将逐条评估结果汇总为整体成败、计数和失败规则列表
 * @architecture 分层架构 - 结果聚合层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 评估结果列表 -> 计数汇总 -> 报告生成
 * @rules 整体成败为所有规则成败的逻辑与；空套件视为通过；失败列表保持套件顺序
 * @dependencies service/validation/expectation.go
 * @refs service/quality/validation_service.go
 */

package validation

// Report 一次校验运行的聚合报告，完全由评估结果推导，无独立状态
type Report struct {
	SuiteName          string   `json:"suite_name"`
	Success            bool     `json:"success"`
	TotalChecks        int      `json:"total_checks"`
	PassedChecks       int      `json:"passed_checks"`
	FailedChecks       int      `json:"failed_checks"`
	FailedExpectations []string `json:"failed_expectations"`
	Results            []Result `json:"results"`
}

// Summarize 聚合评估结果为报告
// 失败规则标识按原始套件顺序排列；空结果列表产生success=true的空报告
func Summarize(suiteName string, results []Result) *Report {
	report := &Report{
		SuiteName:          suiteName,
		Success:            true,
		TotalChecks:        len(results),
		FailedExpectations: make([]string, 0),
		Results:            results,
	}
	for _, result := range results {
		if result.Success {
			report.PassedChecks++
			continue
		}
		report.Success = false
		report.FailedChecks++
		report.FailedExpectations = append(report.FailedExpectations, result.ExpectationID)
	}
	return report
}
