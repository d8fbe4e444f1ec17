/*
 * @module service/validation/report_test
 * @description 校验报告聚合测试
 * @architecture 测试层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 评估结果构造 -> 聚合 -> 断言
 * @rules 不依赖数据库
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs report.go
 */

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeCounts(t *testing.T) {
	results := []Result{
		{ExpectationID: "expect_column_to_exist:a", Success: true},
		{ExpectationID: "expect_column_values_to_not_be_null:b", Success: false},
		{ExpectationID: "expect_column_values_to_be_between:c", Success: false},
		{ExpectationID: "expect_column_values_to_be_in_set:d", Success: true},
	}

	report := Summarize("demo", results)
	assert.False(t, report.Success)
	assert.Equal(t, 4, report.TotalChecks)
	assert.Equal(t, 2, report.PassedChecks)
	assert.Equal(t, 2, report.FailedChecks)
	assert.Equal(t, []string{
		"expect_column_values_to_not_be_null:b",
		"expect_column_values_to_be_between:c",
	}, report.FailedExpectations)
}

func TestSummarizeEmptyResults(t *testing.T) {
	report := Summarize("empty", nil)
	assert.True(t, report.Success)
	assert.Equal(t, 0, report.TotalChecks)
	assert.NotNil(t, report.FailedExpectations)
	assert.Empty(t, report.FailedExpectations)
}

func TestSummarizeAllPassed(t *testing.T) {
	report := Summarize("ok", []Result{
		{ExpectationID: "expect_column_to_exist:a", Success: true},
	})
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.PassedChecks)
	assert.Equal(t, 0, report.FailedChecks)
}
