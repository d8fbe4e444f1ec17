/*
 * @module service/validation/runner_test
 * @description 校验运行器测试，覆盖顺序保证、独立评估、幂等性和并行一致性
 * @architecture 测试层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 套件构造 -> 运行器执行 -> 报告断言
 * @rules 不依赖数据库，纯内存评估
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs runner.go, report.go
 */

package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// telcoSampleDataset 规格示例的三行数据集
func telcoSampleDataset() *Dataset {
	return NewDataset([]Row{
		{"gender": "Male", "tenure": 5, "MonthlyCharges": 50, "TotalCharges": 300},
		{"gender": "Female", "tenure": -1, "MonthlyCharges": 40, "TotalCharges": 35},
		{"gender": "Other", "tenure": 10, "MonthlyCharges": 30, "TotalCharges": 300},
	})
}

func telcoSampleSuite(t *testing.T) *Suite {
	t.Helper()
	suite := NewSuite("telco_sample")
	valueSet, err := NewValueSet("gender", []string{"Male", "Female"})
	require.NoError(t, err)
	tenureRange, err := NewRange("tenure", floatPtr(0), nil)
	require.NoError(t, err)
	suite.Add(valueSet)
	suite.Add(tenureRange)
	return suite
}

func TestRunEndToEndScenario(t *testing.T) {
	suite := telcoSampleSuite(t)
	runner := NewRunner()

	success, failed := runner.Validate(context.Background(), telcoSampleDataset(), suite)
	assert.False(t, success)
	// 失败列表按套件顺序排列
	assert.Equal(t, []string{
		"expect_column_values_to_be_in_set:gender",
		"expect_column_values_to_be_between:tenure",
	}, failed)
}

func TestRunTotalChecksEqualsSuiteSize(t *testing.T) {
	suite := telcoSampleSuite(t)
	runner := NewRunner()

	results := runner.Run(context.Background(), telcoSampleDataset(), suite)
	report := Summarize(suite.Name(), results)
	assert.Equal(t, suite.Size(), report.TotalChecks)
}

func TestRunEmptySuite(t *testing.T) {
	runner := NewRunner()
	success, failed := runner.Validate(context.Background(), telcoSampleDataset(), NewSuite("empty"))
	assert.True(t, success)
	assert.Empty(t, failed)
}

func TestRunIdempotent(t *testing.T) {
	suite := telcoSampleSuite(t)
	runner := NewRunner()
	ds := telcoSampleDataset()

	first := runner.Run(context.Background(), ds, suite)
	second := runner.Run(context.Background(), ds, suite)
	assert.Equal(t, first, second)
}

func TestRunDoesNotAbortOnMissingColumn(t *testing.T) {
	suite := NewSuite("absent_column")
	exists, err := NewColumnExists("customerID")
	require.NoError(t, err)
	valueSet, err := NewValueSet("gender", []string{"Male", "Female"})
	require.NoError(t, err)
	suite.Add(exists)
	suite.Add(valueSet)

	ds := NewDataset([]Row{{"gender": "Male"}})
	results := NewRunner().Run(context.Background(), ds, suite)

	// 缺失列的规则失败，但后续规则仍正常评估
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[0].MissingColumn)
	assert.True(t, results[1].Success)
}

func TestRunParallelMatchesSequential(t *testing.T) {
	suite := BuiltinTelcoChurnSuite()
	ds := telcoSampleDataset()

	sequential := NewRunner().Run(context.Background(), ds, suite)
	parallel := (&Runner{Workers: 4}).Run(context.Background(), ds, suite)

	// 并行只是性能优化，结果与顺序执行完全一致且保持套件顺序
	assert.Equal(t, sequential, parallel)
}

func TestBuiltinTelcoChurnSuiteSize(t *testing.T) {
	suite := BuiltinTelcoChurnSuite()
	assert.Equal(t, 25, suite.Size())
	assert.Equal(t, "telco_churn_data_suite", suite.Name())
}
