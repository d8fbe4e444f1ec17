/*
 * @module service/validation/expectation_test
 * @description 期望规则评估语义测试，覆盖五种规则类型的成功、失败与边界场景
 * @architecture 测试层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 测试数据集构造 -> 规则评估 -> 结果断言
 * @rules 不依赖数据库，纯内存评估
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs expectation.go, dataset.go
 */

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnExists(t *testing.T) {
	ds := NewDataset([]Row{
		{"gender": "Male", "tenure": 5},
	})

	exp, err := NewColumnExists("gender")
	require.NoError(t, err)
	result := exp.Evaluate(ds)
	assert.True(t, result.Success)
	assert.Equal(t, "expect_column_to_exist:gender", result.ExpectationID)

	// 列不存在时规则失败，这正是该规则要检测的场景
	missing, err := NewColumnExists("customerID")
	require.NoError(t, err)
	result = missing.Evaluate(ds)
	assert.False(t, result.Success)
	assert.True(t, result.MissingColumn)
	assert.Equal(t, 0, result.ElementCount)
}

func TestNotNull(t *testing.T) {
	exp, err := NewNotNull("tenure")
	require.NoError(t, err)

	// 无空值时通过
	ds := NewDataset([]Row{
		{"tenure": 1},
		{"tenure": 2},
	})
	result := exp.Evaluate(ds)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.ElementCount)
	assert.Equal(t, 2, result.SuccessCount)

	// 任意一行为空即失败，缺失键同样视为空
	ds = NewDatasetWithColumns([]string{"tenure"}, []Row{
		{"tenure": 1},
		{"tenure": nil},
		{},
	})
	result = exp.Evaluate(ds)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.ElementCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.UnexpectedCount)

	// 零行数据集平凡通过
	result = exp.Evaluate(NewDatasetWithColumns([]string{"tenure"}, nil))
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ElementCount)

	// 列不存在时失败且零行评估
	result = exp.Evaluate(NewDataset([]Row{{"other": 1}}))
	assert.False(t, result.Success)
	assert.True(t, result.MissingColumn)
	assert.Equal(t, 0, result.ElementCount)
}

func TestValueSet(t *testing.T) {
	exp, err := NewValueSet("gender", []string{"Male", "Female"})
	require.NoError(t, err)

	// 全部取值在集合内时通过
	ds := NewDataset([]Row{
		{"gender": "Male"},
		{"gender": "Female"},
		{"gender": "Male"},
	})
	result := exp.Evaluate(ds)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.SuccessCount)

	// 任意一行出现集合外的值即失败，无论出现频率
	ds = NewDataset([]Row{
		{"gender": "Male"},
		{"gender": "Unknown"},
		{"gender": "Female"},
	})
	result = exp.Evaluate(ds)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.UnexpectedCount)
	assert.Equal(t, []string{"Unknown"}, result.UnexpectedValues)

	// 比较区分大小写
	result = exp.Evaluate(NewDataset([]Row{{"gender": "male"}}))
	assert.False(t, result.Success)

	// 空值不参与集合检查，空值问题由非空规则负责
	result = exp.Evaluate(NewDatasetWithColumns([]string{"gender"}, []Row{
		{"gender": "Male"},
		{"gender": nil},
	}))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ElementCount)
}

func TestValueSetEmptyAllowedSet(t *testing.T) {
	_, err := NewValueSet("gender", nil)
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	exp, err := NewRange("tenure", floatPtr(0), floatPtr(120))
	require.NoError(t, err)

	// 闭区间边界：0和120都在范围内，-5和121越界
	cases := []struct {
		value    interface{}
		expected bool
	}{
		{-5, false},
		{0, true},
		{120, true},
		{121, false},
	}
	for _, c := range cases {
		result := exp.Evaluate(NewDataset([]Row{{"tenure": c.value}}))
		assert.Equal(t, c.expected, result.Success, "tenure=%v", c.value)
	}
}

func TestRangeNullAndCoercionHandling(t *testing.T) {
	exp, err := NewRange("TotalCharges", floatPtr(0), nil)
	require.NoError(t, err)

	// 空值和无法转换为数值的单元格不参与评估，不计为失败
	ds := NewDatasetWithColumns([]string{"TotalCharges"}, []Row{
		{"TotalCharges": "300.5"},
		{"TotalCharges": " "},
		{"TotalCharges": "abc"},
		{"TotalCharges": nil},
	})
	result := exp.Evaluate(ds)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ElementCount)
	assert.Equal(t, 2, result.CoercionFailures)
}

func TestRangeRequiresAtLeastOneBound(t *testing.T) {
	_, err := NewRange("tenure", nil, nil)
	assert.Error(t, err)
}

func TestRangeMinGreaterThanMax(t *testing.T) {
	_, err := NewRange("tenure", floatPtr(10), floatPtr(0))
	assert.Error(t, err)
}

func TestPairGreaterMostlyThreshold(t *testing.T) {
	exp, err := NewPairGreater("TotalCharges", "MonthlyCharges", true, 0.95)
	require.NoError(t, err)

	buildRows := func(satisfying, violating int) []Row {
		rows := make([]Row, 0, satisfying+violating)
		for i := 0; i < satisfying; i++ {
			rows = append(rows, Row{"TotalCharges": 100.0, "MonthlyCharges": 50.0})
		}
		for i := 0; i < violating; i++ {
			rows = append(rows, Row{"TotalCharges": 10.0, "MonthlyCharges": 50.0})
		}
		return rows
	}

	// 94/100 低于95%阈值，失败
	result := exp.Evaluate(NewDataset(buildRows(94, 6)))
	assert.False(t, result.Success)
	assert.Equal(t, 100, result.ElementCount)
	assert.Equal(t, 94, result.SuccessCount)

	// 95/100 恰好达到阈值，阈值为闭边界，通过
	result = exp.Evaluate(NewDataset(buildRows(95, 5)))
	assert.True(t, result.Success)
}

func TestPairGreaterExcludesIncompleteRows(t *testing.T) {
	exp, err := NewPairGreater("TotalCharges", "MonthlyCharges", true, 1.0)
	require.NoError(t, err)

	// 任一列为空或不可转换的行完全不计入分子与分母
	ds := NewDatasetWithColumns([]string{"TotalCharges", "MonthlyCharges"}, []Row{
		{"TotalCharges": 100.0, "MonthlyCharges": 50.0},
		{"TotalCharges": nil, "MonthlyCharges": 50.0},
		{"TotalCharges": " ", "MonthlyCharges": 50.0},
		{"TotalCharges": 100.0, "MonthlyCharges": "n/a"},
	})
	result := exp.Evaluate(ds)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ElementCount)
}

func TestPairGreaterVacuousSuccess(t *testing.T) {
	exp, err := NewPairGreater("TotalCharges", "MonthlyCharges", false, 0.95)
	require.NoError(t, err)

	// 两列都存在但没有任何一行同时有值，平凡通过
	ds := NewDatasetWithColumns([]string{"TotalCharges", "MonthlyCharges"}, []Row{
		{"TotalCharges": 100.0},
		{"MonthlyCharges": 50.0},
	})
	result := exp.Evaluate(ds)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ElementCount)
}

func TestPairGreaterMissingColumn(t *testing.T) {
	exp, err := NewPairGreater("TotalCharges", "MonthlyCharges", true, 0.95)
	require.NoError(t, err)

	result := exp.Evaluate(NewDataset([]Row{{"TotalCharges": 100.0}}))
	assert.False(t, result.Success)
	assert.True(t, result.MissingColumn)
	assert.Equal(t, 0, result.ElementCount)
}

func TestPairGreaterStrictOperator(t *testing.T) {
	strict, err := NewPairGreater("a", "b", false, 1.0)
	require.NoError(t, err)
	orEqual, err := NewPairGreater("a", "b", true, 1.0)
	require.NoError(t, err)

	ds := NewDataset([]Row{{"a": 5.0, "b": 5.0}})
	assert.False(t, strict.Evaluate(ds).Success)
	assert.True(t, orEqual.Evaluate(ds).Success)
}

func TestPairGreaterInvalidMostly(t *testing.T) {
	_, err := NewPairGreater("a", "b", true, 1.5)
	assert.Error(t, err)
	_, err = NewPairGreater("a", "b", true, -0.1)
	assert.Error(t, err)
}

func TestExpectationIDFormat(t *testing.T) {
	exp, err := NewValueSet("gender", []string{"Male"})
	require.NoError(t, err)
	assert.Equal(t, "expect_column_values_to_be_in_set:gender", exp.ID())

	pair, err := NewPairGreater("TotalCharges", "MonthlyCharges", true, 0.95)
	require.NoError(t, err)
	assert.Equal(t, "expect_column_pair_values_a_to_be_greater_than_b:TotalCharges,MonthlyCharges", pair.ID())
}
