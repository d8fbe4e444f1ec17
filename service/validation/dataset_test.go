/*
 * @module service/validation/dataset_test
 * @description 数据集与列访问器测试，覆盖列缺失判定、稀疏行和数值强制转换
 * @architecture 测试层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 数据行构造 -> 列访问 -> 断言
 * @rules 列缺失与列为空必须区分；转换失败计数但不报错
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs dataset.go
 */

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetColumnDerivation(t *testing.T) {
	ds := NewDataset([]Row{
		{"a": 1},
		{"b": 2},
	})
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
	assert.True(t, ds.HasColumn("a"))
	assert.False(t, ds.HasColumn("c"))
	assert.Equal(t, 2, ds.RowCount())
}

func TestDatasetExplicitColumns(t *testing.T) {
	// 显式声明的全空列依然"存在"，区别于完全缺失的列
	ds := NewDatasetWithColumns([]string{"a", "empty"}, []Row{{"a": 1}})
	assert.True(t, ds.HasColumn("empty"))

	values, present := ds.Column("empty")
	assert.True(t, present)
	require.Len(t, values, 1)
	assert.Nil(t, values[0])

	_, present = ds.Column("missing")
	assert.False(t, present)
}

func TestDatasetSparseRowsTreatedAsNull(t *testing.T) {
	ds := NewDataset([]Row{
		{"a": 1, "b": "x"},
		{"a": 2},
	})
	values, present := ds.Column("b")
	require.True(t, present)
	assert.Equal(t, "x", values[0])
	assert.Nil(t, values[1])
}

func TestNumericColumnCoercion(t *testing.T) {
	ds := NewDatasetWithColumns([]string{"v"}, []Row{
		{"v": 1},
		{"v": "2.5"},
		{"v": " 3 "},
		{"v": "abc"},
		{"v": " "},
		{"v": nil},
	})

	values, nulls, failures, present := ds.NumericColumn("v")
	require.True(t, present)
	assert.Equal(t, 2, failures)

	assert.False(t, nulls[0])
	assert.Equal(t, 1.0, values[0])
	assert.False(t, nulls[1])
	assert.Equal(t, 2.5, values[1])
	// 带空白的数字字符串可转换
	assert.False(t, nulls[2])
	assert.Equal(t, 3.0, values[2])
	// 转换失败与显式空值都标记为null
	assert.True(t, nulls[3])
	assert.True(t, nulls[4])
	assert.True(t, nulls[5])
}

func TestNumericColumnAbsent(t *testing.T) {
	ds := NewDataset([]Row{{"a": 1}})
	_, _, _, present := ds.NumericColumn("missing")
	assert.False(t, present)
}
