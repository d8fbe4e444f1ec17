/*
 * @module service/validation/suite_test
 * @description 套件管理与配置构建测试，覆盖顺序保持、重复规则和配置快速失败
 * @architecture 测试层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 配置定义 -> 套件构建 -> 断言
 * @rules 配置错误必须在构建期捕获，评估期不应出现配置错误
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs suite.go
 */

package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuiteAddPreservesOrder(t *testing.T) {
	suite := NewSuite("ordered")
	first, err := NewColumnExists("a")
	require.NoError(t, err)
	second, err := NewNotNull("b")
	require.NoError(t, err)
	suite.Add(first)
	suite.Add(second)

	assert.Equal(t, 2, suite.Size())
	list := suite.List()
	assert.Equal(t, "expect_column_to_exist:a", list[0].ID())
	assert.Equal(t, "expect_column_values_to_not_be_null:b", list[1].ID())
}

func TestSuiteAllowsDuplicates(t *testing.T) {
	suite := NewSuite("dup")
	exp, err := NewNotNull("a")
	require.NoError(t, err)
	suite.Add(exp)
	suite.Add(exp)
	assert.Equal(t, 2, suite.Size())

	// 重复规则产生重复的报告条目
	results := NewRunner().Run(context.Background(), NewDataset([]Row{{"a": nil}}), suite)
	report := Summarize("dup", results)
	assert.Len(t, report.FailedExpectations, 2)
}

func TestBuildSuiteFromDefs(t *testing.T) {
	defs := []ExpectationDef{
		{Type: string(TypeColumnExists), Column: "customerID"},
		{Type: string(TypeNotNull), Column: "tenure"},
		{Type: string(TypeValueSet), Column: "gender", AllowedValues: []string{"Male", "Female"}},
		{Type: string(TypeRange), Column: "tenure", Min: floatPtr(0), Max: floatPtr(120)},
		{Type: string(TypePairGreater), Column: "TotalCharges", ColumnB: "MonthlyCharges", OrEqual: boolPtr(true), Mostly: floatPtr(0.95)},
	}

	suite, err := BuildSuite("from_defs", defs)
	require.NoError(t, err)
	assert.Equal(t, 5, suite.Size())
	assert.Equal(t, 0.95, suite.List()[4].Mostly)
	assert.True(t, suite.List()[4].OrEqual)
}

func TestBuildSuiteFailsFastOnBadDef(t *testing.T) {
	cases := []struct {
		name string
		def  ExpectationDef
	}{
		{"无边界的范围规则", ExpectationDef{Type: string(TypeRange), Column: "tenure"}},
		{"空的允许值集合", ExpectationDef{Type: string(TypeValueSet), Column: "gender"}},
		{"未知规则类型", ExpectationDef{Type: "expect_something_else", Column: "a"}},
		{"越界的mostly阈值", ExpectationDef{Type: string(TypePairGreater), Column: "a", ColumnB: "b", Mostly: floatPtr(2)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := BuildSuite("bad", []ExpectationDef{c.def})
			assert.Error(t, err)
		})
	}
}

func TestBuildExpectationPairDefaults(t *testing.T) {
	// or_equal缺省为false，mostly缺省为1.0
	exp, err := BuildExpectation(ExpectationDef{
		Type: string(TypePairGreater), Column: "a", ColumnB: "b",
	})
	require.NoError(t, err)
	assert.False(t, exp.OrEqual)
	assert.Equal(t, 1.0, exp.Mostly)
}
