/*
 * @module service/validation/expectation
 * @description 数据质量期望规则定义与评估，支持列存在、非空、值域、取值集合、列对比较五种规则
 * @architecture 分层架构 - 规则评估层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 规则构造（配置校验） -> 数据集评估 -> 评估结果生成
 * @rules 配置错误在构造期快速失败；评估期任何数据问题都只产生质量发现，不产生系统错误
 * @dependencies github.com/spf13/cast
 * @refs service/validation/dataset.go, service/validation/runner.go
 */

package validation

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// ExpectationType 期望规则类型
type ExpectationType string

const (
	TypeColumnExists ExpectationType = "expect_column_to_exist"
	TypeNotNull      ExpectationType = "expect_column_values_to_not_be_null"
	TypeValueSet     ExpectationType = "expect_column_values_to_be_in_set"
	TypeRange        ExpectationType = "expect_column_values_to_be_between"
	TypePairGreater  ExpectationType = "expect_column_pair_values_a_to_be_greater_than_b"
)

// Expectation 单条数据质量期望规则，构造后不可变
type Expectation struct {
	Type    ExpectationType
	Column  string
	ColumnB string

	// ValueSet规则参数
	AllowedValues []string

	// Range规则参数，至少一个边界非空，边界为闭区间
	Min *float64
	Max *float64

	// PairGreater规则参数
	OrEqual bool
	Mostly  float64

	allowed map[string]struct{}
}

// Result 单条期望规则的评估结果
type Result struct {
	ExpectationID    string          `json:"expectation_id"`
	Type             ExpectationType `json:"type"`
	Column           string          `json:"column"`
	ColumnB          string          `json:"column_b,omitempty"`
	Success          bool            `json:"success"`
	ElementCount     int             `json:"element_count"`
	SuccessCount     int             `json:"success_count"`
	UnexpectedCount  int             `json:"unexpected_count"`
	UnexpectedValues []string        `json:"unexpected_values,omitempty"`
	CoercionFailures int             `json:"coercion_failures,omitempty"`
	MissingColumn    bool            `json:"missing_column,omitempty"`
}

// NewColumnExists 创建列存在性规则
func NewColumnExists(column string) (*Expectation, error) {
	if column == "" {
		return nil, fmt.Errorf("列存在性规则配置错误: 列名不能为空")
	}
	return &Expectation{Type: TypeColumnExists, Column: column}, nil
}

// NewNotNull 创建列非空规则
func NewNotNull(column string) (*Expectation, error) {
	if column == "" {
		return nil, fmt.Errorf("列非空规则配置错误: 列名不能为空")
	}
	return &Expectation{Type: TypeNotNull, Column: column}, nil
}

// NewValueSet 创建取值集合规则，比较区分大小写
func NewValueSet(column string, allowedValues []string) (*Expectation, error) {
	if column == "" {
		return nil, fmt.Errorf("取值集合规则配置错误: 列名不能为空")
	}
	if len(allowedValues) == 0 {
		return nil, fmt.Errorf("取值集合规则配置错误: 列 %s 的允许值集合不能为空", column)
	}
	allowed := make(map[string]struct{}, len(allowedValues))
	for _, v := range allowedValues {
		allowed[v] = struct{}{}
	}
	return &Expectation{
		Type:          TypeValueSet,
		Column:        column,
		AllowedValues: allowedValues,
		allowed:       allowed,
	}, nil
}

// NewRange 创建数值范围规则，min/max至少一个非空，边界为闭区间
func NewRange(column string, min, max *float64) (*Expectation, error) {
	if column == "" {
		return nil, fmt.Errorf("数值范围规则配置错误: 列名不能为空")
	}
	if min == nil && max == nil {
		return nil, fmt.Errorf("数值范围规则配置错误: 列 %s 的最小值和最大值不能同时为空", column)
	}
	if min != nil && max != nil && *min > *max {
		return nil, fmt.Errorf("数值范围规则配置错误: 列 %s 的最小值 %v 大于最大值 %v", column, *min, *max)
	}
	return &Expectation{Type: TypeRange, Column: column, Min: min, Max: max}, nil
}

// NewPairGreater 创建列对比较规则，要求 A>B 或 A>=B 的行占比不低于mostly
func NewPairGreater(columnA, columnB string, orEqual bool, mostly float64) (*Expectation, error) {
	if columnA == "" || columnB == "" {
		return nil, fmt.Errorf("列对比较规则配置错误: 列名不能为空")
	}
	if mostly < 0 || mostly > 1 {
		return nil, fmt.Errorf("列对比较规则配置错误: mostly阈值 %v 必须在[0,1]范围内", mostly)
	}
	return &Expectation{
		Type:    TypePairGreater,
		Column:  columnA,
		ColumnB: columnB,
		OrEqual: orEqual,
		Mostly:  mostly,
	}, nil
}

// ID 返回规则标识，格式为 类型:列名，列对规则为 类型:列A,列B
func (e *Expectation) ID() string {
	if e.Type == TypePairGreater {
		return fmt.Sprintf("%s:%s,%s", e.Type, e.Column, e.ColumnB)
	}
	return fmt.Sprintf("%s:%s", e.Type, e.Column)
}

// Evaluate 在数据集上评估规则，纯函数，只读数据集
// 评估失败（包括引用了不存在的列）表现为结果失败，绝不中断运行
func (e *Expectation) Evaluate(ds *Dataset) Result {
	result := Result{
		ExpectationID: e.ID(),
		Type:          e.Type,
		Column:        e.Column,
		ColumnB:       e.ColumnB,
	}

	switch e.Type {
	case TypeColumnExists:
		e.evaluateColumnExists(ds, &result)
	case TypeNotNull:
		e.evaluateNotNull(ds, &result)
	case TypeValueSet:
		e.evaluateValueSet(ds, &result)
	case TypeRange:
		e.evaluateRange(ds, &result)
	case TypePairGreater:
		e.evaluatePairGreater(ds, &result)
	default:
		// 构造函数保证不会出现未知类型，此处兜底为失败而非panic
		result.Success = false
	}
	return result
}

// evaluateColumnExists 列存在性检查，针对数据集整体评估一次而非逐行
func (e *Expectation) evaluateColumnExists(ds *Dataset, result *Result) {
	result.Success = ds.HasColumn(e.Column)
	result.MissingColumn = !result.Success
}

// evaluateNotNull 非空检查，空数据集视为通过
func (e *Expectation) evaluateNotNull(ds *Dataset, result *Result) {
	values, present := ds.Column(e.Column)
	if !present {
		result.MissingColumn = true
		return
	}
	result.ElementCount = len(values)
	for _, v := range values {
		if isNull(v) {
			result.UnexpectedCount++
		} else {
			result.SuccessCount++
		}
	}
	result.Success = result.UnexpectedCount == 0
}

// evaluateValueSet 取值集合检查，逐行统计集合外的值
// 空值不参与检查，任意一行出现集合外的值即整条规则失败
func (e *Expectation) evaluateValueSet(ds *Dataset, result *Result) {
	values, present := ds.Column(e.Column)
	if !present {
		result.MissingColumn = true
		return
	}
	seen := make(map[string]struct{})
	for _, v := range values {
		if isNull(v) {
			continue
		}
		result.ElementCount++
		s := cast.ToString(v)
		if _, ok := e.allowed[s]; ok {
			result.SuccessCount++
			continue
		}
		result.UnexpectedCount++
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			result.UnexpectedValues = append(result.UnexpectedValues, s)
		}
	}
	result.Success = result.UnexpectedCount == 0
}

// evaluateRange 数值范围检查，空值和转换失败的值不参与检查
func (e *Expectation) evaluateRange(ds *Dataset, result *Result) {
	values, nulls, failures, present := ds.NumericColumn(e.Column)
	if !present {
		result.MissingColumn = true
		return
	}
	result.CoercionFailures = failures
	for i, v := range values {
		if nulls[i] {
			continue
		}
		result.ElementCount++
		if (e.Min == nil || v >= *e.Min) && (e.Max == nil || v <= *e.Max) {
			result.SuccessCount++
		} else {
			result.UnexpectedCount++
		}
	}
	result.Success = result.UnexpectedCount == 0
}

// evaluatePairGreater 列对比较检查
// 只统计两列均为非空可转换数值的行，无可评估行时视为通过
// 满足比较的行占比达到mostly阈值（含）即通过
func (e *Expectation) evaluatePairGreater(ds *Dataset, result *Result) {
	valuesA, nullsA, failuresA, presentA := ds.NumericColumn(e.Column)
	valuesB, nullsB, failuresB, presentB := ds.NumericColumn(e.ColumnB)
	if !presentA || !presentB {
		result.MissingColumn = true
		return
	}
	result.CoercionFailures = failuresA + failuresB
	for i := range valuesA {
		if nullsA[i] || nullsB[i] {
			continue
		}
		result.ElementCount++
		satisfied := valuesA[i] > valuesB[i]
		if e.OrEqual {
			satisfied = valuesA[i] >= valuesB[i]
		}
		if satisfied {
			result.SuccessCount++
		} else {
			result.UnexpectedCount++
		}
	}
	if result.ElementCount == 0 {
		result.Success = true
		return
	}
	ratio := float64(result.SuccessCount) / float64(result.ElementCount)
	result.Success = ratio >= e.Mostly
}

// describeBounds 返回范围边界的可读描述，用于日志
func describeBounds(min, max *float64) string {
	parts := make([]string, 0, 2)
	if min != nil {
		parts = append(parts, fmt.Sprintf("min=%v", *min))
	}
	if max != nil {
		parts = append(parts, fmt.Sprintf("max=%v", *max))
	}
	return strings.Join(parts, ",")
}
