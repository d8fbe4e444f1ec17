/*
 * @module service/validation/suite
 * @description 期望规则套件，维护有序规则集合，并负责从配置定义构建规则
 * @architecture 分层架构 - 规则管理层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 配置解析 -> 规则构造 -> 套件组装 -> 运行器执行
 * @rules 套件保持插入顺序；允许重复规则；配置到规则类型一一对应
 * @dependencies service/validation/expectation.go
 * @refs service/validation/runner.go, service/models/validation.go
 */

package validation

import (
	"fmt"
	"log/slog"
)

// Suite 有序的期望规则套件，仅负责规则管理，不含评估逻辑
type Suite struct {
	name         string
	expectations []*Expectation
}

// NewSuite 创建空套件
func NewSuite(name string) *Suite {
	return &Suite{name: name}
}

// Name 返回套件名称
func (s *Suite) Name() string {
	return s.name
}

// Add 追加规则，保持插入顺序，允许同一规则重复出现
func (s *Suite) Add(e *Expectation) {
	s.expectations = append(s.expectations, e)
}

// List 返回有序的规则列表，供运行器迭代
func (s *Suite) List() []*Expectation {
	return s.expectations
}

// Size 返回规则数量
func (s *Suite) Size() int {
	return len(s.expectations)
}

// ExpectationDef 期望规则的外部配置定义，与五种规则类型一一对应
type ExpectationDef struct {
	Type          string   `json:"type"`
	Column        string   `json:"column"`
	ColumnB       string   `json:"column_b,omitempty"`
	AllowedValues []string `json:"value_set,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	OrEqual       *bool    `json:"or_equal,omitempty"`
	Mostly        *float64 `json:"mostly,omitempty"`
}

// BuildExpectation 将单条配置定义构建为规则，配置错误立即返回
func BuildExpectation(def ExpectationDef) (*Expectation, error) {
	switch ExpectationType(def.Type) {
	case TypeColumnExists:
		return NewColumnExists(def.Column)
	case TypeNotNull:
		return NewNotNull(def.Column)
	case TypeValueSet:
		return NewValueSet(def.Column, def.AllowedValues)
	case TypeRange:
		return NewRange(def.Column, def.Min, def.Max)
	case TypePairGreater:
		orEqual := false
		if def.OrEqual != nil {
			orEqual = *def.OrEqual
		}
		// mostly缺省为1.0，即全部可评估行都必须满足比较
		mostly := 1.0
		if def.Mostly != nil {
			mostly = *def.Mostly
		}
		return NewPairGreater(def.Column, def.ColumnB, orEqual, mostly)
	default:
		return nil, fmt.Errorf("不支持的期望规则类型: %s", def.Type)
	}
}

// BuildSuite 从配置定义列表构建套件
// 任意一条定义非法则整体失败，保证数据集被读取前捕获全部配置错误
func BuildSuite(name string, defs []ExpectationDef) (*Suite, error) {
	suite := NewSuite(name)
	for i, def := range defs {
		exp, err := BuildExpectation(def)
		if err != nil {
			return nil, fmt.Errorf("套件 %s 第 %d 条规则构建失败: %w", name, i+1, err)
		}
		if exp.Type == TypeRange {
			slog.Debug("构建数值范围规则", "suite", name, "column", exp.Column, "bounds", describeBounds(exp.Min, exp.Max))
		}
		suite.Add(exp)
	}
	return suite, nil
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// BuiltinTelcoChurnSuiteName 内置套件名称
const BuiltinTelcoChurnSuiteName = "telco_churn_data_suite"

// BuiltinTelcoChurnDefs 内置电信客户流失数据集校验套件的规则定义
// 覆盖模式校验、业务约束、数值范围、统计属性和跨列一致性五类检查
func BuiltinTelcoChurnDefs() []ExpectationDef {
	var defs []ExpectationDef

	// 模式校验：关键列必须存在
	for _, column := range []string{
		"customerID", "gender", "Partner", "Dependents",
		"PhoneService", "InternetService", "Contract",
		"tenure", "MonthlyCharges", "TotalCharges",
	} {
		defs = append(defs, ExpectationDef{Type: string(TypeColumnExists), Column: column})
	}

	// 关键列不允许缺失值
	for _, column := range []string{"customerID", "tenure", "MonthlyCharges"} {
		defs = append(defs, ExpectationDef{Type: string(TypeNotNull), Column: column})
	}

	// 业务约束：枚举列取值集合
	valueSets := []struct {
		column string
		values []string
	}{
		{"gender", []string{"Male", "Female"}},
		{"Partner", []string{"Yes", "No"}},
		{"Dependents", []string{"Yes", "No"}},
		{"PhoneService", []string{"Yes", "No"}},
		{"Contract", []string{"Month-to-month", "One year", "Two year"}},
		{"InternetService", []string{"DSL", "Fiber optic", "No"}},
	}
	for _, vs := range valueSets {
		defs = append(defs, ExpectationDef{Type: string(TypeValueSet), Column: vs.column, AllowedValues: vs.values})
	}

	// 数值范围：费用与在网时长的业务边界
	ranges := []struct {
		column   string
		min, max *float64
	}{
		{"tenure", floatPtr(0), nil},
		{"MonthlyCharges", floatPtr(0), nil},
		{"TotalCharges", floatPtr(0), nil},
		{"tenure", floatPtr(0), floatPtr(120)},
		{"MonthlyCharges", floatPtr(0), floatPtr(200)},
	}
	for _, r := range ranges {
		defs = append(defs, ExpectationDef{Type: string(TypeRange), Column: r.column, Min: r.min, Max: r.max})
	}

	// 跨列一致性：累计费用一般不低于月费，允许5%的新客户例外
	defs = append(defs, ExpectationDef{
		Type:    string(TypePairGreater),
		Column:  "TotalCharges",
		ColumnB: "MonthlyCharges",
		OrEqual: boolPtr(true),
		Mostly:  floatPtr(0.95),
	})

	return defs
}

// BuiltinTelcoChurnSuite 构建内置的电信客户流失数据集校验套件
func BuiltinTelcoChurnSuite() *Suite {
	suite, err := BuildSuite(BuiltinTelcoChurnSuiteName, BuiltinTelcoChurnDefs())
	if err != nil {
		// 内置定义均为合法配置，构建失败属于程序缺陷
		panic(err)
	}
	return suite
}
