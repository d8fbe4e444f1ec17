/*
 * @module service/validation/dataset
 * @description 内存表格数据集与列访问器，提供列解析和数值类型强制转换
 * @architecture 分层架构 - 数据访问层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 数据行载入 -> 列解析 -> 数值转换 -> 规则评估
 * @rules 列缺失与列为空必须区分；转换失败视为空值而非错误
 * @dependencies github.com/spf13/cast
 * @refs service/validation/expectation.go, service/datasource
 */

package validation

import (
	"errors"
	"strings"

	"github.com/spf13/cast"
)

var errEmptyCell = errors.New("单元格为空字符串")

// Row 单行数据，列名到值的映射，缺失的键视为空值
type Row map[string]interface{}

// Dataset 内存表格数据集，行有序，列名集合由行键推导或显式声明
type Dataset struct {
	columns []string
	colSet  map[string]struct{}
	rows    []Row
}

// NewDataset 创建数据集，列名按首次出现顺序从行键推导
func NewDataset(rows []Row) *Dataset {
	ds := &Dataset{
		colSet: make(map[string]struct{}),
		rows:   rows,
	}
	for _, row := range rows {
		for name := range row {
			if _, ok := ds.colSet[name]; !ok {
				ds.colSet[name] = struct{}{}
				ds.columns = append(ds.columns, name)
			}
		}
	}
	return ds
}

// NewDatasetWithColumns 创建带显式列声明的数据集
// CSV等来源的表头可能包含全空列，显式声明保证这些列仍然"存在"
func NewDatasetWithColumns(columns []string, rows []Row) *Dataset {
	ds := &Dataset{
		colSet: make(map[string]struct{}, len(columns)),
		rows:   rows,
	}
	for _, name := range columns {
		if _, ok := ds.colSet[name]; !ok {
			ds.colSet[name] = struct{}{}
			ds.columns = append(ds.columns, name)
		}
	}
	return ds
}

// RowCount 返回行数
func (d *Dataset) RowCount() int {
	return len(d.rows)
}

// Columns 返回列名列表
func (d *Dataset) Columns() []string {
	return d.columns
}

// HasColumn 判断列是否存在
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.colSet[name]
	return ok
}

// Rows 返回全部数据行，调用方只读
func (d *Dataset) Rows() []Row {
	return d.rows
}

// isNull 判断单元格是否为空值，缺失键和显式nil都算空
func isNull(v interface{}) bool {
	return v == nil
}

// Column 返回列的全部值（含空值），列不存在时返回 present=false
func (d *Dataset) Column(name string) (values []interface{}, present bool) {
	if !d.HasColumn(name) {
		return nil, false
	}
	values = make([]interface{}, len(d.rows))
	for i, row := range d.rows {
		if v, ok := row[name]; ok {
			values[i] = v
		}
	}
	return values, true
}

// NumericColumn 返回列的数值视图
// 每个单元格尝试强制转换为float64，转换失败或原本为空的单元格标记为null
// failures 统计非空但无法转换的单元格数量，供诊断使用
func (d *Dataset) NumericColumn(name string) (values []float64, nulls []bool, failures int, present bool) {
	raw, ok := d.Column(name)
	if !ok {
		return nil, nil, 0, false
	}
	values = make([]float64, len(raw))
	nulls = make([]bool, len(raw))
	for i, v := range raw {
		if isNull(v) {
			nulls[i] = true
			continue
		}
		f, err := coerceFloat(v)
		if err != nil {
			nulls[i] = true
			failures++
			continue
		}
		values[i] = f
	}
	return values, nulls, failures, true
}

// coerceFloat 尽力将单元格值转换为float64
func coerceFloat(v interface{}) (float64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, errEmptyCell
		}
		return cast.ToFloat64E(s)
	}
	return cast.ToFloat64E(v)
}
