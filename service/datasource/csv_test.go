/*
 * @module service/datasource/csv_test
 * @description CSV数据源测试，覆盖表头解析、空单元格、稀疏行和编码选项
 * @architecture 测试层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow CSV文本构造 -> 载入 -> 数据集断言
 * @rules 不依赖外部文件系统，使用内存reader
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs csv.go
 */

package datasource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	data := "customerID,gender,tenure,TotalCharges\n" +
		"C001,Male,5,300.5\n" +
		"C002,Female,12,\n" +
		"C003,Male,1\n"

	ds, err := ReadCSV(strings.NewReader(data), CSVOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"customerID", "gender", "tenure", "TotalCharges"}, ds.Columns())
	assert.Equal(t, 3, ds.RowCount())

	// 空单元格和行尾缺失字段都映射为空值
	values, present := ds.Column("TotalCharges")
	require.True(t, present)
	assert.Equal(t, "300.5", values[0])
	assert.Nil(t, values[1])
	assert.Nil(t, values[2])
}

func TestReadCSVEmptyColumnStillPresent(t *testing.T) {
	data := "a,b\n1,\n2,\n"
	ds, err := ReadCSV(strings.NewReader(data), CSVOptions{})
	require.NoError(t, err)

	// 全空列依然存在，列存在性规则应通过
	assert.True(t, ds.HasColumn("b"))
}

func TestReadCSVHeaderOnly(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("a,b\n"), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, ds.RowCount())
	assert.True(t, ds.HasColumn("a"))
}

func TestReadCSVEmptyFile(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), CSVOptions{})
	assert.Error(t, err)
}

func TestReadCSVCustomComma(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("a;b\n1;2\n"), CSVOptions{Comma: ';'})
	require.NoError(t, err)
	values, present := ds.Column("b")
	require.True(t, present)
	assert.Equal(t, "2", values[0])
}

func TestReadCSVUnsupportedEncoding(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a\n1\n"), CSVOptions{Encoding: "big5"})
	assert.Error(t, err)
}
