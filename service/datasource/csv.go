/*
 * @module service/datasource/csv
 * @description CSV数据源，将CSV文件载入为内存数据集，支持UTF-8和GBK编码
 * @architecture 分层架构 - 数据接入层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 文件读取 -> 编码转换 -> 表头解析 -> 行映射 -> 数据集构造
 * @rules 空单元格映射为空值；表头列即使全空也声明为存在的列
 * @dependencies encoding/csv, golang.org/x/text/encoding/simplifiedchinese
 * @refs service/validation/dataset.go
 */

package datasource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"dataquality-service/service/validation"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// CSVOptions CSV载入选项
type CSVOptions struct {
	// Encoding 文件编码，支持 utf-8（默认）和 gbk
	Encoding string
	// Comma 分隔符，零值使用逗号
	Comma rune
}

// LoadCSV 从文件载入CSV为数据集，首行为表头
func LoadCSV(path string, opts CSVOptions) (*validation.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开CSV文件失败: %w", err)
	}
	defer file.Close()
	return ReadCSV(file, opts)
}

// ReadCSV 从任意reader载入CSV为数据集
func ReadCSV(r io.Reader, opts CSVOptions) (*validation.Dataset, error) {
	switch strings.ToLower(opts.Encoding) {
	case "", "utf-8", "utf8":
	case "gbk":
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	default:
		return nil, fmt.Errorf("不支持的CSV编码: %s", opts.Encoding)
	}

	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	// 允许行内字段数不一致，缺失字段按空值处理
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV文件为空，缺少表头")
	}
	if err != nil {
		return nil, fmt.Errorf("读取CSV表头失败: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	var rows []validation.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取CSV数据行失败: %w", err)
		}
		row := make(validation.Row, len(columns))
		for i, name := range columns {
			if i >= len(record) {
				continue
			}
			cell := record[i]
			// 空单元格视为缺失值，与数据库NULL语义一致
			if cell == "" {
				row[name] = nil
				continue
			}
			row[name] = cell
		}
		rows = append(rows, row)
	}

	return validation.NewDatasetWithColumns(columns, rows), nil
}
