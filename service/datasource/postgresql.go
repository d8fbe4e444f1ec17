/*
 * @module service/datasource/postgresql
 * @description PostgreSQL数据源，将表或查询结果载入为内存数据集
 * @architecture 分层架构 - 数据接入层
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 连接建立 -> 查询执行 -> 行扫描 -> 数据集构造
 * @rules 表名通过标识符引用防止注入；NULL值保留为空值；载入行数可限制
 * @dependencies gorm.io/gorm, github.com/lib/pq
 * @refs service/validation/dataset.go
 */

package datasource

import (
	"context"
	"fmt"

	"dataquality-service/service/validation"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PostgresQuery PostgreSQL载入配置，Table与SQL二选一，SQL优先
type PostgresQuery struct {
	Table string
	SQL   string
	// Limit 最大载入行数，零值不限制。引擎在单机内存中评估，超大表应限行采样
	Limit int
}

// LoadPostgres 将PostgreSQL表或查询结果载入为数据集
func LoadPostgres(ctx context.Context, db *gorm.DB, query PostgresQuery) (*validation.Dataset, error) {
	sql := query.SQL
	if sql == "" {
		if query.Table == "" {
			return nil, fmt.Errorf("PostgreSQL数据源配置错误: table和sql不能同时为空")
		}
		sql = fmt.Sprintf("SELECT * FROM %s", pq.QuoteIdentifier(query.Table))
	}
	if query.Limit > 0 {
		sql = fmt.Sprintf("%s LIMIT %d", sql, query.Limit)
	}

	rows, err := db.WithContext(ctx).Raw(sql).Rows()
	if err != nil {
		return nil, fmt.Errorf("执行数据载入查询失败: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("获取结果列信息失败: %w", err)
	}

	var dataRows []validation.Row
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("扫描数据行失败: %w", err)
		}
		row := make(validation.Row, len(columns))
		for i, name := range columns {
			row[name] = normalizeDBValue(values[i])
		}
		dataRows = append(dataRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历数据行失败: %w", err)
	}

	return validation.NewDatasetWithColumns(columns, dataRows), nil
}

// normalizeDBValue 驱动返回的字节串转为字符串，NULL保持为nil
func normalizeDBValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
