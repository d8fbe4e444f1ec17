/*
 * @module service/event/publisher
 * @description 校验事件发布器，将校验完成事件发布到Kafka，供下游管道门禁消费
 * @architecture 适配器模式 - 封装Kafka客户端
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 校验完成 -> 事件序列化 -> Kafka发送
 * @rules 未配置KAFKA_BROKERS时发布器禁用；发布失败只记录日志，不影响校验结果
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/quality/validation_service.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// ValidationCompletedEvent 校验完成事件
type ValidationCompletedEvent struct {
	ReportID           string    `json:"report_id"`
	SuiteID            string    `json:"suite_id,omitempty"`
	SuiteName          string    `json:"suite_name"`
	Success            bool      `json:"success"`
	TotalChecks        int       `json:"total_checks"`
	FailedChecks       int       `json:"failed_checks"`
	FailedExpectations []string  `json:"failed_expectations"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// Publisher 校验事件发布器
type Publisher struct {
	writer  *kafka.Writer
	enabled bool
}

// NewPublisher 创建事件发布器，brokers为空时返回禁用的发布器
func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 {
		return &Publisher{}
	}
	if topic == "" {
		topic = "validation.completed"
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	slog.Info("校验事件发布器已启用", "brokers", brokers, "topic", topic)
	return &Publisher{writer: writer, enabled: true}
}

// Enabled 发布器是否启用
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// PublishValidationCompleted 发布校验完成事件，失败不向上传播
func (p *Publisher) PublishValidationCompleted(ctx context.Context, evt *ValidationCompletedEvent) {
	if !p.enabled {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Error("校验事件序列化失败", "error", err)
		return
	}
	message := kafka.Message{
		Key:   []byte(evt.SuiteName),
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		slog.Error("校验事件发布失败", "report_id", evt.ReportID, "error", err)
		return
	}
	slog.Debug("校验事件已发布", "report_id", evt.ReportID, "success", evt.Success)
}

// Close 关闭发布器连接
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("关闭Kafka发布器失败: %w", err)
	}
	return nil
}
