package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/storage/models"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

// Envelope 发布到消息队列的事件外层结构
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Recorder 在业务事务内写入待发布事件
type Recorder struct {
	exchange string
}

// NewRecorder exchange 为空时使用默认事件交换机
func NewRecorder(exchange string) *Recorder {
	if exchange == "" {
		exchange = constants.EventsExchange
	}
	return &Recorder{exchange: exchange}
}

// Exchange 事件发布的目标交换机
func (r *Recorder) Exchange() string {
	return r.exchange
}

// Record 以事件类型作为路由键写入 outbox，tx 应为调用方的事务
func (r *Recorder) Record(tx *gorm.DB, aggregateID string, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化事件 %s 失败: %w", eventType, err)
	}
	// v7 按时间有序，便于下游排序去重
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("生成事件ID失败: %w", err)
	}
	body, err := json.Marshal(Envelope{
		EventID:    id.String(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("序列化事件 %s 失败: %w", eventType, err)
	}

	msg := &models.OutboxMessage{
		AggregateID:      aggregateID,
		EventType:        eventType,
		Payload:          string(body),
		TargetExchange:   r.exchange,
		TargetRoutingKey: eventType,
		Status:           constants.OutboxStatusPending,
	}
	if err := tx.Create(msg).Error; err != nil {
		return fmt.Errorf("写入outbox失败: %w", err)
	}
	return nil
}
