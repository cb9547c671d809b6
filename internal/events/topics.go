package events

// Топики Kafka
const (
	// TopicOrderEvents - все доменные события флоу заказа.
	// Ключ сообщения - correlation_id (order_group_id), события одного
	// заказа попадают в одну партицию и читаются по порядку.
	TopicOrderEvents = "stocklot.order-events"

	// ConsumerGroupNotifier - группа notifier сервиса
	ConsumerGroupNotifier = "stocklot-notifier"
)
