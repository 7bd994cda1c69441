package rabbitmq

// QueueConfig описывает очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Очередь исходящих сообщений.
const (
	OutboundQueue      = "messages.outbound"
	OutboundRoutingKey = "outbound"
)

// GetMessageQueues возвращает очереди, которые объявляют и издатель, и отправитель.
func GetMessageQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: OutboundQueue, RoutingKey: OutboundRoutingKey},
	}
}
