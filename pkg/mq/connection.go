package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// DefaultExchange receives deadline alerts when no exchange is configured.
const DefaultExchange = "taskboard.events"

// NewConnection dials a RabbitMQ broker. Errors name the broker by host and
// port only so credentials in url never reach the logs.
func NewConnection(url string) (*amqp091.Connection, error) {
	uri, err := amqp091.ParseURI(url)
	if err != nil {
		return nil, fmt.Errorf("invalid RabbitMQ url: %w", err)
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ at %s: %w", brokerAddr(uri), err)
	}
	return conn, nil
}

// DeclareExchange declares name as a durable topic exchange. Routing keys
// follow task.deadline.<severity>, so consumers can bind task.deadline.#.
func DeclareExchange(ch *amqp091.Channel, name string) error {
	return ch.ExchangeDeclare(
		exchangeOrDefault(name),
		amqp091.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

func exchangeOrDefault(name string) string {
	if name == "" {
		return DefaultExchange
	}
	return name
}

func brokerAddr(uri amqp091.URI) string {
	return fmt.Sprintf("%s:%d", uri.Host, uri.Port)
}
