package kafka

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"eventix-gateway/internal/logger"

	"github.com/segmentio/kafka-go"
)

// CheckoutTopics are the lifecycle topics under prefix.
type CheckoutTopics struct {
	Opened    string
	Paid      string
	Cancelled string
}

func NewCheckoutTopics(prefix string) CheckoutTopics {
	if prefix == "" {
		prefix = "eventix"
	}
	return CheckoutTopics{
		Opened:    prefix + ".checkout.opened",
		Paid:      prefix + ".checkout.paid",
		Cancelled: prefix + ".checkout.cancelled",
	}
}

func (t CheckoutTopics) All() []string {
	return []string{t.Opened, t.Paid, t.Cancelled}
}

// EnsureTopicsExist creates Kafka topics if they don't already exist
func EnsureTopicsExist(brokers []string, topics []string, log *logger.Logger) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		switch {
		case errors.Is(err, kafka.TopicAlreadyExists):
			log.Debug("KAFKA", fmt.Sprintf("Topic %s already exists", topic))
		case err != nil:
			// keep going, the remaining topics may still succeed
			log.Error("KAFKA", fmt.Sprintf("Error creating topic %s: %v", topic, err))
		default:
			log.LogKafka("CREATE_TOPIC", topic, "created")
		}
	}

	time.Sleep(1 * time.Second)
	return nil
}

func CreateTopicIfNotExists(brokers []string, topic string, log *logger.Logger) error {
	return EnsureTopicsExist(brokers, []string{topic}, log)
}
