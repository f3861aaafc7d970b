package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/riadstay/reservation-service/internal/service"
)

type paymentCompleted struct {
	ReservationNumber string `json:"reservation_number"`
	PaymentID         string `json:"payment_id"`
}

// PaymentConsumer attaches completed payments to their reservations. The
// payment service publishes payment.* out-of-band; reservation state never
// waits on it.
type PaymentConsumer struct {
	svc service.ReservationService
}

func NewPaymentConsumer(svc service.ReservationService) *PaymentConsumer {
	return &PaymentConsumer{svc: svc}
}

func (pc *PaymentConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			pc.handleMessage(msg)
		}
		log.Println("[PaymentConsumer] channel closed, stopping consumer")
	}()
}

func (pc *PaymentConsumer) handleMessage(msg amqp.Delivery) {
	var payment paymentCompleted
	if err := json.Unmarshal(msg.Body, &payment); err != nil {
		log.Printf("[PaymentConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}
	if payment.ReservationNumber == "" || payment.PaymentID == "" {
		log.Printf("[PaymentConsumer] dropping incomplete payment message: %s", msg.Body)
		msg.Nack(false, false)
		return
	}

	_, err := pc.svc.AttachPaymentByNumber(context.Background(), payment.ReservationNumber, payment.PaymentID)
	if err != nil {
		var notFound *service.NotFoundError
		var invalidOp *service.InvalidOperationError
		if errors.As(err, &notFound) || errors.As(err, &invalidOp) {
			// Permanent: requeueing will not make it attachable.
			log.Printf("[PaymentConsumer] dropping payment %s for %s: %v",
				payment.PaymentID, payment.ReservationNumber, err)
			msg.Nack(false, false)
			return
		}
		log.Printf("[PaymentConsumer] failed to attach payment %s to %s, requeueing: %v",
			payment.PaymentID, payment.ReservationNumber, err)
		msg.Nack(false, true)
		return
	}

	log.Printf("[PaymentConsumer] attached payment %s to reservation %s", payment.PaymentID, payment.ReservationNumber)
	msg.Ack(false)
}
