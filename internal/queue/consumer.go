package queue

// Background consumer for the booking.confirmed queue. Each event gets a
// best-effort receipt email and a line in logs/booking.log. The consumer
// runs a reconnect loop for the lifetime of the process; processing
// errors are logged and the offending message rejected without requeue
// so a poison message cannot wedge the service.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReceiptSender delivers a booking receipt for one event. Satisfied by
// mail.Mailer; kept as an interface here so the consumer does not care
// how receipts travel.
type ReceiptSender interface {
	Enabled() bool
	SendBookingReceipt(BookingConfirmedEvent) error
}

// StartBookingConsumer connects to RabbitMQ, declares the durable
// booking.confirmed queue and consumes it until the process exits. It
// reconnects with exponential backoff after broker failures and never
// returns under normal operation.
func StartBookingConsumer(sender ReceiptSender) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(BrokerURL())
		if err != nil {
			log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, sender); err != nil {
			log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, sender ReceiptSender) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(bookingQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, sender); err != nil {
			log.Printf("booking-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, sender ReceiptSender) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	// Receipt delivery is best-effort: a mail failure is logged and the
	// event still acknowledged. The booking itself committed long ago.
	if sender != nil && sender.Enabled() {
		if err := sender.SendBookingReceipt(ev); err != nil {
			log.Printf("booking-consumer: receipt email to %s failed: %v", ev.Email, err)
		}
	} else {
		log.Printf("booking-consumer: mail disabled, skipping receipt for booking %d", ev.BookingID)
	}

	return appendAuditLine(ev)
}

func appendAuditLine(ev BookingConfirmedEvent) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "booking.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | reference=%s | package=%q | adults=%d | dates=%s..%s | total=%.2f | email=%s\n",
		ev.ConfirmedAt, ev.BookingID, ev.Reference, ev.PackageTitle, ev.Adults, ev.StartDate, ev.EndDate, ev.TotalPrice, ev.Email)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
