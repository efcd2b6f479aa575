package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error { return nil }

func sampleOrder() models.Order {
	return models.Order{
		OrderID:       "ORD-123456-ABCDEF",
		UserID:        primitive.NewObjectID(),
		TotalAmount:   42,
		PaymentMethod: models.PaymentCOD,
		Items:         []models.OrderItem{{Name: "Pen", Quantity: 1}},
	}
}

func TestLogNotifierWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(&buf)
	if err := n.Notify(context.Background(), NewEvent(EventOrderPlaced, sampleOrder())); err != nil {
		t.Fatalf("notify: %v", err)
	}

	line := buf.String()
	idx := strings.Index(line, "{")
	if idx < 0 {
		t.Fatalf("expected json in %q", line)
	}
	var event Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(line[idx:])), &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Type != EventOrderPlaced || event.OrderID != "ORD-123456-ABCDEF" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestKafkaNotifierKeysByOrder(t *testing.T) {
	w := &recordingWriter{}
	n := &KafkaNotifier{writer: w}
	if err := n.Notify(context.Background(), NewEvent(EventPaymentVerified, sampleOrder())); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "ORD-123456-ABCDEF" {
		t.Fatalf("unexpected messages %+v", w.msgs)
	}
}

func TestNewKafkaNotifierDoesNotBlockOnBroker(t *testing.T) {
	n := NewKafkaNotifier([]string{"localhost:9092"}, "orders")
	w, ok := n.writer.(*kafka.Writer)
	if !ok {
		t.Fatalf("unexpected writer %T", n.writer)
	}
	if !w.Async || w.Completion == nil {
		t.Fatal("expected an async writer with a completion callback")
	}
	if w.BatchTimeout <= 0 || w.BatchTimeout > 100*time.Millisecond {
		t.Fatalf("expected a short batch timeout, got %v", w.BatchTimeout)
	}
}

func TestLogCompletionReportsFailedDeliveries(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	msgs := []kafka.Message{{Key: []byte("ORD-1")}, {Key: []byte("ORD-2")}}
	logCompletion(msgs, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nothing logged on success, got %q", buf.String())
	}
	logCompletion(msgs, errors.New("broker down"))
	out := buf.String()
	if !strings.Contains(out, "ORD-1") || !strings.Contains(out, "ORD-2") || !strings.Contains(out, "broker down") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("broker down")
	var buf bytes.Buffer
	m := Multi{NewLogNotifier(&buf), &KafkaNotifier{writer: &recordingWriter{err: boom}}}

	err := m.Notify(context.Background(), NewEvent(EventOrderPlaced, sampleOrder()))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined broker error, got %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected the log notifier to run despite the kafka failure")
	}
}

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
	if len(ParseBrokers("")) != 0 {
		t.Fatal("expected no brokers")
	}
}
