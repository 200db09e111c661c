package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	_ "github.com/lib/pq"
)

var ErrNotConnected = errors.New("whatsapp client is not connected")

type IWhatsappSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
	Disconnect() error
	IsConnected() bool
}

type whatsappSender struct {
	client *whatsmeow.Client
	log    *logrus.Logger
}

// New opens the device store in postgres and connects. An unpaired device
// prints a pairing QR code to the log and waits up to a minute for it to be
// scanned.
func New(ctx context.Context, dsn string, logger *logrus.Logger) (IWhatsappSender, error) {
	container, err := sqlstore.New(ctx, "postgres", dsn, newLogAdapter(logger, "Database"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, newLogAdapter(logger, "Client"))

	connected := make(chan struct{}, 1)
	client.AddEventHandler(func(evt interface{}) {
		if _, ok := evt.(*events.Connected); ok {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})

	if client.Store.ID == nil {
		qrChan, _ := client.GetQRChannel(ctx)
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}

		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					logger.WithField("code", evt.Code).Warn("WhatsApp device not paired, scan QR code")
				}
			}
		}()
	} else {
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
	}

	select {
	case <-connected:
		logger.Info("WhatsApp connected")
	case <-time.After(60 * time.Second):
		client.Disconnect()
		return nil, fmt.Errorf("connection timeout")
	case <-ctx.Done():
		client.Disconnect()
		return nil, ctx.Err()
	}

	return &whatsappSender{
		client: client,
		log:    logger,
	}, nil
}

func (w *whatsappSender) SendMessage(ctx context.Context, phoneNumber, message string) error {
	if !w.client.IsConnected() {
		return ErrNotConnected
	}

	user, err := NormalizePhoneNumber(phoneNumber)
	if err != nil {
		return err
	}

	jid := types.NewJID(user, types.DefaultUserServer)

	waMsg := &waE2E.Message{
		Conversation: proto.String(message),
	}

	resp, err := w.client.SendMessage(ctx, jid, waMsg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	w.log.WithFields(logrus.Fields{
		"message_id": resp.ID,
		"timestamp":  resp.Timestamp,
	}).Info("WhatsApp message sent")

	return nil
}

func (w *whatsappSender) Disconnect() error {
	w.client.Disconnect()
	return nil
}

func (w *whatsappSender) IsConnected() bool {
	return w.client.IsConnected()
}

// noopSender logs alerts instead of delivering them, for deployments
// without a paired WhatsApp device.
type noopSender struct {
	log *logrus.Logger
}

func NewNoop(logger *logrus.Logger) IWhatsappSender {
	return &noopSender{log: logger}
}

func (n *noopSender) SendMessage(_ context.Context, phoneNumber, message string) error {
	if _, err := NormalizePhoneNumber(phoneNumber); err != nil {
		return err
	}
	n.log.WithFields(logrus.Fields{
		"phone_number": MaskPhoneNumber(phoneNumber),
		"message":      message,
	}).Warn("WhatsApp disabled, alert not delivered")
	return nil
}

func (n *noopSender) Disconnect() error { return nil }

func (n *noopSender) IsConnected() bool { return false }
