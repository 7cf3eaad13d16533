package whatsapp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/prastut/wedding-jarvis-sub000/internal/conversation"
	"github.com/prastut/wedding-jarvis-sub000/internal/handler"
	"github.com/prastut/wedding-jarvis-sub000/internal/message"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// EventSink receives the guest traffic a transport observes
type EventSink interface {
	HandleInbound(ctx context.Context, in handler.Inbound) error
	ApplyReceipt(ctx context.Context, r handler.Receipt) error
}

type Config struct {
	DataDir            string
	DefaultCountryCode string
	// QROutput receives the pairing QR code; defaults to stdout
	QROutput io.Writer
}

// Service is the linked-device transport. It renders choice prompts as
// numbered text and maps numeric replies back to option ids.
type Service struct {
	client  *whatsmeow.Client
	cfg     Config
	log     zerolog.Logger
	sink    EventSink
	choices *ChoiceMemory
	timeout time.Duration
}

// NewService creates a new WhatsApp service
func NewService(ctx context.Context, cfg Config, log zerolog.Logger) (*Service, error) {
	if cfg.QROutput == nil {
		cfg.QROutput = os.Stdout
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.DataDir, "whatsmeow.db"))
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	service := &Service{
		client:  whatsmeow.NewClient(deviceStore, nil),
		cfg:     cfg,
		log:     log.With().Str("component", "WhatsApp").Logger(),
		choices: NewChoiceMemory(24 * time.Hour),
		timeout: 30 * time.Second,
	}
	service.client.AddEventHandler(service.eventHandler)
	return service, nil
}

// SetEventSink sets the receiver of inbound messages and receipts
func (s *Service) SetEventSink(sink EventSink) {
	s.sink = sink
}

// Connect connects to WhatsApp, pairing with a QR code on first use
func (s *Service) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}
		s.printQR(evt.Code)
	}
	return nil
}

func (s *Service) printQR(code string) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(s.cfg.QROutput, "QR Code: %s\n", code)
		return
	}
	fmt.Fprintln(s.cfg.QROutput, "\n"+q.ToSmallString(false))
	fmt.Fprintln(s.cfg.QROutput, "📱 Scan the QR code above with WhatsApp:")
	fmt.Fprintln(s.cfg.QROutput, "   Settings > Linked Devices > Link a Device")
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// Send delivers msg as plain text and returns the WhatsApp message id
func (s *Service) Send(ctx context.Context, to string, msg message.Message) (string, error) {
	phoneNumber := NormalizePhoneNumber(to, s.cfg.DefaultCountryCode)

	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phoneNumber})
	if err != nil {
		return "", fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return "", fmt.Errorf("number %s is not registered on WhatsApp", phoneNumber)
	}
	jid := resp[0].JID

	text := msg.Normalize().PlainText()
	s.log.Debug().Str("jid", jid.String()).Str("phone", phoneNumber).Msg("Sending message")

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: &text})
	if err != nil {
		return "", fmt.Errorf("failed to send message to %s: %w", phoneNumber, err)
	}
	s.choices.Remember(phoneNumber, msg)
	return sent.ID, nil
}

// eventHandler handles incoming WhatsApp events
func (s *Service) eventHandler(evt any) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(evt)
	case *events.Receipt:
		s.handleReceipt(evt)
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("Logged out from WhatsApp")
	}
}

func (s *Service) handleMessage(msg *events.Message) {
	if msg.Info.IsFromMe || msg.Info.IsGroup || msg.Message == nil {
		return
	}
	if s.sink == nil {
		s.log.Info().Str("sender", msg.Info.Sender.String()).Msg("Received message with no sink set")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	in := s.toInbound(msg)
	if err := s.sink.HandleInbound(ctx, in); err != nil {
		s.log.Error().Err(err).Str("phone", in.From).Msg("Error handling message")
	}
}

func (s *Service) toInbound(msg *events.Message) handler.Inbound {
	from := NormalizePhoneNumber(msg.Info.Sender.User, "")
	in := handler.Inbound{
		From:              from,
		Name:              msg.Info.PushName,
		Kind:              conversation.KindText,
		ProviderMessageID: msg.Info.ID,
		Timestamp:         msg.Info.Timestamp,
	}

	switch {
	case msg.Message.GetButtonsResponseMessage() != nil:
		in.Kind = conversation.KindInteraction
		in.ID = msg.Message.GetButtonsResponseMessage().GetSelectedButtonID()
		return in
	case msg.Message.GetListResponseMessage() != nil:
		in.Kind = conversation.KindInteraction
		in.ID = msg.Message.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID()
		return in
	}

	in.Text = msg.Message.GetConversation()
	if in.Text == "" {
		in.Text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if id, ok := s.choices.Resolve(from, in.Text); ok {
		in.Kind = conversation.KindInteraction
		in.ID = id
		in.Text = strings.TrimSpace(in.Text)
	}
	return in
}

func (s *Service) handleReceipt(evt *events.Receipt) {
	if s.sink == nil {
		return
	}
	var status models.DeliveryStatus
	switch evt.Type {
	case types.ReceiptTypeDelivered:
		status = models.DeliveryDelivered
	case types.ReceiptTypeRead, types.ReceiptTypeReadSelf:
		status = models.DeliveryRead
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	for _, id := range evt.MessageIDs {
		if err := s.sink.ApplyReceipt(ctx, handler.Receipt{ProviderMessageID: id, Status: status}); err != nil {
			s.log.Error().Err(err).Str("id", id).Msg("Failed to apply receipt")
		}
	}
}
