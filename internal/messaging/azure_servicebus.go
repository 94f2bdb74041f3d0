package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"

	"example.com/backstage/services/telematics/config"
	"example.com/backstage/services/telematics/internal/models"
)

// SummaryEventType tags summary messages on the queue
const SummaryEventType = "telematics.summary.exported"

// ServiceBusClient is an interface for Azure Service Bus operations
type ServiceBusClient interface {
	SendMessage(ctx context.Context, body interface{}) error
	Close() error
}

// sender is the subset of *azservicebus.Sender used by the client
type sender interface {
	SendMessage(ctx context.Context, msg *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client     *azservicebus.Client
	sender     sender
	queueName  string
	clientType string
}

// NewServiceBusClient creates a new Azure Service Bus client
func NewServiceBusClient(cfg config.AzureConfig, clientType string) (ServiceBusClient, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	s, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &serviceBusClient{
		client:     client,
		sender:     s,
		queueName:  cfg.QueueName,
		clientType: clientType,
	}, nil
}

// SendMessage sends a message to the Service Bus queue
func (s *serviceBusClient) SendMessage(ctx context.Context, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message body")
	}

	contentType := "application/json"
	msg := &azservicebus.Message{
		Body:        data,
		ContentType: &contentType,
		ApplicationProperties: map[string]interface{}{
			"source": s.clientType,
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrapf(err, "failed to send message to %s", s.queueName)
	}
	return nil
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}

// SummaryEvent is the message body announcing an exported summary
type SummaryEvent struct {
	Type    string          `json:"type"`
	Summary *models.Summary `json:"summary"`
}

// SummaryPublisher announces exported summaries on a Service Bus queue
type SummaryPublisher struct {
	client ServiceBusClient
}

// NewSummaryPublisher creates a publisher on top of client
func NewSummaryPublisher(client ServiceBusClient) *SummaryPublisher {
	return &SummaryPublisher{client: client}
}

// Name identifies the sink in logs
func (p *SummaryPublisher) Name() string {
	return "servicebus"
}

// Publish sends the summary event
func (p *SummaryPublisher) Publish(ctx context.Context, s *models.Summary) error {
	return p.client.SendMessage(ctx, SummaryEvent{Type: SummaryEventType, Summary: s})
}

// Close closes the underlying client
func (p *SummaryPublisher) Close() error {
	return p.client.Close()
}
