// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSClient wraps the AWS SNS client used for estimate-ready notifications.
type SNSClient struct {
	client   *sns.Client
	topicARN string
}

// EstimateReadyMessage is the payload published when a run completes.
type EstimateReadyMessage struct {
	EstimateID    string    `json:"estimateId"`
	ProjectID     string    `json:"projectId,omitempty"`
	CallerID      string    `json:"callerId"`
	TotalEstimate float64   `json:"totalEstimate"`
	Confidence    string    `json:"confidence"`
	FallbackUsed  bool      `json:"fallbackUsed"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// NewSNSClient creates an SNS client bound to the configured topic.
func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SNSClient{
		client:   sns.NewFromConfig(cfg),
		topicARN: topicARN,
	}, nil
}

// PublishEstimateReady publishes a completed-estimate notification. Failures
// are reported to the caller for logging only and never affect the response.
func (c *SNSClient) PublishEstimateReady(ctx context.Context, msg EstimateReadyMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	bodyStr := string(body)
	_, err = c.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &c.topicARN,
		Message:  &bodyStr,
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    strPtr("String"),
				StringValue: strPtr("estimate.ready"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish estimate notification: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
