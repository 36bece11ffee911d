package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/snapshot"
)

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient sends threshold notifications to a topic.
type SNSClient struct {
	svc      publisher
	topicArn string
}

func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}, nil
}

// SendAlert publishes a raw message.
func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}

	result, err := c.svc.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	log.Info().Str("message_id", aws.ToString(result.MessageId)).Str("subject", subject).Msg("Alert sent")
	return nil
}

// SendThresholdAlert reports a field that left its band.
func (c *SNSClient) SendThresholdAlert(ctx context.Context, phase domain.Phase, at time.Time, t snapshot.Tuple, band string) error {
	subject := fmt.Sprintf("%s %s %s", phase.Title(), t.Label, t.Classification)
	message := fmt.Sprintf(
		"Threshold Alert\n\n"+
			"Phase: %s\n"+
			"Field: %s\n"+
			"Reading: %s %s\n"+
			"Band: %s\n"+
			"Status: %s\n"+
			"Time: %s\n",
		phase.Title(),
		t.Label,
		t.Raw,
		t.Unit,
		band,
		t.Classification,
		at.Format(time.RFC3339),
	)

	return c.SendAlert(ctx, subject, message)
}
