// internal/common/aws/sns.go
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSPublisher sends transactional text messages directly to a phone number.
type SMSPublisher struct {
	api      SNSAPI
	senderID string
}

func NewSMSPublisher(cfg awssdk.Config, senderID string) *SMSPublisher {
	return NewSMSPublisherWithAPI(sns.NewFromConfig(cfg), senderID)
}

func NewSMSPublisherWithAPI(api SNSAPI, senderID string) *SMSPublisher {
	return &SMSPublisher{api: api, senderID: senderID}
}

func (p *SMSPublisher) Send(ctx context.Context, phone, message string) (string, error) {
	input := &sns.PublishInput{
		PhoneNumber: awssdk.String(phone),
		Message:     awssdk.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: awssdk.String("String"), StringValue: awssdk.String("Transactional")},
		},
	}
	if p.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    awssdk.String("String"),
			StringValue: awssdk.String(p.senderID),
		}
	}
	out, err := p.api.Publish(ctx, input)
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}
