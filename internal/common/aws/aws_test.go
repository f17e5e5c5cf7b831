// internal/common/aws/aws_test.go
package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type mockSES struct {
	sendEmail func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.sendEmail(ctx, params, optFns...)
}

type mockSNS struct {
	publish func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.publish(ctx, params, optFns...)
}

// ==========================
// Tests
// ==========================

func TestMailer_Send(t *testing.T) {
	var got *ses.SendEmailInput
	m := NewMailerWithAPI(&mockSES{sendEmail: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		got = params
		return &ses.SendEmailOutput{MessageId: awssdk.String("msg-1")}, nil
	}}, "no-reply@example.com")

	id, err := m.Send(context.Background(), "jane@example.com", "Offer received", "Thanks")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, []string{"jane@example.com"}, got.Destination.ToAddresses)
	assert.Equal(t, "no-reply@example.com", *got.Source)
	assert.Equal(t, "Offer received", *got.Message.Subject.Data)
	assert.Equal(t, "Thanks", *got.Message.Body.Text.Data)
}

func TestMailer_SendError(t *testing.T) {
	m := NewMailerWithAPI(&mockSES{sendEmail: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("throttled")
	}}, "no-reply@example.com")

	_, err := m.Send(context.Background(), "jane@example.com", "s", "b")
	assert.EqualError(t, err, "throttled")
}

func TestSMSPublisher_Send(t *testing.T) {
	tests := []struct {
		name       string
		senderID   string
		wantSender bool
	}{
		{name: "with sender id", senderID: "RENTALS", wantSender: true},
		{name: "without sender id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *sns.PublishInput
			p := NewSMSPublisherWithAPI(&mockSNS{publish: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
				got = params
				return &sns.PublishOutput{MessageId: awssdk.String("sms-1")}, nil
			}}, tt.senderID)

			id, err := p.Send(context.Background(), "+15550100", "Offer received")
			require.NoError(t, err)
			assert.Equal(t, "sms-1", id)
			assert.Equal(t, "+15550100", *got.PhoneNumber)
			assert.Equal(t, "Offer received", *got.Message)
			_, ok := got.MessageAttributes["AWS.SNS.SMS.SenderID"]
			assert.Equal(t, tt.wantSender, ok)
		})
	}
}
