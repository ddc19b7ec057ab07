package mail

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// sesTransport sends through Amazon SES v2. Credentials and region resolution
// follow the default AWS chain, so the batch picks up task roles in ECS and
// profiles locally.
type sesTransport struct {
	client sesAPI
	from   mail.Address
	cfg    Config
	log    zerolog.Logger
}

func newSESTransport(ctx context.Context, cfg Config, log zerolog.Logger) (*sesTransport, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithRetryMaxAttempts(3),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return &sesTransport{
		client: sesv2.NewFromConfig(awsCfg),
		from:   mail.Address{Name: cfg.FromName, Address: cfg.FromAddress},
		cfg:    cfg,
		log:    log,
	}, nil
}

func (t *sesTransport) Name() string { return BackendSES }

func (t *sesTransport) Send(ctx context.Context, msg *Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(t.from.String()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("purpose"), Value: aws.String("new_message")},
		},
	}
	if t.cfg.Environment != "" {
		input.EmailTags = append(input.EmailTags, types.MessageTag{
			Name: aws.String("environment"), Value: aws.String(t.cfg.Environment),
		})
	}
	if t.cfg.ReplyTo != "" {
		input.ReplyToAddresses = []string{t.cfg.ReplyTo}
	}
	if t.cfg.ListUnsubscribe != "" {
		input.Content.Simple.Headers = []types.MessageHeader{
			{Name: aws.String("List-Unsubscribe"), Value: aws.String(t.cfg.ListUnsubscribe)},
		}
	}
	if t.cfg.SESConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(t.cfg.SESConfigurationSet)
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	t.log.Info().Str("to", msg.To).Str("ses_message_id", aws.ToString(out.MessageId)).Msg("email sent")
	return nil
}

var _ Transport = (*sesTransport)(nil)
