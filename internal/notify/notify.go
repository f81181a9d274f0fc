package notify

import (
	"context"
	"fmt"
	"strings"

	"civicsnap/internal/utils"
	"civicsnap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

const subject = "New Issue Report"

type Notification struct {
	Report        *types.Report
	ReporterEmail string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type sesSendAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier emails the city contact through SES.
type SESNotifier struct {
	client sesSendAPI
	from   string
	to     string
	logger *logrus.Logger
}

func NewSESNotifier(client *sesv2.Client, from, to string, logger *logrus.Logger) *SESNotifier {
	return newSESNotifier(client, from, to, logger)
}

func newSESNotifier(client sesSendAPI, from, to string, logger *logrus.Logger) *SESNotifier {
	return &SESNotifier{client: client, from: from, to: to, logger: logger}
}

func (n *SESNotifier) Notify(ctx context.Context, note Notification) error {
	if note.Report == nil {
		return types.NewValidationError("report", "report is required")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(Body(note))},
				},
			},
		},
	}

	if strings.TrimSpace(note.ReporterEmail) != "" {
		input.ReplyToAddresses = []string{note.ReporterEmail}
	}

	out, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return types.UpstreamError("send email", err)
	}

	n.logger.WithFields(logrus.Fields{
		"report_id":  note.Report.ID,
		"message_id": aws.ToString(out.MessageId),
	}).Info("report email sent")

	return nil
}

// LogNotifier writes the email to the log. Used when no city contact is
// configured.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	if note.Report == nil {
		return types.NewValidationError("report", "report is required")
	}

	n.logger.WithFields(logrus.Fields{
		"report_id": note.Report.ID,
		"subject":   subject,
	}).Info(Body(note))

	return nil
}

// Body renders the plain-text email for a report.
func Body(note Notification) string {
	r := note.Report

	reporter := note.ReporterEmail
	if reporter == "" {
		reporter = "anonymous"
	}

	location := utils.PtrString(r.Location)
	if location == "" {
		location = "Not specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A new issue has been reported.\n\n")
	fmt.Fprintf(&b, "Report ID: %s\n", r.ID)
	fmt.Fprintf(&b, "Reported by: %s\n", reporter)
	fmt.Fprintf(&b, "Location: %s\n", location)
	fmt.Fprintf(&b, "Image: %s\n\n", r.ImageURL)
	fmt.Fprintf(&b, "Description:\n%s\n", r.Description)

	return b.String()
}
