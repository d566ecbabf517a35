package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"safeguard/internal/models"
)

// sesClient is the part of the SES API used for sending
type sesClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    sesClient
	fromEmail string
	fromName  string
	enabled   bool
	logger    *zap.Logger
}

// NewEmailService creates a new email service. Without a from address the
// service is disabled and every send is a logged no-op.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, logger *zap.Logger) (*EmailService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fromEmail == "" {
		logger.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, logger: logger}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", zap.String("from", fromEmail), zap.String("region", awsRegion))
	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		logger:    logger,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

// SendWeeklyDigest emails a weekly report to a guardian
func (s *EmailService) SendWeeklyDigest(ctx context.Context, toEmail, toName string, report *models.WeeklyReport) error {
	if !s.IsEnabled() {
		return nil
	}
	if toName == "" {
		toName = "there"
	}

	subject := fmt.Sprintf("Weekly activity report for %s (%s)", report.ChildID, report.WeekStart.Format("Jan 2"))
	return s.sendEmail(ctx, toEmail, subject, digestHTML(toName, report), digestText(toName, report))
}

func digestHTML(toName string, r *models.WeeklyReport) string {
	var rows strings.Builder
	for _, v := range r.Videos {
		fmt.Fprintf(&rows, "\t\t\t\t<tr><td>%s</td><td>%s</td><td>%d min</td><td class=\"%s\">%s</td></tr>\n",
			html.EscapeString(v.Title), html.EscapeString(v.Uploader), v.DurationMinutes, v.Rating, v.Rating)
	}
	if rows.Len() == 0 {
		rows.WriteString("\t\t\t\t<tr><td colspan=\"4\">No videos were watched this week.</td></tr>\n")
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.warning { color: #c77700; }
		.blocked { color: #c0392b; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Weekly Activity Report</h1>
		</div>
		<div class="content">
			<p>Hi %s,</p>
			<p>Here is the activity for <strong>%s</strong> from %s to %s.</p>
			<ul>
				<li>Videos watched: %d</li>
				<li>Total watch time: %d minutes (average %d minutes)</li>
				<li>Videos with content warnings: %d</li>
				<li>Blocked videos: %d</li>
				<li>Pages with hidden comments: %d</li>
			</ul>
			<p>%s</p>
			<table>
				<tr><th>Title</th><th>Channel</th><th>Length</th><th>Rating</th></tr>
%s			</table>
		</div>
		<div class="footer">
			<p>This is an automated email from SafeGuard. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(toName), html.EscapeString(r.ChildID),
		r.WeekStart.Format("2006-01-02"), r.WeekEnd.Format("2006-01-02"),
		r.TotalVideos, r.TotalMinutes, r.AverageMinutes, r.FlaggedVideos, r.BlockedVideos, r.HiddenComments,
		html.EscapeString(r.SafetySummary), rows.String())
}

func digestText(toName string, r *models.WeeklyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", toName)
	fmt.Fprintf(&b, "Here is the activity for %s from %s to %s.\n\n", r.ChildID,
		r.WeekStart.Format("2006-01-02"), r.WeekEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "Videos watched: %d\n", r.TotalVideos)
	fmt.Fprintf(&b, "Total watch time: %d minutes (average %d minutes)\n", r.TotalMinutes, r.AverageMinutes)
	fmt.Fprintf(&b, "Videos with content warnings: %d\n", r.FlaggedVideos)
	fmt.Fprintf(&b, "Blocked videos: %d\n", r.BlockedVideos)
	fmt.Fprintf(&b, "Pages with hidden comments: %d\n\n", r.HiddenComments)
	fmt.Fprintf(&b, "%s\n\n", r.SafetySummary)
	for _, v := range r.Videos {
		fmt.Fprintf(&b, "- %s (%s, %d min, %s)\n", v.Title, v.Uploader, v.DurationMinutes, v.Rating)
	}
	b.WriteString("\n---\nThis is an automated email from SafeGuard. Please do not reply.\n")
	return b.String()
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	fields := []zap.Field{zap.String("to", toEmail), zap.String("subject", subject)}
	if result.MessageId != nil {
		fields = append(fields, zap.String("message_id", *result.MessageId))
	}
	s.logger.Info("email sent", fields...)
	return nil
}
