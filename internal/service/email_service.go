package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"nihongo/internal/models"
)

// sesAPI is the part of the SES client the service calls
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
	logger     *zap.Logger
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and every send is a no-op.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool, logger *zap.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug, logger: logger}, nil
	}

	if debug {
		logger.Debug("Initializing email service with AWS SES",
			zap.String("region", awsRegion),
			zap.String("from", fromEmail),
			zap.String("fromName", fromName),
			zap.String("appBaseURL", appBaseURL),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("Email service enabled", zap.String("from", fromEmail), zap.String("region", awsRegion))
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
		logger:     logger,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendExamResultEmail sends the learner a summary of a saved exam
func (s *EmailService) SendExamResultEmail(ctx context.Context, toEmail, toName string, result *models.ExamResult) error {
	if !s.enabled {
		if s.debug {
			s.logger.Debug("Skipping exam result email (service disabled)", zap.String("to", toEmail))
		}
		return nil
	}

	subject, htmlBody, textBody := s.examResultEmail(toName, result)
	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) examResultEmail(toName string, result *models.ExamResult) (string, string, string) {
	if toName == "" {
		toName = "bạn"
	}
	minutes, seconds := result.TimeSpent/60, result.TimeSpent%60
	title := result.ExamTitle
	if title == "" {
		title = result.ExamType
	}

	subject := fmt.Sprintf("Kết quả bài thi: %s (%s)", title, result.Grade)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #d9534f; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.grade { font-size: 48px; font-weight: bold; text-align: center; }
		.button { display: inline-block; padding: 12px 30px; background-color: #d9534f; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s</h1>
		</div>
		<div class="content">
			<p>Xin chào %s,</p>
			<p class="grade">%s</p>
			<p>Điểm: <strong>%d/%d</strong> (%.1f%%)</p>
			<p>Thời gian làm bài: %d phút %d giây</p>
			<p style="text-align: center;">
				<a href="%s/history" class="button">Xem lịch sử thi</a>
			</p>
		</div>
		<div class="footer">
			<p>Email này được gửi tự động. Vui lòng không trả lời.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(toName), result.Grade,
		result.Score, result.TotalQuestions, result.Percentage, minutes, seconds, s.appBaseURL)

	textBody := fmt.Sprintf(`Xin chào %s,

Kết quả bài thi "%s":
- Điểm: %d/%d (%.1f%%)
- Xếp loại: %s
- Thời gian làm bài: %d phút %d giây

Xem lịch sử thi: %s/history

---
Email này được gửi tự động. Vui lòng không trả lời.
`, toName, title, result.Score, result.TotalQuestions, result.Percentage, result.Grade, minutes, seconds, s.appBaseURL)

	return subject, htmlBody, textBody
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		s.logger.Debug("Sending email",
			zap.String("from", fromAddress),
			zap.String("to", toEmail),
			zap.String("subject", subject),
			zap.Int("htmlBytes", len(htmlBody)),
			zap.Int("textBytes", len(textBody)),
		)
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
		fields = append(fields, zap.String("messageId", *result.MessageId))
	}
	s.logger.Info("Email sent successfully", fields...)
	return nil
}
