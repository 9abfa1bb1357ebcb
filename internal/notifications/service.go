package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/zACIID/investing-echo-chambers/internal/config"
	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// Service sends run reports via the configured channels. Channels are
// independent: one failing does not stop the others.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendRunReport sends a pipeline run report via all configured channels.
// With no channels configured it is a no-op.
func (s *Service) SendRunReport(report *models.RunReport) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent run report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent run report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func (s *Service) title(report *models.RunReport) string {
	if report.Merged {
		return "Reddit harvest completed"
	}
	return "Reddit harvest FAILED"
}

func (s *Service) sendToTeams(report *models.RunReport) error {
	facts := []TeamsFact{
		{Name: "Window", Value: fmt.Sprintf("[%s, %s)",
			report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02"))},
		{Name: "Days completed", Value: fmt.Sprintf("%d", report.DaysCompleted)},
		{Name: "Days skipped (already persisted)", Value: fmt.Sprintf("%d", report.DaysSkipped)},
		{Name: "Interactions", Value: fmt.Sprintf("%d", report.TotalInteractions)},
		{Name: "Users", Value: fmt.Sprintf("%d", report.TotalUsers)},
		{Name: "Duration", Value: report.FinishedAt.Sub(report.StartedAt).Round(time.Second).String()},
	}
	if report.FailedDay != "" {
		facts = append(facts, TeamsFact{Name: "Failed day", Value: report.FailedDay})
	}
	if report.Error != "" {
		facts = append(facts, TeamsFact{Name: "Error", Value: report.Error})
	}

	message := TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   s.title(report),
		Text:    fmt.Sprintf("Run %s", report.RunID),
		Sections: []TeamsSection{
			{ActivityTitle: "Pipeline run summary", Facts: facts, Markdown: true},
		},
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("teams webhook returned status %d", resp.StatusCode())
	}
	return nil
}

func (s *Service) sendEmail(report *models.RunReport) error {
	var body strings.Builder
	fmt.Fprintf(&body, "Run ID: %s\n", report.RunID)
	fmt.Fprintf(&body, "Window: [%s, %s)\n",
		report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02"))
	fmt.Fprintf(&body, "Days completed: %d (skipped: %d)\n", report.DaysCompleted, report.DaysSkipped)
	fmt.Fprintf(&body, "Interactions: %d across %d users\n", report.TotalInteractions, report.TotalUsers)
	fmt.Fprintf(&body, "Merged datasets written: %t\n", report.Merged)
	if report.FailedDay != "" {
		fmt.Fprintf(&body, "Failed day: %s\nError: %s\n", report.FailedDay, report.Error)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", s.title(report))
	m.SetBody("text/plain", body.String())

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	return d.DialAndSend(m)
}
