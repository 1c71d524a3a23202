package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"miny/internal/logger"
	"miny/internal/metrics"
	"miny/internal/slot"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey   = "emails"
	failedKey  = "emails:failed"
	maxTries   = 3
	popTimeout = 2 * time.Second

	TypeAssignment = "assignment"
	TypeTest       = "test"
)

var ErrHeaderInjection = errors.New("line break in mail header")

type EmailJob struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis      *redis.Client
	from       string
	fromName   string
	smtpHost   string
	smtpPort   string
	smtpUser   string
	smtpPass   string
	retryDelay time.Duration
	deliver    func(job EmailJob) error
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	s := &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:       fromEmail,
		fromName:   fromName,
		smtpHost:   smtpHost,
		smtpPort:   smtpPort,
		smtpUser:   smtpUser,
		smtpPass:   smtpPass,
		retryDelay: 5 * time.Second,
	}
	s.deliver = s.sendNow
	return s
}

// Send queues an email; delivery happens in the worker started by Start.
func (s *Service) Send(ctx context.Context, emailType, to, name, subject, body string) error {
	job := EmailJob{
		Type:    emailType,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		metrics.RecordEmail(emailType, "queue_failed")
		logger.WithError(err).Error("failed to queue email", "to", to, "type", emailType)
		return err
	}

	logger.Info("email queued", "to", to, "type", emailType)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			if err := s.processNext(ctx); err != nil {
				logger.WithError(err).Warn("email queue unavailable", "retry_in", s.retryDelay)
				sleep(ctx, s.retryDelay)
				continue
			}
			metrics.EmailQueueLength.Set(float64(s.QueueLength(ctx)))
		}
	}
}

// processNext delivers at most one queued job. It returns an error only when the
// queue itself cannot be read; delivery failures are retried through the queue.
func (s *Service) processNext(ctx context.Context) error {
	result, err := s.redis.BRPop(ctx, popTimeout, queueKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return nil
	}

	job.Tries++
	logger.Debug("sending email", "to", job.To, "attempt", job.Tries)

	if err := s.deliver(job); err != nil {
		logger.WithError(err).Error("failed to send email", "to", job.To, "attempt", job.Tries)

		if job.Tries < maxTries && !errors.Is(err, ErrHeaderInjection) {
			s.requeue(ctx, job)
		} else {
			metrics.RecordEmail(job.Type, "failed")
			s.saveFailed(job, err)
		}
		return nil
	}

	metrics.RecordEmail(job.Type, "success")
	logger.Info("email sent", "to", job.To, "type", job.Type)
	return nil
}

func (s *Service) requeue(ctx context.Context, job EmailJob) {
	sleep(ctx, s.retryDelay)

	data, _ := json.Marshal(job)
	if err := s.redis.LPush(context.Background(), queueKey, data).Err(); err != nil {
		logger.WithError(err).Error("failed to requeue email", "to", job.To)
		return
	}
	logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Service) sendNow(job EmailJob) error {
	message, err := s.buildMessage(job)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, message)
}

// buildMessage renders the mail. Addresses must not contain line breaks; the
// subject and sender name are RFC 2047 encoded.
func (s *Service) buildMessage(job EmailJob) ([]byte, error) {
	if strings.ContainsAny(s.from, "\r\n") || strings.ContainsAny(job.To, "\r\n") {
		return nil, ErrHeaderInjection
	}

	from := mail.Address{Name: s.fromName, Address: s.from}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", job.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", job.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n" + job.Body)

	return []byte(b.String()), nil
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

// SendAssignmentNotice tells a host that someone claimed one of their slots.
func (s *Service) SendAssignmentNotice(ctx context.Context, hostEmail, hostName, claimantName string, sl *slot.Slot) error {
	subject := fmt.Sprintf("Neuer Diensttermin mit %s", claimantName)
	body := fmt.Sprintf(`Hallo %s,

%s hat sich für deinen Diensttermin eingetragen.

Datum: %s
Zeit: %s
%s
Viel Spaß im Dienst!

- miny`, hostName, claimantName, formatDate(sl.Day), sl.Window().Label(), remoteLine(sl))

	return s.Send(ctx, TypeAssignment, hostEmail, hostName, subject, body)
}

func (s *Service) SendTest(ctx context.Context, to string) error {
	return s.Send(ctx, TypeTest, to, "", "miny Test-E-Mail", "Diese E-Mail bestätigt, dass der Versand funktioniert.")
}

func remoteLine(sl *slot.Slot) string {
	if sl.IsRemote {
		return "Ort: online\n"
	}
	return ""
}

var (
	weekdays = [...]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}
	months   = [...]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"}
)

// formatDate renders a day as "Mi 01. Mai".
func formatDate(day time.Time) string {
	return fmt.Sprintf("%s %02d. %s", weekdays[day.Weekday()], day.Day(), months[day.Month()-1])
}
