// Package audit provides security audit logging for SIEM consumption.
// Events are written as structured JSON under the "security_audit" logger name.
package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/weavenet/weave-api/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventLoginFailure is logged for an unknown username or wrong password.
	EventLoginFailure SecurityEventType = "login_failure"
	// EventLoginSuccess is logged when credentials are exchanged for a token.
	EventLoginSuccess SecurityEventType = "login_success"
	// EventRegistration is logged when a new account is created.
	EventRegistration SecurityEventType = "registration"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Username  string            `json:"username,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Severity  string            `json:"severity"` // info, warning
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates a new security auditor under the "security_audit" namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{
		logger: logger.Named("security_audit"),
		now:    time.Now,
	}
}

// LogLoginFailure records a rejected login. The username is the one submitted,
// which may not exist.
func (a *SecurityAuditor) LogLoginFailure(ctx context.Context, username, clientIP string) {
	a.log(ctx, zapcore.WarnLevel, "Login failed", SecurityEvent{
		EventType: EventLoginFailure,
		Username:  username,
		ClientIP:  clientIP,
		Severity:  "warning",
	})
}

// LogLoginSuccess records a successful login.
func (a *SecurityAuditor) LogLoginSuccess(ctx context.Context, userID int64, username, clientIP string) {
	a.log(ctx, zapcore.InfoLevel, "Login succeeded", SecurityEvent{
		EventType: EventLoginSuccess,
		UserID:    strconv.FormatInt(userID, 10),
		Username:  username,
		ClientIP:  clientIP,
		Severity:  "info",
	})
}

// LogRegistration records a new account.
func (a *SecurityAuditor) LogRegistration(ctx context.Context, userID int64, username, clientIP string) {
	a.log(ctx, zapcore.InfoLevel, "Account registered", SecurityEvent{
		EventType: EventRegistration,
		UserID:    strconv.FormatInt(userID, 10),
		Username:  username,
		ClientIP:  clientIP,
		Severity:  "info",
	})
}

func (a *SecurityAuditor) log(ctx context.Context, level zapcore.Level, msg string, event SecurityEvent) {
	event.Timestamp = a.now().UTC()
	if event.UserID == "" {
		// Authenticated callers are attributed even when the event is about another account.
		if id, ok := auth.GetUserIDFromContext(ctx); ok {
			event.UserID = strconv.FormatInt(id, 10)
		}
	}

	// Marshaling a struct of strings cannot fail.
	eventJSON, _ := json.Marshal(event)

	a.logger.Log(level, msg,
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("username", event.Username),
		zap.String("user_id", event.UserID),
		zap.String("client_ip", event.ClientIP),
		zap.String("severity", event.Severity),
	)
}
