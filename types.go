package goGuard

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/session"
	"github.com/MrEthical07/goGuard/tenant"
	"github.com/MrEthical07/goGuard/waf"
)

// Caller is the authenticated principal of a request. It is derived from a
// verified session token and never mutated afterwards.
type Caller struct {
	ID         string           `json:"id"`
	Type       session.UserType `json:"type"`
	Email      string           `json:"email"`
	Name       string           `json:"name"`
	TenantID   string           `json:"tenantId,omitempty"`
	TenantSlug string           `json:"tenantSlug,omitempty"`
	Role       string           `json:"role,omitempty"`
	TokenID    string           `json:"tokenId"`
	ExpiresAt  time.Time        `json:"expiresAt"`
}

// IsSuperAdmin reports whether c is a platform operator.
func (c *Caller) IsSuperAdmin() bool {
	return c != nil && c.Type == session.UserTypeSuperAdmin
}

// TenantCaller returns the view of c used by the tenant resolver.
func (c *Caller) TenantCaller() tenant.Caller {
	if c == nil {
		return tenant.Caller{}
	}
	return tenant.Caller{
		ID:         c.ID,
		Type:       c.Type,
		TenantID:   c.TenantID,
		TenantSlug: c.TenantSlug,
	}
}

func callerFromClaims(claims *session.Claims) *Caller {
	c := &Caller{
		ID:         claims.SubjectID,
		Type:       claims.UserType,
		Email:      claims.Email,
		Name:       claims.Name,
		TenantID:   claims.TenantID,
		TenantSlug: claims.TenantSlug,
		Role:       claims.Role,
		TokenID:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		c.ExpiresAt = claims.ExpiresAt.Time
	}
	return c
}

// CallerRecord is a stored caller as returned by a CallerProvider.
type CallerRecord struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	UserType     session.UserType
	TenantID     string
	TenantSlug   string
	Active       bool
}

// CallerProvider loads callers from the host application's store.
//
// Both methods must return ErrCallerNotFound (optionally wrapped) for unknown
// callers. An empty userType matches either population.
type CallerProvider interface {
	FindByIdentifier(ctx context.Context, identifier string, userType session.UserType) (CallerRecord, error)
	FindByID(ctx context.Context, id string, userType session.UserType) (CallerRecord, error)
}

// PasswordUpdater is optionally implemented by a CallerProvider to accept
// upgraded password hashes after a successful login.
type PasswordUpdater interface {
	UpdatePasswordHash(ctx context.Context, callerID, encodedHash string) error
}

// LoginRequest is the credential pair submitted to Login.
type LoginRequest struct {
	Identifier string           `json:"email" validate:"required,email"`
	Password   string           `json:"password" validate:"required"`
	UserType   session.UserType `json:"-"`
}

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	Caller           Caller    `json:"user"`
	SessionToken     string    `json:"-"`
	SessionExpiresAt time.Time `json:"sessionExpiresAt"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Inspection is the outcome of Engine.Inspect.
type Inspection struct {
	waf.Verdict
	// IncidentID is set for blocked requests and correlates logs, audit
	// events and monitoring reports.
	IncidentID string
}

// AuditEvent is one security-relevant decision.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink discards audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink forwards audit events to a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per audit event.
type JSONWriterSink = internalaudit.JSONWriterSink

// LoggerSink writes audit events as structured log lines.
type LoggerSink = internalaudit.LoggerSink

// MultiAuditSink fans audit events out to several sinks.
type MultiAuditSink = internalaudit.MultiSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLoggerSink returns a sink writing audit events through l.
func NewLoggerSink(l internalaudit.InfoLogger) *LoggerSink {
	return internalaudit.NewLoggerSink(l)
}
