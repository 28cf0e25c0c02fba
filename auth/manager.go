package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/petal-labs/bedrockchat/core"
)

// Mode selects where the credentials used for model calls come from.
type Mode int

const (
	// ModeAmbient uses the process's own credential chain directly.
	ModeAmbient Mode = iota
	// ModeDelegated assumes a role and uses the resulting credentials.
	ModeDelegated
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeDelegated {
		return "delegated"
	}
	return "ambient"
}

// Defaults for the delegated session.
const (
	DefaultSessionName     = "BedrockChatSession"
	DefaultSessionDuration = time.Hour
	DefaultRefreshMargin   = 5 * time.Minute
)

// Option configures a Manager.
type Option func(*Manager)

// WithRoleARN selects delegated mode with the given role.
// An empty ARN leaves the manager in ambient mode.
func WithRoleARN(arn string) Option {
	return func(m *Manager) {
		m.roleARN = arn
	}
}

// WithSessionName sets the role session name.
func WithSessionName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.sessionName = name
		}
	}
}

// WithSessionDuration sets the requested lifetime of delegated credentials.
func WithSessionDuration(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.duration = d
		}
	}
}

// WithRefreshMargin sets how long before expiry a credential is replaced.
func WithRefreshMargin(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.margin = d
		}
	}
}

// WithAmbientCredentials sets the provider used in ambient mode.
func WithAmbientCredentials(p aws.CredentialsProvider) Option {
	return func(m *Manager) {
		m.ambient = p
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager owns the credential lifecycle: first-time setup, expiry tracking,
// and refresh. It is safe for concurrent use and implements
// aws.CredentialsProvider.
//
// The credential mode is fixed at construction.
type Manager struct {
	mode        Mode
	roleARN     string
	sessionName string
	duration    time.Duration
	margin      time.Duration
	broker      Broker
	ambient     aws.CredentialsProvider
	log         logrus.FieldLogger
	now         func() time.Time

	flight singleflight.Group

	mu         sync.RWMutex
	current    *DelegatedCredential
	ready      bool
	generation uint64
}

var _ aws.CredentialsProvider = (*Manager)(nil)

// NewManager creates a Manager. The broker is used for delegation and for
// identity diagnostics; it may be nil in ambient mode.
func NewManager(broker Broker, opts ...Option) *Manager {
	m := &Manager{
		sessionName: DefaultSessionName,
		duration:    DefaultSessionDuration,
		margin:      DefaultRefreshMargin,
		broker:      broker,
		log:         logrus.StandardLogger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.roleARN != "" {
		m.mode = ModeDelegated
	}
	return m
}

// Mode returns the credential mode.
func (m *Manager) Mode() Mode {
	return m.mode
}

// Ready reports whether initialization has succeeded.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Current returns the delegated credential in use, or nil.
func (m *Manager) Current() *DelegatedCredential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// EnsureReady initializes the manager on first use. Later calls only
// refresh credentials that are about to expire.
//
// A broker that cannot be reached yields core.ErrBrokerUnavailable; every
// other setup failure wraps core.ErrInitializationFailed. After a failure
// the manager stays un-ready and the next call tries again.
func (m *Manager) EnsureReady(ctx context.Context) error {
	if m.Ready() {
		return m.RefreshIfNeeded(ctx, false)
	}

	ch := m.flight.DoChan("init", func() (any, error) {
		if m.Ready() {
			return nil, nil
		}
		return nil, m.initialize(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (m *Manager) initialize(ctx context.Context) error {
	m.logIdentity(ctx, nil, "Current AWS identity")

	switch m.mode {
	case ModeDelegated:
		if m.broker == nil {
			return fmt.Errorf("%w: no identity broker configured", core.ErrInitializationFailed)
		}
		if err := m.RefreshIfNeeded(ctx, true); err != nil {
			if errors.Is(err, core.ErrBrokerUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %w", core.ErrInitializationFailed, err)
		}
		m.logIdentity(ctx, m.Current(), "Assumed role identity")
	default:
		if m.ambient == nil {
			return fmt.Errorf("%w: no ambient credential provider configured", core.ErrInitializationFailed)
		}
		if _, err := m.ambient.Retrieve(ctx); err != nil {
			return fmt.Errorf("%w: %w", core.ErrInitializationFailed, err)
		}
	}

	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()

	m.log.WithField("mode", m.mode.String()).Info("AWS credentials initialized")
	return nil
}

// logIdentity is diagnostic only; failures never block initialization.
func (m *Manager) logIdentity(ctx context.Context, cred *DelegatedCredential, msg string) {
	if m.broker == nil {
		return
	}
	id, err := m.broker.WhoAmI(ctx, cred)
	if err != nil {
		m.log.WithError(err).Warn(msg + " could not be determined")
		return
	}
	m.log.WithFields(logrus.Fields{
		"account": id.Account,
		"arn":     id.ARN,
	}).Info(msg)
}

// RefreshIfNeeded replaces the delegated credential when force is set, when
// none is held, or when it expires within the refresh margin. It is a no-op
// in ambient mode.
//
// Concurrent callers share a single broker exchange. A caller that started
// waiting before another refresh completed accepts that refresh's result
// instead of issuing its own, even when force is set.
func (m *Manager) RefreshIfNeeded(ctx context.Context, force bool) error {
	if m.mode == ModeAmbient {
		return nil
	}

	m.mu.RLock()
	seen := m.generation
	stale := m.staleLocked()
	m.mu.RUnlock()

	if !force && !stale {
		return nil
	}

	ch := m.flight.DoChan("refresh", func() (any, error) {
		m.mu.RLock()
		gen, stale := m.generation, m.staleLocked()
		m.mu.RUnlock()
		if gen != seen && !stale {
			return nil, nil
		}
		return nil, m.exchange(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (m *Manager) staleLocked() bool {
	return m.current == nil || m.current.ExpiresWithin(m.now(), m.margin)
}

func (m *Manager) exchange(ctx context.Context) error {
	if m.broker == nil {
		return fmt.Errorf("%w: no identity broker configured", core.ErrInitializationFailed)
	}

	cred, err := m.broker.AssumeDelegatedIdentity(ctx, m.roleARN, m.sessionName, m.duration)
	if err != nil {
		m.log.WithError(err).WithField("role_arn", m.roleARN).Error("Failed to assume role")
		return err
	}

	m.mu.Lock()
	m.current = cred
	m.generation++
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"role_arn": m.roleARN,
		"expires":  cred.Expires.Format(time.RFC3339),
	}).Debug("Delegated credentials refreshed")
	return nil
}

// Retrieve returns the credentials to sign requests with. In delegated mode
// it returns the current snapshot without refreshing; call EnsureReady
// first.
func (m *Manager) Retrieve(ctx context.Context) (aws.Credentials, error) {
	m.mu.RLock()
	ready, cred := m.ready, m.current
	m.mu.RUnlock()

	if !ready {
		return aws.Credentials{}, fmt.Errorf("%w: credentials not initialized", core.ErrInitializationFailed)
	}
	if m.mode == ModeAmbient {
		return m.ambient.Retrieve(ctx)
	}
	return cred.AWS(), nil
}
