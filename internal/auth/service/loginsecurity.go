package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/audit"
	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/metrics"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/idx"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"
)

// SecurityPolicy is shared by the lockout and the brute-force report so the
// two can never disagree on the threshold.
type SecurityPolicy struct {
	MaxFailedAttempts int           `koanf:"maxfailedattempts"`
	FailedWindow      time.Duration `koanf:"failedwindow"`
	LockDuration      time.Duration `koanf:"lockduration"`
}

var DefaultSecurityPolicy = SecurityPolicy{
	MaxFailedAttempts: 5,
	FailedWindow:      10 * time.Minute,
	LockDuration:      15 * time.Minute,
}

func (p SecurityPolicy) Validate() error {
	if p.MaxFailedAttempts < 1 {
		return errors.New("security: maxfailedattempts must be at least 1")
	}
	if p.FailedWindow <= 0 || p.LockDuration <= 0 {
		return errors.New("security: failedwindow and lockduration must be positive")
	}
	return nil
}

// Long windows selectable on the brute-force report.
var BruteForceRanges = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

const (
	DefaultBruteForceRange = "24h"
	bruteForceGroupLimit   = 50
	attemptWriteTimeout    = 5 * time.Second
)

// Actor is whoever performs an audited operation.
type Actor struct {
	ID   string
	Name string
}

// LoginSecurityGuard keeps the attempt history and the locks of every
// (identity number, tenant slug) pair.
type LoginSecurityGuard struct {
	Store   store.Store
	Audit   audit.Sink
	Metrics *metrics.Metrics
	Policy  SecurityPolicy
	Now     func() time.Time

	pending sync.WaitGroup
}

func (g *LoginSecurityGuard) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *LoginSecurityGuard) policy() SecurityPolicy {
	if g.Policy.MaxFailedAttempts == 0 {
		return DefaultSecurityPolicy
	}
	return g.Policy
}

func (g *LoginSecurityGuard) record(ctx context.Context, e domain.AuditEntry) {
	if g.Audit != nil {
		g.Audit.Record(ctx, e)
	}
}

// IsLocked reports whether an unexpired lock exists for the pair.
func (g *LoginSecurityGuard) IsLocked(ctx context.Context, identityNumber, tenantSlug string) (bool, error) {
	lock, err := g.Store.LoginLocks().Get(ctx, identityNumber, tenantSlug)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return lock.ActiveAt(g.now()), nil
}

// CountRecentFailures counts failures of the pair inside the policy window.
func (g *LoginSecurityGuard) CountRecentFailures(ctx context.Context, identityNumber, tenantSlug string) (int, error) {
	since := g.now().Add(-g.policy().FailedWindow)
	return g.Store.LoginAttempts().CountFailuresSince(ctx, identityNumber, tenantSlug, since)
}

// RecordAttempt appends a to the history in the background. The caller never
// waits for the write and never sees its error.
func (g *LoginSecurityGuard) RecordAttempt(ctx context.Context, a domain.LoginAttempt) {
	a = g.stamp(a)
	ctx = context.WithoutCancel(ctx)

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()

		ctx, cancel := context.WithTimeout(ctx, attemptWriteTimeout)
		defer cancel()

		if err := g.Store.LoginAttempts().Insert(ctx, a); err != nil {
			slogx.FromContext(ctx).Warn("failed to record login attempt",
				"identity", a.IdentityNumber, "tenant", a.TenantSlug, "error", err)
		}
	}()
}

// Wait blocks until background attempt writes have finished.
func (g *LoginSecurityGuard) Wait() { g.pending.Wait() }

func (g *LoginSecurityGuard) stamp(a domain.LoginAttempt) domain.LoginAttempt {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = g.now()
	}
	if a.ID == "" {
		a.ID = idx.NewAt(a.CreatedAt).String()
	}
	return a
}

// RecordFailure stores a counted failure and locks the pair once the failures
// inside the window reach the threshold. It reports whether a lock was set.
// Two concurrent failures may both take the lock; the later upsert wins.
func (g *LoginSecurityGuard) RecordFailure(ctx context.Context, a domain.LoginAttempt, tenantID string) (bool, error) {
	a = g.stamp(a)
	a.Success = false
	p := g.policy()

	var (
		locked   bool
		failures int
		lock     domain.LoginLock
	)
	err := g.Store.WithTx(ctx, func(tx store.Tx) error {
		prior, err := tx.LoginAttempts().CountFailuresSince(ctx, a.IdentityNumber, a.TenantSlug, a.CreatedAt.Add(-p.FailedWindow))
		if err != nil {
			return fmt.Errorf("count failures: %w", err)
		}
		if err := tx.LoginAttempts().Insert(ctx, a); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}

		failures = prior + 1
		if !a.Reason.CountsTowardLockout() || failures < p.MaxFailedAttempts {
			return nil
		}

		lock = domain.LoginLock{
			IdentityNumber: a.IdentityNumber,
			TenantSlug:     a.TenantSlug,
			Until:          a.CreatedAt.Add(p.LockDuration),
			CreatedAt:      a.CreatedAt,
		}
		if err := tx.LoginLocks().Upsert(ctx, lock); err != nil {
			return fmt.Errorf("upsert lock: %w", err)
		}
		locked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if locked {
		g.Metrics.AccountLocked()
		slogx.FromContext(ctx).Warn("account locked",
			"identity", a.IdentityNumber, "tenant", a.TenantSlug, "failures", failures, "until", lock.Until)
		g.record(ctx, domain.AuditEntry{
			TenantID:   tenantID,
			Action:     domain.AuditAccountLocked,
			Entity:     "login_lock",
			TargetName: a.IdentityNumber,
			Meta: map[string]any{
				"tenantSlug": a.TenantSlug,
				"failures":   failures,
				"reason":     string(a.Reason),
				"ip":         a.IP,
				"until":      lock.Until.Format(time.RFC3339),
			},
			CreatedAt: a.CreatedAt,
		})
	}
	return locked, nil
}

// Unlock deletes the pair's lock. Unlocking a pair that is not locked is not
// an error, but is still audited.
func (g *LoginSecurityGuard) Unlock(ctx context.Context, identityNumber, tenantSlug, tenantID string, actor Actor) error {
	if err := g.Store.LoginLocks().Delete(ctx, identityNumber, tenantSlug); err != nil {
		return err
	}

	g.Metrics.AccountUnlocked()
	slogx.FromContext(ctx).Info("account unlocked",
		"identity", identityNumber, "tenant", tenantSlug, "actor_id", actor.ID)
	g.record(ctx, domain.AuditEntry{
		TenantID:   tenantID,
		Action:     domain.AuditAccountUnlocked,
		Entity:     "login_lock",
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		TargetName: identityNumber,
		Meta:       map[string]any{"tenantSlug": tenantSlug},
		CreatedAt:  g.now(),
	})
	return nil
}

// BruteForceReport aggregates counted failures over the short policy window
// and over longRange, grouped by identity and by IP. Groups at or above the
// threshold are flagged; Alerts counts flagged short-window groups. Nothing
// is locked here.
func (g *LoginSecurityGuard) BruteForceReport(ctx context.Context, tenantSlug, longRange string) (authsdk.BruteForceReport, error) {
	if longRange == "" {
		longRange = DefaultBruteForceRange
	}
	longWindow, ok := BruteForceRanges[longRange]
	if !ok {
		return authsdk.BruteForceReport{}, validationError("range must be one of 24h, 7d, 30d")
	}

	p := g.policy()
	now := g.now()

	short, err := g.window(ctx, "short", now.Add(-p.FailedWindow), tenantSlug, p.MaxFailedAttempts)
	if err != nil {
		return authsdk.BruteForceReport{}, err
	}
	long, err := g.window(ctx, longRange, now.Add(-longWindow), tenantSlug, p.MaxFailedAttempts)
	if err != nil {
		return authsdk.BruteForceReport{}, err
	}

	report := authsdk.BruteForceReport{
		TenantSlug: tenantSlug,
		Threshold:  p.MaxFailedAttempts,
		Short:      short,
		Long:       long,
	}
	for _, groups := range [][]authsdk.BruteForceGroup{short.ByIdentity, short.ByIP} {
		for _, grp := range groups {
			if grp.Flagged {
				report.Alerts++
			}
		}
	}
	return report, nil
}

func (g *LoginSecurityGuard) window(ctx context.Context, label string, since time.Time, tenantSlug string, threshold int) (authsdk.BruteForceWindow, error) {
	w := authsdk.BruteForceWindow{Range: label, Since: since}

	for _, groupBy := range []domain.FailureGroupBy{domain.GroupByIdentity, domain.GroupByIP} {
		groups, err := g.Store.LoginAttempts().AggregateFailures(ctx, store.FailureQuery{
			Since:      since,
			GroupBy:    groupBy,
			TenantSlug: tenantSlug,
			Limit:      bruteForceGroupLimit,
		})
		if err != nil {
			return authsdk.BruteForceWindow{}, fmt.Errorf("aggregate failures by %s: %w", groupBy, err)
		}

		out := make([]authsdk.BruteForceGroup, 0, len(groups))
		for _, grp := range groups {
			out = append(out, authsdk.BruteForceGroup{
				Key:         grp.Key,
				TenantSlug:  grp.TenantSlug,
				Failures:    grp.Failures,
				LastAttempt: grp.LastAttempt,
				Flagged:     grp.Failures >= threshold,
			})
		}
		if groupBy == domain.GroupByIdentity {
			w.ByIdentity = out
		} else {
			w.ByIP = out
		}
	}
	return w, nil
}
