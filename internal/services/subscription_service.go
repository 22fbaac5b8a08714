package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finwallet/internal/core"
	"finwallet/internal/log"
)

// maxCatchUp bounds how many missed occurrences one run will book for a
// single series.
const maxCatchUp = 400

// SubscriptionService manages recurring bills. Subscriptions reference a
// category by name, like transactions do.
type SubscriptionService struct {
	repo Repository
	sync *SyncCoordinator
}

func NewSubscriptionService(repo Repository, sync *SyncCoordinator) *SubscriptionService {
	return &SubscriptionService{repo: repo, sync: sync}
}

func normalizeSubscription(s core.Subscription) core.Subscription {
	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.TrimSpace(s.Category)
	s.Currency = core.NormalizeCurrency(s.Currency)
	if strings.TrimSpace(s.Repeat) == "" {
		s.Repeat = core.RepeatNone
	}
	return s
}

func checkSubscriptionCategory(ctx context.Context, tx *SyncTx, s core.Subscription) error {
	if s.Category == "" {
		return nil
	}
	if _, err := tx.GetCategory(ctx, s.Category); err != nil {
		return fmt.Errorf("category %q: %w", s.Category, err)
	}
	return nil
}

func (s *SubscriptionService) Create(ctx context.Context, sub core.Subscription) (string, error) {
	sub = normalizeSubscription(sub)
	if err := sub.Validate(); err != nil {
		return "", fmt.Errorf("create subscription: %w", err)
	}

	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		if err := ensureAbsent(tx.GetSubscription(ctx, sub.Name)); err != nil {
			return fmt.Errorf("create subscription %q: %w", sub.Name, err)
		}
		if err := checkSubscriptionCategory(ctx, tx, sub); err != nil {
			return err
		}
		if err := tx.CreateSubscription(ctx, sub); err != nil {
			return err
		}
		return tx.Record(core.EntitySubscription, core.ActionCreate, sub.Name, sub)
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Subscription created", log.FieldSubscription, sub.Name)
	return sub.Name, nil
}

func (s *SubscriptionService) Update(ctx context.Context, oldName string, patch core.SubscriptionPatch) (core.Subscription, error) {
	var updated core.Subscription
	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		existing, err := tx.GetSubscription(ctx, oldName)
		if err != nil {
			return err
		}
		updated = normalizeSubscription(patch.Apply(existing))
		if err := updated.Validate(); err != nil {
			return fmt.Errorf("update subscription %q: %w", oldName, err)
		}
		if updated.Name != oldName {
			if err := ensureAbsent(tx.GetSubscription(ctx, updated.Name)); err != nil {
				return fmt.Errorf("rename subscription %q to %q: %w", oldName, updated.Name, err)
			}
		}
		if err := checkSubscriptionCategory(ctx, tx, updated); err != nil {
			return err
		}
		if err := tx.UpdateSubscription(ctx, oldName, updated); err != nil {
			return err
		}
		return tx.Record(core.EntitySubscription, core.ActionUpdate, oldName, updated)
	})
	if err != nil {
		return core.Subscription{}, err
	}
	return updated, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, name string) error {
	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		n, err := tx.DeleteSubscription(ctx, name)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("delete subscription %q: %w", name, core.ErrNotFound)
		}
		return tx.Record(core.EntitySubscription, core.ActionDelete, name, nil)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Subscription deleted", log.FieldSubscription, name)
	return nil
}

// GetByName returns nil when no subscription has that name.
func (s *SubscriptionService) GetByName(ctx context.Context, name string) (*core.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, name)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetAll lists subscriptions by billing date.
func (s *SubscriptionService) GetAll(ctx context.Context) ([]core.Subscription, error) {
	return s.repo.ListSubscriptions(ctx)
}

// Upcoming returns subscriptions whose reminder window contains now: from
// reminder_before days ahead of the billing date up to the billing day.
func (s *SubscriptionService) Upcoming(ctx context.Context, now time.Time) ([]core.Subscription, error) {
	subs, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	today := startOfDay(now)
	var out []core.Subscription
	for _, sub := range subs {
		from := startOfDay(sub.ReminderDate())
		until := startOfDay(sub.BillingDate)
		if !today.Before(from) && !today.After(until) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// AdvanceDue moves the billing date of every recurring subscription billed
// before today to its next occurrence on or after today.
func (s *SubscriptionService) AdvanceDue(ctx context.Context, now time.Time) (int, error) {
	subs, err := s.repo.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	today := startOfDay(now)
	advanced := 0
	for _, sub := range subs {
		if !sub.BillingDate.Before(today) {
			continue
		}
		checker, err := GetDuenessChecker(sub.Repeat)
		if err != nil {
			continue
		}
		next, ok := RollForward(checker, sub.BillingDate, today, maxCatchUp)
		if !ok {
			slog.WarnContext(ctx, "Subscription too far behind to advance",
				log.FieldSubscription, sub.Name, "billing_date", sub.BillingDate)
			continue
		}
		if _, err := s.Update(ctx, sub.Name, core.SubscriptionPatch{BillingDate: &next}); err != nil {
			slog.ErrorContext(ctx, "Failed to advance subscription",
				log.FieldSubscription, sub.Name, "error", err)
			continue
		}
		advanced++
		slog.InfoContext(ctx, "Subscription billing date advanced",
			log.FieldSubscription, sub.Name, "next_billing", next.Format("2006-01-02"))
	}
	return advanced, nil
}
