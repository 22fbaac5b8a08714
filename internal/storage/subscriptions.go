package storage

import (
	"context"
	"fmt"

	"finwallet/internal/core"
)

const subscriptionColumns = `name, amount, currency, billing_date, repeat, reminder_before, category`

func (q *Queries) GetSubscription(ctx context.Context, name string) (core.Subscription, error) {
	var s core.Subscription
	err := q.get(ctx, &s, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE name = ?`, name)
	if err != nil {
		return core.Subscription{}, wrapErr(fmt.Sprintf("get subscription %q", name), err)
	}
	return s, nil
}

func (q *Queries) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	subs := []core.Subscription{}
	err := q.selectAll(ctx, &subs,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY billing_date ASC, name ASC`)
	if err != nil {
		return nil, wrapErr("list subscriptions", err)
	}
	return subs, nil
}

func (q *Queries) CreateSubscription(ctx context.Context, s core.Subscription) error {
	_, err := q.exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Amount.String(), s.Currency, utc(s.BillingDate), s.Repeat, s.ReminderBefore, s.Category)
	return wrapErr(fmt.Sprintf("create subscription %q", s.Name), err)
}

func (q *Queries) UpdateSubscription(ctx context.Context, oldName string, s core.Subscription) error {
	res, err := q.exec(ctx,
		`UPDATE subscriptions
		 SET name = ?, amount = ?, currency = ?, billing_date = ?, repeat = ?, reminder_before = ?, category = ?
		 WHERE name = ?`,
		s.Name, s.Amount.String(), s.Currency, utc(s.BillingDate), s.Repeat, s.ReminderBefore, s.Category, oldName)
	if err != nil {
		return wrapErr(fmt.Sprintf("update subscription %q", oldName), err)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("update subscription %q: %w", oldName, core.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeleteSubscription(ctx context.Context, name string) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM subscriptions WHERE name = ?`, name)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("delete subscription %q", name), err)
	}
	return rowsAffected(res), nil
}

func (q *Queries) CountSubscriptionsByCategory(ctx context.Context, category string) (int64, error) {
	var n int64
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM subscriptions WHERE category = ?`, category); err != nil {
		return 0, wrapErr(fmt.Sprintf("count subscriptions in %q", category), err)
	}
	return n, nil
}

func (q *Queries) ReassignSubscriptionCategory(ctx context.Context, oldName, newName string) (int64, error) {
	res, err := q.exec(ctx, `UPDATE subscriptions SET category = ? WHERE category = ?`, newName, oldName)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("reassign subscription category %q", oldName), err)
	}
	return rowsAffected(res), nil
}
