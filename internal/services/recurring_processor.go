package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finwallet/internal/log"
)

// RecurringProcessor books the occurrences of repeating transactions that
// have fallen due and rolls subscription billing dates forward.
type RecurringProcessor struct {
	repo          Repository
	ledger        *LedgerService
	subscriptions *SubscriptionService
}

func NewRecurringProcessor(repo Repository, ledger *LedgerService, subscriptions *SubscriptionService) *RecurringProcessor {
	return &RecurringProcessor{
		repo:          repo,
		ledger:        ledger,
		subscriptions: subscriptions,
	}
}

// ProcessDue runs both passes and returns how many transactions were booked
// and how many subscriptions were advanced.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (booked, advanced int, err error) {
	booked, err = p.ProcessDueTransactions(ctx, now)
	if err != nil {
		return booked, 0, err
	}
	if p.subscriptions != nil {
		advanced, err = p.subscriptions.AdvanceDue(ctx, now)
	}
	return booked, advanced, err
}

// ProcessDueTransactions books every occurrence of every repeating
// transaction dated on or before now. A series that missed several periods
// is caught up one occurrence at a time.
func (p *RecurringProcessor) ProcessDueTransactions(ctx context.Context, now time.Time) (int, error) {
	if p.repo == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.repo.ListRecurringTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	booked := 0
	for _, tmpl := range templates {
		checker, err := GetDuenessChecker(tmpl.Repeat)
		if err != nil {
			slog.WarnContext(ctx, "Skipping transaction with unusable repeat tag",
				log.FieldTransactionID, tmpl.ID, "repeat", tmpl.Repeat)
			continue
		}

		current := tmpl.ID
		for _, date := range DueOccurrences(checker, tmpl.Date, now, maxCatchUp) {
			id, err := p.ledger.Materialize(ctx, current, date)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to book recurring transaction",
					log.FieldTransactionID, current,
					"date", date.Format("2006-01-02"),
					"error", err)
				break
			}
			booked++
			current = id
		}
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"booked", booked,
		"total_checked", len(templates))

	return booked, nil
}
