// Package recurring generates dated cost instances from recurring cost
// templates.
package recurring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"tskpay-backend/internal/metrics"
	"tskpay-backend/internal/models"
	"tskpay-backend/internal/storage"
)

// lookahead bounds how far into the future instances are created.
const lookahead = 30 * 24 * time.Hour

// maxPerTemplate caps one run so a template with a start date far in the
// past cannot flood the ledger in a single pass.
const maxPerTemplate = 12

var monthNames = [...]string{
	time.January:   "Januar",
	time.February:  "Februar",
	time.March:     "Marec",
	time.April:     "April",
	time.May:       "Maj",
	time.June:      "Junij",
	time.July:      "Julij",
	time.August:    "Avgust",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "December",
}

var monthInTitle = regexp.MustCompile(
	`(Januar|Februar|Marec|April|Maj|Junij|Julij|Avgust|September|Oktober|November|December)\s+\d{4}`)

type Scheduler struct {
	store storage.Store
	log   *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

func NewScheduler(store storage.Store, log *slog.Logger) *Scheduler {
	return &Scheduler{store: store, log: log, now: time.Now}
}

// Run walks every recurring template and creates the instances falling due
// within the lookahead window. Templates whose start date is still in the
// future are skipped. Existing instances are detected by member,
// cost type and due date, so running twice creates nothing new. Returns the
// number of instances created.
func (s *Scheduler) Run(ctx context.Context) (int, error) {
	costs, err := s.store.Costs(ctx)
	if err != nil {
		return 0, err
	}

	type dedupKey struct {
		memberID uuid.UUID
		typeID   uuid.UUID
		due      string
	}
	existing := make(map[dedupKey]bool)
	for _, c := range costs {
		if c.DueDate != nil {
			existing[dedupKey{c.MemberID, c.CostTypeID, c.DueDate.Format("2006-01-02")}] = true
		}
	}

	now := s.now()
	horizon := now.Add(lookahead)
	created := 0

	for i := range costs {
		tpl := &costs[i]
		if !tpl.IsTemplate() || tpl.Status == models.CostCancelled {
			continue
		}
		start := templateStart(tpl)
		if start.IsZero() || tpl.RecurringPeriod == nil {
			continue
		}
		// A template whose start date has not arrived yet generates nothing.
		if now.Before(start) {
			continue
		}
		anchor := start.Day()
		if tpl.RecurringDayOfMonth != nil {
			anchor = *tpl.RecurringDayOfMonth
		}

		generated := 0
		for n := 0; generated < maxPerTemplate; n++ {
			due := occurrence(start, *tpl.RecurringPeriod, n, anchor)
			if due.IsZero() || due.After(horizon) {
				break
			}
			if tpl.RecurringEndDate != nil && due.After(*tpl.RecurringEndDate) {
				break
			}
			key := dedupKey{tpl.MemberID, tpl.CostTypeID, due.Format("2006-01-02")}
			if existing[key] {
				continue
			}
			existing[key] = true

			instance := instantiate(tpl, due)
			if err := s.store.CreateCost(ctx, instance); err != nil {
				return created, fmt.Errorf("create recurring instance for template %s: %w", tpl.ID, err)
			}
			metrics.RecurringGenerated.Inc()
			created++
			generated++
		}
	}

	if created > 0 {
		s.log.Info("recurring costs generated", "count", created)
		details, _ := json.Marshal(map[string]any{"count": created})
		entry := &models.AuditLogEntry{
			ID:          uuid.New(),
			Action:      models.AuditCostsGenerated,
			Description: fmt.Sprintf("Ustvarjenih %d ponavljajočih stroškov", created),
			Details:     details,
			CreatedAt:   time.Now(),
		}
		if err := s.store.CreateAuditEntry(ctx, entry); err != nil {
			s.log.Error("write audit entry", "action", entry.Action, "error", err)
		}
	}
	return created, nil
}

func templateStart(tpl *models.Cost) time.Time {
	if tpl.RecurringStartDate != nil {
		return *tpl.RecurringStartDate
	}
	if tpl.DueDate != nil {
		return *tpl.DueDate
	}
	return time.Time{}
}

// occurrence computes the n-th due date from the start date. Month-based
// periods anchor on the requested day of month and clamp to the month's last
// day, so a day-31 anchor lands on Feb 29 instead of sliding into March.
// Computing from the start rather than the previous occurrence keeps the
// anchor from drifting after a short month.
func occurrence(start time.Time, period models.RecurringPeriod, n, anchorDay int) time.Time {
	switch period {
	case models.PeriodWeekly:
		return start.AddDate(0, 0, 7*n)
	case models.PeriodMonthly:
		return addMonths(start, n, anchorDay)
	case models.PeriodQuarterly:
		return addMonths(start, 3*n, anchorDay)
	case models.PeriodYearly:
		return addMonths(start, 12*n, anchorDay)
	default:
		return time.Time{}
	}
}

func addMonths(start time.Time, months, anchorDay int) time.Time {
	y, m, _ := start.Date()
	m += time.Month(months)
	last := daysIn(y, m)
	day := anchorDay
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(y, m, day, 0, 0, 0, 0, start.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// instantiate copies the template into a concrete dated cost. A month name
// with a year in the title is rewritten to the instance's month; a title
// without one gets the label appended.
func instantiate(tpl *models.Cost, due time.Time) *models.Cost {
	title := tpl.Title
	label := fmt.Sprintf("%s %d", monthNames[due.Month()], due.Year())
	if monthInTitle.MatchString(title) {
		title = monthInTitle.ReplaceAllString(title, label)
	} else {
		title = title + " - " + label
	}

	dueCopy := due
	templateID := tpl.ID
	return &models.Cost{
		ID:                  uuid.New(),
		MemberID:            tpl.MemberID,
		Title:               title,
		Description:         tpl.Description,
		Amount:              tpl.Amount,
		CostTypeID:          tpl.CostTypeID,
		DueDate:             &dueCopy,
		Status:              models.CostPending,
		CreatedAt:           time.Now(),
		IsRecurring:         false,
		RecurringTemplateID: &templateID,
	}
}
