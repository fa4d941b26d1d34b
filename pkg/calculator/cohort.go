package calculator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"onboarding-retention/pkg/models"
)

// FilterCohort nettoie les commandes et construit la cohorte : un client par ligne,
// dont la 1ère commande tombe dans [WindowStart ; WindowEnd].
func FilterCohort(records []models.OrderRecord, p models.CohortParams) (models.CohortResult, error) {
	if err := validWindow(p.WindowStart, p.WindowEnd); err != nil {
		return models.CohortResult{}, fmt.Errorf("cohort window: %w", err)
	}
	country := strings.TrimSpace(p.Country)
	if country == "" {
		return models.CohortResult{}, models.ErrMissingCountry
	}
	scope := p.Scope
	if scope == "" {
		scope = models.ScopeAllRecords
	}
	if scope != models.ScopeAllRecords && scope != models.ScopeWindow {
		return models.CohortResult{}, fmt.Errorf("active days scope inconnu: %q", scope)
	}

	f := newRowFilter(p)
	dropped := map[models.DropReason]int{}
	days := map[string]map[time.Time]struct{}{}
	cleaned := make([]models.OrderRecord, 0, len(records))

	for _, r := range records {
		if reason, ok := f.qualify(r); !ok {
			dropped[reason]++
			continue
		}
		if scope == models.ScopeAllRecords {
			addDay(days, r)
		}
		if !strings.EqualFold(strings.TrimSpace(r.Country), country) {
			dropped[models.DropCountry]++
			continue
		}
		if !inWindow(r.OrderDate, p.WindowStart, p.WindowEnd) {
			dropped[models.DropOutsideWindow]++
			continue
		}
		if scope == models.ScopeWindow {
			addDay(days, r)
		}
		cleaned = append(cleaned, r)
	}

	// 1ère ligne rencontrée par client : date de 1ère commande, pays, libellés
	seen := map[string]struct{}{}
	var cohort []models.CohortEntry
	for _, r := range cleaned {
		if _, ok := seen[r.CustomerID]; ok {
			continue
		}
		seen[r.CustomerID] = struct{}{}
		if !inWindow(r.FirstOrderDate, p.WindowStart, p.WindowEnd) {
			continue
		}
		first := dayOf(r.FirstOrderDate)
		cohort = append(cohort, models.CohortEntry{
			CustomerID:      r.CustomerID,
			CustomerName:    r.CustomerName,
			PostalCode:      r.PostalCode,
			FirstOrderDate:  first,
			FirstOrderMonth: monthOf(first),
			Country:         r.Country,
			ActiveDays:      len(days[r.CustomerID]),
		})
	}
	sort.Slice(cohort, func(i, j int) bool {
		if !cohort[i].FirstOrderDate.Equal(cohort[j].FirstOrderDate) {
			return cohort[i].FirstOrderDate.Before(cohort[j].FirstOrderDate)
		}
		return cohort[i].CustomerID < cohort[j].CustomerID
	})

	return models.CohortResult{Cleaned: cleaned, Cohort: cohort, Dropped: dropped}, nil
}

type rowFilter struct {
	orderStatuses   map[string]struct{}
	paymentStatuses map[string]struct{}
	channel         string
}

func newRowFilter(p models.CohortParams) rowFilter {
	return rowFilter{
		orderStatuses:   toSet(p.ExcludeOrderStatuses),
		paymentStatuses: toSet(p.ExcludePaymentStatuses),
		channel:         strings.ToLower(strings.TrimSpace(p.ExcludeChannel)),
	}
}

// qualify applique les filtres indépendants du pays et de la fenêtre.
func (f rowFilter) qualify(r models.OrderRecord) (models.DropReason, bool) {
	if _, ex := f.orderStatuses[strings.TrimSpace(r.OrderStatus)]; ex {
		return models.DropOrderStatus, false
	}
	if _, ex := f.paymentStatuses[strings.TrimSpace(r.PaymentStatus)]; ex {
		return models.DropPaymentStatus, false
	}
	if f.channel != "" && strings.Contains(strings.ToLower(r.Channel), f.channel) {
		return models.DropChannel, false
	}
	if strings.TrimSpace(r.CustomerID) == "" {
		return models.DropMissingID, false
	}
	if r.OrderDate.IsZero() || r.FirstOrderDate.IsZero() {
		return models.DropMissingDate, false
	}
	if dayOf(r.OrderDate).Before(dayOf(r.FirstOrderDate)) {
		return models.DropBeforeFirst, false
	}
	return "", true
}

func addDay(days map[string]map[time.Time]struct{}, r models.OrderRecord) {
	set, ok := days[r.CustomerID]
	if !ok {
		set = map[time.Time]struct{}{}
		days[r.CustomerID] = set
	}
	set[dayOf(r.OrderDate)] = struct{}{}
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}
