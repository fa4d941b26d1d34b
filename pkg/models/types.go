package models

import (
	"time"
)

/*
LOAD → enregistrements de commande tels que fournis par une source (CSV, MySQL, PostgreSQL).
Une date absente ou illisible est représentée par un time.Time zéro.
*/

// OrderRecord représente une commande brute, dans le schéma canonique.
type OrderRecord struct {
	CustomerID     string
	CustomerName   string
	PostalCode     string
	OrderDate      time.Time
	FirstOrderDate time.Time // constante par client, calculée en amont
	Country        string
	OrderStatus    string
	PaymentStatus  string
	Channel        string
}

/*
COMPUTE → tables dérivées, recalculées à chaque exécution.
*/

// CohortEntry : un client retenu dans la cohorte.
type CohortEntry struct {
	CustomerID      string    `json:"customer_id"`
	CustomerName    string    `json:"customer_name,omitempty"`
	PostalCode      string    `json:"postal_code,omitempty"`
	FirstOrderDate  time.Time `json:"first_order_date"`
	FirstOrderMonth time.Time `json:"first_order_month"`
	Country         string    `json:"country"`
	ActiveDays      int       `json:"active_days"` // jours calendaires distincts avec commande
}

// CohortResult est la sortie du filtre de cohorte.
type CohortResult struct {
	Cleaned []OrderRecord
	Cohort  []CohortEntry
	Dropped map[DropReason]int
}

// DropReason identifie la raison d'exclusion d'une ligne au nettoyage.
type DropReason string

const (
	DropOrderStatus   DropReason = "order_status"
	DropPaymentStatus DropReason = "payment_status"
	DropChannel       DropReason = "channel"
	DropMissingID     DropReason = "missing_customer_id"
	DropMissingDate   DropReason = "missing_date"
	DropBeforeFirst   DropReason = "order_before_first_order"
	DropCountry       DropReason = "country"
	DropOutsideWindow DropReason = "outside_window"
)

// MonthlySummary : une ligne par mois calendaire de la fenêtre.
type MonthlySummary struct {
	Month              time.Time `json:"month"`
	MonoCount          int       `json:"mono_count"`
	MultiCount         int       `json:"multi_count"`
	MonoPercent        float64   `json:"mono_percent"`
	MonoPercentRounded int       `json:"mono_percent_rounded"`
}

// LatencyEntry : délai entre le 1er et le 2e jour de commande distinct d'un client.
type LatencyEntry struct {
	CustomerID        string    `json:"customer_id"`
	FirstOrderDay     time.Time `json:"first_order_day"`
	SecondOrderDay    time.Time `json:"second_order_day"`
	DaysToSecondOrder int       `json:"days_to_second_order"`
}

// LatencyCohort associe un libellé à une table de délais (superposition de courbes).
type LatencyCohort struct {
	Label   string
	Entries []LatencyEntry
}

// SurvivalPoint : pourcentage cumulé de clients ayant passé leur 2e commande au jour Day.
type SurvivalPoint struct {
	Day               int     `json:"day"`
	Count             int     `json:"count"`
	CumulativeCount   int     `json:"cumulative_count"`
	CumulativePercent float64 `json:"cumulative_percent"`
}

// SurvivalSeries est une courbe étiquetée. Total inclut les délais au-delà du seuil.
type SurvivalSeries struct {
	Label  string          `json:"label"`
	Total  int             `json:"total"`
	Points []SurvivalPoint `json:"points"`
}

// SeniorityBucket : répartition par ancienneté (jours depuis la 1ère commande).
type SeniorityBucket struct {
	Label       string  `json:"label"`
	Total       int     `json:"total"`
	Mono        int     `json:"mono"`
	MonoPercent float64 `json:"mono_percent"`
}

// MonoCustomer : ligne du tableau des clients mono-commande.
type MonoCustomer struct {
	CustomerID     string    `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	PostalCode     string    `json:"postal_code"`
	FirstOrderDate time.Time `json:"first_order_date"`
	SeniorityDays  int       `json:"seniority_days"`
}

// MonthFocus : suivi détaillé d'un seul mois d'acquisition.
type MonthFocus struct {
	Month         time.Time         `json:"month"`
	MonoCount     int               `json:"mono_count"`
	MultiCount    int               `json:"multi_count"`
	MonoPercent   float64           `json:"mono_percent"`
	Seniority     []SeniorityBucket `json:"seniority"`
	MonoCustomers []MonoCustomer    `json:"mono_customers"`
}

// Report regroupe toutes les tables produites par une exécution.
type Report struct {
	Today          time.Time          `json:"today"`
	Country        string             `json:"country"`
	RecordsRead    int                `json:"records_read"`
	RecordsKept    int                `json:"records_kept"`
	Dropped        map[DropReason]int `json:"dropped"`
	CohortSize     int                `json:"cohort_size"`
	Monthly        []MonthlySummary   `json:"monthly"`
	Latency        []LatencyEntry     `json:"latency"`
	CompareLatency []LatencyEntry     `json:"compare_latency,omitempty"`
	Survival       []SurvivalSeries   `json:"survival"`
	Focus          *MonthFocus        `json:"focus,omitempty"`
}

/*
CONFIG → paramètres globaux
*/

// ActiveDaysScope choisit les commandes comptées dans ActiveDays.
type ActiveDaysScope string

const (
	// ScopeAllRecords compte toutes les commandes valides du client, hors fenêtre comprise.
	ScopeAllRecords ActiveDaysScope = "all"
	// ScopeWindow ne compte que les commandes nettoyées (pays + fenêtre).
	ScopeWindow ActiveDaysScope = "window"
)

// CohortParams contient les paramètres du filtre de cohorte.
type CohortParams struct {
	Country                string
	WindowStart            time.Time // inclus
	WindowEnd              time.Time // inclus
	ExcludeOrderStatuses   []string
	ExcludePaymentStatuses []string
	ExcludeChannel         string // sous-chaîne, insensible à la casse
	Scope                  ActiveDaysScope
}

// DateWindow est un intervalle de dates fermé [Start ; End].
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// IsZero indique une fenêtre non configurée.
func (w DateWindow) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Config contient les paramètres de configuration passés à calculator.Run.
type Config struct {
	Cohort         CohortParams
	Today          time.Time  // borne haute de la plage de mois, injectée
	LatencyWindow  DateWindow // fenêtre de 1ère commande de la courbe de référence
	CompareWindow  DateWindow // optionnelle : cohorte comparée (ex: mois récent)
	FocusMonth     time.Time  // optionnel : 1er jour du mois suivi en détail
	SurvivalCutoff int        // jours ; 0 = seuil au jour 0 (défaut CLI : 60)
	Verbose        bool       // Flag pour activer les logs détaillés.
}
