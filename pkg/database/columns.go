package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"onboarding-retention/pkg/models"
)

// ColumnMap associe chaque champ canonique au nom de colonne de la source.
// CustomerName et PostalCode sont facultatifs (affichage seulement) : un nom
// vide les désactive. Toutes les autres colonnes sont obligatoires.
type ColumnMap struct {
	CustomerID     string `mapstructure:"customer_id"`
	CustomerName   string `mapstructure:"customer_name"`
	PostalCode     string `mapstructure:"postal_code"`
	OrderDate      string `mapstructure:"order_date"`
	FirstOrderDate string `mapstructure:"first_order_date"`
	Country        string `mapstructure:"country"`
	OrderStatus    string `mapstructure:"order_status"`
	PaymentStatus  string `mapstructure:"payment_status"`
	Channel        string `mapstructure:"channel"`
}

// CanonicalColumns : noms utilisés par la table/vue SQL de référence.
func CanonicalColumns() ColumnMap {
	return ColumnMap{
		CustomerID:     "customer_id",
		CustomerName:   "customer_name",
		PostalCode:     "postal_code",
		OrderDate:      "order_date",
		FirstOrderDate: "first_order_date",
		Country:        "country",
		OrderStatus:    "order_status",
		PaymentStatus:  "payment_status",
		Channel:        "channel",
	}
}

// PreparedDataColumns : en-têtes de l'export prepared_data.csv.
func PreparedDataColumns() ColumnMap {
	return ColumnMap{
		CustomerID:     "Restaurant ID",
		CustomerName:   "Restaurant",
		PostalCode:     "Code Postal",
		OrderDate:      "Date de commande",
		FirstOrderDate: "date 1ere commande (Restaurant)",
		Country:        "Pays",
		OrderStatus:    "Statut commande",
		PaymentStatus:  "Statut paiement",
		Channel:        "Canal",
	}
}

// columnIndex : position de chaque champ dans une ligne, -1 si absent.
type columnIndex struct {
	customerID, customerName, postalCode int
	orderDate, firstOrderDate, country   int
	orderStatus, paymentStatus, channel  int
}

// resolve localise les colonnes dans l'en-tête. Colonne obligatoire absente -> ErrMissingColumn.
func (m ColumnMap) resolve(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	var missing []string
	find := func(name string, required bool) int {
		if name == "" {
			if required {
				missing = append(missing, "(non configurée)")
			}
			return -1
		}
		i, ok := pos[name]
		if !ok {
			if required {
				missing = append(missing, name)
			}
			return -1
		}
		return i
	}
	ix := columnIndex{
		customerID:     find(m.CustomerID, true),
		customerName:   find(m.CustomerName, false),
		postalCode:     find(m.PostalCode, false),
		orderDate:      find(m.OrderDate, true),
		firstOrderDate: find(m.FirstOrderDate, true),
		country:        find(m.Country, true),
		orderStatus:    find(m.OrderStatus, true),
		paymentStatus:  find(m.PaymentStatus, true),
		channel:        find(m.Channel, true),
	}
	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("%w: %s", models.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return ix, nil
}

// record construit un OrderRecord à partir des valeurs brutes d'une ligne.
func (ix columnIndex) record(values []any) models.OrderRecord {
	get := func(i int) any {
		if i < 0 || i >= len(values) {
			return nil
		}
		return values[i]
	}
	return models.OrderRecord{
		CustomerID:     toString(get(ix.customerID)),
		CustomerName:   toString(get(ix.customerName)),
		PostalCode:     toString(get(ix.postalCode)),
		OrderDate:      toTime(get(ix.orderDate)),
		FirstOrderDate: toTime(get(ix.firstOrderDate)),
		Country:        toString(get(ix.country)),
		OrderStatus:    toString(get(ix.orderStatus)),
		PaymentStatus:  toString(get(ix.paymentStatus)),
		Channel:        toString(get(ix.channel)),
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		// identifiants lus comme flottants ("123.0")
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.DateTime)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Formats acceptés pour les dates texte, du plus au moins fréquent.
var dateLayouts = []string{
	time.DateTime,
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05-07:00",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// toTime renvoie le temps zéro pour une valeur absente ou illisible.
func toTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case []byte:
		return parseDate(string(x))
	case string:
		return parseDate(x)
	default:
		return time.Time{}
	}
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") || strings.EqualFold(s, "null") {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
