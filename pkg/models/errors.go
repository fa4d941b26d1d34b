package models

import "errors"

// Erreurs de configuration : fatales, remontées avant tout calcul.
var (
	ErrInvalidWindow  = errors.New("fenêtre de dates invalide")
	ErrMissingCountry = errors.New("pays non renseigné")
	ErrInvalidCutoff  = errors.New("seuil de courbe négatif")
	ErrMissingColumn  = errors.New("colonne manquante")
)

// ErrZeroActiveDays signale un client de cohorte sans aucun jour de commande.
var ErrZeroActiveDays = errors.New("client de cohorte avec 0 jour actif")
