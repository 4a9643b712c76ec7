// Package i18n holds the fr/en message catalog. French is the default language.
package i18n

import (
	"context"
	"strings"
)

const (
	LangFR = "fr"
	LangEN = "en"
)

var catalog = map[string]map[string]string{
	LangFR: {
		"required":             "Requis",
		"too_long":             "Trop long",
		"too_short":            "Trop court",
		"invalid_email":        "Email invalide",
		"invalid_color":        "Couleur invalide",
		"must_be_positive":     "Doit être positif",
		"must_not_be_negative": "Ne peut pas être négatif",
		"out_of_range":         "Hors limites",
		"track.title":          "Suivi de réparation",
		"track.not_found":      "Code introuvable, vérifiez votre ticket.",
		"track.code":           "Code",
		"track.item":           "Appareil",
		"track.description":    "Problème",
		"track.created":        "Déposé le",
		"track.updated":        "Mis à jour le",
		"track.cancelled":      "Cette réparation a été annulée.",
		"track.contact":        "Contact",
		"track.lookup":         "Rechercher",
		"track.lookup_label":   "Code de suivi",
		"status.nouveau":       "Reçu",
		"status.diagnostic":    "Diagnostic",
		"status.en_reparation": "En réparation",
		"status.pret_recup":    "Prêt à récupérer",
		"status.recupere":      "Récupéré",
		"status.annule":        "Annulé",
	},
	LangEN: {
		"required":             "Required",
		"too_long":             "Too long",
		"too_short":            "Too short",
		"invalid_email":        "Invalid email",
		"invalid_color":        "Invalid color",
		"must_be_positive":     "Must be positive",
		"must_not_be_negative": "Must not be negative",
		"out_of_range":         "Out of range",
		"track.title":          "Repair tracking",
		"track.not_found":      "Code not found, check your ticket.",
		"track.code":           "Code",
		"track.item":           "Device",
		"track.description":    "Issue",
		"track.created":        "Dropped off",
		"track.updated":        "Last update",
		"track.cancelled":      "This repair has been cancelled.",
		"track.contact":        "Contact",
		"track.lookup":         "Search",
		"track.lookup_label":   "Tracking code",
		"status.nouveau":       "Received",
		"status.diagnostic":    "Diagnosis",
		"status.en_reparation": "In repair",
		"status.pret_recup":    "Ready for pickup",
		"status.recupere":      "Picked up",
		"status.annule":        "Cancelled",
	},
}

// T translates code into lang. Unknown languages use French; unknown codes return the code.
func T(lang, code string) string {
	msgs, ok := catalog[lang]
	if !ok {
		msgs = catalog[LangFR]
	}
	if msg, ok := msgs[code]; ok {
		return msg
	}
	return code
}

// DetectLanguage picks "en" when the Accept-Language header starts with English, "fr" otherwise.
func DetectLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(strings.TrimSpace(first), ";")
	if strings.HasPrefix(strings.ToLower(first), LangEN) {
		return LangEN
	}
	return LangFR
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

type ctxKey struct{}

// WithLang stores the request language.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFrom returns the request language, French by default.
func LangFrom(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(string); ok && Supported(l) {
		return l
	}
	return LangFR
}
