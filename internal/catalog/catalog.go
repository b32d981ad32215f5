// Package catalog holds the static country document catalog. It is pure
// data: loaded once, never mutated, lookups never fail.
package catalog

import (
	"strings"

	"onboarding/internal/domain"
)

// countries mirrors the dropdown list of the intake form, including the
// ISO-like codes propagated through invitation links as `sn`.
var countries = []domain.Country{
	{Name: "Colombia", Code: "CO", Flag: "assets/co.png"},
	{Name: "Estados Unidos", Code: "USA", Flag: "assets/us.png"},
	{Name: "México", Code: "MX", Flag: "assets/mx.png"},
	{Name: "España", Code: "ES", Flag: "assets/es.png"},
	{Name: "Alemania", Code: "DE", Flag: "assets/de.png"},
}

// slots maps a country name to its ordered required document slots.
var slots = map[string][]domain.DocumentSlot{
	"Colombia": {
		{Title: "RUT", Key: "rut"},
		{Title: "Cámara de Comercio", Key: "camara"},
		{Title: "Certificación bancaria", Key: "bancaria"},
	},
	"Estados Unidos": {
		{Title: "W-9 Form", Key: "w9"},
		{Title: "Certificate of Incorporation", Key: "incorporation"},
		{Title: "Bank Letter", Key: "bankletter"},
	},
	"México": {
		{Title: "Constancia de Situación Fiscal", Key: "csf"},
		{Title: "Acta Constitutiva", Key: "acta"},
		{Title: "Carátula bancaria", Key: "caratula"},
	},
	"España": {
		{Title: "Certificado de situación censal", Key: "censal"},
		{Title: "Escritura de constitución", Key: "escritura"},
		{Title: "Certificado de titularidad bancaria", Key: "titularidad"},
	},
	"Alemania": {
		{Title: "Handelsregisterauszug", Key: "handelsregister"},
		{Title: "Steuerbescheinigung", Key: "steuer"},
		{Title: "Bankbestätigung", Key: "bank"},
	},
}

// Resolve returns the ordered document slots for a country name. Unknown or
// empty keys yield an empty list, never an error.
func Resolve(countryKey string) []domain.DocumentSlot {
	src, ok := slots[countryKey]
	if !ok {
		return nil
	}
	out := make([]domain.DocumentSlot, len(src))
	copy(out, src)
	return out
}

// Countries returns the selectable country list.
func Countries() []domain.Country {
	out := make([]domain.Country, len(countries))
	copy(out, countries)
	return out
}

// CountryForCode translates a legacy `sn` ISO code to the catalog country
// name. The comparison is case-insensitive; unknown codes return "".
func CountryForCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range countries {
		if c.Code == code {
			return c.Name
		}
	}
	return ""
}

// CodeForCountry translates a catalog country name to its ISO-like code.
// Unknown names return "".
func CodeForCountry(name string) string {
	for _, c := range countries {
		if c.Name == name {
			return c.Code
		}
	}
	return ""
}
