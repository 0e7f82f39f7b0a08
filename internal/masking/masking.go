// Package masking redacts personal identifiers in AI-extracted document fields
// and restricts what a viewer may see per document category.
package masking

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
)

// Sentinels returned instead of a partial real value.
const (
	NotProvided   = "Not provided"
	InvalidFormat = "Invalid format"
)

// MaskedSuffix is appended to a PII field name to form its masked companion.
const MaskedSuffix = "_masked"

// AlwaysVisible are keys kept by FilterForDisplay regardless of category.
var AlwaysVisible = []string{"confidence", "issues", "missing_fields"}

// MaskAadhaar keeps the last four digits of a 12-digit national ID.
func MaskAadhaar(value any) string {
	raw, ok := stringValue(value)
	if !ok {
		return NotProvided
	}
	digits := onlyDigits(raw)
	if len(digits) != 12 {
		return InvalidFormat
	}
	return "XXXX XXXX " + digits[8:]
}

// MaskPAN keeps the last four characters of a 10-character tax ID.
func MaskPAN(value any) string {
	raw, ok := stringValue(value)
	if !ok {
		return NotProvided
	}
	pan := []rune(strings.ToUpper(strings.ReplaceAll(raw, " ", "")))
	if len(pan) != 10 {
		return InvalidFormat
	}
	return "XXXXX" + string(pan[6:])
}

// MaskEmail keeps the first two local-part characters (one when short) and the domain.
// The domain starts after the last "@", so "a@b@c.com" masks as "a@*@c.com".
func MaskEmail(value any) string {
	raw, ok := stringValue(value)
	if !ok {
		return NotProvided
	}
	at := strings.LastIndex(raw, "@")
	if at < 0 {
		return NotProvided
	}
	local, domain := []rune(raw[:at]), raw[at+1:]

	var masked string
	switch {
	case len(local) == 0:
		masked = "*"
	case len(local) <= 2:
		masked = string(local[:1]) + "*"
	default:
		masked = string(local[:2]) + strings.Repeat("*", len(local)-2)
	}
	return masked + "@" + domain
}

// MaskPhone keeps only the last four digits.
func MaskPhone(value any) string {
	raw, ok := stringValue(value)
	if !ok {
		return NotProvided
	}
	digits := onlyDigits(raw)
	if len(digits) < 4 {
		return InvalidFormat
	}
	return "XXXXX X" + digits[len(digits)-4:]
}

// Mask returns a copy of fields with the category's identifier and any contact
// details replaced by their masked forms. The input map is not modified.
// Only top-level keys are masked; nested maps such as extracted_fields are copied as is.
func Mask(fields map[string]any, category models.DocumentCategory) map[string]any {
	masked := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		masked[k] = v
	}

	switch category {
	case models.CategoryAadhaar:
		maskField(masked, "aadhaar_number", MaskAadhaar)
	case models.CategoryPAN:
		maskField(masked, "pan_number", MaskPAN)
	}

	if v, ok := masked["phone"]; ok {
		masked["phone"] = MaskPhone(v)
	}
	if v, ok := masked["email"]; ok {
		masked["email"] = MaskEmail(v)
	}
	return masked
}

// DisplayAllowlist returns the keys a viewer may see for category.
func DisplayAllowlist(category models.DocumentCategory) []string {
	return category.DisplayFields()
}

// FilterForDisplay keeps only allow-listed keys plus AlwaysVisible.
func FilterForDisplay(fields map[string]any, category models.DocumentCategory) map[string]any {
	allowed := make(map[string]struct{})
	for _, key := range DisplayAllowlist(category) {
		allowed[key] = struct{}{}
	}
	for _, key := range AlwaysVisible {
		allowed[key] = struct{}{}
	}

	filtered := make(map[string]any)
	for k, v := range fields {
		if _, ok := allowed[k]; ok {
			filtered[k] = v
		}
	}
	return filtered
}

func maskField(fields map[string]any, name string, mask func(any) string) {
	v, ok := fields[name]
	if !ok {
		return
	}
	value := mask(v)
	fields[name+MaskedSuffix] = value
	fields[name] = value
}

func stringValue(value any) (string, bool) {
	var raw string
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		raw = fmt.Sprint(v)
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}

func onlyDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
