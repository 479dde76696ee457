package delivery

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

func rule(postal, area string, threshold, fee int64) models.DeliveryRule {
	return models.DeliveryRule{
		PostalCode:    postal,
		AreaName:      area,
		FreeThreshold: decimal.NewFromInt(threshold),
		Fee:           decimal.NewFromInt(fee),
	}
}

func TestResolveUnresolvedWithoutPostalCode(t *testing.T) {
	rules := []models.DeliveryRule{rule("1700", "tambo paranaque", 2000, 100)}

	if got := Resolve(rules, "", "tambo paranaque"); got != nil {
		t.Fatalf("expected unresolved without postal code, got %+v", got)
	}
	if got := Resolve(rules, "n/a", "tambo paranaque"); got != nil {
		t.Fatalf("expected unresolved for non-numeric postal code, got %+v", got)
	}
}

func TestResolveUnresolvedWhenNotCovered(t *testing.T) {
	rules := []models.DeliveryRule{rule("1700", "tambo paranaque", 2000, 100)}

	if got := Resolve(rules, "9999", "somewhere far"); got != nil {
		t.Fatalf("expected unresolved for unknown postal code, got %+v", got)
	}
}

func TestResolveSingleMatchWinsRegardlessOfArea(t *testing.T) {
	rules := []models.DeliveryRule{rule("1700", "tambo paranaque", 2000, 100)}

	got := Resolve(rules, "1700", "completely different text")
	if got == nil {
		t.Fatal("expected resolution")
	}
	if got.AreaName != "tambo paranaque" {
		t.Fatalf("unexpected area %q", got.AreaName)
	}
	if !got.Fee.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected fee %s", got.Fee)
	}
}

func TestResolvePostalCodeNormalization(t *testing.T) {
	rules := []models.DeliveryRule{rule("1700", "tambo paranaque", 2000, 100)}

	got := Resolve(rules, " 17-00 ", "tambo, paranaque")
	if got == nil {
		t.Fatal("expected resolution after postal normalization")
	}
	if !got.FreeThreshold.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected threshold %s", got.FreeThreshold)
	}
}

func TestResolveSubstringDisambiguation(t *testing.T) {
	rules := []models.DeliveryRule{
		rule("1700", "san dionisio", 2500, 120),
		rule("1700", "tambo", 2000, 100),
	}

	got := Resolve(rules, "1700", "TAMBO Paranaque City")
	if got == nil {
		t.Fatal("expected resolution")
	}
	if got.AreaName != "tambo" {
		t.Fatalf("expected substring match to win, got %q", got.AreaName)
	}
}

func TestResolveTokenDisambiguation(t *testing.T) {
	// No rule area is a full substring of the address; "dionisio" (>3 chars)
	// appears as a token.
	rules := []models.DeliveryRule{
		rule("1700", "barangay tambo zone 9", 2000, 100),
		rule("1700", "barangay san dionisio zone 2", 2500, 120),
	}

	got := Resolve(rules, "1700", "dionisio paranaque")
	if got == nil {
		t.Fatal("expected resolution")
	}
	if got.AreaName != "barangay san dionisio zone 2" {
		t.Fatalf("expected token match to win, got %q", got.AreaName)
	}
}

func TestResolveShortTokensNeverMatch(t *testing.T) {
	rules := []models.DeliveryRule{
		rule("1700", "bf 2", 2500, 120),
		rule("1700", "zone one", 2000, 100),
	}

	// "bf" and "2" are too short to count as token matches; falls through to
	// the lowest-threshold default.
	got := Resolve(rules, "1700", "bf homes")
	if got == nil {
		t.Fatal("expected resolution")
	}
	if got.AreaName != "zone one" {
		t.Fatalf("expected lowest-threshold fallback, got %q", got.AreaName)
	}
}

func TestResolveLowestThresholdFallback(t *testing.T) {
	rules := []models.DeliveryRule{
		rule("1700", "zone alpha", 3000, 150),
		rule("1700", "zone bravo", 2000, 100),
		rule("1700", "zone charlie", 2500, 120),
	}

	got := Resolve(rules, "1700", "unmatched text")
	if got == nil {
		t.Fatal("expected resolution")
	}
	if got.AreaName != "zone bravo" {
		t.Fatalf("expected conservative lowest threshold, got %q", got.AreaName)
	}
	if !got.FreeThreshold.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected threshold %s", got.FreeThreshold)
	}
}

func TestNormalizeArea(t *testing.T) {
	got := NormalizeArea("  Tambo,   Paranaque  City ")
	if got != "tambo, paranaque city" {
		t.Fatalf("unexpected normalization %q", got)
	}
}
