package odds

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/betchat/betchat-backend/pkg/db/models"
)

func TestQuoteEmptyPool(t *testing.T) {
	got := Quote(0, 0)
	if !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected even-money default, got %s", got)
	}
}

func TestQuoteBalancedPool(t *testing.T) {
	// 500 on each side: total/opposite = 1000/500 = 2.0
	got := Quote(100000, 50000)
	if !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected 2.0 for balanced pool, got %s", got)
	}
}

func TestQuoteClampsFavorite(t *testing.T) {
	// Overwhelming favorite: total/opposite barely above 1 clamps up to 1.1.
	got := Quote(100000, 99000)
	if !got.Equal(decimal.RequireFromString("1.1")) {
		t.Fatalf("expected clamp to 1.1, got %s", got)
	}
}

func TestQuoteClampsUnderdog(t *testing.T) {
	// Nothing staked against: divisor floors at 1 kobo, clamps down to 10.
	got := Quote(100000, 0)
	if !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected clamp to 10, got %s", got)
	}
}

func TestQuoteMidRange(t *testing.T) {
	// 750 vs 250: underdog quote = 1000/250 = 4.0
	got := Quote(100000, 25000)
	if !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected 4.0, got %s", got)
	}
}

func TestQuoteMonotonicAsSideGrows(t *testing.T) {
	// A side's quote divides the total by the opposite stake, so money
	// landing on a side never lowers that side's quote and never raises the
	// opposite side's. The clamps preserve both directions.
	const opposite = int64(40000)
	prevSide := decimal.Zero
	prevOpposite := Max
	for side := int64(0); side <= 2_000_000; side += 25_000 {
		total := side + opposite
		sideQuote := Quote(total, opposite)
		oppositeQuote := Quote(total, side)
		if sideQuote.LessThan(prevSide) {
			t.Fatalf("side quote fell from %s to %s at stake %d", prevSide, sideQuote, side)
		}
		if oppositeQuote.GreaterThan(prevOpposite) {
			t.Fatalf("opposite quote rose from %s to %s at stake %d", prevOpposite, oppositeQuote, side)
		}
		if sideQuote.LessThan(Min) || sideQuote.GreaterThan(Max) {
			t.Fatalf("side quote %s escaped the clamp at stake %d", sideQuote, side)
		}
		prevSide = sideQuote
		prevOpposite = oppositeQuote
	}
}

func TestQuotePair(t *testing.T) {
	pool := &models.Pool{TotalKobo: 100000, YesKobo: 75000, NoKobo: 25000}
	yes, no := QuotePair(pool)
	// yes backers are paid against the no side and vice versa.
	if Format(yes) != "4.00" {
		t.Fatalf("unexpected yes quote %s", Format(yes))
	}
	if Format(no) != "1.33" {
		t.Fatalf("unexpected no quote %s", Format(no))
	}
}

func TestQuotePairNilPool(t *testing.T) {
	yes, no := QuotePair(nil)
	if Format(yes) != "2.00" || Format(no) != "2.00" {
		t.Fatalf("expected defaults for nil pool, got %s/%s", Format(yes), Format(no))
	}
}
