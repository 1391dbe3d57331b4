package commission

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitespark/backend/internal/config"
)

func testCommissionConfig() config.CommissionConfig {
	return config.CommissionConfig{
		Breakpoints: []config.CommissionBreakpoint{
			{MinAgeYears: 0, RateBps: 2000},
			{MinAgeYears: 1, RateBps: 2500},
			{MinAgeYears: 4, RateBps: 4000},
		},
	}
}

func TestRateStepSchedule(t *testing.T) {
	svc := NewService(nil, testCommissionConfig())

	assert.Equal(t, 2000, svc.Rate(0), "a brand-new relationship earns the entry rate")
	assert.Equal(t, 2000, svc.Rate(0.5))
	assert.Equal(t, 2000, svc.Rate(0.999), "just under a year still earns the entry rate")
	assert.Equal(t, 2500, svc.Rate(1.0), "the step applies exactly at the breakpoint age")
	assert.Equal(t, 2500, svc.Rate(3.9))
	assert.Equal(t, 4000, svc.Rate(4.0))
	assert.Equal(t, 4000, svc.Rate(25), "the top rate holds for arbitrarily old relationships")
}

func TestRateNeverDecreasesWithAge(t *testing.T) {
	svc := NewService(nil, testCommissionConfig())

	prev := svc.Rate(0)
	for age := 0.0; age <= 10; age += 0.25 {
		rate := svc.Rate(age)
		assert.GreaterOrEqual(t, rate, prev, "rate must be non-decreasing at age %v", age)
		prev = rate
	}
}

func TestPayableBasic(t *testing.T) {
	// 20% of $100.00 is $20.00
	assert.Equal(t, int64(2000), Payable(10000, 2000))
	// 25% of $49.99 is, exactly, $12.4975 -> rounds to $12.50
	assert.Equal(t, int64(1250), Payable(4999, 2500))
	// 40% of $250.00
	assert.Equal(t, int64(10000), Payable(25000, 4000))
}

func TestPayableRoundsHalfEven(t *testing.T) {
	// 2 * 2500 = 5000/10000: exactly half a cent, quotient 0 is even, stays 0
	assert.Equal(t, int64(0), Payable(2, 2500))
	// 6 * 2500 = 15000/10000: quotient 1 is odd, rounds up to 2
	assert.Equal(t, int64(2), Payable(6, 2500))
	// 10 * 2500 = 25000/10000: quotient 2 is even, stays 2
	assert.Equal(t, int64(2), Payable(10, 2500))
	// 14 * 2500: quotient 3 is odd, rounds up to 4
	assert.Equal(t, int64(4), Payable(14, 2500))
	// Below the halfway point rounds down
	assert.Equal(t, int64(2), Payable(10, 2040))
	// Above the halfway point rounds up
	assert.Equal(t, int64(3), Payable(10, 2600))
}

func TestPayableZeroAndNegativeInputs(t *testing.T) {
	assert.Zero(t, Payable(0, 2000), "zero revenue earns nothing")
	assert.Zero(t, Payable(-5000, 2000), "negative revenue never produces a payable")
	assert.Zero(t, Payable(10000, 0))
	assert.Zero(t, Payable(10000, -100))
}

func TestPayableHandlesLargeRevenue(t *testing.T) {
	// Values this size would overflow a naive base*rate product.
	assert.Equal(t, int64(288230376151711744), Payable(1152921504606846976, 2500))
	assert.Equal(t, int64(922244969965109033), Payable(922337203685477581, 9999))
	assert.Equal(t, int64(math.MaxInt64), Payable(math.MaxInt64, 10000), "a 100 percent rate passes the base through unchanged")
}

func TestPayableNeverExceedsBase(t *testing.T) {
	bases := []int64{1, 3, 99, 4999, 10000, 123456789}
	rates := []int{1, 2000, 2500, 4000, 9999, 10000}
	for _, base := range bases {
		for _, rate := range rates {
			payable := Payable(base, rate)
			assert.GreaterOrEqual(t, payable, int64(0))
			assert.LessOrEqual(t, payable, base, "payable for base %d at %d bps must not exceed the base", base, rate)
		}
	}
}
