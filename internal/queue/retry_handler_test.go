package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoffDoublesPerAttempt(t *testing.T) {
	handler := NewRetryHandler(nil, nil)

	assert.Equal(t, 30*time.Second, handler.calculateBackoff(1))
	assert.Equal(t, 60*time.Second, handler.calculateBackoff(2))
	assert.Equal(t, 120*time.Second, handler.calculateBackoff(3))
	assert.Equal(t, 240*time.Second, handler.calculateBackoff(4))
}

func TestCalculateBackoffIsCapped(t *testing.T) {
	handler := NewRetryHandler(nil, nil)

	for attempt := 8; attempt <= 20; attempt++ {
		assert.Equal(t, time.Hour, handler.calculateBackoff(attempt), "backoff for attempt %d should be capped", attempt)
	}
}

func TestRetryTypesCoverEngineJobs(t *testing.T) {
	handler := NewRetryHandler(nil, nil)

	for _, jt := range []JobType{
		JobTypeShareRecorded,
		JobTypeReferralConverted,
		JobTypeRankShowcase,
		JobTypeSettleCommissions,
		JobTypeReconcileTriggers,
	} {
		assert.True(t, handler.retryTypes[jt], "%s must be retryable", jt)
	}
}
