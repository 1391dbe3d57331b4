package viral

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/sitespark/backend/internal/models"
)

func TestRecordShareRejectsUnknownPlatform(t *testing.T) {
	ingestor := &Ingestor{}

	_, err := ingestor.RecordShare(uuid.New(), models.SharePlatform("myspace"), "key-1", time.Now())
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestRecordShareRequiresIdempotencyKey(t *testing.T) {
	ingestor := &Ingestor{}

	_, err := ingestor.RecordShare(uuid.New(), models.PlatformTwitter, "", time.Now())
	assert.Error(t, err, "a share without an idempotency key cannot be deduplicated and must be rejected")
}

func TestRecordPageviewRejectsNonPositiveDelta(t *testing.T) {
	ingestor := &Ingestor{}

	assert.Error(t, ingestor.RecordPageview(uuid.New(), 0))
	assert.Error(t, ingestor.RecordPageview(uuid.New(), -10))
}

func TestRecordReferralConversionRejectsSelfReferral(t *testing.T) {
	ingestor := &Ingestor{}
	userID := uuid.New()

	_, err := ingestor.RecordReferralConversion(userID, userID, time.Now())
	assert.Error(t, err, "a user must not earn commission on their own subscription")
}

func TestWithTransientRetrySucceedsAfterFailures(t *testing.T) {
	ingestor := &Ingestor{}

	calls := 0
	err := ingestor.withTransientRetry(func() error {
		calls++
		if calls < 2 {
			return errors.New("connection reset")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls, "a transient failure should be retried, not surfaced")
}

func TestWithTransientRetryGivesUpEventually(t *testing.T) {
	ingestor := &Ingestor{}

	calls := 0
	transient := errors.New("connection reset")
	err := ingestor.withTransientRetry(func() error {
		calls++
		return transient
	})
	assert.ErrorIs(t, err, transient, "exhausted retries surface the last error to the caller")
	assert.Equal(t, transientRetries, calls)
}

func TestWithTransientRetryPassesSentinelsThrough(t *testing.T) {
	ingestor := &Ingestor{}

	for _, sentinel := range []error{ErrDuplicateEvent, ErrDuplicateConversion, ErrSiteRetired, gorm.ErrRecordNotFound} {
		calls := 0
		err := ingestor.withTransientRetry(func() error {
			calls++
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls, "%v is a definitive outcome and must not be retried", sentinel)
	}
}
