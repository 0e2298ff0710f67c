package engerr_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DocHatty/vulpes-celare/internal/engerr"
)

func TestErrorsUnwrapToSentinels(t *testing.T) {
	assert.True(t, errors.Is(engerr.NewInvariant("span bounds", errors.New("oops")), engerr.ErrInvariant))
	assert.True(t, errors.Is(engerr.NewFilterFailure("ssn", errors.New("boom")), engerr.ErrFilter))
	assert.True(t, errors.Is(engerr.NewConfiguration("purposeOfUse", errors.New("bad")), engerr.ErrConfiguration))
	assert.True(t, errors.Is(engerr.NewPersistence("record", errors.New("disk full")), engerr.ErrPersistence))
}

func TestWrapCancellationClassifiesContextErrors(t *testing.T) {
	assert.True(t, errors.Is(engerr.WrapCancellation(context.DeadlineExceeded), engerr.ErrTimeout))
	assert.True(t, errors.Is(engerr.WrapCancellation(context.Canceled), engerr.ErrCancellation))

	other := errors.New("unrelated")
	assert.Equal(t, other, engerr.WrapCancellation(other))
	assert.Nil(t, engerr.WrapCancellation(nil))
}

func TestErrorMessagesIncludeContext(t *testing.T) {
	err := engerr.NewFilterFailure("phone", errors.New("regex panic"))
	assert.Contains(t, err.Error(), "phone")
	assert.Contains(t, err.Error(), "regex panic")
}
