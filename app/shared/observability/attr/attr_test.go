package attr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", CorrelationID(ctx))

	a := ExtractCorrelationID(ctx)
	assert.Equal(t, CorrelationIDKey, a.Key)
	assert.Equal(t, "abc-123", a.Value.String())
}

func TestWithCorrelationIDIgnoresEmpty(t *testing.T) {
	base := context.Background()
	assert.Equal(t, base, WithCorrelationID(base, ""))
	assert.Empty(t, CorrelationID(base))
}

func TestError(t *testing.T) {
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Equal(t, "", Error(nil).Value.String())
}
