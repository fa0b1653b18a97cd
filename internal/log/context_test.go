// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, JobIDFromContext(ctx))
}

func TestJobIDRoundTrip(t *testing.T) {
	ctx := ContextWithJobID(context.Background(), "job-1")
	assert.Equal(t, "job-1", JobIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(ctx))
}

func TestContextHelpersNilSafe(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(nil))
	assert.Empty(t, JobIDFromContext(nil))
	assert.NotNil(t, ContextWithRequestID(nil, "req-1"))
}

func TestFromContextCarriesIDs(t *testing.T) {
	configureForTest()

	ctx := ContextWithJobID(ContextWithRequestID(context.Background(), "req-9"), "job-9")
	ctxLog := FromContext(ctx)
	ctxLog.Info().Msg("enriched")

	entry := lastEntry(t)
	assert.Equal(t, "req-9", entry[FieldRequestID])
	assert.Equal(t, "job-9", entry[FieldJobID])
}

func TestFromContextWithoutIDs(t *testing.T) {
	configureForTest()

	plainLog := FromContext(context.Background())
	plainLog.Info().Msg("plain")

	entry := lastEntry(t)
	assert.NotContains(t, entry, FieldRequestID)
	assert.NotContains(t, entry, FieldJobID)
}
