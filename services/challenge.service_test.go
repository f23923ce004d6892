package services

import (
	"context"
	"testing"

	"github.com/cloudclip/auth/enums"
	"github.com/cloudclip/auth/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeSingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallenge()

	err := store.Issue(ctx, "user-1", enums.ChallengeRegistration, "challenge-value")
	require.NoError(t, err)

	value, err := store.Consume(ctx, "user-1", enums.ChallengeRegistration)
	require.NoError(t, err)
	assert.Equal(t, "challenge-value", value)

	// a consumed challenge is gone
	_, err = store.Consume(ctx, "user-1", enums.ChallengeRegistration)
	assert.ErrorIs(t, err, errors.ErrChallengeMissing)
}

func TestChallengePurposeIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallenge()

	err := store.Issue(ctx, "user-1", enums.ChallengeRegistration, "challenge-value")
	require.NoError(t, err)

	// consuming with the wrong purpose burns the challenge without returning it
	_, err = store.Consume(ctx, "user-1", enums.ChallengeAuthentication)
	assert.ErrorIs(t, err, errors.ErrChallengeMismatch)

	_, err = store.Consume(ctx, "user-1", enums.ChallengeRegistration)
	assert.ErrorIs(t, err, errors.ErrChallengeMissing)
}

func TestChallengeOverwriteOnIssue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallenge()

	require.NoError(t, store.Issue(ctx, "user-1", enums.ChallengeRegistration, "first"))
	require.NoError(t, store.Issue(ctx, "user-1", enums.ChallengeAuthentication, "second"))

	// only the latest issued challenge is live
	value, err := store.Consume(ctx, "user-1", enums.ChallengeAuthentication)
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestChallengeUserIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallenge()

	require.NoError(t, store.Issue(ctx, "user-1", enums.ChallengeRegistration, "first"))
	require.NoError(t, store.Issue(ctx, "user-2", enums.ChallengeRegistration, "second"))

	value, err := store.Consume(ctx, "user-1", enums.ChallengeRegistration)
	require.NoError(t, err)
	assert.Equal(t, "first", value)

	value, err = store.Consume(ctx, "user-2", enums.ChallengeRegistration)
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}
