package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Wrap(KindGeneration, errors.New("model timed out"))
	wrapped := fmt.Errorf("generate quiz: %w", base)

	assert.Equal(t, KindGeneration, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindGeneration))
	assert.False(t, Is(wrapped, KindAuth))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindGeneration))
}

func TestUnwrapReachesSentinel(t *testing.T) {
	err := New(KindAuth, 401, "", ErrUnauthorized)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "auth_failure: unauthorized", err.Error())
	assert.Equal(t, "not_found (404)", New(KindNotFound, 404, "", nil).Error())
}

func TestRecastKeepsAuthFailures(t *testing.T) {
	auth := New(KindAuth, 401, "", ErrUnauthorized)
	assert.Equal(t, KindAuth, KindOf(Recast(KindGeneration, auth)))

	net := errors.New("connection reset")
	recast := Recast(KindGeneration, net)
	assert.Equal(t, KindGeneration, KindOf(recast))
	assert.ErrorIs(t, recast, net)

	nf := New(KindNotFound, 404, "", ErrNotFound)
	assert.Equal(t, KindSubmission, KindOf(Recast(KindSubmission, nf)))
	assert.ErrorIs(t, Recast(KindSubmission, nf), ErrNotFound)
	assert.Nil(t, Recast(KindChat, nil))
}
