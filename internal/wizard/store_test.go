package wizard

import (
	"context"
	"net/url"
	"testing"
	"time"

	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateAndGet(t *testing.T) {
	st := NewStore(time.Minute, logger.NewNop())
	defer st.Stop()

	s := st.Create(url.Values{})
	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestStoreGetUnknown(t *testing.T) {
	st := NewStore(time.Minute, logger.NewNop())
	defer st.Stop()

	_, err := st.Get(uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestStoreExpiry(t *testing.T) {
	st := NewStore(10*time.Millisecond, logger.NewNop())
	defer st.Stop()

	s := st.Create(url.Values{})
	time.Sleep(30 * time.Millisecond)

	_, err := st.Get(s.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	assert.Zero(t, st.Count())
}

func TestStoreDeleteCancelsBackgroundWork(t *testing.T) {
	st := NewStore(time.Minute, logger.NewNop())
	defer st.Stop()

	s := st.Create(url.Values{})
	ctx, cancel := context.WithCancel(context.Background())
	s.RegisterCancel("extract:rut", cancel)

	st.Delete(s.ID)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("deleting the session must cancel registered work")
	}
	assert.True(t, s.Closed())
}

func TestRegisterCancelReplacesPrevious(t *testing.T) {
	s := NewSession(url.Values{})
	first, cancelFirst := context.WithCancel(context.Background())
	s.RegisterCancel("extract:rut", cancelFirst)

	_, cancelSecond := context.WithCancel(context.Background())
	s.RegisterCancel("extract:rut", cancelSecond)

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("re-registering a key must cancel the previous work")
	}
}

func TestRegisterCancelAfterClose(t *testing.T) {
	s := NewSession(url.Values{})
	s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s.RegisterCancel("extract:rut", cancel)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("work registered after teardown must be cancelled immediately")
	}
}

func TestStoreJanitorSweeps(t *testing.T) {
	st := NewStore(10*time.Millisecond, logger.NewNop())
	st.StartJanitor(5 * time.Millisecond)
	defer st.Stop()

	st.Create(url.Values{})
	assert.Eventually(t, func() bool { return st.Count() == 0 }, time.Second, 10*time.Millisecond)
}
