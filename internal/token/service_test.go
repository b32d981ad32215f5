package token

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/wizard"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"
)

type fakeSender struct {
	enabled bool
	err     error
	sent    []string
}

func (f *fakeSender) Enabled() bool { return f.enabled }

func (f *fakeSender) Send(ctx context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeMailer struct {
	err  error
	to   string
	body string
}

func (f *fakeMailer) SendPlain(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to = to
	f.body = body
	return nil
}

func newSession() *wizard.Session {
	return wizard.NewSession(url.Values{})
}

func TestRequestPrefersTokenAPI(t *testing.T) {
	sender := &fakeSender{enabled: true}
	mailer := &fakeMailer{}
	svc := NewService(sender, mailer, Config{}, logger.NewNop())
	sess := newSession()

	err := svc.Request(context.Background(), sess, "supplier@acme.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"supplier@acme.com"}, sender.sent)
	assert.Empty(t, mailer.to)

	hash, expires := sess.OTP()
	assert.NotEmpty(t, hash)
	assert.True(t, expires.After(time.Now()))
}

func TestVerifyAfterTokenAPIDelivery(t *testing.T) {
	// The remote service mails its own fixed code; verification must
	// accept that code, not a locally generated one.
	sender := &fakeSender{enabled: true}
	svc := NewService(sender, nil, Config{}, logger.NewNop())
	sess := newSession()
	require.NoError(t, svc.Request(context.Background(), sess, "supplier@acme.com"))

	assert.ErrorIs(t, svc.Verify(sess, "000000"), apperrors.ErrTokenMismatch)
	require.NoError(t, svc.Verify(sess, "123456"))
	assert.True(t, sess.Verified())
}

func TestVerifyAfterTokenAPIDeliveryCustomCode(t *testing.T) {
	sender := &fakeSender{enabled: true}
	svc := NewService(sender, nil, Config{RemoteCode: "775533"}, logger.NewNop())
	sess := newSession()
	require.NoError(t, svc.Request(context.Background(), sess, "supplier@acme.com"))

	require.NoError(t, svc.Verify(sess, "775533"))
}

func TestRequestFallsBackToSMTP(t *testing.T) {
	sender := &fakeSender{enabled: true, err: errors.New("api down")}
	mailer := &fakeMailer{}
	svc := NewService(sender, mailer, Config{DevCode: "654321"}, logger.NewNop())
	sess := newSession()

	err := svc.Request(context.Background(), sess, "supplier@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "supplier@acme.com", mailer.to)
	assert.Contains(t, mailer.body, "654321")
}

func TestRequestDisabledSenderUsesSMTP(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewService(&fakeSender{}, mailer, Config{DevCode: "111222"}, logger.NewNop())

	err := svc.Request(context.Background(), newSession(), "supplier@acme.com")
	require.NoError(t, err)
	assert.Contains(t, mailer.body, "111222")
}

func TestRequestNoDeliveryPath(t *testing.T) {
	svc := NewService(&fakeSender{err: errors.New("down"), enabled: true}, nil, Config{DevCode: "1"}, logger.NewNop())

	err := svc.Request(context.Background(), newSession(), "supplier@acme.com")
	assert.ErrorIs(t, err, apperrors.ErrTokenSendFailed)
}

func TestVerify(t *testing.T) {
	svc := NewService(&fakeSender{}, &fakeMailer{}, Config{DevCode: "987654"}, logger.NewNop())
	sess := newSession()
	require.NoError(t, svc.Request(context.Background(), sess, "supplier@acme.com"))

	assert.ErrorIs(t, svc.Verify(sess, "000000"), apperrors.ErrTokenMismatch)
	assert.False(t, sess.Verified())

	require.NoError(t, svc.Verify(sess, "987654"))
	assert.True(t, sess.Verified())
}

func TestVerifyWithoutIssuedCode(t *testing.T) {
	svc := NewService(&fakeSender{}, &fakeMailer{}, Config{}, logger.NewNop())

	err := svc.Verify(newSession(), "123456")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotIssued)
}

func TestVerifyExpiredCode(t *testing.T) {
	svc := NewService(&fakeSender{}, &fakeMailer{}, Config{DevCode: "444555"}, logger.NewNop())
	sess := newSession()
	require.NoError(t, svc.Request(context.Background(), sess, "supplier@acme.com"))

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	err := svc.Verify(sess, "444555")
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestGeneratedCodeHasSixDigits(t *testing.T) {
	svc := NewService(nil, nil, Config{}, logger.NewNop())

	code, err := svc.generateCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}
