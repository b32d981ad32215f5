package invitation

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/domain"
	"onboarding/internal/wizard"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"
	"onboarding/pkg/validator"
)

type fakeDirectory struct {
	res *domain.EmployeesResponse
	err error
}

func (f *fakeDirectory) Search(ctx context.Context, documentNumber string) (*domain.EmployeesResponse, error) {
	return f.res, f.err
}

type fakeOrders struct {
	got  *domain.InvitationRequest
	res  *domain.InvitationResponse
	err  error
	sent int
}

func (f *fakeOrders) CreateOrder(ctx context.Context, inv *domain.InvitationRequest) (*domain.InvitationResponse, error) {
	f.got = inv
	f.sent++
	return f.res, f.err
}

func newTestService(dir *fakeDirectory, orders *fakeOrders) *Service {
	links := NewLinkBuilder("https://suppliers.example.com/invited", "test-secret", time.Hour)
	svc := NewService(dir, orders, links, validator.New(), logger.NewNop())
	svc.now = func() time.Time { return time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC) }
	return svc
}

func validRequest() *InviteRequest {
	return &InviteRequest{
		DocumentNumber: "900123456",
		Email:          "supplier@acme.com",
		Name:           "Laura Gomez",
		Management:     "Compras",
		Position:       "Analista",
		Country:        "Colombia",
		ProviderType:   "Nacional",
		Classification: "Servicios",
	}
}

func TestSearchReturnsFirstMatch(t *testing.T) {
	dir := &fakeDirectory{res: &domain.EmployeesResponse{Users: []domain.Employee{
		{Name: "Laura Gomez", Email: "lgomez@corp.com"},
		{Name: "Other", Email: "other@corp.com"},
	}}}
	svc := newTestService(dir, &fakeOrders{})

	emp, err := svc.Search(context.Background(), "900123456")
	require.NoError(t, err)
	assert.Equal(t, "Laura Gomez", emp.Name)
}

func TestSearchNoMatch(t *testing.T) {
	dir := &fakeDirectory{res: &domain.EmployeesResponse{}}
	svc := newTestService(dir, &fakeOrders{})

	_, err := svc.Search(context.Background(), "900123456")
	assert.ErrorIs(t, err, apperrors.ErrEmployeeNotFound)
}

func TestSearchEmptyDocument(t *testing.T) {
	svc := newTestService(&fakeDirectory{}, &fakeOrders{})

	_, err := svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDocumentNumber)
}

func TestCreateInvitationBuildsOrderPayload(t *testing.T) {
	orders := &fakeOrders{res: &domain.InvitationResponse{NumServiceOrder: "SO-881", OrderServerID: "srv-12"}}
	svc := newTestService(&fakeDirectory{}, orders)

	res, err := svc.CreateInvitation(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, orders.got)

	assert.Equal(t, "SR", orders.got.CommercialOperationType)
	assert.Equal(t, "supplier@acme.com", orders.got.Observations)

	fields := map[string]string{}
	for _, f := range orders.got.DataFields {
		fields[f.LabelIDField] = f.ValueField
	}
	assert.Equal(t, "Laura Gomez", fields["requestedBy"])
	assert.Equal(t, "Compras", fields["managementWhichItBelongs"])
	assert.Equal(t, "Analista", fields["ApplicantPosition"])
	assert.Equal(t, "Nacional", fields["supplierType"])
	assert.Equal(t, "Servicios", fields["supplierClassification"])
	assert.Equal(t, "05/03/2026", fields["date"])
	assert.Equal(t, "No", fields["isCounterpartySelect"])
	assert.Equal(t, "Colombia", fields["supplierLocation"])

	assert.Equal(t, "SO-881", res.Invitation.NumServiceOrder)
	assert.Contains(t, res.Link, "oc=SO-881")
	assert.Contains(t, res.Link, "os=srv-12")
	assert.Contains(t, res.Link, "sn=co")
	assert.Contains(t, res.Link, "token=")
}

func TestCreateInvitationValidationFails(t *testing.T) {
	orders := &fakeOrders{}
	svc := newTestService(&fakeDirectory{}, orders)

	req := validRequest()
	req.Email = "not-an-email"

	_, err := svc.CreateInvitation(context.Background(), req)
	require.Error(t, err)
	assert.Zero(t, orders.sent)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Invalid email address", valErr.Fields["Email"])
}

func TestCreateInvitationEscapesFreeText(t *testing.T) {
	orders := &fakeOrders{res: &domain.InvitationResponse{NumServiceOrder: "SO-1", OrderServerID: "srv-1"}}
	svc := newTestService(&fakeDirectory{}, orders)

	req := validRequest()
	req.Name = `<script>alert("x")</script>`

	_, err := svc.CreateInvitation(context.Background(), req)
	require.NoError(t, err)

	fields := map[string]string{}
	for _, f := range orders.got.DataFields {
		fields[f.LabelIDField] = f.ValueField
	}
	assert.NotContains(t, fields["requestedBy"], "<script>")
	assert.Contains(t, fields["requestedBy"], "&lt;script&gt;")
}

func TestCreateInvitationOrderFailure(t *testing.T) {
	orders := &fakeOrders{err: apperrors.ErrInvitationFailed}
	svc := newTestService(&fakeDirectory{}, orders)

	_, err := svc.CreateInvitation(context.Background(), validRequest())
	assert.ErrorIs(t, err, apperrors.ErrInvitationFailed)
}

func TestLinkRoundTrip(t *testing.T) {
	b := NewLinkBuilder("https://suppliers.example.com/invited", "test-secret", time.Hour)

	link, err := b.Build("SO-1", "srv-9", "co")
	require.NoError(t, err)

	idx := strings.Index(link, "token=")
	require.Positive(t, idx)
	token := link[idx+len("token="):]

	claims, err := b.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "SO-1", claims.OC)
	assert.Equal(t, "srv-9", claims.OS)
	assert.Equal(t, "co", claims.SN)
}

func TestLinkParamsOpenAssistedSession(t *testing.T) {
	b := NewLinkBuilder("https://suppliers.example.com/invited", "test-secret", time.Hour)

	link, err := b.Build("SO-1", "srv-9", "co")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)

	sess := wizard.NewSession(u.Query())
	assert.Equal(t, "Colombia", sess.State().Country)
	assert.Equal(t, domain.ModeAssisted, sess.State().Mode)
	assert.Equal(t, 3, sess.Documents().Len())
}

func TestLinkExpired(t *testing.T) {
	b := NewLinkBuilder("https://x.test/invited", "test-secret", time.Hour)
	b.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	link, err := b.Build("SO-1", "srv-9", "co")
	require.NoError(t, err)
	token := link[strings.Index(link, "token=")+len("token="):]

	_, err = b.Parse(token)
	assert.ErrorIs(t, err, apperrors.ErrLinkExpired)
}

func TestLinkTampered(t *testing.T) {
	b := NewLinkBuilder("https://x.test/invited", "test-secret", time.Hour)
	other := NewLinkBuilder("https://x.test/invited", "other-secret", time.Hour)

	link, err := other.Build("SO-1", "srv-9", "co")
	require.NoError(t, err)
	token := link[strings.Index(link, "token=")+len("token="):]

	_, err = b.Parse(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidLink)
}
