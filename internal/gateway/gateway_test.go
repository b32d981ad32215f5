package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onboarding/internal/domain"
	"onboarding/internal/extraction"
	apperrors "onboarding/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1094123456", r.URL.Query().Get("documentNumber"))
		json.NewEncoder(w).Encode(domain.EmployeesResponse{
			TotalRecords: 1,
			Users: []domain.Employee{{
				DocumentNumber: "1094123456",
				Name:           "Jane Roe",
				Management:     "Compras",
			}},
		})
	}))
	defer srv.Close()

	c := NewEmployeeClient(srv.URL, time.Second)
	res, err := c.Search(context.Background(), "1094123456")
	require.NoError(t, err)
	require.Len(t, res.Users, 1)
	assert.Equal(t, "Jane Roe", res.Users[0].Name)
}

func TestEmployeeSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewEmployeeClient(srv.URL, time.Second)
	_, err := c.Search(context.Background(), "1094123456")
	assert.Error(t, err)
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var req domain.InvitationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SR", req.CommercialOperationType)

		json.NewEncoder(w).Encode(domain.InvitationResponse{
			NumServiceOrder: "OC-100",
			OrderServerID:   "OS-200",
		})
	}))
	defer srv.Close()

	c := NewOrderClient(srv.URL, srv.URL, "secret-token", time.Second)
	resp, err := c.CreateOrder(context.Background(), &domain.InvitationRequest{
		CommercialOperationType: "SR",
	})
	require.NoError(t, err)
	assert.Equal(t, "OC-100", resp.NumServiceOrder)
	assert.Equal(t, "OS-200", resp.OrderServerID)
}

func TestCreateOrderSurfacesRemoteMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Proveedor ya registrado"})
	}))
	defer srv.Close()

	c := NewOrderClient(srv.URL, srv.URL, "t", time.Second)
	_, err := c.CreateOrder(context.Background(), &domain.InvitationRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Proveedor ya registrado")
}

func TestValidateOpenRedirectMeansProceed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OC-100", r.URL.Query().Get("oc"))
		assert.Equal(t, "OS-200", r.URL.Query().Get("os"))
		assert.Equal(t, "CO", r.URL.Query().Get("sn"))
		http.Redirect(w, r, "http://example.test/next", http.StatusFound)
	}))
	defer srv.Close()

	c := NewOrderClient(srv.URL, srv.URL, "t", time.Second)
	assert.NoError(t, c.ValidateOpen(context.Background(), "OC-100", "OS-200", "CO"))
}

func TestValidateOpenRejectionCarriesLocalizedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(domain.LocalizedMessage{
			Es: "La orden ya fue cerrada",
			En: "The order is already closed",
		})
	}))
	defer srv.Close()

	c := NewOrderClient(srv.URL, srv.URL, "t", time.Second)
	err := c.ValidateOpen(context.Background(), "OC-100", "OS-200", "CO")
	require.Error(t, err)

	var orderErr *OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.ErrorIs(t, err, apperrors.ErrOrderRejected)
	assert.Equal(t, "La orden ya fue cerrada", orderErr.Message.Es)
	assert.Equal(t, "The order is already closed", orderErr.Message.En)
	assert.Equal(t, "La orden ya fue cerrada", orderErr.Error())
}

func TestTokenSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "proveedor@ejemplo.com", body["email"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewTokenClient(srv.URL, time.Second)
	assert.True(t, c.Enabled())
	assert.NoError(t, c.Send(context.Background(), "proveedor@ejemplo.com"))
}

func TestTokenClientDisabled(t *testing.T) {
	assert.False(t, NewTokenClient("", time.Second).Enabled())
}

func TestExtractionSubmitMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Bearer extract-token", r.Header.Get("Authorization"))
		assert.Equal(t, "rut", r.FormValue("docType"))

		var render map[string]int
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("render")), &render))
		assert.Equal(t, 200, render["dpi"])
		assert.Equal(t, 1, render["pages"])

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "rut.pdf", header.Filename)

		json.NewEncoder(w).Encode(map[string]string{"jobId": "job-7"})
	}))
	defer srv.Close()

	c := NewExtractionClient(srv.URL, srv.URL, "extract-token", 200, 1, time.Second)
	jobID, err := c.Submit(context.Background(), extraction.SubmitRequest{
		FileName: "rut.pdf",
		Data:     []byte("%PDF-1.4"),
		DocType:  "rut",
	})
	require.NoError(t, err)
	assert.Equal(t, "job-7", jobID)
}

func TestExtractionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "job-7", r.URL.Query().Get("jobId"))
		json.NewEncoder(w).Encode(extraction.StatusResponse{
			Status:   "in_progress",
			Progress: 40,
		})
	}))
	defer srv.Close()

	c := NewExtractionClient(srv.URL, srv.URL, "t", 200, 1, time.Second)
	resp, err := c.Status(context.Background(), "job-7")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", resp.Status)
	assert.Equal(t, 40, resp.Progress)
}

func TestExtractionStatus404IsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewExtractionClient(srv.URL, srv.URL, "t", 200, 1, time.Second)
	resp, err := c.Status(context.Background(), "job-7")
	require.NoError(t, err)
	assert.Equal(t, "not_found", resp.Status)
}

func TestRegistrationSave(t *testing.T) {
	var got domain.SubmissionPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer reg-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewRegistrationClient(srv.URL, "reg-token", time.Second)
	require.True(t, c.Enabled())

	err := c.Save(context.Background(), &domain.SubmissionPayload{
		Country: "Colombia",
		Mode:    domain.ModeManual,
		BusinessData: domain.BusinessData{
			BusinessName: "ACME SAS",
			NIT:          "900123456",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Colombia", got.Country)
	assert.Equal(t, "ACME SAS", got.BusinessData.BusinessName)
}

func TestRegistrationSaveSurfacesRemoteMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"es": "Registro duplicado.", "en": "Duplicate registration."},
		})
	}))
	defer srv.Close()

	c := NewRegistrationClient(srv.URL, "", time.Second)
	err := c.Save(context.Background(), &domain.SubmissionPayload{Country: "Colombia"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Registro duplicado.")
}

func TestRegistrationClientDisabled(t *testing.T) {
	c := NewRegistrationClient("", "", time.Second)
	assert.False(t, c.Enabled())
}
