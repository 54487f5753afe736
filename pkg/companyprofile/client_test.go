package companyprofile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company/00006400", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"company_name":"THE GIRLS DAY SCHOOL TRUST","type":"ltd","company_status":"active"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)
	profile, err := client.Profile(context.Background(), "00006400")
	require.NoError(t, err)

	assert.Equal(t, "THE GIRLS DAY SCHOOL TRUST", profile.CompanyName)
	assert.Equal(t, "ltd", profile.Type)
	assert.Equal(t, "active", profile.CompanyStatus)
}

func TestProfileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.Profile(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.Profile(context.Background(), "00006400")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestProfileConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed up front so the request fails

	client := NewClient(srv.URL, "", time.Second)
	_, err := client.Profile(context.Background(), "00006400")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestProfileSendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "secret-key", user)
		_, _ = w.Write([]byte(`{"company_name":"X"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", 5*time.Second)
	_, err := client.Profile(context.Background(), "00006400")
	require.NoError(t, err)
}
