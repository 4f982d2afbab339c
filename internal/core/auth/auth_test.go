package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-api/internal/domain"
)

func TestSigner_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &Signer{Secret: []byte("s3cret"), Issuer: "portfolio-api", Now: func() time.Time { return now }}

	signed, err := s.Sign("opaque-token", now.Add(time.Hour))
	require.NoError(t, err)

	tok, err := s.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", tok)
}

func TestSigner_Rejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &Signer{Secret: []byte("s3cret"), Issuer: "portfolio-api", Now: func() time.Time { return now }}
	signed, err := s.Sign("tok", now.Add(time.Hour))
	require.NoError(t, err)

	other := &Signer{Secret: []byte("other"), Issuer: "portfolio-api", Now: s.Now}
	_, err = other.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidCookie)

	wrongIss := &Signer{Secret: []byte("s3cret"), Issuer: "someone", Now: s.Now}
	_, err = wrongIss.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidCookie)

	later := &Signer{Secret: []byte("s3cret"), Issuer: "portfolio-api", Now: func() time.Time { return now.Add(2 * time.Hour) }}
	_, err = later.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidCookie)

	_, err = s.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidCookie)

	forged, err := s.Sign("someone-else", now.Add(time.Hour))
	require.NoError(t, err)
	a, b := strings.Split(signed, "."), strings.Split(forged, ".")
	_, err = s.Parse(a[0] + "." + b[1] + "." + a[2])
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestGates(t *testing.T) {
	admin := &domain.Principal{AccountID: "1", Username: "admin", Role: domain.RoleAdmin}
	blogger := &domain.Principal{AccountID: "2", Username: "b", Role: domain.RoleBlogger}
	reader := &domain.Principal{AccountID: "3", Username: "r", Role: domain.RoleReader}

	tests := []struct {
		name string
		gate func(*domain.Principal) error
		p    *domain.Principal
		want error
	}{
		{"authenticated nil", Authenticated, nil, domain.ErrUnauthenticated},
		{"authenticated reader", Authenticated, reader, nil},
		{"admin nil", Admin, nil, domain.ErrUnauthenticated},
		{"admin blogger", Admin, blogger, domain.ErrForbidden},
		{"admin admin", Admin, admin, nil},
		{"posts reader", BloggerOrAdmin, reader, domain.ErrForbidden},
		{"posts blogger", BloggerOrAdmin, blogger, nil},
		{"posts admin", BloggerOrAdmin, admin, nil},
		{"posts nil", BloggerOrAdmin, nil, domain.ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gate(tt.p)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGateMessages(t *testing.T) {
	assert.EqualError(t, Authenticated(nil), "Not authenticated")
	assert.EqualError(t, Admin(&domain.Principal{Role: domain.RoleReader}), "Admin access required")
	assert.EqualError(t, BloggerOrAdmin(&domain.Principal{Role: domain.RoleReader}), "Blogger or admin access required")
}
