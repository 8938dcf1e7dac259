package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "fintrack-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, []string{RoleUser})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{RoleUser}, claims.Roles)
	assert.Equal(t, "fintrack-test", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestNewJWTService_RequiresKeyMaterial(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Issuer: "fintrack"})
	require.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService(t)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "fintrack-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: uuid.New(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-for-unit-tests"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_InvalidSignature(t *testing.T) {
	svc := newTestJWTService(t)
	other, err := NewJWTService(JWTConfig{Secret: "another-secret", Issuer: "fintrack-test"})
	require.NoError(t, err)

	token, err := other.GenerateToken(uuid.New(), nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	svc := newTestJWTService(t)
	other, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "someone-else"})
	require.NoError(t, err)

	token, err := other.GenerateToken(uuid.New(), nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestHasRole(t *testing.T) {
	c := Claims{Roles: []string{RoleUser, RoleImporter}}
	assert.True(t, c.HasRole(RoleImporter))
	assert.False(t, c.HasRole(RoleAdmin))
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	userID := uuid.New()
	ctx := ContextWithClaims(context.Background(), &Claims{UserID: userID})
	got, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, userID, got)
}

func TestAuthenticator_Unary(t *testing.T) {
	svc := newTestJWTService(t)
	interceptor := NewAuthenticator(svc, "/grpc.health.v1.Health/Check").Unary()
	userID := uuid.New()

	var seen uuid.UUID
	handler := func(ctx context.Context, _ any) (any, error) {
		seen, _ = UserIDFromContext(ctx)
		return "ok", nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/fintrack.loans.v1.LoanService/GetLoan"}
	token, err := svc.GenerateToken(userID, []string{RoleUser})
	require.NoError(t, err)

	t.Run("passes public methods through", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
		require.NoError(t, err)
	})

	tests := []struct {
		name   string
		header []string
		code   codes.Code
	}{
		{name: "no metadata", code: codes.Unauthenticated},
		{name: "empty bearer", header: []string{"Bearer "}, code: codes.Unauthenticated},
		{name: "garbage token", header: []string{"Bearer nope"}, code: codes.Unauthenticated},
		{name: "bearer scheme", header: []string{"Bearer " + token}, code: codes.OK},
		{name: "lowercase scheme", header: []string{"bearer " + token}, code: codes.OK},
		{name: "bare token", header: []string{token}, code: codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil
			ctx := context.Background()
			if tt.header != nil {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.header[0]))
			}

			resp, err := interceptor(ctx, nil, info, handler)
			assert.Equal(t, tt.code, status.Code(err))
			if tt.code == codes.OK {
				assert.Equal(t, "ok", resp)
				assert.Equal(t, userID, seen)
			}
		})
	}
}

func TestWithBearerToken(t *testing.T) {
	ctx := WithBearerToken(context.Background(), "abc")
	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"Bearer abc"}, md.Get("authorization"))
}
