package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/opname-api/pkg/jwt"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testIssuer = "opname-api-test"
)

var testIdentity = pkgjwt.Identity{
	UserID:   "00000000-0000-0000-0000-000000000001",
	OutletID: "00000000-0000-0000-0000-000000000002",
	Role:     "supervisor",
}

func TestJWT_GenerateAndParse_ConIdentidad(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testIdentity, testIssuer, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	id, err := pkgjwt.Parse(testSecret, testIssuer, tok)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, id)
}

func TestJWT_SinOutlet(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Identity{UserID: "u-1", Role: "admin"}, testIssuer, time.Hour)
	require.NoError(t, err)

	id, err := pkgjwt.Parse(testSecret, testIssuer, tok)
	require.NoError(t, err)
	assert.Empty(t, id.OutletID, "admin central no lleva outlet")
}

func TestJWT_TokenExpirado_RetornaErrExpired(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testIdentity, testIssuer, -time.Minute)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, testIssuer, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrExpiredToken)
}

func TestJWT_SecretIncorrecto_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testIdentity, testIssuer, time.Hour)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", testIssuer, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
}

func TestJWT_EmisorDistinto_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testIdentity, "otro-emisor", time.Hour)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, testIssuer, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
}

func TestJWT_Validaciones(t *testing.T) {
	_, err := pkgjwt.Generate("", testIdentity, testIssuer, time.Hour)
	assert.ErrorIs(t, err, pkgjwt.ErrEmptySecret)

	_, err = pkgjwt.Generate(testSecret, pkgjwt.Identity{Role: "admin"}, testIssuer, time.Hour)
	assert.Error(t, err, "user_id es obligatorio")

	_, err = pkgjwt.Parse("", testIssuer, "x.y.z")
	assert.ErrorIs(t, err, pkgjwt.ErrEmptySecret)
}
