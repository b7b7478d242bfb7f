package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/rescuebox-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse_TiendaConStoreID(t *testing.T) {
	storeID := int64(12)
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Subject{UserID: 3, Email: "tienda@rescuebox.test", Role: "store", StoreID: &storeID}, "rescuebox-test", 60)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, "3", claims.Subject)
	assert.Equal(t, "store", claims.Role)
	require.NotNil(t, claims.StoreID)
	assert.Equal(t, storeID, *claims.StoreID)
}

func TestGenerateAndParse_UsuarioSinStoreID(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Subject{UserID: 9, Role: "user"}, "rescuebox-test", 60)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Nil(t, claims.StoreID)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Subject{UserID: 1, Role: "user"}, "rescuebox-test", -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Subject{UserID: 1, Role: "admin"}, "rescuebox-test", 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", pkgjwt.Subject{UserID: 1}, "x", 60)
	assert.Error(t, err)
}
