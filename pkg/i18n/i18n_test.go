package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizerPortugueseDefault(t *testing.T) {
	Init()
	loc := NewLocalizer("pt-BR")

	assert.Equal(t, "Carrinho Criado!", loc.T("CartCreatedTitle", nil))
	assert.Equal(t, "Banana atualizado no carrinho.", loc.T("CartItemUpdatedDescription", map[string]any{"Name": "Banana"}))
}

func TestLocalizerEnglish(t *testing.T) {
	Init()
	loc := NewLocalizer("en")

	assert.Equal(t, "Cart cleared", loc.T("CartClearedTitle", nil))
}

func TestLocalizerUnknownIDReturnsID(t *testing.T) {
	Init()
	loc := NewLocalizer("en")

	assert.Equal(t, "NoSuchMessage", loc.T("NoSuchMessage", nil))
}

func TestLoadExtraCatalog(t *testing.T) {
	Init()
	path := filepath.Join(t.TempDir(), "active.es.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"CartClearedTitle": "Carrito vacío"}`), 0o600))

	require.NoError(t, Load(path))
	assert.Equal(t, "Carrito vacío", NewLocalizer("es").T("CartClearedTitle", nil))
}
