package linkguardian

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMercadoLivreURL(t *testing.T) {
	assert.True(t, IsMercadoLivreURL("https://www.mercadolivre.com.br/fone/p/MLB123"))
	assert.True(t, IsMercadoLivreURL("https://produto.mercadolivre.com.br/MLB-456"))
	assert.True(t, IsMercadoLivreURL("https://articulo.mercadolibre.com.ar/MLA-789"))
	assert.True(t, IsMercadoLivreURL("  HTTPS://WWW.MERCADOLIVRE.COM.BR/x "))

	assert.False(t, IsMercadoLivreURL("https://amazon.com.br/dp/B0"))
	assert.False(t, IsMercadoLivreURL("https://shopee.com.br/item"))
	assert.False(t, IsMercadoLivreURL(""))
}

func TestGuardianSingleton(t *testing.T) {
	assert.Same(t, GetGuardian(), GetGuardian())
}
