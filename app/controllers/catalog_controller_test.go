package controllers

import (
	"testing"

	"github.com/cosanostra/blacklink/app/models"
	"github.com/stretchr/testify/assert"
)

func TestParsePriceFromBadge(t *testing.T) {
	tests := []struct {
		badge string
		want  string
	}{
		{"R$ 1.299,90", "1.299,90"},
		{"por apenas 59,90 hoje", "59,90"},
		{"1299.90", "1299.90"},
		{"12% OFF", "12"},
		{"frete grátis", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePriceFromBadge(tt.badge), "badge %q", tt.badge)
	}
}

func TestToProductViewFallbacks(t *testing.T) {
	p := &models.Product{
		ID:             7,
		Title:          "Fone Bluetooth",
		Badge:          "R$ 149,90",
		SourceImageURL: "https://http2.mlstatic.com/fone.jpg",
		URL:            "https://www.mercadolivre.com.br/fone/p/MLB123",
	}

	v := toProductView(p)

	assert.Equal(t, uint(7), v.ID)
	assert.Equal(t, "Fone Bluetooth", v.Name)
	assert.Equal(t, "149,90", v.Price, "price falls back to the badge")
	assert.Equal(t, p.SourceImageURL, v.ImageURL, "image falls back to the source copy")
	assert.Equal(t, p.URL, v.Link)
}

func TestToProductViewPrefersOwnFields(t *testing.T) {
	p := &models.Product{
		Title:    "Fone Bluetooth",
		Price:    "129,90",
		Badge:    "R$ 149,90",
		ImageURL: "https://cdn.example.com/mirror.jpg",
	}

	v := toProductView(p)

	assert.Equal(t, "129,90", v.Price)
	assert.Equal(t, "https://cdn.example.com/mirror.jpg", v.ImageURL)
}

func TestSortProductViews(t *testing.T) {
	base := []productView{
		{ID: 1, Name: "banana", Price: "25,00"},
		{ID: 3, Name: "abacaxi", Price: "12,50"},
		{ID: 2, Name: "caju", Price: "90,00"},
	}

	views := append([]productView(nil), base...)
	sortProductViews(views, "id", "desc")
	assert.Equal(t, uint(3), views[0].ID)
	assert.Equal(t, uint(1), views[2].ID)

	views = append([]productView(nil), base...)
	sortProductViews(views, "title", "asc")
	assert.Equal(t, "abacaxi", views[0].Name)
	assert.Equal(t, "caju", views[2].Name)

	views = append([]productView(nil), base...)
	sortProductViews(views, "badge", "asc")
	assert.Equal(t, "12,50", views[0].Price)
	assert.Equal(t, "90,00", views[2].Price)
}
