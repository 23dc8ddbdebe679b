package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductValidate(t *testing.T) {
	p := &Product{UserID: 1, Title: "Fone Bluetooth", URL: "https://www.mercadolivre.com.br/fone/p/MLB123"}
	assert.NoError(t, p.Validate())
}

func TestProductValidateRequiresTitle(t *testing.T) {
	p := &Product{UserID: 1, URL: "https://www.mercadolivre.com.br/fone/p/MLB123"}
	assert.Error(t, p.Validate())
}

func TestProductValidateRejectsBadURL(t *testing.T) {
	p := &Product{UserID: 1, Title: "Fone", URL: "not a url"}
	assert.Error(t, p.Validate())
}

func TestProductValidateAllowsEmptyURL(t *testing.T) {
	p := &Product{UserID: 1, Title: "Consultoria"}
	assert.NoError(t, p.Validate())
}
