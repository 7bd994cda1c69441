package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"expiration", CategoryExpiration},
		{"Offer", CategoryOffer},
		{" holiday ", CategoryHoliday},
		{"vencimento", CategoryExpiration},
		{"oferta", CategoryOffer},
		{"Natal", CategoryHoliday},
		{"", CategoryNone},
		{"birthday", CategoryNone},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCategory(tt.raw))
		})
	}
}

func TestCategoryValidAndLabel(t *testing.T) {
	assert.True(t, CategoryExpiration.Valid())
	assert.True(t, CategoryOffer.Valid())
	assert.True(t, CategoryHoliday.Valid())
	assert.False(t, CategoryNone.Valid())
	assert.False(t, Category("birthday").Valid())

	assert.Equal(t, "Vencimento", CategoryExpiration.Label())
	assert.Equal(t, "Oferta", CategoryOffer.Label())
	assert.Equal(t, "Natal", CategoryHoliday.Label())
	assert.Equal(t, "—", CategoryNone.Label())
}

func TestDummyClient_Normalize(t *testing.T) {
	d := DummyClient{
		Name:           "  Ana ",
		Phone:          " +551199999999",
		Product:        "Plano X ",
		ExpirationDate: " 2024-12-28 ",
		Category:       "Vencimento",
	}

	got := d.Normalize()
	assert.Equal(t, Client{
		Name:           "Ana",
		Phone:          "+551199999999",
		Product:        "Plano X",
		ExpirationDate: "2024-12-28",
		Category:       CategoryExpiration,
	}, got)

	assert.Equal(t, DummyClient{
		Name:           "Ana",
		Phone:          "+551199999999",
		Product:        "Plano X",
		ExpirationDate: "2024-12-28",
		Category:       "expiration",
	}, FromClient(got))
}

func TestValidCategoryText(t *testing.T) {
	assert.True(t, ValidCategoryText(""))
	assert.True(t, ValidCategoryText("  "))
	assert.True(t, ValidCategoryText("oferta"))
	assert.True(t, ValidCategoryText("holiday"))
	assert.False(t, ValidCategoryText("sms"))
}
