// Package models содержит доменные структуры CRM: карточку клиента,
// категорию рассылки, а также вспомогательные типы для приёма данных
// из JSON-запросов и HTML-форм.
package models

import "strings"

// Category категория рассылки, закреплённая за клиентом.
// У клиента ровно одна категория; пустая категория допустима и означает,
// что клиенту ничего не отправляется.
type Category string

const (
	CategoryNone       Category = ""
	CategoryExpiration Category = "expiration"
	CategoryOffer      Category = "offer"
	CategoryHoliday    Category = "holiday"
)

// legacyCategories значения, которые записывала первая версия программы.
var legacyCategories = map[string]Category{
	"vencimento": CategoryExpiration,
	"oferta":     CategoryOffer,
	"natal":      CategoryHoliday,
}

// ParseCategory приводит строку к категории. Неизвестные значения
// превращаются в CategoryNone.
func ParseCategory(raw string) Category {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch c := Category(v); c {
	case CategoryExpiration, CategoryOffer, CategoryHoliday:
		return c
	}
	if c, ok := legacyCategories[v]; ok {
		return c
	}
	return CategoryNone
}

// Valid сообщает, является ли категория одной из рабочих.
func (c Category) Valid() bool {
	switch c {
	case CategoryExpiration, CategoryOffer, CategoryHoliday:
		return true
	}
	return false
}

// Label возвращает подпись категории для интерфейса.
func (c Category) Label() string {
	switch c {
	case CategoryExpiration:
		return "Vencimento"
	case CategoryOffer:
		return "Oferta"
	case CategoryHoliday:
		return "Natal"
	default:
		return "—"
	}
}

// Client карточка клиента в хранилище.
// ExpirationDate хранится как введённый текст (ожидается формат 2006-01-02);
// пустая строка означает отсутствие даты.
type Client struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Product        string   `json:"product,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	Category       Category `json:"category,omitempty"`
}

// DummyClient используется для приёма данных из JSON-запроса или формы,
// прежде чем конвертировать их в Client.
type DummyClient struct {
	Name           string `json:"name" validate:"required"`          // Имя клиента
	Phone          string `json:"phone" validate:"required,max=32"`  // Телефон, уникален
	Product        string `json:"product" validate:"max=200"`        // Продукт или услуга
	ExpirationDate string `json:"expiration_date" validate:"max=32"` // Дата окончания, 2006-01-02
	Category       string `json:"category" validate:"category"`      // expiration, offer, holiday
}

// Trim возвращает копию с обрезанными пробелами по краям полей.
func (d DummyClient) Trim() DummyClient {
	return DummyClient{
		Name:           strings.TrimSpace(d.Name),
		Phone:          strings.TrimSpace(d.Phone),
		Product:        strings.TrimSpace(d.Product),
		ExpirationDate: strings.TrimSpace(d.ExpirationDate),
		Category:       strings.TrimSpace(d.Category),
	}
}

// Normalize обрезает пробелы и возвращает карточку без ID.
func (d DummyClient) Normalize() Client {
	t := d.Trim()
	return Client{
		Name:           t.Name,
		Phone:          t.Phone,
		Product:        t.Product,
		ExpirationDate: t.ExpirationDate,
		Category:       ParseCategory(t.Category),
	}
}

// ValidCategoryText сообщает, допустима ли строка категории из запроса:
// пустая строка или одно из известных значений, включая старые.
func ValidCategoryText(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || ParseCategory(raw).Valid()
}

// FromClient заполняет DummyClient из карточки, например для формы редактирования.
func FromClient(c Client) DummyClient {
	return DummyClient{
		Name:           c.Name,
		Phone:          c.Phone,
		Product:        c.Product,
		ExpirationDate: c.ExpirationDate,
		Category:       string(c.Category),
	}
}
