// Package message решает, положено ли клиенту сообщение сегодня,
// и собирает его текст из одного из трёх фиксированных шаблонов.
package message

import (
	"strings"
	"time"

	"github.com/magabrotheeeer/controtec/internal/models"
)

// DateLayout формат, в котором дата окончания подставляется в текст.
const DateLayout = "2006-01-02"

// parseLayout принимает год-месяц-день с ведущими нулями и без них: 2024-03-05 и 2024-3-5.
const parseLayout = "2006-1-2"

// ExpirationWindowDays за сколько дней до окончания отправляется напоминание.
const ExpirationWindowDays = 7

const (
	// ExpirationTemplate напоминание об окончании услуги.
	ExpirationTemplate = "Olá {name}! Seu serviço de {product} vence em {date}. " +
		"Temos 10% OFF para renovação essa semana. Responda para agendar!"
	// OfferTemplate рекламное предложение.
	OfferTemplate = "Olá {name}, aproveite nossas promoções especiais em {product} esta semana! " +
		"Visite nossa loja ou responda para mais informações."
	// HolidayTemplate рождественское поздравление.
	HolidayTemplate = "Feliz Natal, {name}! 🎄 Aproveite nossas ofertas especiais para você neste fim de ano!"
)

// Compose возвращает текст сообщения для клиента на дату today
// или пустую строку, если сегодня клиенту ничего не положено.
// Некорректная дата окончания ошибкой не считается: такой клиент просто не подходит.
func Compose(c models.Client, today time.Time) string {
	switch c.Category {
	case models.CategoryExpiration:
		expires, ok := ParseDate(c.ExpirationDate)
		if !ok {
			return ""
		}
		days := DaysUntil(expires, today)
		if days < 0 || days > ExpirationWindowDays {
			return ""
		}
		return render(ExpirationTemplate, c.Name, c.Product, expires.Format(DateLayout))
	case models.CategoryOffer:
		return render(OfferTemplate, c.Name, c.Product, "")
	case models.CategoryHoliday:
		if today.Month() != time.December || today.Day() != 25 {
			return ""
		}
		return render(HolidayTemplate, c.Name, "", "")
	default:
		return ""
	}
}

// ParseDate разбирает дату окончания. Пустая или некорректная строка даёт ok == false.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(parseLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysUntil считает количество календарных дней от today до date.
// Время суток и часовой пояс не учитываются: сравниваются только даты.
func DaysUntil(date, today time.Time) int {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(t).Hours() / 24)
}

func render(tmpl, name, product, date string) string {
	return strings.NewReplacer(
		"{name}", name,
		"{product}", product,
		"{date}", date,
	).Replace(tmpl)
}
