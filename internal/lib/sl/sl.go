// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель: единообразно формировать структурированные поля лога
// для ошибок и персональных данных клиентов.
package sl

import (
	"log/slog"
	"strings"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Phone возвращает slog.Attr с номером телефона, в котором видны только
// последние четыре цифры. Полные номера в логи не попадают.
func Phone(phone string) slog.Attr {
	return slog.String("phone", MaskPhone(phone))
}

// MaskPhone заменяет все цифры номера, кроме последних четырёх, на '*'.
func MaskPhone(phone string) string {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	var b strings.Builder
	seen := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			seen++
			if digits-seen >= 4 {
				b.WriteRune('*')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
