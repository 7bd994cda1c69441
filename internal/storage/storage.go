// Package storage описывает ошибки слоя хранения, общие для всех драйверов.
package storage

import "errors"

var (
	// ErrClientNotFound клиента с таким ID нет.
	ErrClientNotFound = errors.New("client not found")
	// ErrPhoneExists телефон уже принадлежит другому клиенту.
	ErrPhoneExists = errors.New("phone already exists")
)
