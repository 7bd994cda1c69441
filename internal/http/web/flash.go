package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "controtec_flash"

// Виды уведомлений, они же CSS-классы.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash одноразовое уведомление, показываемое после перенаправления.
type Flash struct {
	Kind string `json:"k"`
	Text string `json:"t"`
}

// addFlash дописывает уведомления в cookie ответа. Уже накопленные
// в запросе уведомления сохраняются.
func addFlash(w http.ResponseWriter, r *http.Request, flashes ...Flash) {
	all := append(readFlashes(r), flashes...)
	raw, err := json.Marshal(all)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes возвращает уведомления из запроса и удаляет cookie.
func popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := readFlashes(r)
	if flashes != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return flashes
}

func readFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
