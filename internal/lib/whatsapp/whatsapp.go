// Package whatsapp отправляет сообщения через WhatsApp Web, управляя
// локальным браузером. Одновременно выполняется только одна отправка;
// каждое сообщение уходит в начале минуты now+SendOffset.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/controtec/internal/config"
	"github.com/magabrotheeeer/controtec/internal/lib/sl"
)

// ErrInvalidPhone возвращается для номеров, из которых нельзя собрать адрес чата.
var ErrInvalidPhone = errors.New("invalid phone number")

const (
	baseURL        = "https://web.whatsapp.com/send"
	minPhoneDigits = 8

	sendButtonSelector = `span[data-icon="send"], button[aria-label="Send"], button[aria-label="Enviar"]`
	settleTimeout      = 5 * time.Second
)

// Messenger фасад отправки через WhatsApp Web.
type Messenger struct {
	cfg     config.Messenger
	log     *slog.Logger
	limiter *rate.Limiter

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher

	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	deliver func(ctx context.Context, chatURL string) error
}

// New создаёт мессенджер. Браузер запускается при первой отправке.
func New(cfg config.Messenger, log *slog.Logger) *Messenger {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	m := &Messenger{
		cfg:     cfg,
		log:     log,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		sleep:   sleepCtx,
	}
	m.deliver = m.deliverRod
	return m
}

// Send отправляет text на номер phone. Вызов блокируется до момента отправки,
// то есть примерно на SendOffset, и дольше, если идут другие отправки.
func (m *Messenger) Send(ctx context.Context, phone, text string) error {
	const op = "whatsapp.Send"

	digits, err := NormalizePhone(phone)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := m.now()
	at := SlotTime(now, m.cfg.SendOffset)
	log := m.log.With(slog.String("op", op), sl.Phone(phone))
	hour, minute := NextSlot(now, m.cfg.SendOffset)
	log.Info("message scheduled", slog.Int("hour", hour), slog.Int("minute", minute))

	if err := m.sleep(ctx, at.Sub(now)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.deliver(ctx, ChatURL(digits, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("message sent")
	return nil
}

// Close закрывает браузер, если он был запущен.
func (m *Messenger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.launcher != nil {
		m.launcher.Kill()
		m.launcher = nil
	}
	return err
}

// SlotTime возвращает момент отправки: начало минуты, в которую попадает now+offset.
func SlotTime(now time.Time, offset time.Duration) time.Time {
	return now.Add(offset).Truncate(time.Minute)
}

// NextSlot возвращает час и минуту отправки с учётом перехода через час и полночь.
func NextSlot(now time.Time, offset time.Duration) (hour, minute int) {
	at := SlotTime(now, offset)
	return at.Hour(), at.Minute()
}

// NormalizePhone оставляет в номере только цифры.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() < minPhoneDigits {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return b.String(), nil
}

// ChatURL собирает адрес чата с подставленным текстом.
func ChatURL(digits, text string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return baseURL + "?phone=" + digits + "&text=" + escaped
}

func (m *Messenger) deliverRod(ctx context.Context, chatURL string) error {
	browser, err := m.ensureBrowser()
	if err != nil {
		return err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: chatURL})
	if err != nil {
		return fmt.Errorf("open chat: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	p := page.Context(ctx).Timeout(m.cfg.PageTimeout)
	defer p.CancelTimeout()

	btn, err := p.Element(sendButtonSelector)
	if err != nil {
		return fmt.Errorf("wait send button: %w", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click send: %w", err)
	}
	if err := p.WaitIdle(settleTimeout); err != nil {
		m.log.Debug("page did not settle after send", sl.Err(err))
	}
	return nil
}

// ensureBrowser вызывается под m.mu.
func (m *Messenger) ensureBrowser() (*rod.Browser, error) {
	if m.browser != nil {
		return m.browser, nil
	}

	controlURL := m.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(m.cfg.Headless)
		if m.cfg.UserDataDir != "" {
			l = l.UserDataDir(m.cfg.UserDataDir)
		}
		if m.cfg.BrowserBin != "" {
			l = l.Bin(m.cfg.BrowserBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		m.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if m.launcher != nil {
			m.launcher.Kill()
			m.launcher = nil
		}
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	m.browser = browser
	m.log.Info("browser connected", slog.Bool("launched", m.launcher != nil))
	return browser, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
