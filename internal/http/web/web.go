// Package web реализует HTML-интерфейс CRM: список клиентов, формы
// добавления и редактирования, удаление и запуск рассылки.
// Результат каждого действия показывается уведомлением на следующей странице.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/controtec/internal/lib/sl"
	"github.com/magabrotheeeer/controtec/internal/models"
	clientservice "github.com/magabrotheeeer/controtec/internal/services/client"
	"github.com/magabrotheeeer/controtec/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Тексты уведомлений.
const (
	msgRequired      = "Nome e telefone são obrigatórios!"
	msgBadCategory   = "Tipo de mensagem inválido!"
	msgInvalid       = "Dados inválidos!"
	msgAdded         = "Cliente adicionado com sucesso!"
	msgPhoneExists   = "Telefone já cadastrado!"
	msgAddFailed     = "Falha ao adicionar cliente."
	msgNotFound      = "Cliente não encontrado."
	msgUpdated       = "Cliente atualizado com sucesso!"
	msgUpdateFailed  = "Falha ao atualizar (telefone pode já estar cadastrado)."
	msgDeleted       = "Cliente excluído com sucesso."
	msgDeleteFailed  = "Falha ao excluir cliente."
	msgScheduled     = "%d mensagens agendadas."
	msgScheduleFail  = "Falha ao agendar para: %s"
	msgSweepFailed   = "Falha ao carregar clientes para envio."
	msgListFailed    = "Falha ao carregar clientes."
	internalErrorMsg = "Erro interno"
)

// Clients описывает операции над клиентами, нужные интерфейсу.
type Clients interface {
	Create(ctx context.Context, req models.DummyClient) (int64, error)
	Read(ctx context.Context, id int64) (*models.Client, error)
	Update(ctx context.Context, id int64, req models.DummyClient) (*models.Client, error)
	Remove(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.Client, error)
}

// Dispatcher запускает рассылку.
type Dispatcher interface {
	Sweep(ctx context.Context) (models.SweepReport, error)
}

// Handler обслуживает HTML-страницы.
type Handler struct {
	log        *slog.Logger
	clients    Clients
	dispatcher Dispatcher
	pages      map[string]*template.Template
}

type categoryOption struct {
	Value string
	Label string
}

type pageData struct {
	Title      string
	Flashes    []Flash
	Clients    []*models.Client
	Form       models.DummyClient
	Action     string
	Categories []categoryOption
}

var categoryOptions = []categoryOption{
	{Value: "", Label: models.CategoryNone.Label()},
	{Value: string(models.CategoryExpiration), Label: models.CategoryExpiration.Label()},
	{Value: string(models.CategoryOffer), Label: models.CategoryOffer.Label()},
	{Value: string(models.CategoryHoliday), Label: models.CategoryHoliday.Label()},
}

// New разбирает шаблоны и создаёт Handler.
func New(log *slog.Logger, clients Clients, dispatcher Dispatcher) (*Handler, error) {
	const op = "web.New"
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index.html", "form.html"} {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pages[name] = t
	}
	return &Handler{
		log:        log,
		clients:    clients,
		dispatcher: dispatcher,
		pages:      pages,
	}, nil
}

// Routes регистрирует страницы интерфейса.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.index)
	r.Get("/add", h.addForm)
	r.Post("/add", h.add)
	r.Get("/edit/{id}", h.editForm)
	r.Post("/edit/{id}", h.edit)
	r.Post("/delete/{id}", h.remove)
	r.Post("/send", h.send)
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	const op = "web.index"
	log := h.logger(r, op)

	data := pageData{Title: "Clientes", Flashes: popFlashes(w, r)}
	clients, err := h.clients.List(r.Context())
	if err != nil {
		log.Error("failed to list clients", sl.Err(err))
		data.Flashes = append(data.Flashes, Flash{Kind: FlashError, Text: msgListFailed})
	}
	data.Clients = clients
	h.render(w, log, "index.html", data)
}

func (h *Handler) addForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.logger(r, "web.addForm"), "form.html", pageData{
		Title:      "Novo cliente",
		Flashes:    popFlashes(w, r),
		Action:     "/add",
		Categories: categoryOptions,
	})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	const op = "web.add"
	log := h.logger(r, op)

	_, err := h.clients.Create(r.Context(), formClient(r))
	switch {
	case err == nil:
		addFlash(w, r, Flash{Kind: FlashSuccess, Text: msgAdded})
		redirect(w, r, "/")
	case errors.Is(err, storage.ErrPhoneExists):
		addFlash(w, r, Flash{Kind: FlashError, Text: msgPhoneExists})
		redirect(w, r, "/add")
	case isValidation(err):
		addFlash(w, r, Flash{Kind: FlashError, Text: validationText(err)})
		redirect(w, r, "/add")
	default:
		log.Error("failed to create client", sl.Err(err))
		addFlash(w, r, Flash{Kind: FlashError, Text: msgAddFailed})
		redirect(w, r, "/add")
	}
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	const op = "web.editForm"
	log := h.logger(r, op)

	id, ok := clientID(r)
	if !ok {
		addFlash(w, r, Flash{Kind: FlashError, Text: msgNotFound})
		redirect(w, r, "/")
		return
	}
	c, err := h.clients.Read(r.Context(), id)
	if err != nil {
		if !errors.Is(err, storage.ErrClientNotFound) {
			log.Error("failed to read client", slog.Int64("id", id), sl.Err(err))
		}
		addFlash(w, r, Flash{Kind: FlashError, Text: msgNotFound})
		redirect(w, r, "/")
		return
	}

	h.render(w, log, "form.html", pageData{
		Title:      "Editar cliente",
		Flashes:    popFlashes(w, r),
		Form:       models.FromClient(*c),
		Action:     fmt.Sprintf("/edit/%d", id),
		Categories: categoryOptions,
	})
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	const op = "web.edit"
	log := h.logger(r, op)

	id, ok := clientID(r)
	if !ok {
		addFlash(w, r, Flash{Kind: FlashError, Text: msgNotFound})
		redirect(w, r, "/")
		return
	}

	_, err := h.clients.Update(r.Context(), id, formClient(r))
	switch {
	case err == nil:
		addFlash(w, r, Flash{Kind: FlashSuccess, Text: msgUpdated})
		redirect(w, r, "/")
	case errors.Is(err, storage.ErrClientNotFound):
		addFlash(w, r, Flash{Kind: FlashError, Text: msgNotFound})
		redirect(w, r, "/")
	case isValidation(err):
		addFlash(w, r, Flash{Kind: FlashError, Text: validationText(err)})
		redirect(w, r, fmt.Sprintf("/edit/%d", id))
	default:
		if !errors.Is(err, storage.ErrPhoneExists) {
			log.Error("failed to update client", slog.Int64("id", id), sl.Err(err))
		}
		addFlash(w, r, Flash{Kind: FlashError, Text: msgUpdateFailed})
		redirect(w, r, "/")
	}
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	const op = "web.remove"
	log := h.logger(r, op)

	id, ok := clientID(r)
	if !ok {
		addFlash(w, r, Flash{Kind: FlashError, Text: msgNotFound})
		redirect(w, r, "/")
		return
	}

	err := h.clients.Remove(r.Context(), id)
	switch {
	case err == nil:
		addFlash(w, r, Flash{Kind: FlashSuccess, Text: msgDeleted})
	case errors.Is(err, storage.ErrClientNotFound):
		addFlash(w, r, Flash{Kind: FlashError, Text: msgNotFound})
	default:
		log.Error("failed to remove client", slog.Int64("id", id), sl.Err(err))
		addFlash(w, r, Flash{Kind: FlashError, Text: msgDeleteFailed})
	}
	redirect(w, r, "/")
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	const op = "web.send"
	log := h.logger(r, op)

	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("write deadline not lifted", sl.Err(err))
	}

	report, err := h.dispatcher.Sweep(context.WithoutCancel(r.Context()))
	if err != nil {
		log.Error("dispatch failed", sl.Err(err))
		addFlash(w, r, Flash{Kind: FlashError, Text: msgSweepFailed})
		redirect(w, r, "/")
		return
	}

	flashes := []Flash{{Kind: FlashSuccess, Text: fmt.Sprintf(msgScheduled, report.Sent)}}
	if len(report.FailedRecipients) > 0 {
		flashes = append(flashes, Flash{
			Kind: FlashError,
			Text: fmt.Sprintf(msgScheduleFail, strings.Join(report.FailedRecipients, ", ")),
		})
	}
	addFlash(w, r, flashes...)
	redirect(w, r, "/")
}

func (h *Handler) render(w http.ResponseWriter, log *slog.Logger, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[name].ExecuteTemplate(w, "layout", data); err != nil {
		log.Error("failed to render page", slog.String("page", name), sl.Err(err))
		http.Error(w, internalErrorMsg, http.StatusInternalServerError)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func clientID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// formClient читает поля формы. Имена полей совпадают с первой версией интерфейса.
func formClient(r *http.Request) models.DummyClient {
	return models.DummyClient{
		Name:           r.PostFormValue("nome"),
		Phone:          r.PostFormValue("telefone"),
		Product:        r.PostFormValue("produto"),
		ExpirationDate: r.PostFormValue("vencimento"),
		Category:       r.PostFormValue("tipo"),
	}
}

func isValidation(err error) bool {
	return errors.Is(err, clientservice.ErrValidation)
}

func validationText(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgInvalid
	}
	text := msgInvalid
	for _, fe := range verrs {
		switch {
		case fe.ActualTag() == "required":
			return msgRequired
		case fe.Field() == "Category":
			text = msgBadCategory
		}
	}
	return text
}
