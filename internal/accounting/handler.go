package accounting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/journals"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/mappings"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/periods"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/reports"
	"github.com/HcVm/bytek-core-sub001/internal/platform/httpx"
	"github.com/HcVm/bytek-core-sub001/internal/shared"
)

// IdempotencyHeader lets API clients retry a manual posting safely.
const IdempotencyHeader = "Idempotency-Key"

// AccountService manages the chart of accounts.
type AccountService interface {
	List(ctx context.Context) ([]accounts.Account, error)
	FindByCode(ctx context.Context, code string) (accounts.Account, error)
	Create(ctx context.Context, in accounts.CreateInput) (accounts.Account, error)
}

// PeriodService manages the period registry.
type PeriodService interface {
	List(ctx context.Context) ([]periods.Period, error)
	Create(ctx context.Context, in periods.CreateInput) (periods.Period, error)
	Close(ctx context.Context, id, actorID int64) (periods.Period, error)
}

// JournalService posts and reads journal entries.
type JournalService interface {
	Post(ctx context.Context, in journals.PostingInput) (journals.JournalEntry, error)
	List(ctx context.Context, filter journals.ListFilter) ([]journals.JournalEntry, error)
	Get(ctx context.Context, id int64) (journals.JournalEntry, error)
}

// LedgerService replays account movements.
type LedgerService interface {
	LedgerForAccount(ctx context.Context, accountID int64) (ledger.LedgerView, error)
}

// ReportService builds financial statements.
type ReportService interface {
	TrialBalance(ctx context.Context) (reports.TrialBalance, error)
	BalanceSheet(ctx context.Context) (reports.BalanceSheet, error)
	IncomeStatement(ctx context.Context) (reports.IncomeStatement, error)
}

// MappingService maintains integration account mappings.
type MappingService interface {
	List(ctx context.Context, module string) ([]mappings.AccountMapping, error)
	Set(ctx context.Context, module, key string, accountID int64) error
}

// Handler serves the accounting JSON API.
type Handler struct {
	logger    *slog.Logger
	accounts  AccountService
	periods   PeriodService
	journals  JournalService
	ledger    LedgerService
	reports   ReportService
	mappings  MappingService
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, accounts AccountService, periods PeriodService, journals JournalService, ledger LedgerService, reports ReportService, mappings MappingService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		accounts:  accounts,
		periods:   periods,
		journals:  journals,
		ledger:    ledger,
		reports:   reports,
		mappings:  mappings,
		validator: validator.New(),
	}
}

// MountRoutes registers the accounting routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.listAccounts)
	r.Post("/accounts", h.createAccount)
	r.Get("/accounts/{code}", h.getAccount)

	r.Get("/periods", h.listPeriods)
	r.Post("/periods", h.createPeriod)
	r.Post("/periods/{id}/close", h.closePeriod)

	r.Get("/journals", h.listJournals)
	r.Post("/journals", h.postJournal)
	r.Get("/journals/{id}", h.getJournal)

	r.Get("/ledger/{accountID}", h.accountLedger)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/income-statement", h.incomeStatement)
	})

	r.Get("/mappings", h.listMappings)
	r.Put("/mappings/{module}/{key}", h.setMapping)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	items, err := h.accounts.List(r.Context())
	if err != nil {
		h.respondError(w, r, "list accounts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.respondError(w, r, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	var req CreateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	account, err := h.accounts.Create(r.Context(), req.input())
	if err != nil {
		h.respondError(w, r, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	items, err := h.periods.List(r.Context())
	if err != nil {
		h.respondError(w, r, "list periods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createPeriod(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req CreatePeriodRequest
	if !h.decode(w, r, &req) {
		return
	}
	period, err := h.periods.Create(r.Context(), req.input(actorID))
	if err != nil {
		h.respondError(w, r, "create period", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, period)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	period, err := h.periods.Close(r.Context(), id, actorID)
	if err != nil {
		h.respondError(w, r, "close period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) listJournals(w http.ResponseWriter, r *http.Request) {
	page := shared.PaginationFromQuery(r.URL.Query())
	items, err := h.journals.List(r.Context(), journals.ListFilter{Limit: page.Limit(), Offset: page.Offset()})
	if err != nil {
		h.respondError(w, r, "list journals", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "page": page})
}

func (h *Handler) getJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.journals.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) postJournal(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req PostJournalRequest
	if !h.decode(w, r, &req) {
		return
	}
	sourceID := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if sourceID == "" {
		sourceID = uuid.NewString()
	}
	input, err := req.input(actorID, sourceID)
	if err != nil {
		httpx.WriteProblem(w, validationProblem(err))
		return
	}
	entry, err := h.journals.Post(r.Context(), input)
	if err != nil {
		h.respondError(w, r, "post journal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, PostJournalResponse{ID: entry.ID, Number: entry.Number, SourceID: entry.SourceID})
}

func (h *Handler) accountLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "accountID")
	if !ok {
		return
	}
	view, err := h.ledger.LedgerForAccount(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "account ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := h.reports.TrialBalance(r.Context())
	if err != nil {
		h.respondError(w, r, "trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	bs, err := h.reports.BalanceSheet(r.Context())
	if err != nil {
		h.respondError(w, r, "balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	pl, err := h.reports.IncomeStatement(r.Context())
	if err != nil {
		h.respondError(w, r, "income statement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

func (h *Handler) listMappings(w http.ResponseWriter, r *http.Request) {
	items, err := h.mappings.List(r.Context(), r.URL.Query().Get("module"))
	if err != nil {
		h.respondError(w, r, "list mappings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) setMapping(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	var req SetMappingRequest
	if !h.decode(w, r, &req) {
		return
	}
	module, key := chi.URLParam(r, "module"), chi.URLParam(r, "key")
	if err := h.mappings.Set(r.Context(), module, key, req.AccountID); err != nil {
		h.respondError(w, r, "set mapping", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actorID, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, classify(shared.ErrActorRequired))
		return 0, false
	}
	return actorID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		httpx.WriteProblem(w, validationProblem(err))
		return false
	}
	return true
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, name))
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	p := problemFor(err)
	if p.Status == http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.WriteProblem(w, p)
}
