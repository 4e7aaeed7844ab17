package accounting

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/journals"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/mappings"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/periods"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/reports"
	"github.com/HcVm/bytek-core-sub001/internal/integration"
	"github.com/HcVm/bytek-core-sub001/internal/platform/cache"
)

// Deps carries the infrastructure the accounting core runs on.
type Deps struct {
	Pool     *pgxpool.Pool
	Cache    *cache.Versioned
	Audit    journals.AuditPort
	Observer journals.PostingObserver
	Policy   reports.IncomePolicy
	Logger   *slog.Logger
}

// Module is the composed accounting core shared by the API and the worker.
type Module struct {
	Accounts *accounts.Service
	Periods  *periods.Service
	Journals *journals.Service
	Ledger   *ledger.Service
	Reports  *reports.Service
	Mappings *mappings.Service
	Hooks    *integration.Hooks
}

// NewModule wires repositories and services over deps.Pool.
func NewModule(deps Deps) *Module {
	accountSvc := accounts.NewService(accounts.NewRepository(deps.Pool))
	mappingSvc := mappings.NewService(mappings.NewRepository(deps.Pool))
	journalSvc := journals.NewService(journals.NewRepository(deps.Pool), deps.Audit, deps.Cache, deps.Observer, deps.Logger)
	ledgerSvc := ledger.NewService(ledger.NewRepository(deps.Pool), accountSvc, deps.Cache)
	return &Module{
		Accounts: accountSvc,
		Periods:  periods.NewService(periods.NewRepository(deps.Pool)),
		Journals: journalSvc,
		Ledger:   ledgerSvc,
		Reports:  reports.NewService(ledgerSvc, deps.Policy),
		Mappings: mappingSvc,
		Hooks:    integration.NewHooks(journalSvc, mappingSvc),
	}
}

// Handler exposes the module over HTTP.
func (m *Module) Handler(logger *slog.Logger) *Handler {
	return NewHandler(logger, m.Accounts, m.Periods, m.Journals, m.Ledger, m.Reports, m.Mappings)
}
