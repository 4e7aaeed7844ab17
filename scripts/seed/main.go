package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/mappings"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/periods"
	"github.com/HcVm/bytek-core-sub001/internal/app"
	"github.com/HcVm/bytek-core-sub001/internal/integration"
	"github.com/HcVm/bytek-core-sub001/internal/platform/db"
	"github.com/HcVm/bytek-core-sub001/migrations"
)

type chartEntry struct {
	code    string
	name    string
	accType accounts.AccountType
}

// chart is the subset of the PCGE used by the integration posters.
var chart = []chartEntry{
	{"101", "Caja", accounts.AccountTypeAsset},
	{"1041", "Cuentas corrientes operativas", accounts.AccountTypeAsset},
	{"1212", "Facturas, boletas y otros comprobantes por cobrar - Emitidas en cartera", accounts.AccountTypeAsset},
	{"2011", "Mercaderías manufacturadas", accounts.AccountTypeAsset},
	{"33", "Propiedad, planta y equipo", accounts.AccountTypeAsset},
	{"40111", "IGV - Cuenta propia", accounts.AccountTypeLiability},
	{"4017", "Impuesto a la renta", accounts.AccountTypeLiability},
	{"4032", "Oficina de Normalización Previsional", accounts.AccountTypeLiability},
	{"4111", "Sueldos y salarios por pagar", accounts.AccountTypeLiability},
	{"4212", "Facturas, boletas y otros comprobantes por pagar - Emitidas", accounts.AccountTypeLiability},
	{"5011", "Capital - Acciones", accounts.AccountTypeEquity},
	{"5911", "Utilidades acumuladas", accounts.AccountTypeEquity},
	{"6211", "Sueldos y salarios", accounts.AccountTypeExpense},
	{"6361", "Energía eléctrica", accounts.AccountTypeExpense},
	{"6911", "Costo de ventas - Mercaderías", accounts.AccountTypeExpense},
	{"7011", "Ventas - Mercaderías", accounts.AccountTypeIncome},
	{"7041", "Prestación de servicios - Terceros", accounts.AccountTypeIncome},
}

// defaultMappings routes each poster key to a chart code.
var defaultMappings = map[string]map[string]string{
	integration.ModuleInvoices:  {"receivable": "1212", "tax": "40111", "revenue": "7041"},
	integration.ModulePayments:  {"cash": "1041", "receivable": "1212"},
	integration.ModuleInventory: {"stock": "2011", "tax": "40111", "payable": "4212"},
	integration.ModulePayroll:   {"expense": "6211", "withholding": "4032", "payable": "4111"},
}

func main() {
	year := flag.Int("year", time.Now().Year(), "fiscal year whose monthly periods are opened")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Applying migrations...")
	if err := db.Migrate(pool, migrations.FS); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	fmt.Println("→ Seeding chart of accounts...")
	if err := seedChart(ctx, pool); err != nil {
		log.Fatalf("seed chart: %v", err)
	}

	fmt.Printf("→ Seeding periods for %d...\n", *year)
	if err := seedPeriods(ctx, pool, *year); err != nil {
		log.Fatalf("seed periods: %v", err)
	}

	fmt.Println("→ Seeding account mappings...")
	if err := seedMappings(ctx, pool); err != nil {
		log.Fatalf("seed mappings: %v", err)
	}

	fmt.Println("✓ Seed complete")
}

func seedChart(ctx context.Context, pool *pgxpool.Pool) error {
	batch := &pgx.Batch{}
	for _, a := range chart {
		in := accounts.CreateInput{Code: a.code, Name: a.name, Type: a.accType}.Normalize()
		if err := in.Validate(); err != nil {
			return fmt.Errorf("account %s: %w", a.code, err)
		}
		batch.Queue(`INSERT INTO accounts (code, name, type, nature, is_active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (code) DO NOTHING`, in.Code, in.Name, in.Type, in.Nature)
	}
	return pool.SendBatch(ctx, batch).Close()
}

func seedPeriods(ctx context.Context, pool *pgxpool.Pool, year int) error {
	batch := &pgx.Batch{}
	for month := 1; month <= 12; month++ {
		if err := (periods.CreateInput{Year: year, Month: month}).Validate(); err != nil {
			return err
		}
		start, end := periods.MonthWindow(year, month)
		batch.Queue(`INSERT INTO periods (code, year, month, start_date, end_date, status)
VALUES ($1, $2, $3, $4, $5, 'OPEN')
ON CONFLICT (code) DO NOTHING`, periods.MonthCode(year, month), year, month, start, end)
	}
	return pool.SendBatch(ctx, batch).Close()
}

func seedMappings(ctx context.Context, pool *pgxpool.Pool) error {
	chartSvc := accounts.NewService(accounts.NewRepository(pool))
	mappingSvc := mappings.NewService(mappings.NewRepository(pool))
	for module, keys := range defaultMappings {
		for key, code := range keys {
			account, err := chartSvc.FindByCode(ctx, code)
			if err != nil {
				return fmt.Errorf("%s/%s -> %s: %w", module, key, code, err)
			}
			if err := mappingSvc.Set(ctx, module, key, account.ID); err != nil {
				return fmt.Errorf("%s/%s: %w", module, key, err)
			}
		}
	}
	return nil
}
