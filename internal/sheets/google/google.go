package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"planner/internal/core"
	"planner/internal/log"
	ports "planner/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Exporter writes one tab per month into a spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *slog.Logger

	mu   sync.Mutex
	tabs map[string]bool
}

// Ensure interface conformance
var _ ports.LedgerExporter = (*Exporter)(nil)

func NewExporter(svc *gsheet.Service, spreadsheetID string, logger *slog.Logger) (*Exporter, error) {
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.With(log.FieldComponent, log.ComponentSheets),
	}, nil
}

// Credentials resolves service account credentials. Inline JSON wins over
// a file path; GOOGLE_APPLICATION_CREDENTIALS is the last resort.
func Credentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	if inlineJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// NewService creates a Sheets service authenticated with a service account.
func NewService(ctx context.Context, credentialsJSON []byte, opts ...goption.ClientOption) (*gsheet.Service, error) {
	opts = append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ExportLedger replaces the month's tab with a fresh snapshot.
func (e *Exporter) ExportLedger(ctx context.Context, l core.Ledger, categories []core.Category) error {
	tab := ports.TabName(l.Month)
	if err := e.ensureTab(ctx, tab); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("'%s'!A:Z", tab)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := ports.LedgerRows(l, categories)
	dataRange := fmt.Sprintf("'%s'!A1", tab)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", dataRange, err)
	}

	e.logger.InfoContext(ctx, "Exported ledger",
		log.FieldMonth, l.Month, log.FieldCount, len(rows))
	return nil
}

// ensureTab creates the month's tab on first use. Known titles are cached
// for the lifetime of the exporter.
func (e *Exporter) ensureTab(ctx context.Context, tab string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tabs == nil {
		ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("read spreadsheet: %w", err)
		}
		e.tabs = make(map[string]bool, len(ss.Sheets))
		for _, sh := range ss.Sheets {
			if sh.Properties != nil {
				e.tabs[sh.Properties.Title] = true
			}
		}
	}
	if e.tabs[tab] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	e.tabs[tab] = true
	e.logger.InfoContext(ctx, "Created sheet tab", "tab", tab)
	return nil
}
