package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/lifecycle"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer exports the deadline calendar to a Google Sheets spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new calendar export writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{config: config, service: srv, logger: logger}, nil
}

// Write replaces the spreadsheet contents with the given task calendar.
// Clients are keyed by id so rows can name the client, not just reference it.
func (w *Writer) Write(ctx context.Context, tasks []lifecycle.TaskWithStatus, clients map[string]model.ClientProfile) error {
	w.logger.Info("starting calendar export", "tasks", len(tasks))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := w.prepareCalendarData(tasks, clients)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if err := common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	w.logger.Info("calendar export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))
	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		if _, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: "Deadlines"}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)
	return created.SpreadsheetId, nil
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareCalendarData renders the calendar rows: a summary block followed
// by one row per task, soonest deadline first.
func (w *Writer) prepareCalendarData(tasks []lifecycle.TaskWithStatus, clients map[string]model.ClientProfile) [][]any {
	values := make([][]any, 0, len(tasks)+8)

	counts := make(map[model.Status]int)
	for _, entry := range tasks {
		counts[entry.Status]++
	}

	values = append(values,
		[]any{"Compliance Calendar", time.Now().Format("Jan 2, 2006")},
		[]any{},
		[]any{"Overdue", counts[model.StatusOverdue]},
		[]any{"Due today", counts[model.StatusDueToday]},
		[]any{"Due soon", counts[model.StatusDueSoon]},
		[]any{},
		[]any{"Due", "Client", "Task", "Kind", "Statutory Date", "Status", "Completed By"},
	)

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].Task.CurrentDueDate.Equal(tasks[j].Task.CurrentDueDate) {
			return tasks[i].Task.CurrentDueDate.Before(tasks[j].Task.CurrentDueDate)
		}
		return tasks[i].Task.ID < tasks[j].Task.ID
	})

	for _, entry := range tasks {
		clientName := entry.Task.ClientID
		if client, ok := clients[entry.Task.ClientID]; ok {
			clientName = client.Name
		}
		values = append(values, []any{
			entry.Task.CurrentDueDate.Format("2006-01-02"),
			clientName,
			entry.Task.Title,
			string(entry.Task.Kind),
			entry.Task.OriginalDueDate.Format("2006-01-02"),
			string(entry.Status),
			entry.Task.CompletedBy,
		})
	}

	return values
}

// writeData writes the rows to the spreadsheet in batches.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		valueRange := &sheets.ValueRange{
			Range:  fmt.Sprintf("A%d", i+1),
			Values: values[i:end],
		}
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, valueRange.Range, valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch at row %d: %w", i+1, err)
		}
	}
	return nil
}
