package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/sheetmap/internal/config"
	"github.com/locvowork/sheetmap/internal/database"
	"github.com/locvowork/sheetmap/internal/domain"
	"github.com/locvowork/sheetmap/internal/handler"
	"github.com/locvowork/sheetmap/internal/logger"
	"github.com/locvowork/sheetmap/internal/repository"
	"github.com/locvowork/sheetmap/internal/service"
	"github.com/locvowork/sheetmap/pkg/sheetmap"
)

type App struct {
	Echo *echo.Echo
	DB   *sql.DB
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}

	if err := logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, config.DefaultEnvConfig.LOG_LEVEL); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	db, err := database.NewPostgresDB(ctx, DatabaseConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db

	svc, err := NewSpreadsheetService(ctx, repository.NewInvoiceRepository(db))
	if err != nil {
		return err
	}
	invoiceHandler := handler.NewInvoiceHandler(svc, config.DefaultEnvConfig.MAX_UPLOAD_BYTES)

	a.RegisterMiddlewares()
	a.RegisterRoutes(invoiceHandler)
	return nil
}

// DatabaseConfig maps the env settings onto a connection config.
func DatabaseConfig() database.Config {
	return database.Config{
		Host:            config.DefaultEnvConfig.DB_HOST,
		Port:            config.DefaultEnvConfig.DB_PORT,
		User:            config.DefaultEnvConfig.DB_USER,
		Password:        config.DefaultEnvConfig.DB_PASSWORD,
		DBName:          config.DefaultEnvConfig.DB_NAME,
		SSLMode:         config.DefaultEnvConfig.DB_SSL_MODE,
		MaxOpenConns:    config.DefaultEnvConfig.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    config.DefaultEnvConfig.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: config.DefaultEnvConfig.DB_CONN_MAX_LIFETIME,
	}
}

// NewSpreadsheetService builds the service from the env settings: cell
// encoding, optional YAML export template and the global logger.
func NewSpreadsheetService(ctx context.Context, repo domain.InvoiceRepository) (service.SpreadsheetService, error) {
	enc, err := sheetmap.ParseCellEncoding(config.DefaultEnvConfig.CELL_ENCODING)
	if err != nil {
		return nil, fmt.Errorf("invalid CELL_ENCODING: %w", err)
	}
	exporter := sheetmap.NewExporter(
		sheetmap.WithCellEncoding(enc),
		sheetmap.WithLogger(logger.Logger()),
	)

	var tmpl *sheetmap.ReportTemplate
	if path := config.DefaultEnvConfig.EXPORT_TEMPLATE_PATH; path != "" {
		if tmpl, err = sheetmap.LoadReportTemplate(path); err != nil {
			return nil, fmt.Errorf("failed to load export template: %w", err)
		}
		logger.InfoLog(ctx, "Loaded export template %s", path)
	}
	return service.NewSpreadsheetService(repo, exporter, tmpl), nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(invoiceHandler *handler.InvoiceHandler) {
	invoiceGroup := a.Echo.Group("/invoices")
	invoiceGroup.GET("/export", invoiceHandler.ExportHandler)
	invoiceGroup.POST("/import", invoiceHandler.ImportHandler)

	a.Echo.GET("/samples/workbook", invoiceHandler.SampleHandler)
}

func (a *App) Run() error {
	defer a.DB.Close()
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}
