package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/sheetmap/internal/domain"
	"github.com/locvowork/sheetmap/internal/logger"
	"github.com/locvowork/sheetmap/internal/service"
	"github.com/locvowork/sheetmap/internal/service/serviceutils"
	"github.com/locvowork/sheetmap/pkg/sheetmap"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
	queryDateLayout = "2006-01-02"
)

type InvoiceHandler struct {
	svc            service.SpreadsheetService
	maxUploadBytes int64
}

func NewInvoiceHandler(svc service.SpreadsheetService, maxUploadBytes int64) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// ExportHandler serves GET /invoices/export.
func (h *InvoiceHandler) ExportHandler(c echo.Context) error {
	ctx := c.Request().Context()
	req, err := exportRequestFromQuery(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid query parameters", err)
	}

	data, err := h.svc.ExportInvoices(ctx, req)
	if err != nil {
		logger.ErrorLog(ctx, "Invoice export failed: %v", err)
		return serviceutils.ResponseError(c, statusFor(err), "Failed to export invoices", err)
	}

	if req.Format == "csv" {
		return attachment(c, csvContentType, "invoices.csv", data)
	}
	return attachment(c, xlsxContentType, "invoices.xlsx", data)
}

// ImportHandler serves POST /invoices/import with the document in the
// multipart field "file".
func (h *InvoiceHandler) ImportHandler(c echo.Context) error {
	ctx := c.Request().Context()
	if h.maxUploadBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Missing upload field \"file\"", err)
	}
	req, err := importRequestFromForm(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid form parameters", err)
	}

	src, err := fh.Open()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Failed to open upload", err)
	}
	defer src.Close()

	result, err := h.svc.ImportInvoices(ctx, src, req)
	if err != nil {
		logger.WarnLog(ctx, "Invoice import of %s failed: %v", fh.Filename, err)
		return serviceutils.ResponseError(c, statusFor(err), "Failed to import invoices", err)
	}
	logger.InfoLog(ctx, "Imported %d invoices from %s", result.Parsed, fh.Filename)
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Invoices imported", result)
}

// SampleHandler serves GET /samples/workbook.
func (h *InvoiceHandler) SampleHandler(c echo.Context) error {
	rows := 0
	if v := c.QueryParam("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid rows parameter", fmt.Errorf("rows must be a non-negative integer, got %q", v))
		}
		rows = n
	}
	data, err := h.svc.SampleWorkbook(c.Request().Context(), rows)
	if err != nil {
		return serviceutils.ResponseError(c, statusFor(err), "Failed to generate sample workbook", err)
	}
	return attachment(c, xlsxContentType, "sample.xlsx", data)
}

func attachment(c echo.Context, contentType, filename string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
	return c.Blob(http.StatusOK, contentType, data)
}

func exportRequestFromQuery(c echo.Context) (service.ExportRequest, error) {
	req := service.ExportRequest{
		Title:    c.QueryParam("title"),
		Subtitle: c.QueryParam("subtitle"),
		Format:   c.QueryParam("format"),
		Filter:   domain.InvoiceFilter{Customer: c.QueryParam("customer")},
	}
	switch req.Format {
	case "", "xlsx", "csv":
	default:
		return req, fmt.Errorf("unsupported format %q", req.Format)
	}

	var err error
	if req.AutoSize, err = boolParam(c.QueryParam("autosize")); err != nil {
		return req, err
	}
	if req.Freeze, err = boolParam(c.QueryParam("freeze")); err != nil {
		return req, err
	}
	if req.Filter.From, err = dateParam(c.QueryParam("from")); err != nil {
		return req, err
	}
	if req.Filter.To, err = dateParam(c.QueryParam("to")); err != nil {
		return req, err
	}
	if v := c.QueryParam("limit"); v != "" {
		if req.Filter.Limit, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("limit: %w", err)
		}
	}
	return req, nil
}

func importRequestFromForm(c echo.Context) (service.ImportRequest, error) {
	var (
		req service.ImportRequest
		err error
	)
	if v := c.FormValue("worksheet"); v != "" {
		if req.Worksheet, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("worksheet: %w", err)
		}
	}
	if v := c.FormValue("skip_rows"); v != "" {
		if req.SkipRows, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("skip_rows: %w", err)
		}
	}
	if req.SkipHeaderRow, err = boolParam(c.FormValue("skip_header")); err != nil {
		return req, err
	}
	if req.DryRun, err = boolParam(c.FormValue("dry_run")); err != nil {
		return req, err
	}
	return req, nil
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func dateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(queryDateLayout, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// statusFor maps sheetmap error classes to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sheetmap.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sheetmap.ErrConfiguration),
		errors.Is(err, sheetmap.ErrSchema),
		errors.Is(err, sheetmap.ErrPackageStructure):
		return http.StatusBadRequest
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
