package serviceutils

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/sheetmap/pkg/sheetmap"
)

type GenericResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Cell    *CellDetails `json:"cell,omitempty"`
}

// CellDetails locates the cell an import failed on.
type CellDetails struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

func ResponseSuccess(c echo.Context, code int, msg string, data interface{}) error {
	return c.JSON(code, GenericResponse{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func ResponseError(c echo.Context, code int, msg string, err error) error {
	resp := GenericResponse{
		Success: false,
		Message: msg,
	}
	if err != nil {
		resp.Error = err.Error()
		var de *sheetmap.DecodeError
		if errors.As(err, &de) {
			resp.Cell = &CellDetails{Row: de.Row, Column: de.Column, Field: de.Field, Value: de.Value}
		}
	}
	return c.JSON(code, resp)
}
