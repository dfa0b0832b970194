package sheetmap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxSheetNameLength = 31

// SheetExportSpec describes one worksheet to export.
type SheetExportSpec[T any] struct {
	WorksheetName string `validate:"required,notblank,sheetname"`
	Records       []T    `validate:"required"`

	RenderTitle      bool
	DocumentTitle    string `validate:"required_if=RenderTitle true"`
	RenderSubtitle   bool
	DocumentSubtitle string `validate:"required_if=RenderSubtitle true"`

	AutoSizeColumns bool
	FreezeHeaders   bool

	// Columns overrides member metadata by Go field name.
	Columns map[string]ColumnOverride
}

// Sheet is a worksheet ready to be planned for export. *SheetExportSpec[T]
// implements it for any record type.
type Sheet interface {
	SheetName() string
	plan() (*sheetPlan, error)
}

type sheetPlan struct {
	name            string
	title           string
	subtitle        string
	renderTitle     bool
	renderSubtitle  bool
	autoSizeColumns bool
	freezeHeaders   bool
	columns         []ColumnDescriptor
	records         reflect.Value
}

func (s *SheetExportSpec[T]) SheetName() string { return s.WorksheetName }

// Validate checks the spec without discovering its schema.
func (s *SheetExportSpec[T]) Validate() error {
	if err := validate.Struct(s); err != nil {
		return toConfigurationError(s.WorksheetName, err)
	}
	return nil
}

func (s *SheetExportSpec[T]) plan() (*sheetPlan, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if err := checkOverrides(t, s.Columns); err != nil {
		return nil, &ConfigurationError{Sheet: s.WorksheetName, Field: "Columns", Msg: err.Error()}
	}
	cols, err := discoverColumns(t, s.Columns)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, &SchemaError{Type: t.String(), Msg: "no exportable members"}
	}
	return &sheetPlan{
		name:            s.WorksheetName,
		title:           s.DocumentTitle,
		subtitle:        s.DocumentSubtitle,
		renderTitle:     s.RenderTitle,
		renderSubtitle:  s.RenderSubtitle,
		autoSizeColumns: s.AutoSizeColumns,
		freezeHeaders:   s.FreezeHeaders,
		columns:         cols,
		records:         reflect.ValueOf(s.Records),
	}, nil
}

func checkOverrides(t reflect.Type, overrides map[string]ColumnOverride) error {
	if len(overrides) == 0 {
		return nil
	}
	t = indirectType(t)
	if t.Kind() != reflect.Struct {
		return nil
	}
	known := make(map[string]bool)
	for _, f := range visibleFields(t) {
		known[f.Name] = true
	}
	for name := range overrides {
		if !known[name] {
			return fmt.Errorf("no member named %q on %s", name, t)
		}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("sheetname", func(fl validator.FieldLevel) bool {
		return checkSheetName(fl.Field().String()) == nil
	})
	return v
}

func checkSheetName(name string) error {
	if len([]rune(name)) > maxSheetNameLength {
		return fmt.Errorf("longer than %d characters", maxSheetNameLength)
	}
	if strings.ContainsAny(name, `:\/?*[]`) {
		return errors.New(`contains one of : \ / ? * [ ]`)
	}
	if strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return errors.New("starts or ends with an apostrophe")
	}
	return nil
}

func toConfigurationError(sheet string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigurationError{Sheet: sheet, Field: "spec", Msg: err.Error()}
	}
	fe := verrs[0]
	return &ConfigurationError{Sheet: sheet, Field: fe.StructField(), Msg: validationMessage(fe)}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Slice {
			return "record sequence is nil"
		}
		return "is required"
	case "notblank":
		return "must not be blank"
	case "sheetname":
		if err := checkSheetName(fmt.Sprint(fe.Value())); err != nil {
			return "invalid worksheet name: " + err.Error()
		}
		return "invalid worksheet name"
	case "required_if":
		return "is required when " + strings.Fields(fe.Param())[0] + " is set"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
