package ui

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/PhiFever/pantryscan/internal/pantry"
	"github.com/PhiFever/pantryscan/pkg/utils"
)

// 表单默认值
const (
	DefaultQuantity  = 1
	DefaultUnit      = "pcs"
	DefaultShelfDays = 7
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrUnitRequired    = errors.New("unit is required")
	ErrExpiryRequired  = errors.New("expiry date is required")
)

// ItemForm is the item-creation form opened after a scan.
type ItemForm struct {
	Name     string
	Quantity int
	Unit     string
	Expiry   time.Time
}

// NewItemForm pre-fills a form with the scanned name. An empty name leaves
// the field blank for the user.
func NewItemForm(scanned string, now time.Time) *ItemForm {
	return &ItemForm{
		Name:     CleanName(scanned),
		Quantity: DefaultQuantity,
		Unit:     DefaultUnit,
		Expiry:   utils.StartOfDay(now).AddDate(0, 0, DefaultShelfDays),
	}
}

// CleanName normalizes recognized text into a single-line item name.
func CleanName(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Validate checks the form before submission.
func (f *ItemForm) Validate() error {
	if CleanName(f.Name) == "" {
		return ErrNameRequired
	}
	if f.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(f.Unit) == "" {
		return ErrUnitRequired
	}
	if f.Expiry.IsZero() {
		return ErrExpiryRequired
	}
	return nil
}

// ToNewItem converts a valid form into a create request.
func (f *ItemForm) ToNewItem() (pantry.NewItem, error) {
	if err := f.Validate(); err != nil {
		return pantry.NewItem{}, err
	}
	return pantry.NewItem{
		Name:       CleanName(f.Name),
		Quantity:   f.Quantity,
		Unit:       strings.TrimSpace(f.Unit),
		ExpiryDate: pantry.NewDate(f.Expiry),
	}, nil
}
