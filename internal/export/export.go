// Package export writes the session's order history to a spreadsheet.
package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/protocol"
)

const moneyFormat = "0.00"

var (
	orderHeaders = []string{"Order", "Status", "Created", "Total", "Street", "City", "Zip", "Payment URL"}
	itemHeaders  = []string{"Order", "Item", "Product", "Options", "Quantity", "Unit price", "Subtotal"}
)

// WriteOrders saves orders as an .xlsx workbook at path with an Orders sheet
// and an Items sheet.
func WriteOrders(path string, orders []session.Order) error {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return errors.New("export file must end in .xlsx")
	}
	file, err := build(orders)
	if err != nil {
		return err
	}
	if err := file.Save(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Write streams the workbook to w.
func Write(w io.Writer, orders []session.Order) error {
	file, err := build(orders)
	if err != nil {
		return err
	}
	return file.Write(w)
}

func build(orders []session.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	orderSheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("add orders sheet: %w", err)
	}
	itemSheet, err := file.AddSheet("Items")
	if err != nil {
		return nil, fmt.Errorf("add items sheet: %w", err)
	}
	header(orderSheet, orderHeaders)
	header(itemSheet, itemHeaders)

	for _, o := range orders {
		row := orderSheet.AddRow()
		row.AddCell().SetString(o.ID)
		row.AddCell().SetString(o.Status)
		created := ""
		if !o.CreatedAt.IsZero() {
			created = o.CreatedAt.Format("2006-01-02 15:04:05")
		}
		row.AddCell().SetString(created)
		money(row.AddCell(), o.Total)
		row.AddCell().SetString(o.Address.Street)
		row.AddCell().SetString(o.Address.City)
		row.AddCell().SetString(o.Address.PostalCode)
		row.AddCell().SetString(o.PaymentURL)

		for _, it := range o.Items {
			r := itemSheet.AddRow()
			r.AddCell().SetString(o.ID)
			r.AddCell().SetString(it.Name)
			r.AddCell().SetString(it.ProductID)
			r.AddCell().SetString(it.Options)
			r.AddCell().SetInt(it.Quantity)
			money(r.AddCell(), it.UnitPrice)
			money(r.AddCell(), it.Subtotal())
		}
	}
	return file, nil
}

func header(sheet *xlsx.Sheet, names []string) {
	row := sheet.AddRow()
	for _, h := range names {
		row.AddCell().SetString(h)
	}
}

func money(cell *xlsx.Cell, p protocol.Price) {
	cell.SetFloatWithFormat(float64(p)/100, moneyFormat)
}
