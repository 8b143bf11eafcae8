package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SalesWorkbook renders a report as the sheets Daily, Products and
// Categories, each ending with a total row.
func SalesWorkbook(report *domain.SalesReport) (*xlsx.File, error) {
	file := xlsx.NewFile()

	daily, err := file.AddSheet("Daily")
	if err != nil {
		return nil, fmt.Errorf("add daily sheet: %w", err)
	}
	addRow(daily, "Day", "Units", "Sales")
	for _, d := range report.Daily {
		row := daily.AddRow()
		row.AddCell().SetString(d.Day)
		row.AddCell().SetInt(d.Quantity)
		row.AddCell().SetString(amount(d.Sales))
	}
	addRow(daily, "Total", "", amount(report.TotalSales))

	products, err := file.AddSheet("Products")
	if err != nil {
		return nil, fmt.Errorf("add products sheet: %w", err)
	}
	addRow(products, "Product ID", "Name", "Units", "Sales")
	for _, p := range report.ByProduct {
		row := products.AddRow()
		row.AddCell().SetString(p.ProductID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetInt(p.Quantity)
		row.AddCell().SetString(amount(p.Sales))
	}
	addRow(products, "Total", "", "", amount(report.TotalSales))

	categories, err := file.AddSheet("Categories")
	if err != nil {
		return nil, fmt.Errorf("add categories sheet: %w", err)
	}
	addRow(categories, "Category ID", "Name", "Units", "Sales")
	for _, c := range report.ByCategory {
		row := categories.AddRow()
		row.AddCell().SetString(c.CategoryID)
		row.AddCell().SetString(categoryName(c))
		row.AddCell().SetInt(c.Quantity)
		row.AddCell().SetString(amount(c.Sales))
	}
	addRow(categories, "Total", "", "", amount(report.TotalSales))

	return file, nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func writeSalesWorkbook(w http.ResponseWriter, r *http.Request, report *domain.SalesReport) {
	file, err := SalesWorkbook(report)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	name := fmt.Sprintf("sales_%s_%s.xlsx",
		report.From.Format(time.DateOnly), report.To.AddDate(0, 0, -1).Format(time.DateOnly))
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Header().Set("Content-Type", xlsxContentType)
	if err := file.Write(w); err != nil {
		// Headers are gone; all we can do is log.
		slog.ErrorContext(r.Context(), "write sales workbook", "error", err)
	}
}
