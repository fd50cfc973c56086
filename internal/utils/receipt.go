package utils

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/transportpass/api/internal/model"
)

// BookingReceiptPDF renders a downloadable receipt for a booking. Pass
// fields may read "N/A" when the pass has since been deleted; the receipt
// still renders from the booking row.
func BookingReceiptPDF(d model.BookingDetail) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking ID    : #%d", d.ID),
		fmt.Sprintf("Provider      : %s", d.Provider),
		fmt.Sprintf("Category      : %s", d.Category),
		fmt.Sprintf("Pass Type     : %s", d.Type),
		fmt.Sprintf("Coverage      : %s", d.Coverage),
		fmt.Sprintf("Price         : %.2f", d.Price),
		fmt.Sprintf("Purchased     : %s", d.PurchaseDate.UTC().Format("2006-01-02 15:04")),
		fmt.Sprintf("Valid Until   : %s", d.ExpiryDate.UTC().Format("2006-01-02 15:04")),
		fmt.Sprintf("Status        : %s", d.Status),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Prices shown are the current catalog values of the pass; renewals are charged at the price in effect at renewal time.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TransactionReceiptPDF renders a downloadable receipt for a single wallet
// ledger entry.
func TransactionReceiptPDF(t model.Transaction) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Transaction Receipt", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRANSACTION RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Receipt No    : TXN-%d", t.ID),
		fmt.Sprintf("Type          : %s", t.Type),
		fmt.Sprintf("Amount        : %.2f", t.Amount),
		fmt.Sprintf("Description   : %s", t.Description),
		fmt.Sprintf("Status        : %s", t.Status),
		fmt.Sprintf("Date          : %s", t.TransactionDate.UTC().Format("2006-01-02 15:04")),
		fmt.Sprintf("Generated     : %s", time.Now().UTC().Format("2006-01-02 15:04")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
