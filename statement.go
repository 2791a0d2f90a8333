package debitxgo

import (
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
)

// writeStatementPDF renders the account's debit journal. Amounts are in
// minor units; presentation-grade formatting is the host application's
// problem.
func writeStatementPDF(w io.Writer, acct *Account, charges []Charge) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Account Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Account: "+acct.ID)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Owner: "+acct.Owner)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Balance (minor units): "+strconv.FormatInt(acct.Balance, 10))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(70, 7, "Transaction", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 7, "Applied At", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, chg := range charges {
		pdf.CellFormat(70, 7, chg.TxnID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, strconv.FormatInt(chg.Amount, 10), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 7, chg.At.Format("2006-01-02 15:04:05"), "1", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
