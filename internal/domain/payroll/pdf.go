package payroll

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"hrpay/internal/domain/contract"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func lineBasis(l contract.Line) string {
	if l.Percentage.Valid {
		return l.Percentage.Decimal.StringFixed(2) + "%"
	}
	return string(l.OverrideType)
}

// WritePDF renders the payslip as an A4 PDF document.
func WritePDF(w io.Writer, p Payslip) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Staff: %s (%s)", p.StaffName, p.StaffUID))
	pdf.Ln(6)
	if p.JobTitle != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Position: %s, %s contract", p.JobTitle, p.ContractType))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", p.PayPeriodStart.Format(time.DateOnly), p.PayPeriodEnd.Format(time.DateOnly)))
	pdf.Ln(6)
	if p.KRAPin != "" {
		pdf.Cell(0, 7, fmt.Sprintf("KRA PIN: %s", p.KRAPin))
		pdf.Ln(6)
	}
	if p.AccountNo != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Bank: %s %s (%s) account %s", p.BankName, p.BankBranch, p.BankBranchCode, p.AccountNo))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	section := func(title string, lines []contract.Line) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		if len(lines) == 0 {
			pdf.Cell(0, 7, "None")
			pdf.Ln(7)
			return
		}
		for _, l := range lines {
			pdf.CellFormat(100, 7, l.Name, "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, lineBasis(l), "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, money(l.Amount), "", 1, "R", false, 0, "")
		}
	}
	section("Mandatory deductions", p.Breakdown.Mandatory)
	pdf.Ln(2)
	section("Other deductions", p.Breakdown.Optional)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	for _, row := range [][2]string{
		{"Gross salary", money(p.GrossSalary)},
		{"Total deductions", money(p.TotalDeductions)},
		{"Net salary", money(p.NetSalary)},
	} {
		pdf.CellFormat(140, 8, row[0], "T", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, row[1], "T", 1, "R", false, 0, "")
	}
	return pdf.Output(w)
}

func (s *Service) RenderPDF(ctx context.Context, payrollID string, w io.Writer) error {
	p, err := s.Payslip(ctx, payrollID)
	if err != nil {
		return err
	}
	return WritePDF(w, p)
}
