package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
)

// Export formats
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ExportFile is a rendered report ready to be sent as an attachment
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService renders ledger exports
type ReportService struct {
	savings *SavingService
}

// NewReportService creates a new report service
func NewReportService(savings *SavingService) *ReportService {
	return &ReportService{savings: savings}
}

// ExportSavings renders every deposit matching q in the requested format
func (s *ReportService) ExportSavings(ctx context.Context, p *domain.Principal, q *SavingsQuery, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, domain.NewValidationError("format", "must be csv or pdf")
	}

	deposits, err := s.savings.ListAll(ctx, p, q)
	if err != nil {
		return nil, err
	}

	stamp := timeutil.Format(timeutil.Now(), "20060102")
	switch format {
	case FormatPDF:
		data, err := savingsPDF(deposits)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Filename: "savings-" + stamp + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := savingsCSV(deposits)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Filename: "savings-" + stamp + ".csv", ContentType: "text/csv", Data: data}, nil
	}
}

var savingsHeader = []string{"Receipt", "Date", "Member ID", "Group ID", "Amount", "Remarks"}

func savingsCSV(deposits []*models.SavingDeposit) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(savingsHeader); err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, d := range deposits {
		total = total.Add(d.Amount)
		if err := w.Write([]string{
			d.ReceiptNumber,
			timeutil.Format(d.DepositDate, timeutil.DateTimeLayout),
			strconv.FormatUint(uint64(d.MemberID), 10),
			strconv.FormatUint(uint64(d.GroupID), 10),
			d.Amount.StringFixed(2),
			d.Remarks,
		}); err != nil {
			return nil, err
		}
	}
	if err := w.Write([]string{"", "", "", "Total", total.StringFixed(2), ""}); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func savingsPDF(deposits []*models.SavingDeposit) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "SHG Savings Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Format(timeutil.Now(), "02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	widths := []float64{50, 35, 22, 22, 28, 33}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range savingsHeader {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	total := decimal.Zero
	for _, d := range deposits {
		total = total.Add(d.Amount)
		remarks := d.Remarks
		if len(remarks) > 18 {
			remarks = remarks[:15] + "..."
		}
		pdf.CellFormat(widths[0], 6, d.ReceiptNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, timeutil.Format(d.DepositDate, timeutil.DisplayLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, strconv.FormatUint(uint64(d.MemberID), 10), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, strconv.FormatUint(uint64(d.GroupID), 10), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, "Rs. "+d.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, remarks, "1", 1, "L", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(95, 8, fmt.Sprintf("Deposits: %d", len(deposits)), "1", 0, "C", true, 0, "")
	pdf.CellFormat(95, 8, "Total: Rs. "+total.StringFixed(2), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
