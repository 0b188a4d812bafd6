package service

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Remboursements"

var exportHeadings = []string{
	"ID", "Transaction", "Partenaire", "Employé", "Montant avance", "Frais de service",
	"Net employé", "Montant à rembourser", "Statut", "Date limite", "Date remboursement", "Référence Lengo",
}

// WriteReimbursementsXLSX writes list as a single-sheet workbook.
func WriteReimbursementsXLSX(w io.Writer, list []ReimbursementView) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	for i, h := range exportHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}
	for i, rb := range list {
		row := i + 2
		partner, employee := "", ""
		if rb.Partner != nil {
			partner = rb.Partner.Nom
		}
		if rb.Employee != nil {
			employee = rb.Employee.FullName()
		}
		paidAt := ""
		if rb.DateRemboursement != nil {
			paidAt = rb.DateRemboursement.Format("2006-01-02")
		}
		values := []interface{}{
			rb.ID, rb.TransactionID, partner, employee, rb.MontantTransaction, rb.FraisService,
			rb.MontantNetEmploye, rb.MontantTotalRemboursement, rb.StatutEffectif,
			rb.DateLimiteRemboursement.Format("2006-01-02"), paidAt, rb.PayID,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(exportSheet, cell, v)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "L", 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return f.Write(w)
}
