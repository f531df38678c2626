package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"Numéro", "Type", "Statut", "Objet", "Client",
	"Total HT", "Total TVA", "Total TTC", "Date de création",
}

func exportRow(d *entity.Devis) []string {
	client := d.ClientID
	if d.Client != nil {
		client = d.Client.Name
	}
	return []string{
		d.Numero,
		d.Type,
		d.Statut,
		d.Objet,
		client,
		strconv.FormatFloat(d.TotalHT, 'f', 2, 64),
		strconv.FormatFloat(d.TotalTVA, 'f', 2, 64),
		strconv.FormatFloat(d.TotalTTC, 'f', 2, 64),
		d.CreatedAt.Format("2006-01-02"),
	}
}

// ExportCSV exporte les documents filtrés au format CSV
func (s *DevisService) ExportCSV(ctx context.Context, filters map[string]string) ([]byte, error) {
	items, _, err := s.repo.FindAll(ctx, 1, 10000, filters)
	if err != nil {
		return nil, err
	}
	return devisCSV(items)
}

func devisCSV(items []entity.Devis) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range items {
		if err := w.Write(exportRow(&items[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportXLSX exporte les documents filtrés en classeur Excel
func (s *DevisService) ExportXLSX(ctx context.Context, filters map[string]string) ([]byte, error) {
	items, _, err := s.repo.FindAll(ctx, 1, 10000, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Devis"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}

	for row := range items {
		d := &items[row]
		client := d.ClientID
		if d.Client != nil {
			client = d.Client.Name
		}
		values := []interface{}{
			d.Numero, d.Type, d.Statut, d.Objet, client,
			d.TotalHT, d.TotalTVA, d.TotalTTC,
			d.CreatedAt.Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("génération du classeur: %w", err)
	}
	return buf.Bytes(), nil
}
