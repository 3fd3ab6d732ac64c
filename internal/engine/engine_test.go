package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/acquire"
	"github.com/jarnaud/docfields/internal/trace"
)

const invoiceText = `ACME CONSEIL
12 rue de la Paix
75002 Paris
SIRET 123 456 789 00012
Facture N° FA-2024-0042
Date : 05/03/2024

Prestation de conseil mensuelle
Période : mars 2024

Total HT      1 000,00 €
TVA 20 %
Total TTC     1 200,00 €
`

const tenderText = `AVIS D'APPEL PUBLIC A LA CONCURRENCE
Pouvoir adjudicateur : Ville de Lyon
Référence : AO-2024-17
69001 Lyon
Budget estimatif : 250 000 €
Date limite de remise des offres : 15/09/2024
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	acq := acquire.New(acquire.Config{}, nil, nil, logger)
	return New(acq, logger)
}

func TestExtractInvoiceEndToEnd(t *testing.T) {
	eng := newTestEngine(t)

	res := eng.Extract(context.Background(), Request{
		Bytes:    []byte(invoiceText),
		Filename: "facture.txt",
		Module:   constants.ModuleInvoice,
	})

	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, constants.ModuleInvoice, res.Module)
	assert.True(t, res.TotalsOK)

	ht, ok := res.FieldSet.Num(constants.FieldHT)
	require.True(t, ok)
	assert.InDelta(t, 1000, ht, 1e-9)

	pct, ok := res.FieldSet.Num(constants.FieldTVAPct)
	require.True(t, ok)
	assert.InDelta(t, 20, pct, 1e-9)

	amount, ok := res.FieldSet.Num(constants.FieldTVAAmount)
	require.True(t, ok)
	assert.InDelta(t, 200, amount, 1e-9)

	ttc, ok := res.FieldSet.Num(constants.FieldTTC)
	require.True(t, ok)
	assert.InDelta(t, 1200, ttc, 1e-9)

	siret, ok := res.FieldSet.Str(constants.FieldSIRET)
	require.True(t, ok)
	assert.Equal(t, "123 456 789 00012", siret)

	invNum, ok := res.FieldSet.Str(constants.FieldInvoiceNumber)
	require.True(t, ok)
	assert.Equal(t, "FA-2024-0042", invNum)

	date, ok := res.FieldSet.Str(constants.FieldDocumentDate)
	require.True(t, ok)
	assert.Equal(t, "2024-03-05", date)

	supplier, ok := res.FieldSet.Str(constants.FieldSupplier)
	require.True(t, ok)
	assert.Equal(t, "ACME CONSEIL", supplier)

	assert.GreaterOrEqual(t, res.Confidence, 0.65)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}

func TestExtractTenderEndToEnd(t *testing.T) {
	eng := newTestEngine(t)

	res := eng.Extract(context.Background(), Request{
		Bytes:    []byte(tenderText),
		Filename: "avis.txt",
		Module:   constants.ModuleTender,
	})

	assert.Equal(t, constants.ModuleTender, res.Module)

	authority, ok := res.FieldSet.Str(constants.FieldTenderAuthority)
	require.True(t, ok)
	assert.Equal(t, "Ville de Lyon", authority)

	ref, ok := res.FieldSet.Str(constants.FieldTenderReference)
	require.True(t, ok)
	assert.Equal(t, "AO-2024-17", ref)

	deadline, ok := res.FieldSet.Str(constants.FieldTenderDeadline)
	require.True(t, ok)
	assert.Equal(t, "2024-09-15", deadline)

	budget, ok := res.FieldSet.Num(constants.FieldTenderBudget)
	require.True(t, ok)
	assert.InDelta(t, 250000, budget, 1e-9)

	postal, ok := res.FieldSet.Str(constants.FieldTenderPostalCode)
	require.True(t, ok)
	assert.Equal(t, "69001", postal)

	city, ok := res.FieldSet.Str(constants.FieldTenderCity)
	require.True(t, ok)
	assert.Equal(t, "Lyon", city)

	// No financial amounts on a tender notice, nothing to cross-check.
	assert.False(t, res.TotalsOK)
	assert.Nil(t, res.FieldSet[constants.FieldHT])
}

func TestExtractCSVEndToEnd(t *testing.T) {
	eng := newTestEngine(t)
	csv := "Total HT;1000\nTaux TVA;20\nTotal TTC;1100\n"

	res := eng.Extract(context.Background(), Request{
		Bytes:    []byte(csv),
		Filename: "recap.csv",
		Module:   constants.ModuleTable,
	})

	ht, ok := res.FieldSet.Num(constants.FieldHT)
	require.True(t, ok)
	assert.InDelta(t, 1000, ht, 1e-9)

	// Repair recomputes the total from net and rate, overriding the sheet.
	ttc, ok := res.FieldSet.Num(constants.FieldTTC)
	require.True(t, ok)
	assert.InDelta(t, 1200, ttc, 1e-9)
	assert.True(t, res.TotalsOK)
}

func TestExtractUnreadableInputDegrades(t *testing.T) {
	eng := newTestEngine(t)

	res := eng.Extract(context.Background(), Request{
		Bytes:  []byte{0xff, 0xfe, 0xfd},
		Module: constants.ModuleInvoice,
	})

	for _, f := range constants.AllFields {
		assert.Nil(t, res.FieldSet[f], "field %s", f)
	}
	assert.False(t, res.TotalsOK)
	assert.InDelta(t, BaseConfidence, res.Confidence, 1e-9)

	var classifyFailed bool
	for _, step := range res.Trace {
		if step.Step == "classify" && step.Status == trace.StatusFailed {
			classifyFailed = true
		}
	}
	assert.True(t, classifyFailed, "trace should record the failed classification")
}

func TestExtractUnknownModuleHintFallsBack(t *testing.T) {
	eng := newTestEngine(t)

	res := eng.Extract(context.Background(), Request{
		Bytes:    []byte(invoiceText),
		Filename: "facture.txt",
		Module:   constants.Module("bordereau"),
	})

	assert.Equal(t, constants.ModuleInvoice, res.Module)

	var noted bool
	for _, step := range res.Trace {
		if step.Step == "classify-module" && step.Status == trace.StatusPartial {
			noted = true
		}
	}
	assert.True(t, noted, "trace should record the rejected module hint")
}

func TestExtractTraceOrdered(t *testing.T) {
	eng := newTestEngine(t)

	res := eng.Extract(context.Background(), Request{
		Bytes:    []byte(invoiceText),
		Filename: "facture.txt",
		Module:   constants.ModuleInvoice,
	})

	require.NotEmpty(t, res.Trace)
	assert.Equal(t, "extract", res.Trace[0].Step)
	assert.Equal(t, trace.StatusStart, res.Trace[0].Status)
	last := res.Trace[len(res.Trace)-1]
	assert.Equal(t, "extract", last.Step)
	assert.Equal(t, trace.StatusSuccess, last.Status)
}
