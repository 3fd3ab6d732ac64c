package acquire

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/trace"
)

func newTestAcquirer(t *testing.T) (*Acquirer, *trace.Recorder) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(Config{}, nil, nil, logger), trace.NewRecorder(logger)
}

func TestAcquireTXT(t *testing.T) {
	a, rec := newTestAcquirer(t)

	res := a.Acquire(context.Background(), []byte("Total HT 100,00"), "note.txt", rec)

	assert.Equal(t, constants.TXT, res.Format)
	assert.Equal(t, "Total HT 100,00", res.Text)
	assert.Equal(t, 1, res.Pages)
	assert.Empty(t, res.Rows)
}

func TestAcquireCSVSemicolon(t *testing.T) {
	a, rec := newTestAcquirer(t)
	data := []byte("Total HT;1000\nTotal TTC;1200\n")

	res := a.Acquire(context.Background(), data, "recap.csv", rec)

	assert.Equal(t, constants.CSV, res.Format)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"Total HT", "1000"}, res.Rows[0])
	assert.NotEmpty(t, res.Text)
}

func TestAcquireCSVComma(t *testing.T) {
	a, rec := newTestAcquirer(t)
	data := []byte("label,value\nTotal HT,1000\n")

	res := a.Acquire(context.Background(), data, "recap.csv", rec)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"Total HT", "1000"}, res.Rows[1])
}

func TestAcquireCSVRaggedRows(t *testing.T) {
	a, rec := newTestAcquirer(t)
	data := []byte("a;b;c\nd;e\nf\n")

	res := a.Acquire(context.Background(), data, "recap.csv", rec)

	require.Len(t, res.Rows, 3)
	assert.Len(t, res.Rows[0], 3)
	assert.Len(t, res.Rows[1], 2)
}

func TestAcquireXLSX(t *testing.T) {
	a, rec := newTestAcquirer(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Total HT"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 1000))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Total TTC"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 1200))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res := a.Acquire(context.Background(), buf.Bytes(), "recap.xlsx", rec)

	assert.Equal(t, constants.XLSX, res.Format)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Total HT", res.Rows[0][0])
	assert.Equal(t, "1000", res.Rows[0][1])
}

func TestClassifyByContentSniffing(t *testing.T) {
	a, _ := newTestAcquirer(t)

	assert.Equal(t, constants.PDF, a.classify([]byte("%PDF-1.7 garbage"), ""))
	assert.Equal(t, constants.IMAGE, a.classify([]byte("\x89PNG\r\n\x1a\n"), ""))
	assert.Equal(t, constants.IMAGE, a.classify([]byte{0xff, 0xd8, 0xff, 0xe0}, ""))
	assert.Equal(t, constants.TXT, a.classify([]byte("plain words"), ""))
	assert.Equal(t, constants.Format(""), a.classify([]byte{0xff, 0xfe, 0xfd}, ""))
}

func TestClassifyExtensionWinsOverContent(t *testing.T) {
	a, _ := newTestAcquirer(t)
	assert.Equal(t, constants.CSV, a.classify([]byte("a;b\n"), "export.CSV"))
}

func TestAcquireUnclassifiableInput(t *testing.T) {
	a, rec := newTestAcquirer(t)

	res := a.Acquire(context.Background(), []byte{0xff, 0xfe, 0xfd}, "", rec)

	assert.Empty(t, res.Text)
	assert.Empty(t, res.Rows)

	steps := rec.Steps()
	require.NotEmpty(t, steps)
	assert.Equal(t, "classify", steps[0].Step)
	assert.Equal(t, trace.StatusFailed, steps[0].Status)
}

func TestAcquireCorruptPDFDegrades(t *testing.T) {
	a, rec := newTestAcquirer(t)

	res := a.Acquire(context.Background(), []byte("%PDF-1.4 not really"), "doc.pdf", rec)

	assert.Equal(t, constants.PDF, res.Format)
	assert.Empty(t, res.Text)

	var validateFailed bool
	for _, step := range rec.Steps() {
		if step.Step == "pdf.validate" && step.Status == trace.StatusFailed {
			validateFailed = true
		}
	}
	assert.True(t, validateFailed)
}

func TestParseBBox(t *testing.T) {
	doc := `<html><body><doc>
<page width="595" height="842">
<word xMin="56.2" yMin="100.0" xMax="90.4" yMax="112.0">Total</word>
<word xMin="95.0" yMin="100.0" xMax="110.0" yMax="112.0">HT</word>
<word xMin="200.0" yMin="100.0" xMax="260.0" yMax="112.0">1&#160;000,00</word>
</page>
<page width="595" height="842">
<word xMin="56.2" yMin="50.0" xMax="90.4" yMax="62.0">Annexe</word>
</page>
</doc></body></html>`

	tokens := parseBBox(doc)

	require.Len(t, tokens, 4)
	assert.Equal(t, "Total", tokens[0].Text)
	assert.Equal(t, 0, tokens[0].Page)
	assert.InDelta(t, 56.2, tokens[0].X0, 1e-9)
	assert.Equal(t, "1 000,00", tokens[2].Text)
	assert.Equal(t, 1, tokens[3].Page)
	assert.Equal(t, "Annexe", tokens[3].Text)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n1,5;2,5\n")))
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c\n")))
}
