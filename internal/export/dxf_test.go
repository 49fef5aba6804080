package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/optimystic/internal/model"
)

func TestWriteDXF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDXF(&buf, buildTestPlan()))

	out := buf.String()
	assert.Contains(t, out, "SECTION")
	assert.Contains(t, out, "EOF")
	assert.Contains(t, out, LayerCuts)
	assert.Contains(t, out, "Stock #1: Long_Bar (5000 mm)")
	assert.Contains(t, out, "Table_Leg 700")
}

func TestDrawPlanLayers(t *testing.T) {
	d, err := drawPlan(buildTestPlan())
	require.NoError(t, err)
	require.NotNil(t, d)
	for _, layer := range []string{LayerBars, LayerCuts, LayerLabels} {
		assert.NoError(t, d.ChangeLayer(layer), layer)
	}
}

func TestWriteDXF_EmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteDXF(&buf, model.CutPlan{}))
	assert.Zero(t, buf.Len())
}

func TestCutPositions(t *testing.T) {
	plan := buildTestPlan()
	assert.Equal(t, []float64{2200, 2205, 4405}, cutPositions(plan.Bins[0]))

	// A piece flush with the bar end needs no cut
	flush := model.BinPlan{
		Stock: model.NewStock("Bar", 1000, 1, 1),
		Segments: []model.Segment{
			{Kind: model.SegmentProduct, Label: "A", Start: 0, Length: 500},
			{Kind: model.SegmentProduct, Label: "A", Start: 500, Length: 500},
		},
	}
	assert.Equal(t, []float64{500}, cutPositions(flush))
}

func TestFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.Equal(t, "plan_labels.pdf", FormatLabels.FileName("plan"))
	assert.Equal(t, "plan.xlsx", FormatXLSX.FileName("plan"))
	assert.Equal(t, "plan.gcode", FormatGCode.FileName("plan"))

	_, err = ParseFormat("svg")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWrite(t *testing.T) {
	res := testResult()
	for _, f := range Formats() {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, res, buildTestSettings()), f)
		assert.NotZero(t, buf.Len(), f)
	}

	settings := buildTestSettings()
	settings.MachineProfile = "Fanuc"
	var gc bytes.Buffer
	require.NoError(t, Write(&gc, FormatGCode, res, settings))
	assert.Contains(t, gc.String(), "G00 X")

	res.Plan = nil
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, FormatPDF, res, buildTestSettings()), ErrNoPlan)
	assert.NoError(t, Write(&buf, FormatXLSX, res, buildTestSettings()))
	assert.ErrorIs(t, Write(&buf, Format("svg"), res, buildTestSettings()), ErrUnknownFormat)
}
