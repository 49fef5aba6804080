package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := model.DefaultAppConfig()
	cfg.DataDir = t.TempDir()
	svc, err := service.New(cfg)
	require.NoError(t, err)
	return NewApp(svc)
}

const cuttingBody = `{
	"tables": {
		"items":  [{"Item": "Leg", "Length": 300, "Demand": 3, "Price": 0}],
		"stocks": [{"Name": "Bar", "Length": 1000, "Cost": 10, "Limit": 5}]
	},
	"settings": {"kerf": 0, "sense": "minimize"}
}`

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, data []byte) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestHealthCheck(t *testing.T) {
	resp, data := do(t, newTestApp(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"status":"UP"`)
}

func TestTemplates(t *testing.T) {
	resp, data := do(t, newTestApp(t), http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var gallery []model.TemplateInfo
	require.NoError(t, json.Unmarshal(data, &gallery))
	assert.Len(t, gallery, len(model.TemplateGallery))
	assert.Equal(t, model.ModeCutting, gallery[0].ID)
}

func TestGenerateModel(t *testing.T) {
	app := newTestApp(t)

	resp, data := do(t, app, http.MethodPost, "/api/v1/templates/cutting/model", cuttingBody)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))
	var m struct {
		Objective   string   `json:"objective"`
		Constraints []string `json:"constraints"`
	}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.NotEmpty(t, m.Objective)
	assert.Contains(t, m.Constraints[len(m.Constraints)-1], "Demand_IT0")

	resp, data = do(t, app, http.MethodPost, "/api/v1/templates/knapsack/model", `{}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, decodeError(t, data).Error.Code)
}

func TestSolveCutting(t *testing.T) {
	resp, data := do(t, newTestApp(t), http.MethodPost, "/api/v1/cutting/solve", cuttingBody)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))

	var out service.CuttingResponse
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, model.StatusOptimal, out.Result.Status)
	assert.InDelta(t, 10.0, out.Result.Objective, 1e-6)
	require.NotNil(t, out.Result.Plan)
	assert.Len(t, out.Result.Plan.Bins, 1)
	assert.Len(t, out.CutList, 1)
}

func TestSolveCutting_ValidationErrors(t *testing.T) {
	app := newTestApp(t)

	resp, data := do(t, app, http.MethodPost, "/api/v1/cutting/solve", `{"tables":{"items":[],"stocks":[]}}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, data).Error.Message, "stock")

	wide := `{"tables":{"items":[{"Item":"Leg","Length":300,"Demand":1}],"stocks":[{"Name":"Bar","Length":1000,"Cost":10}]},"settings":{"kerf":1000}}`
	resp, data = do(t, app, http.MethodPost, "/api/v1/cutting/solve", wide)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, data).Error.Message, "kerf")

	resp, data = do(t, app, http.MethodPost, "/api/v1/cutting/solve", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, data).Error.Message, "Invalid JSON")
}

func TestSolve(t *testing.T) {
	body := `{
		"mode": "custom",
		"store": {"variables": [{"name": "x", "shape": "scalar", "type": "Integer"}], "parameters": []},
		"sense": "maximize",
		"objective": "3 * x",
		"constraints": "Cap: 2 * x <= 9"
	}`
	resp, data := do(t, newTestApp(t), http.MethodPost, "/api/v1/solve", body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))

	var res model.SolveResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, model.StatusOptimal, res.Status)
	assert.InDelta(t, 12.0, res.Objective, 1e-6)
	require.Len(t, res.Variables, 1)
	assert.InDelta(t, 4.0, res.Variables[0].Value, 1e-6)
}

func TestCompare(t *testing.T) {
	resp, data := do(t, newTestApp(t), http.MethodPost, "/api/v1/cutting/compare", cuttingBody)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))

	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 2, out.Count)
}

func TestExport(t *testing.T) {
	app := newTestApp(t)

	resp, data := do(t, app, http.MethodPost, "/api/v1/cutting/export/pdf", cuttingBody)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "cut_plan.pdf")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	resp, _ = do(t, app, http.MethodPost, "/api/v1/cutting/export/xlsx", cuttingBody)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, data = do(t, app, http.MethodPost, "/api/v1/cutting/export/svg", cuttingBody)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decodeError(t, data).Error.Message, "svg")
}

func TestImport(t *testing.T) {
	app := newTestApp(t)

	upload := func(table string) *http.Response {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("file", "stock.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("Name;Length;Cost\nLong_Bar;5000;28\n"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/"+table, &body)
		req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := upload("stocks")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res struct {
		Rows []model.Row `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Long_Bar", res.Rows[0].String("Name"))
	assert.Equal(t, float64(model.DefaultStockLimit), res.Rows[0].FloatOr("Limit", 0))

	assert.Equal(t, fiber.StatusNotFound, upload("orders").StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/api/v1/import/items", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProjects(t *testing.T) {
	app := newTestApp(t)

	resp, data := do(t, app, http.MethodPost, "/api/v1/projects", `{"name":"Shelving","mode":"cutting"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(data))
	var saved model.Project
	require.NoError(t, json.Unmarshal(data, &saved))
	require.NotEmpty(t, saved.ID)

	resp, data = do(t, app, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Shelving")

	resp, _ = do(t, app, http.MethodGet, "/api/v1/projects/"+saved.ID, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/api/v1/projects/"+saved.ID, "")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, data = do(t, app, http.MethodGet, "/api/v1/projects/"+saved.ID, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, decodeError(t, data).Error.Code)
}

func TestInventory(t *testing.T) {
	app := newTestApp(t)

	resp, data := do(t, app, http.MethodGet, "/api/v1/inventory", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Long_Bar")

	resp, data = do(t, app, http.MethodPost, "/api/v1/inventory", `{"stocks":[{"name":"Oak 2000","length":2000,"cost":40,"material":"Wood"}]}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))
	assert.Contains(t, string(data), `"added":1`)

	resp, _ = do(t, app, http.MethodPost, "/api/v1/inventory", `{"stocks":[{"name":"Broken","length":0}]}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var out struct {
		Inventory model.Inventory `json:"inventory"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	id := out.Inventory.Stocks[len(out.Inventory.Stocks)-1].ID
	resp, data = do(t, app, http.MethodGet, "/api/v1/inventory/"+id, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Oak 2000")

	resp, _ = do(t, app, http.MethodGet, "/api/v1/inventory/missing", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	resp, data := do(t, newTestApp(t), http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, decodeError(t, data).Error.Code)
}
