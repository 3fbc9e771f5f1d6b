package handler

import (
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"compensation-engine/internal/engine"
	"compensation-engine/internal/jsonpatch"
	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
	"compensation-engine/internal/render"
)

type staticSource []paramtable.Row

func (s staticSource) Name() string { return "static" }

func (s staticSource) Rows(context.Context) ([]paramtable.Row, error) { return s, nil }

var testRows = staticSource{{
	Year:                   2025,
	Region:                 "guangxi",
	Residency:              model.ResidencyUrban,
	DisposableIncome:       decimal.NewFromInt(30000),
	ConsumptionExpenditure: decimal.NewFromInt(20000),
	AverageWage:            decimal.NewFromInt(60000),
	FuneralBase:            decimal.NewFromInt(96000),
	DailyNursingRate:       decimal.NewFromInt(150),
}}

func newTestServer(t *testing.T, sources ...paramtable.Source) *Server {
	t.Helper()
	store := paramtable.NewStore(nil)
	require.NoError(t, store.Load(context.Background(), testRows))
	return New(engine.New(store, nil), store, sources, render.DefaultTemplate(), nil)
}

func do(s *Server, method, uri, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	s.Handle(&ctx)
	return &ctx
}

const workedExample = `{
	"victim_name": "Li Wei",
	"age": 40,
	"residency": "urban",
	"region": "guangxi",
	"incident_date": "2025-03-14",
	"liability_ratio": "0.7",
	"injury": "disability",
	"disability_grades": [8]
}`

func decodeError(t *testing.T, ctx *fasthttp.RequestCtx) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return resp
}

func TestCalculateWorkedExample(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/calculate", workedExample)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	var resp model.CalculationResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, model.OutcomeSuccess, resp.CalculationMetadata.CalculationOutcome)
	assert.NotEmpty(t, resp.CalculationMetadata.CalculationID)

	res := resp.CalculationResult
	require.NotNil(t, res)
	require.Len(t, res.Items, 1)
	assert.Equal(t, model.CategoryDisabilityCompensation, res.Items[0].Category)
	assert.True(t, res.Items[0].Amount.Equal(decimal.NewFromInt(180000)), res.Items[0].Amount.String())
	assert.True(t, res.Subtotal.Equal(decimal.NewFromInt(180000)))
	assert.True(t, res.GrandTotal.Equal(decimal.NewFromInt(126000)), res.GrandTotal.String())
}

func TestCalculateValidationError(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/calculate", `{"residency":"suburban","region":"guangxi","incident_date":"2025-03-14","liability_ratio":"1.5"}`)
	require.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	resp := decodeError(t, ctx)
	assert.Equal(t, "validation", resp.Kind)
	var fields []string
	for _, v := range resp.Violations {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"age", "residency", "liability_ratio"}, fields)
}

func TestCalculateTableNotFound(t *testing.T) {
	s := newTestServer(t)
	body := strings.Replace(workedExample, `"guangxi"`, `"hainan"`, 1)
	ctx := do(s, fasthttp.MethodPost, "/api/calculate", body)
	require.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "table_not_found", decodeError(t, ctx).Kind)
}

func TestCalculateNothingCompensable(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/calculate", `{"age":30,"residency":"urban","region":"guangxi","incident_date":"2025-03-14","liability_ratio":"1"}`)
	require.Equal(t, fasthttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
	assert.Equal(t, "computation", decodeError(t, ctx).Kind)
}

func TestCalculateMissingCaregiverRate(t *testing.T) {
	store := paramtable.NewStore(nil)
	row := testRows[0]
	row.DailyNursingRate = decimal.Zero
	require.NoError(t, store.Load(context.Background(), staticSource{row}))
	s := New(engine.New(store, nil), store, nil, render.DefaultTemplate(), nil)

	body := strings.Replace(workedExample, `"disability_grades": [8]`, `"disability_grades": [8], "nursing": {"days": 10}`, 1)
	ctx := do(s, fasthttp.MethodPost, "/api/calculate", body)
	require.Equal(t, fasthttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
	resp := decodeError(t, ctx)
	assert.Equal(t, model.CategoryNursing, resp.Category)
}

func TestCalculateInvalidBody(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/calculate", `{not json`)
	require.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "invalid_body", decodeError(t, ctx).Kind)
}

func TestExportMarkdown(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/export?format=md", workedExample)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	assert.Equal(t, "text/markdown; charset=utf-8", string(ctx.Response.Header.ContentType()))
	disposition := string(ctx.Response.Header.Peek("Content-Disposition"))
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="LiWei-compensation-20250314-`), disposition)
	assert.NotEmpty(t, ctx.Response.Header.Peek("X-Result-Id"))
	assert.Contains(t, string(ctx.Response.Body()), "**Grand total: 126,000.00 CNY**")
}

func TestContentDispositionEncodesUnicodeName(t *testing.T) {
	assert.Equal(t,
		`attachment; filename="__-compensation-20250314.md"; filename*=UTF-8''%E5%BC%A0%E4%B8%89-compensation-20250314.md`,
		contentDisposition("张三-compensation-20250314.md"))
	assert.Equal(t,
		`attachment; filename="LiWei-compensation.docx"; filename*=UTF-8''LiWei-compensation.docx`,
		contentDisposition("LiWei-compensation.docx"))
}

func TestExportDefaultsToDOCX(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/export", workedExample)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", string(ctx.Response.Header.ContentType()))
	assert.True(t, strings.HasPrefix(string(ctx.Response.Body()), "PK"))
}

func TestExportUnknownFormat(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/export?format=pdf", workedExample)
	require.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "invalid_format", decodeError(t, ctx).Kind)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t)
	revised := strings.Replace(workedExample, `"0.7"`, `"1"`, 1)
	ctx := do(s, fasthttp.MethodPost, "/api/compare", `{"baseline":`+workedExample+`,"revised":`+revised+`}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var resp model.CompareResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.NotNil(t, resp.Baseline)
	require.NotNil(t, resp.Revised)
	assert.True(t, resp.Baseline.GrandTotal.Equal(decimal.NewFromInt(126000)))
	assert.True(t, resp.Revised.GrandTotal.Equal(decimal.NewFromInt(180000)))

	var ops []jsonpatch.Operation
	require.NoError(t, json.Unmarshal(resp.Patch, &ops))
	paths := map[string]string{}
	for _, op := range ops {
		paths[op.Path] = op.Op
	}
	assert.Equal(t, "replace", paths["/grand_total"])
	assert.Equal(t, "replace", paths["/liability_ratio"])
	assert.Equal(t, "replace", paths["/result_id"])
	assert.NotContains(t, paths, "/subtotal")
	assert.NotContains(t, paths, "/items/0/amount")
}

func TestCompareIdenticalCases(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/compare", `{"baseline":`+workedExample+`,"revised":`+workedExample+`}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp model.CompareResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.JSONEq(t, `[]`, string(resp.Patch))
	assert.Equal(t, resp.Baseline.ResultID, resp.Revised.ResultID)
}

func TestTablesAndReload(t *testing.T) {
	s := newTestServer(t, testRows)

	ctx := do(s, fasthttp.MethodGet, "/api/tables", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var list tablesResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &list))
	require.Len(t, list.Tables, 1)
	assert.Equal(t, "2025/guangxi/urban", list.Tables[0].Key)
	assert.True(t, strings.HasPrefix(list.Tables[0].Version, "2025/guangxi/urban@"))
	assert.Equal(t, []string{"static"}, list.Sources)

	ctx = do(s, fasthttp.MethodPost, "/api/tables/reload", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var reloaded tablesResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &reloaded))
	assert.Equal(t, list.Revision, reloaded.Revision)
}

func TestReloadFailureKeepsTables(t *testing.T) {
	broken := testRows[0]
	broken.DisposableIncome = decimal.Zero
	s := newTestServer(t, staticSource{broken})
	before := s.store.Snapshot().Revision()

	ctx := do(s, fasthttp.MethodPost, "/api/tables/reload", "")
	require.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())
	assert.Equal(t, "reload_failed", decodeError(t, ctx).Kind)
	assert.Equal(t, before, s.store.Snapshot().Revision())
}

func TestReloadWithoutSources(t *testing.T) {
	s := newTestServer(t)
	ctx := do(s, fasthttp.MethodPost, "/api/tables/reload", "")
	assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())
}

func TestRouting(t *testing.T) {
	s := newTestServer(t)

	ctx := do(s, fasthttp.MethodGet, "/api/unknown", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx = do(s, fasthttp.MethodGet, "/api/calculate", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
	assert.Equal(t, fasthttp.MethodPost, string(ctx.Response.Header.Peek(fasthttp.HeaderAllow)))

	ctx = do(s, fasthttp.MethodGet, "/healthz", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"status":"ok","tables":1,"revision":"`+s.store.Snapshot().Revision()+`"}`, string(ctx.Response.Body()))
}
