// Package simbad queries the SIMBAD TAP service for galaxies inside an
// image footprint. The service is a black box to the pipeline: one region
// query per run, a hard timeout, and an error (never a partial result) when
// the service misbehaves. Callers treat a failed query as zero rows.
package simbad

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gonkane/galaxy-annotate/pkg/catalog"
)

// DefaultBaseURL is the SIMBAD TAP endpoint at CDS Strasbourg.
const DefaultBaseURL = "https://simbad.cds.unistra.fr/simbad/sim-tap"

// DefaultTimeout bounds the single region query.
const DefaultTimeout = 120 * time.Second

// Client issues TAP region queries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given TAP base URL. An empty URL
// selects the CDS endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Query describes one region query.
type Query struct {
	CenterRA  float64 // degrees
	CenterDec float64 // degrees
	RadiusDeg float64

	// MinSizeArcmin excludes galaxies smaller than this unless their size
	// is unknown; derived from the image pixel scale by the caller.
	MinSizeArcmin float64

	// ExcludeTypes drops result rows whose derived catalog code matches;
	// used for objects already covered by the local catalogs.
	ExcludeTypes []string
}

// ADQL renders the region query. Galaxies without a recorded size pass the
// size criterion; they get the minimum patch later.
func (q Query) ADQL() string {
	return fmt.Sprintf(
		"SELECT main_id, ra, dec, galdim_majaxis FROM basic "+
			"WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', %s, %s, %s))=1 "+
			"AND otype = 'Galaxy..' "+
			"AND (galdim_majaxis > %s OR galdim_majaxis IS NULL)",
		trimFloat(q.CenterRA), trimFloat(q.CenterDec), trimFloat(q.RadiusDeg), trimFloat(q.MinSizeArcmin))
}

// tapResponse is the TAP json serialization: column metadata plus row-major
// data with nulls for missing values.
type tapResponse struct {
	Metadata []struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Data [][]any `json:"data"`
}

// QueryRegion performs one synchronous TAP query and normalizes the result
// into catalog rows sorted descending by angular size (unknown sizes last).
// Row types are derived from the identifier prefix; rows matching an
// excluded type are dropped.
func (c *Client) QueryRegion(ctx context.Context, q Query) ([]catalog.Row, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	form := url.Values{}
	form.Set("request", "doQuery")
	form.Set("lang", "adql")
	form.Set("format", "json")
	form.Set("query", q.ADQL())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("simbad: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simbad: query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("simbad: service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tap tapResponse
	if err := json.NewDecoder(resp.Body).Decode(&tap); err != nil {
		return nil, fmt.Errorf("simbad: decode response: %w", err)
	}
	return normalize(tap, q.ExcludeTypes)
}

func normalize(tap tapResponse, excludeTypes []string) ([]catalog.Row, error) {
	col := make(map[string]int, len(tap.Metadata))
	for i, m := range tap.Metadata {
		col[strings.ToLower(m.Name)] = i
	}
	idIdx, okID := col["main_id"]
	raIdx, okRA := col["ra"]
	decIdx, okDec := col["dec"]
	if !okID || !okRA || !okDec {
		return nil, fmt.Errorf("simbad: response is missing required columns")
	}
	sizeIdx, hasSize := col["galdim_majaxis"]

	excluded := make(map[string]bool, len(excludeTypes))
	for _, t := range excludeTypes {
		excluded[t] = true
	}

	var rows []catalog.Row
	for _, rec := range tap.Data {
		if idIdx >= len(rec) || raIdx >= len(rec) || decIdx >= len(rec) {
			continue
		}
		id, ok := rec[idIdx].(string)
		if !ok {
			continue
		}
		ra, okA := asFloat(rec[raIdx])
		dec, okB := asFloat(rec[decIdx])
		if !okA || !okB {
			continue
		}
		size := math.NaN()
		if hasSize && sizeIdx < len(rec) {
			if v, ok := asFloat(rec[sizeIdx]); ok {
				size = v
			}
		}
		typ := catalog.TypeFromID(id)
		if excluded[typ] {
			continue
		}
		rows = append(rows, catalog.Row{
			MainID:           strings.TrimSpace(id),
			RA:               ra,
			Dec:              dec,
			Type:             typ,
			AngularMajorAxis: size,
		})
	}

	// Largest objects first; rows without a size sort to the end.
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].AngularMajorAxis, rows[j].AngularMajorAxis
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a > b
	})
	return rows, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
