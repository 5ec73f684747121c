// Package neuprint is a thin client for the neuPrint HTTP API, the slow
// external source that page generation is caching in front of.
package neuprint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"neupages/internal/errs"
	"neupages/internal/ports"
)

type Config struct {
	Server  string
	Dataset string
	Token   string
	Timeout time.Duration
}

type Client struct {
	rest    *resty.Client
	dataset string
}

var _ ports.NeuronSource = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Server) == "" {
		return nil, errors.New("neuprint server is required")
	}
	if strings.TrimSpace(cfg.Dataset) == "" {
		return nil, errors.New("neuprint dataset is required")
	}

	rest := resty.New().
		SetBaseURL(cfg.Server).
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		rest.SetTimeout(cfg.Timeout)
	}
	if cfg.Token != "" {
		rest.SetAuthToken(cfg.Token)
	}

	return &Client{
		rest:    rest,
		dataset: cfg.Dataset,
	}, nil
}

// Datasets lists the datasets the server exposes, used as the connection
// test.
func (c *Client) Datasets(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	resp, err := c.rest.R().SetContext(ctx).Get("/api/dbmeta/datasets")
	if err != nil {
		return nil, errs.Wrap(err, "fetch datasets")
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch datasets: status %s", resp.Status())
	}

	// The response is an object keyed by dataset name.
	var datasets []string
	gjson.ParseBytes(resp.Body()).ForEach(func(key, _ gjson.Result) bool {
		datasets = append(datasets, key.String())
		return true
	})
	sort.Strings(datasets)
	return datasets, nil
}

// NeuronTypes returns every distinct neuron type in the dataset.
func (c *Client) NeuronTypes(ctx context.Context) ([]string, error) {
	result, err := c.custom(ctx, "MATCH (n:Neuron) WHERE n.type IS NOT NULL RETURN DISTINCT n.type AS type ORDER BY type")
	if err != nil {
		return nil, err
	}

	var types []string
	for _, row := range result.Get("data").Array() {
		if t := row.Get("0").String(); t != "" {
			types = append(types, t)
		}
	}
	return types, nil
}

// NeuronSummary aggregates counts and synapse totals for one neuron type.
func (c *Client) NeuronSummary(ctx context.Context, neuronType string) (ports.NeuronSummary, error) {
	if strings.TrimSpace(neuronType) == "" {
		return ports.NeuronSummary{}, errors.New("neuron type is required")
	}

	cypher := fmt.Sprintf(
		"MATCH (n:Neuron) WHERE n.type = '%s' "+
			"RETURN count(n) AS total, sum(n.pre) AS pre, sum(n.post) AS post, collect(DISTINCT n.somaSide) AS sides",
		escapeCypherString(neuronType),
	)
	result, err := c.custom(ctx, cypher)
	if err != nil {
		return ports.NeuronSummary{}, errs.Wrapf(err, "fetch summary for %s", neuronType)
	}

	rows := result.Get("data").Array()
	if len(rows) == 0 {
		return ports.NeuronSummary{}, fmt.Errorf("no summary row for neuron type %s", neuronType)
	}
	row := rows[0]

	var sides []string
	for _, side := range row.Get("3").Array() {
		if s := side.String(); s != "" {
			sides = append(sides, s)
		}
	}
	sort.Strings(sides)

	return ports.NeuronSummary{
		Type:         neuronType,
		TotalCount:   row.Get("0").Int(),
		PreSynapses:  row.Get("1").Int(),
		PostSynapses: row.Get("2").Int(),
		SomaSides:    sides,
	}, nil
}

// ROIHierarchy fetches the dataset's ROI hierarchy as raw JSON.
func (c *Client) ROIHierarchy(ctx context.Context) ([]byte, error) {
	result, err := c.custom(ctx, "MATCH (m:Meta) RETURN m.roiHierarchy AS hierarchy")
	if err != nil {
		return nil, errs.Wrap(err, "fetch roi hierarchy")
	}

	rows := result.Get("data").Array()
	if len(rows) == 0 {
		return nil, errors.New("no meta row for roi hierarchy")
	}
	hierarchy := rows[0].Get("0").String()
	if hierarchy == "" {
		return nil, errors.New("empty roi hierarchy")
	}
	return []byte(hierarchy), nil
}

func (c *Client) custom(ctx context.Context, cypher string) (gjson.Result, error) {
	if ctx == nil {
		return gjson.Result{}, errors.New("context is required")
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"cypher":  cypher,
			"dataset": c.dataset,
		}).
		Post("/api/custom/custom")
	if err != nil {
		return gjson.Result{}, errs.Wrap(err, "run custom query")
	}
	if resp.IsError() {
		return gjson.Result{}, fmt.Errorf("run custom query: status %s", resp.Status())
	}
	return gjson.ParseBytes(resp.Body()), nil
}

// escapeCypherString escapes a value for direct inclusion in a single-quoted
// Cypher string literal.
func escapeCypherString(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}
