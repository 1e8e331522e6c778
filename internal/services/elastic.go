package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"

	"nexusmart/internal/models"
)

// ProductSearch finds product ids by keyword.
type ProductSearch interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, keyword string) ([]string, error)
}

type ElasticSearch struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticSearch(client *elasticsearch.Client, index string) *ElasticSearch {
	return &ElasticSearch{client: client, index: index}
}

type productDocument struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

func (es *ElasticSearch) IndexProduct(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(productDocument{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.CategoryID,
		Price:       p.Price,
	})
	if err != nil {
		return errors.Wrap(err, "encode product document")
	}
	req := esapi.IndexRequest{
		Index:      es.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, es.client)
	if err != nil {
		return errors.Wrap(err, "index product")
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %s: %s", p.ID, res.String())
	}
	return nil
}

func (es *ElasticSearch) DeleteProduct(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: es.index, DocumentID: id, Refresh: "true"}
	res, err := req.Do(ctx, es.client)
	if err != nil {
		return errors.Wrap(err, "delete product document")
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product %s: %s", id, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchProducts returns matching ids, best match first.
func (es *ElasticSearch) SearchProducts(ctx context.Context, keyword string) ([]string, error) {
	var buf bytes.Buffer
	q := map[string]interface{}{
		"size":    100,
		"_source": false,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     strings.TrimSpace(keyword),
				"fields":    []string{"name^3", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, errors.Wrap(err, "encode search query")
	}

	req := esapi.SearchRequest{Index: []string{es.index}, Body: &buf}
	res, err := req.Do(ctx, es.client)
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search products: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
