package milvus

import (
	"context"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// store is the subset of the Milvus client the index uses.
type store interface {
	HasCollection(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema) error
	CreateIndex(ctx context.Context, collection, field string, idx entity.Index) error
	LoadCollection(ctx context.Context, collection string) error
	Upsert(ctx context.Context, collection string, columns ...entity.Column) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]client.SearchResult, error)
	Delete(ctx context.Context, collection, expr string) error
	Close() error
}

// sdkStore adapts client.Client to store.
type sdkStore struct {
	c client.Client
}

func (s sdkStore) HasCollection(ctx context.Context, name string) (bool, error) {
	return s.c.HasCollection(ctx, name)
}

func (s sdkStore) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	return s.c.CreateCollection(ctx, schema, entity.DefaultShardNumber)
}

func (s sdkStore) CreateIndex(ctx context.Context, collection, field string, idx entity.Index) error {
	return s.c.CreateIndex(ctx, collection, field, idx, false)
}

func (s sdkStore) LoadCollection(ctx context.Context, collection string) error {
	return s.c.LoadCollection(ctx, collection, false)
}

func (s sdkStore) Upsert(ctx context.Context, collection string, columns ...entity.Column) error {
	_, err := s.c.Upsert(ctx, collection, "", columns...)
	return err
}

func (s sdkStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]client.SearchResult, error) {
	sp, err := entity.NewIndexHNSWSearchParam(searchEf(topK))
	if err != nil {
		return nil, err
	}
	return s.c.Search(ctx, collection, nil, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)}, fieldVector, entity.COSINE, topK, sp)
}

func (s sdkStore) Delete(ctx context.Context, collection, expr string) error {
	return s.c.Delete(ctx, collection, "", expr)
}

func (s sdkStore) Close() error {
	return s.c.Close()
}

// searchEf keeps ef at least topK, which HNSW requires.
func searchEf(topK int) int {
	if topK > 128 {
		return topK
	}
	return 128
}
