// Package qdrant provides a vector driver backed by a Qdrant collection.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/marquee/pkg/vector"
)

const (
	// DefaultCollection is the collection movie vectors are written to.
	DefaultCollection = "marquee_movies"

	defaultPort = 6334
	upsertBatch = 256
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the gRPC "host:port" of the Qdrant server.
	Target string

	// Collection overrides DefaultCollection.
	Collection string
}

// Driver implements vector.Driver on a Qdrant collection using Euclid
// distance and exact search. Point ids are the vector positions.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// NewDriver connects to Qdrant.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	host, port, err := parseTarget(c.Target)
	if err != nil {
		return nil, err
	}

	collection := c.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", vector.ErrConnection, c.Target, err)
	}

	logger.Debug("qdrant vector driver initialized",
		"host", host,
		"port", port,
		"collection", collection,
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// parseTarget splits "host:port", defaulting the port when absent.
func parseTarget(target string) (string, int, error) {
	if target == "" {
		return "", 0, errors.New("qdrant target is required")
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, defaultPort, nil //nolint:nilerr // no port, use default
	}
	if host == "" {
		host = "localhost"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid qdrant port %q", portStr)
	}
	return host, port, nil
}

// Rebuild recreates the collection and upserts vectors with ids 0..N-1.
func (d *Driver) Rebuild(ctx context.Context, dimensions int, vectors [][]float32) error {
	if err := vector.CheckVectors(dimensions, vectors); err != nil {
		return err
	}

	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %w", vector.ErrConnection, err)
	}
	if exists {
		if err := d.client.DeleteCollection(ctx, d.collection); err != nil {
			return fmt.Errorf("deleting collection %s: %w", d.collection, err)
		}
	}

	if err := d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Euclid,
		}),
	}); err != nil {
		return fmt.Errorf("creating collection %s: %w", d.collection, err)
	}

	for start := 0; start < len(vectors); start += upsertBatch {
		end := min(start+upsertBatch, len(vectors))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(i)),
				Vectors: qdrant.NewVectors(vectors[i]...),
			})
		}

		if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: d.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		}); err != nil {
			return fmt.Errorf("upserting vectors %d-%d: %w", start, end-1, err)
		}
	}

	d.logger.Debug("rebuilt qdrant collection",
		"collection", d.collection,
		"count", len(vectors),
		"dimensions", dimensions,
	)
	return nil
}

// Search runs an exact query. For Euclid collections Qdrant scores are the
// distances themselves, ascending.
func (d *Driver) Search(ctx context.Context, query []float32, k int) (*vector.Neighbors, error) {
	dims, err := d.dimensions(ctx)
	if err != nil {
		return nil, err
	}

	if k <= 0 {
		return vector.NewNeighbors(0), nil
	}

	if len(query) != dims {
		return nil, &vector.DimensionError{Position: -1, Want: dims, Got: len(query)}
	}

	count, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("counting collection %s: %w", d.collection, err)
	}
	k = min(k, int(count))
	if k == 0 {
		return vector.NewNeighbors(0), nil
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Params: &qdrant.SearchParams{
			Exact: qdrant.PtrOf(true),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", d.collection, err)
	}

	slices.SortStableFunc(points, func(a, b *qdrant.ScoredPoint) int {
		switch {
		case a.GetScore() < b.GetScore():
			return -1
		case a.GetScore() > b.GetScore():
			return 1
		case a.GetId().GetNum() < b.GetId().GetNum():
			return -1
		case a.GetId().GetNum() > b.GetId().GetNum():
			return 1
		default:
			return 0
		}
	})

	n := vector.NewNeighbors(k)
	for i := 0; i < len(points) && i < k; i++ {
		n.Positions[i] = int64(points[i].GetId().GetNum())
		n.Distances[i] = points[i].GetScore()
	}
	return n, nil
}

// Count returns the number of points and the collection's vector size.
func (d *Driver) Count(ctx context.Context) (int, int, error) {
	dims, err := d.dimensions(ctx)
	if err != nil {
		return 0, 0, err
	}

	count, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("counting collection %s: %w", d.collection, err)
	}
	return int(count), dims, nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func (d *Driver) dimensions(ctx context.Context) (int, error) {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return 0, fmt.Errorf("%w: checking collection: %w", vector.ErrConnection, err)
	}
	if !exists {
		return 0, vector.ErrNotBuilt
	}

	info, err := d.client.GetCollectionInfo(ctx, d.collection)
	if err != nil {
		return 0, fmt.Errorf("reading collection %s: %w", d.collection, err)
	}

	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size == 0 {
		return 0, fmt.Errorf("collection %s has no single vector config", d.collection)
	}
	return int(size), nil
}

var _ vector.Driver = (*Driver)(nil)
