package qdrant

import (
	"context"
	"fmt"
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// contentKey is the payload field holding the document text
const contentKey = "content"

// VectorRepository implements repositories.VectorIndex on a Qdrant collection over gRPC
type VectorRepository struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	logger      *zap.Logger
}

// Dial connects to Qdrant at addr (host:port of the gRPC API)
func Dial(addr, collection string, logger *zap.Logger) (*VectorRepository, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	logger.Info("qdrant client created",
		zap.String("address", addr),
		zap.String("collection", collection))

	repo := NewVectorRepository(pb.NewPointsClient(conn), collection, logger)
	repo.collections = pb.NewCollectionsClient(conn)
	repo.conn = conn
	return repo, nil
}

// NewVectorRepository wraps an existing points client
func NewVectorRepository(points pb.PointsClient, collection string, logger *zap.Logger) *VectorRepository {
	return &VectorRepository{
		points:     points,
		collection: collection,
		logger:     logger,
	}
}

// SimilaritySearch returns the k nearest points. A missing collection is an empty index.
func (r *VectorRepository) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]models.Document, error) {
	if k <= 0 {
		return []models.Document{}, nil
	}

	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			r.logger.Debug("qdrant collection missing, treating index as empty")
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	docs := make([]models.Document, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		doc := models.Document{
			ID:       pointID(pt.GetId()),
			Score:    float64(pt.GetScore()),
			Metadata: make(map[string]any),
		}
		for key, v := range pt.GetPayload() {
			if key == contentKey {
				doc.Content = v.GetStringValue()
				continue
			}
			doc.Metadata[key] = fromValue(v)
		}
		docs = append(docs, doc)
	}

	return repositories.RankDocuments(docs, k), nil
}

// Upsert writes docs as points; document IDs must be UUIDs
func (r *VectorRepository) Upsert(ctx context.Context, docs []models.IndexedDocument) error {
	points := make([]*pb.PointStruct, len(docs))
	for i, d := range docs {
		payload := map[string]*pb.Value{
			contentKey: {Kind: &pb.Value_StringValue{StringValue: d.Content}},
		}
		for key, v := range d.Metadata {
			payload[key] = toValue(v)
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: d.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: d.Vector}}},
			Payload: payload,
		}
	}

	wait := true
	if _, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}

	r.logger.Debug("points upserted", zap.Int("count", len(docs)))
	return nil
}

// Count returns the exact number of points in the collection
func (r *VectorRepository) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := r.points.Count(ctx, &pb.CountPoints{
		CollectionName: r.collection,
		Exact:          &exact,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// EnsureSchema creates the collection with cosine distance if it does not exist
func (r *VectorRepository) EnsureSchema(ctx context.Context, dimension int) error {
	if r.collections == nil {
		return fmt.Errorf("qdrant: collections client not configured")
	}

	_, err := r.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: r.collection})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("qdrant get collection: %w", err)
	}

	if _, err := r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{
			Params: &pb.VectorParams{Size: uint64(dimension), Distance: pb.Distance_Cosine},
		}},
	}); err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}

	r.logger.Info("qdrant collection created",
		zap.String("collection", r.collection),
		zap.Int("dimension", dimension))
	return nil
}

// Close closes the gRPC connection when the repository owns it
func (r *VectorRepository) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func pointID(id *pb.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func toValue(v any) *pb.Value {
	switch val := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: val}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: val}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: models.FormatMetadataValue(val)}}
	}
}

func fromValue(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}
