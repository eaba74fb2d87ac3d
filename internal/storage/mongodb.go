package storage

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/steemfans/wallet-engine/internal/curation"
)

const reportsCollection = "curation_reports"

var decimalType = reflect.TypeOf(decimal.Decimal{})

// Decimal amounts are archived as strings; the driver's default struct codec
// would silently drop their unexported fields otherwise.
func decimalEncodeValue(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	d, ok := val.Interface().(decimal.Decimal)
	if !ok {
		return bsoncodec.ValueEncoderError{Name: "decimalEncodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	return vw.WriteString(d.String())
}

func decimalDecodeValue(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	s, err := vr.ReadString()
	if err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("malformed archived decimal %q: %w", s, err)
	}
	val.Set(reflect.ValueOf(d))
	return nil
}

func newRegistry() *bsoncodec.Registry {
	registry := bson.NewRegistry()
	registry.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(decimalEncodeValue))
	registry.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decimalDecodeValue))
	return registry
}

// ReportList is a paginated page of archived reports.
type ReportList struct {
	Reports  []curation.Report `json:"reports"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	HasMore  bool              `json:"has_more"`
}

// MongoDB archives finished curation reports. The engine itself never writes
// here; only the serving layer does, and the chain stays ground truth.
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	reports  *mongo.Collection
}

// NewMongoDB creates a new MongoDB storage client
func NewMongoDB(uri, databaseName string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(newRegistry()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(databaseName)

	return &MongoDB{
		client:   client,
		database: db,
		reports:  db.Collection(reportsCollection),
	}, nil
}

// Close closes the MongoDB connection
func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// SaveReport archives one finished report.
func (m *MongoDB) SaveReport(ctx context.Context, report *curation.Report) error {
	if _, err := m.reports.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetReports retrieves an account's archived reports, newest first.
func (m *MongoDB) GetReports(ctx context.Context, account string, page, pageSize int) (*ReportList, error) {
	filter := bson.M{}
	if account != "" {
		filter["summary.account"] = account
	}

	total, err := m.reports.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	skip := int64((page - 1) * pageSize)

	opts := options.Find().
		SetSort(bson.D{{Key: "generated_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(pageSize))

	cursor, err := m.reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []curation.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}

	hasMore := skip+int64(len(reports)) < total

	return &ReportList{
		Reports:  reports,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  hasMore,
	}, nil
}

// CreateIndexes creates necessary indexes for better query performance
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	accountIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "summary.account", Value: 1},
			{Key: "generated_at", Value: -1},
		},
	}

	generatedIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "generated_at", Value: -1}},
	}

	_, err := m.reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		accountIndex,
		generatedIndex,
	})
	return err
}
