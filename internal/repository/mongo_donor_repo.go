package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/bloodlink/internal/database"
	"github.com/hitoshi/bloodlink/internal/model"
)

// donorDocument はdonorsコレクションのBSONドキュメント表現。
// ドメインモデルとストレージ表現を分離するため、model.Donorとは別に定義する。
type donorDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	BloodGroup  string             `bson:"bloodGroup"`
	Area        string             `bson:"area"`
	IsAvailable bool               `bson:"isAvailable"`
	Extra       map[string]string  `bson:"extra,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// toModel はBSONドキュメントをドメインモデルに変換する。
func (d *donorDocument) toModel() *model.Donor {
	return &model.Donor{
		ID:          d.ID.Hex(),
		Email:       d.Email,
		BloodGroup:  model.BloodGroup(d.BloodGroup),
		Area:        d.Area,
		IsAvailable: d.IsAvailable,
		Extra:       d.Extra,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoDonorRepo はMongoDBを使用したドナーリポジトリ。
type MongoDonorRepo struct {
	collection *mongo.Collection
}

// NewMongoDonorRepo はMongoDonorRepoを生成する。
func NewMongoDonorRepo(db *mongo.Database) *MongoDonorRepo {
	return &MongoDonorRepo{
		collection: db.Collection(database.DonorCollection),
	}
}

// FindByEmail は指定メールアドレスのドナーを取得する。見つからない場合はnilを返す。
func (r *MongoDonorRepo) FindByEmail(ctx context.Context, email string) (*model.Donor, error) {
	var doc donorDocument
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find donor by email: %w", err)
	}

	return doc.toModel(), nil
}

// List は条件に一致するドナーをcreatedAt昇順（同時刻は_id昇順）で返す。
// ストアのデフォルト順序に依存せず、決定的な順序を保証する。
func (r *MongoDonorRepo) List(ctx context.Context, filter DonorFilter, offset, limit int) ([]*model.Donor, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, buildDonorFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list donors: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []donorDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode donors: %w", err)
	}

	donors := make([]*model.Donor, len(docs))
	for i := range docs {
		donors[i] = docs[i].toModel()
	}
	return donors, nil
}

// Count は条件に一致するドナー数を返す。
// Listと同一のbuildDonorFilterを使用するため、件数とページ内容の条件は常に一致する。
func (r *MongoDonorRepo) Count(ctx context.Context, filter DonorFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, buildDonorFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count donors: %w", err)
	}
	return count, nil
}

// Create はドナーを作成し、生成されたレコードIDを返す。
func (r *MongoDonorRepo) Create(ctx context.Context, donor *model.Donor) (string, error) {
	doc := donorDocument{
		Email:       donor.Email,
		BloodGroup:  string(donor.BloodGroup),
		Area:        donor.Area,
		IsAvailable: donor.IsAvailable,
		Extra:       donor.Extra,
		CreatedAt:   donor.CreatedAt,
		UpdatedAt:   donor.UpdatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert donor: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type: %T", result.InsertedID)
	}
	return oid.Hex(), nil
}

// UpdateByEmail は指定フィールドのみを$setで部分更新し、更新されたレコード数を返す。
func (r *MongoDonorRepo) UpdateByEmail(ctx context.Context, email string, fields map[string]any) (int64, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": fields},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update donor: %w", err)
	}
	return result.ModifiedCount, nil
}

// DeleteByEmail は指定メールアドレスのドナーを削除し、削除されたレコード数を返す。
func (r *MongoDonorRepo) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return 0, fmt.Errorf("failed to delete donor: %w", err)
	}
	return result.DeletedCount, nil
}

// compile-time interface check
var _ DonorRepository = (*MongoDonorRepo)(nil)
