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

// userDocument はusersコレクションのBSONドキュメント表現。
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	PhotoURL  string             `bson:"photoURL"`
	Role      string             `bson:"role"`
	IsDonor   bool               `bson:"isDonor"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// toModel はBSONドキュメントをドメインモデルに変換する。
func (d *userDocument) toModel() *model.User {
	return &model.User{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		Name:      d.Name,
		PhotoURL:  d.PhotoURL,
		Role:      model.Role(d.Role),
		IsDonor:   d.IsDonor,
		CreatedAt: d.CreatedAt,
	}
}

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	collection *mongo.Collection
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{
		collection: db.Collection(database.UserCollection),
	}
}

// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return doc.toModel(), nil
}

// Create はユーザーを作成し、生成されたレコードIDを返す。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) (string, error) {
	doc := userDocument{
		Email:     user.Email,
		Name:      user.Name,
		PhotoURL:  user.PhotoURL,
		Role:      string(user.Role),
		IsDonor:   user.IsDonor,
		CreatedAt: user.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type: %T", result.InsertedID)
	}
	return oid.Hex(), nil
}

// List は条件に一致するユーザーをcreatedAt降順（新しい順）で最大limit件返す。
func (r *MongoUserRepo) List(ctx context.Context, filter UserFilter, limit int) ([]*model.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, buildUserFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*model.User, len(docs))
	for i := range docs {
		users[i] = docs[i].toModel()
	}
	return users, nil
}

// Count は条件に一致するユーザー数を返す。
// Listと同一のbuildUserFilterを使用するため、件数と一覧の条件は常に一致する。
func (r *MongoUserRepo) Count(ctx context.Context, filter UserFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, buildUserFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// SetDonorFlag はユーザーの非正規化isDonorフラグを更新し、更新されたレコード数を返す。
func (r *MongoUserRepo) SetDonorFlag(ctx context.Context, email string, isDonor bool) (int64, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"isDonor": isDonor}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to set donor flag: %w", err)
	}
	return result.ModifiedCount, nil
}

// compile-time interface check
var _ UserRepository = (*MongoUserRepo)(nil)
