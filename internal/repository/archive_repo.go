package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"architect/internal/model"
)

// ArchiveRepo 对话归档仓库（MongoDB，可选）
// 内存存储是权威数据源，这里只做写穿归档与过期清理
type ArchiveRepo struct {
	collection *mongo.Collection
}

// NewArchiveRepo 创建对话归档仓库
func NewArchiveRepo(db *mongo.Database) *ArchiveRepo {
	return &ArchiveRepo{
		collection: db.Collection("conversations"),
	}
}

// EnsureIndexes 创建归档集合需要的索引
func (r *ArchiveRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "last_activity", Value: 1}},
	})
	return err
}

// Save 按对话 ID upsert 整个对话
func (r *ArchiveRepo) Save(ctx context.Context, conv *model.Conversation) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": conv.ID}, conv, opts)
	return err
}

// PruneBefore 删除最后活跃时间早于 cutoff 的归档，返回删除数
func (r *ArchiveRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"last_activity": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
