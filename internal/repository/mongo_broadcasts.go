package repository

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoBroadcasts struct {
	col *mongo.Collection
}

func (r *mongoBroadcasts) Create(ctx context.Context, b *models.Broadcast) (string, error) {
	b.CreatedAt = time.Now().UTC()
	if b.ID == "" {
		b.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, b); err != nil {
		return "", err
	}
	return b.ID, nil
}

func (r *mongoBroadcasts) Get(ctx context.Context, id string) (*models.Broadcast, error) {
	var b models.Broadcast
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *mongoBroadcasts) AddMember(ctx context.Context, broadcastID, userID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": broadcastID},
		bson.M{"$addToSet": bson.M{"members": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoBroadcasts) RemoveMember(ctx context.Context, broadcastID, userID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": broadcastID},
		bson.M{"$pull": bson.M{"members": userID}})
	return err
}

func (r *mongoBroadcasts) SetProfile(ctx context.Context, broadcastID, name, picture string) error {
	set := bson.M{}
	if name != "" {
		set["name"] = name
	}
	if picture != "" {
		set["picture"] = picture
	}
	if len(set) == 0 {
		return nil
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": broadcastID}, bson.M{"$set": set})
	return err
}

func (r *mongoBroadcasts) Delete(ctx context.Context, broadcastID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": broadcastID})
	return err
}

func (r *mongoBroadcasts) RemoveUserEverywhere(ctx context.Context, userID string) error {
	_, err := r.col.UpdateMany(ctx, bson.M{"members": userID},
		bson.M{"$pull": bson.M{"members": userID}})
	return err
}
