package repository

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoStories struct {
	col *mongo.Collection
}

func (r *mongoStories) Insert(ctx context.Context, s *models.Story) (bool, error) {
	s.SentTime = s.SentTime.UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"customId": s.CustomID},
		bson.M{"$setOnInsert": s},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedID != nil, nil
}

func (r *mongoStories) GetByCustomID(ctx context.Context, customID string) (*models.Story, error) {
	var s models.Story
	err := r.col.FindOne(ctx, bson.M{"customId": customID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *mongoStories) ListBySender(ctx context.Context, senderID string) ([]*models.Story, error) {
	cur, err := r.col.Find(ctx, bson.M{"senderId": senderID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Story
	for cur.Next(ctx) {
		var s models.Story
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, cur.Err()
}

func (r *mongoStories) MarkSeen(ctx context.Context, customID, receiverID string, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"customId": customID, "receiversInfo.receiverId": receiverID},
		bson.M{"$set": bson.M{"receiversInfo.$.seenTime": at}})
	return err
}

func (r *mongoStories) SoftDelete(ctx context.Context, customID, userID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"customId": customID},
		bson.M{"$addToSet": bson.M{"deletedByUsers": userID}})
	return err
}

func (r *mongoStories) DeleteIfAllParticipantsDeleted(ctx context.Context, customID string) (*models.Story, bool, error) {
	s, err := r.GetByCustomID(ctx, customID)
	if err != nil {
		return nil, false, err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{
		"customId":       customID,
		"deletedByUsers": bson.M{"$all": s.Participants()},
	})
	if err != nil {
		return s, false, err
	}
	return s, res.DeletedCount > 0, nil
}

func (r *mongoStories) Delete(ctx context.Context, customID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"customId": customID})
	return err
}
