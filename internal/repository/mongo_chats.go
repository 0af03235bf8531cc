package repository

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoChats struct {
	col *mongo.Collection
}

func (r *mongoChats) Insert(ctx context.Context, c *models.Chat) (bool, error) {
	c.SentTime = c.SentTime.UTC()
	c.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"customId": c.CustomID},
		bson.M{"$setOnInsert": c},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedID != nil, nil
}

func (r *mongoChats) Update(ctx context.Context, c *models.Chat) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"customId": c.CustomID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoChats) GetByCustomID(ctx context.Context, customID string) (*models.Chat, error) {
	var c models.Chat
	err := r.col.FindOne(ctx, bson.M{"customId": customID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *mongoChats) SetReceiverStatus(ctx context.Context, customID, receiverID, status string, at time.Time) error {
	set := bson.M{"receiversInfo.$.status": status, "updatedAt": time.Now().UTC()}
	switch status {
	case models.ChatStatusDelivered:
		set["receiversInfo.$.deliveredTime"] = at
	case models.ChatStatusSeen:
		set["receiversInfo.$.seenTime"] = at
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"customId": customID, "receiversInfo.receiverId": receiverID},
		bson.M{"$set": set})
	return err
}

func (r *mongoChats) SoftDelete(ctx context.Context, customID, userID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"customId": customID},
		bson.M{"$addToSet": bson.M{"deletedByUsers": userID}})
	return err
}

func (r *mongoChats) DeleteIfAllParticipantsDeleted(ctx context.Context, customID string) (*models.Chat, bool, error) {
	c, err := r.GetByCustomID(ctx, customID)
	if err != nil {
		return nil, false, err
	}
	participants := c.Participants()
	// conditional delete: only erases if every participant is still listed
	res, err := r.col.DeleteOne(ctx, bson.M{
		"customId":       customID,
		"deletedByUsers": bson.M{"$all": participants},
	})
	if err != nil {
		return c, false, err
	}
	return c, res.DeletedCount > 0, nil
}

func (r *mongoChats) SoftDeleteAllForGroup(ctx context.Context, groupID string, userIDs []string) error {
	_, err := r.col.UpdateMany(ctx, bson.M{"groupId": groupID},
		bson.M{"$addToSet": bson.M{"deletedByUsers": bson.M{"$each": userIDs}}})
	return err
}

func (r *mongoChats) SoftDeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"$or": []bson.M{{"senderId": userID}, {"receiversInfo.receiverId": userID}}},
		bson.M{"$addToSet": bson.M{"deletedByUsers": userID}})
	return err
}
