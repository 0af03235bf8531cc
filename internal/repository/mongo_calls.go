package repository

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCalls struct {
	col *mongo.Collection
}

func (r *mongoCalls) Insert(ctx context.Context, c *models.Call) error {
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	c.CallingTime = c.CallingTime.UTC()
	c.UpdatedAt = time.Now().UTC()
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *mongoCalls) GetByCustomID(ctx context.Context, customID string) (*models.Call, error) {
	var c models.Call
	err := r.col.FindOne(ctx, bson.M{"customId": customID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *mongoCalls) SetStatus(ctx context.Context, customID, status string, callDur, ringDur time.Duration, at time.Time) error {
	set := bson.M{"status": status, "updatedAt": at.UTC()}
	if callDur > 0 {
		set["callDuration"] = callDur
	}
	if ringDur > 0 {
		set["ringDuration"] = ringDur
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"customId": customID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCalls) SetSeenByCallee(ctx context.Context, customID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"customId": customID},
		bson.M{"$set": bson.M{"seenByCallee": true}})
	return err
}

func (r *mongoCalls) SoftDelete(ctx context.Context, customID, userID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"customId": customID},
		bson.M{"$addToSet": bson.M{"deletedByUsers": userID}})
	return err
}

func (r *mongoCalls) DeleteIfAllPartiesDeleted(ctx context.Context, customID string) (bool, error) {
	c, err := r.GetByCustomID(ctx, customID)
	if err != nil {
		return false, err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{
		"customId":       customID,
		"deletedByUsers": bson.M{"$all": []string{c.CallerID, c.CalleeID}},
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoCalls) FindUnresolved(ctx context.Context) ([]*models.Call, error) {
	filter := bson.M{"$or": []bson.M{
		{"status": bson.M{"$in": []string{models.CallStatusCalling, models.CallStatusRinging}}},
		{"status": models.CallStatusAccepted, "callDuration": bson.M{"$in": []any{nil, 0}}},
	}}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Call
	for cur.Next(ctx) {
		var c models.Call
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}
