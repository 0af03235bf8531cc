package repository

import (
	"context"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoUsers struct {
	col *mongo.Collection
}

func (r *mongoUsers) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUsers) GetMany(ctx context.Context, ids []string) ([]*models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *mongoUsers) FindOnline(ctx context.Context) ([]*models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"activeStatus": models.ActiveStatusOnline})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *mongoUsers) SetProfileField(ctx context.Context, id, field string, value any) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{field: value}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) SetActiveStatus(ctx context.Context, id, status string) error {
	return r.SetProfileField(ctx, id, "activeStatus", status)
}

func (r *mongoUsers) SetVisibilityPolicy(ctx context.Context, id, field string, policy models.FieldPolicy) error {
	return r.SetProfileField(ctx, id, "visibility."+field, policy)
}

// AddConnection pushes the edge onto both user documents. The push on each
// side is guarded so a second request between the same pair, in either
// direction, is rejected.
func (r *mongoUsers) AddConnection(ctx context.Context, edge models.Connection) error {
	noEdge := bson.M{"$nor": []bson.M{
		{"connections": bson.M{"$elemMatch": bson.M{"initiatorUserId": edge.InitiatorUserID, "targetUserId": edge.TargetUserID}}},
		{"connections": bson.M{"$elemMatch": bson.M{"initiatorUserId": edge.TargetUserID, "targetUserId": edge.InitiatorUserID}}},
	}}
	filter := bson.M{"_id": edge.InitiatorUserID}
	for k, v := range noEdge {
		filter[k] = v
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"connections": edge}})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrDuplicate
	}
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": edge.TargetUserID}, bson.M{"$push": bson.M{"connections": edge}})
	return err
}

func (r *mongoUsers) AcceptConnection(ctx context.Context, connectionID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"connections.connectionId": connectionID},
		bson.M{"$set": bson.M{"connections.$.status": models.ConnectionAccepted}})
	return err
}

func (r *mongoUsers) RemoveConnection(ctx context.Context, connectionID string) (models.Connection, error) {
	var holder models.User
	err := r.col.FindOne(ctx, bson.M{"connections.connectionId": connectionID}).Decode(&holder)
	if err == mongo.ErrNoDocuments {
		return models.Connection{}, ErrNotFound
	}
	if err != nil {
		return models.Connection{}, err
	}
	var edge models.Connection
	for _, c := range holder.Connections {
		if c.ConnectionID == connectionID {
			edge = c
			break
		}
	}
	_, err = r.col.UpdateMany(ctx,
		bson.M{"connections.connectionId": connectionID},
		bson.M{"$pull": bson.M{"connections": bson.M{"connectionId": connectionID}}})
	return edge, err
}

func (r *mongoUsers) RemoveEdgesWith(ctx context.Context, userID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{},
		bson.M{"$pull": bson.M{"connections": bson.M{"$or": []bson.M{
			{"initiatorUserId": userID},
			{"targetUserId": userID},
		}}}})
	return err
}

func (r *mongoUsers) Block(ctx context.Context, ownerID, targetID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": ownerID},
		bson.M{"$addToSet": bson.M{"blockedUsers": targetID}})
	return err
}

func (r *mongoUsers) Unblock(ctx context.Context, ownerID, targetID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": ownerID},
		bson.M{"$pull": bson.M{"blockedUsers": targetID}})
	return err
}

func (r *mongoUsers) UpsertRecentTab(ctx context.Context, ownerID string, tab models.RecentTab) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": ownerID, "recentChatsTabs.tabId": tab.TabID},
		bson.M{"$set": bson.M{"recentChatsTabs.$": tab}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": ownerID},
		bson.M{"$push": bson.M{"recentChatsTabs": tab}})
	return err
}

func (r *mongoUsers) AddPastGroup(ctx context.Context, userID string, pg models.PastGroup) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$push": bson.M{"pastGroups": pg}})
	return err
}

func (r *mongoUsers) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
