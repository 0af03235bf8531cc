package repository

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoGroups struct {
	col *mongo.Collection
}

func (r *mongoGroups) Create(ctx context.Context, g *models.Group) (string, error) {
	g.CreatedAt = time.Now().UTC()
	if g.ID == "" {
		g.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, g); err != nil {
		return "", err
	}
	return g.ID, nil
}

func (r *mongoGroups) Get(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// AddInvited is idempotent and refuses users who are already members.
func (r *mongoGroups) AddInvited(ctx context.Context, groupID, userID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": groupID, "members": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"invitedUsers": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// AddMember moves the user into members in one conditional update, clearing
// any invitation or past-member record.
func (r *mongoGroups) AddMember(ctx context.Context, groupID, userID string, asAdmin bool) (bool, error) {
	update := bson.M{
		"$addToSet": bson.M{"members": userID},
		"$pull": bson.M{
			"invitedUsers": userID,
			"pastMembers":  bson.M{"memberId": userID},
		},
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": groupID, "members": bson.M{"$ne": userID}}, update)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}
	if asAdmin {
		_, err = r.col.UpdateOne(ctx, bson.M{"_id": groupID},
			bson.M{"$addToSet": bson.M{"admins": userID}})
	}
	return true, err
}

// RemoveMember exits a current member, guarded against users already recorded
// as past members.
func (r *mongoGroups) RemoveMember(ctx context.Context, groupID, userID string, exitedAt time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": groupID, "members": userID, "pastMembers.memberId": bson.M{"$ne": userID}},
		bson.M{
			"$pull": bson.M{"members": userID, "admins": userID, "invitedUsers": userID},
			"$push": bson.M{"pastMembers": models.PastMember{MemberID: userID, ExitedAt: exitedAt}},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// PromoteAdmin only matches when the user is a current member; promoting an
// existing admin reports false.
func (r *mongoGroups) PromoteAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": groupID, "members": userID},
		bson.M{"$addToSet": bson.M{"admins": userID}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoGroups) DemoteAdmin(ctx context.Context, groupID, userID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": groupID},
		bson.M{"$pull": bson.M{"admins": userID}})
	return err
}

func (r *mongoGroups) SetProfile(ctx context.Context, groupID, name, picture, description string) error {
	set := bson.M{}
	if name != "" {
		set["name"] = name
	}
	if picture != "" {
		set["picture"] = picture
	}
	if description != "" {
		set["description"] = description
	}
	if len(set) == 0 {
		return nil
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": groupID}, bson.M{"$set": set})
	return err
}

func (r *mongoGroups) SetMessagePermission(ctx context.Context, groupID, permission string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": groupID},
		bson.M{"$set": bson.M{"messagePermission": permission}})
	return err
}

func (r *mongoGroups) Delete(ctx context.Context, groupID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": groupID})
	return err
}

func (r *mongoGroups) RemoveUserEverywhere(ctx context.Context, userID string, exitedAt time.Time) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"members": userID},
		bson.M{
			"$pull": bson.M{"members": userID, "admins": userID},
			"$push": bson.M{"pastMembers": models.PastMember{MemberID: userID, ExitedAt: exitedAt}},
		})
	if err != nil {
		return err
	}
	_, err = r.col.UpdateMany(ctx,
		bson.M{"invitedUsers": userID},
		bson.M{"$pull": bson.M{"invitedUsers": userID}})
	return err
}
