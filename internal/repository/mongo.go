package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	colUsers      = "users"
	colChats      = "chats"
	colStories    = "stories"
	colGroups     = "groups"
	colBroadcasts = "broadcasts"
	colCalls      = "calls"
)

// Connect dials mongo and returns the aggregate store backed by it.
func Connect(ctx context.Context, uri, database string) (*Store, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}
	db := client.Database(database)
	st := &Store{
		Users:      &mongoUsers{col: db.Collection(colUsers)},
		Chats:      &mongoChats{col: db.Collection(colChats)},
		Stories:    &mongoStories{col: db.Collection(colStories)},
		Groups:     &mongoGroups{col: db.Collection(colGroups)},
		Broadcasts: &mongoBroadcasts{col: db.Collection(colBroadcasts)},
		Calls:      &mongoCalls{col: db.Collection(colCalls)},
	}
	return st, client, nil
}
