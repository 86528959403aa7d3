package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/whisky55/rede-social/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	postsCollection = "posts"
)

// Mongo stocke un document par utilisateur et par post. Commit exige un replica set
// (transactions multi-documents).
type Mongo struct {
	client *mongo.Client
	users  *mongo.Collection
	posts  *mongo.Collection
}

func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(database)
	return &Mongo{
		client: client,
		users:  db.Collection(usersCollection),
		posts:  db.Collection(postsCollection),
	}, nil
}

func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
	})
	return err
}

func (s *Mongo) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func (s *Mongo) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translateMongoError(err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, translateMongoError(err)
	}

	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Mongo) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translateMongoError(err)
	}
	return &post, nil
}

func (s *Mongo) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	cur, err := s.posts.Find(ctx, postFilter(q), postFindOptions(q))
	if err != nil {
		return nil, translateMongoError(err)
	}
	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, translateMongoError(err)
	}
	return posts, nil
}

func postFilter(q PostQuery) bson.M {
	filter := bson.M{}
	if len(q.AuthorIDs) > 0 {
		filter["userId"] = bson.M{"$in": q.AuthorIDs}
	}
	if q.After != nil {
		filter["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": q.After.CreatedAt}},
			bson.M{"createdAt": q.After.CreatedAt, "_id": bson.M{"$gt": q.After.ID}},
		}
	}
	return filter
}

func postFindOptions(q PostQuery) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

func (s *Mongo) Commit(ctx context.Context, writes []Write) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, w := range ordered(writes) {
			if err := s.apply(sc, w); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return translateMongoError(err)
}

func (s *Mongo) apply(ctx context.Context, w Write) error {
	switch w.Kind {
	case CreateUser:
		_, err := s.users.InsertOne(ctx, w.User)
		return err
	case CreatePost:
		_, err := s.posts.InsertOne(ctx, w.Post)
		return err
	case UpdateUser:
		return checkMatched(s.users.ReplaceOne(ctx, bson.M{"_id": w.User.ID, "version": w.Expected}, w.User))(w)
	case UpdatePost:
		return checkMatched(s.posts.ReplaceOne(ctx, bson.M{"_id": w.Post.ID, "version": w.Expected}, w.Post))(w)
	case DeletePost:
		res, err := s.posts.DeleteOne(ctx, bson.M{"_id": w.PostID, "version": w.Expected})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return fmt.Errorf("%s %s: %w", w.Kind, w.docID(), ErrConflict)
		}
		return nil
	}
	return fmt.Errorf("unsupported write kind %d", w.Kind)
}

func checkMatched(res *mongo.UpdateResult, err error) func(Write) error {
	return func(w Write) error {
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("%s %s: %w", w.Kind, w.docID(), ErrConflict)
		}
		return nil
	}
}

func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translateMongoError(err error) error {
	if err == nil || errors.Is(err, ErrConflict) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%v: %w", err, ErrConflict)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("TransientTransactionError") {
		return fmt.Errorf("%v: %w", err, ErrConflict)
	}
	return err
}
