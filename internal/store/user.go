package store

import (
	"context"
	"strings"
	"time"

	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// UserRepository handles persistence for users.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (types.User, error) {
	var user types.User
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	if err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	var user types.User
	filter := bson.D{{Key: "email", Value: strings.ToLower(strings.TrimSpace(email))}}
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

// Create inserts user. A second account with the same email fails with
// ErrDuplicate via the unique email index.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, update types.UserUpdate) (types.User, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *update.Name})
	}
	if update.PasswordHash != nil {
		set = append(set, bson.E{Key: "password", Value: *update.PasswordHash})
	}
	if update.AvatarURL != nil {
		set = append(set, bson.E{Key: "avatarUrl", Value: *update.AvatarURL})
	}
	if update.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *update.Status})
	}

	var user types.User
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

// List returns one page of users matching filter, oldest first, together
// with the total number of matches.
func (r *UserRepository) List(ctx context.Context, filter types.UserFilter, page types.PageRequest) ([]types.User, int64, error) {
	query := userFilter(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit)).
		SetProjection(bson.D{{Key: "password", Value: 0}})
	cur, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	users := make([]types.User, 0, page.Limit)
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
