// Package mongostore implements the metadata store on MongoDB using the
// `users` and `files` collections. Documents keep the historical layout:
// userId is an ObjectID and a root entry stores parentId as the number 0.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/filesmanager/backend/internal/config"
	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	filesCollection = "files"
)

type Store struct {
	client *mongo.Client
	users  *userRepository
	files  *fileRepository
}

var _ store.Backend = (*Store)(nil)

// Connect dials MongoDB and ensures the unique email index exists.
func Connect(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	uri := fmt.Sprintf("mongodb://%s:%s", cfg.Host, cfg.Port)
	opts := options.Client().ApplyURI(uri)
	if cfg.User != "" && cfg.Password != "" {
		opts.SetAuth(options.Credential{Username: cfg.User, Password: cfg.Password})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	s := New(client, cfg.Name)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client: client,
		users:  &userRepository{coll: db.Collection(usersCollection)},
		files:  &fileRepository{coll: db.Collection(filesCollection)},
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating users.email index: %w", err)
	}
	_, err = s.files.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "parentId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating files.userId_parentId index: %w", err)
	}
	return nil
}

func (s *Store) Users() store.Users { return s.users }
func (s *Store) Files() store.Files { return s.files }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *userDocument) model() *models.User {
	u := &models.User{Email: d.Email, PasswordHash: d.Password}
	u.ID = d.ID.Hex()
	u.CreatedAt = d.CreatedAt
	return u
}

type fileDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Name      string             `bson:"name"`
	Type      string             `bson:"type"`
	IsPublic  bool               `bson:"isPublic"`
	ParentID  interface{}        `bson:"parentId"`
	LocalPath *string            `bson:"localPath,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *fileDocument) model() *models.File {
	f := &models.File{
		UserID:    d.UserID.Hex(),
		Name:      d.Name,
		Type:      models.FileType(d.Type),
		IsPublic:  d.IsPublic,
		ParentID:  decodeParent(d.ParentID),
		LocalPath: d.LocalPath,
	}
	f.ID = d.ID.Hex()
	f.CreatedAt = d.CreatedAt
	return f
}

// encodeParent maps a parent id string to its stored form.
func encodeParent(parentID string) (interface{}, bool) {
	if parentID == "" || parentID == models.RootParentID {
		return int32(0), true
	}
	oid, err := primitive.ObjectIDFromHex(parentID)
	if err != nil {
		return nil, false
	}
	return oid, true
}

func decodeParent(raw interface{}) string {
	switch v := raw.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		if v == "" {
			return models.RootParentID
		}
		return v
	default:
		return models.RootParentID
	}
}

func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

type userRepository struct {
	coll *mongo.Collection
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	doc := userDocument{Email: user.Email, Password: user.PasswordHash, CreatedAt: time.Now().UTC()}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

type fileRepository struct {
	coll *mongo.Collection
}

// InsertUnder checks the parent and inserts with two single-document
// operations; MongoDB offers no cross-document guard without transactions.
func (r *fileRepository) InsertUnder(ctx context.Context, file *models.File) error {
	owner, ok := objectID(file.UserID)
	if !ok {
		return fmt.Errorf("invalid owner id %q", file.UserID)
	}
	parent, ok := encodeParent(file.ParentID)
	if !ok {
		return store.ErrParentNotFound
	}

	if parentOID, isOID := parent.(primitive.ObjectID); isOID {
		var parentDoc fileDocument
		err := r.coll.FindOne(ctx, bson.M{"_id": parentOID},
			options.FindOne().SetProjection(bson.M{"type": 1})).Decode(&parentDoc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return store.ErrParentNotFound
			}
			return err
		}
		if models.FileType(parentDoc.Type) != models.FileTypeFolder {
			return store.ErrParentNotFolder
		}
	}

	doc := fileDocument{
		UserID:    owner,
		Name:      file.Name,
		Type:      string(file.Type),
		IsPublic:  file.IsPublic,
		ParentID:  parent,
		LocalPath: file.LocalPath,
		CreatedAt: time.Now().UTC(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		file.ID = oid.Hex()
	}
	file.CreatedAt = doc.CreatedAt
	return nil
}

func (r *fileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *fileRepository) FindOwned(ctx context.Context, id, userID string) (*models.File, error) {
	filter, ok := ownedFilter(id, userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *fileRepository) findOne(ctx context.Context, filter bson.M) (*models.File, error) {
	var doc fileDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (r *fileRepository) List(ctx context.Context, userID, parentID string, skip, limit int) ([]models.File, error) {
	files := []models.File{}
	owner, ok := objectID(userID)
	if !ok || skip < 0 {
		return files, nil
	}
	parent, ok := encodeParent(parentID)
	if !ok {
		return files, nil
	}

	// ObjectIDs lead with the insert time and a per-process counter.
	cursor, err := r.coll.Find(ctx,
		bson.M{"userId": owner, "parentId": parent},
		options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetSkip(int64(skip)).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc fileDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		files = append(files, *doc.model())
	}
	return files, cursor.Err()
}

func (r *fileRepository) SetPublic(ctx context.Context, id, userID string, isPublic bool) (*models.File, error) {
	filter, ok := ownedFilter(id, userID)
	if !ok {
		return nil, store.ErrNotFound
	}

	var doc fileDocument
	err := r.coll.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": bson.M{"isPublic": isPublic}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (r *fileRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

func ownedFilter(id, userID string) (bson.M, bool) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false
	}
	owner, ok := objectID(userID)
	if !ok {
		return nil, false
	}
	return bson.M{"_id": oid, "userId": owner}, true
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
