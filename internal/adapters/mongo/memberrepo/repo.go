package memberrepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/teamsite/roster-api/internal/domain"
	"github.com/teamsite/roster-api/internal/ports/out/memberrepo"
)

const CollectionName = "members"

// Repo stores one document per member in the "members" collection.
type Repo struct {
	coll *driver.Collection
}

func NewRepo(db *driver.Database) *Repo {
	return &Repo{coll: db.Collection(CollectionName)}
}

type memberDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name"`
	Batch      string             `bson:"batch"`
	Faculty    string             `bson:"faculty"`
	MemberType string             `bson:"memberType"`
	ECTitle    string             `bson:"ecTitle,omitempty"`
	ImageURL   string             `bson:"imageUrl"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

// EnsureIndexes creates the index backing the default list order.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, driver.IndexModel{
		Keys: bson.D{{Key: "memberType", Value: -1}, {Key: "name", Value: 1}},
	})
	return err
}

func (r *Repo) Create(ctx context.Context, m memberrepo.Member) error {
	oid, err := m.ID.ObjectID()
	if err != nil {
		return err
	}
	doc := toDoc(oid, m)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if driver.IsDuplicateKeyError(err) {
			return memberrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, m memberrepo.Member) error {
	oid, err := m.ID.ObjectID()
	if err != nil {
		return memberrepo.ErrNotFound
	}
	set := bson.D{
		{Key: "name", Value: m.Name},
		{Key: "batch", Value: m.Batch},
		{Key: "faculty", Value: m.Faculty},
		{Key: "memberType", Value: string(m.Type)},
		{Key: "imageUrl", Value: m.ImageURL},
		{Key: "updatedAt", Value: m.UpdatedAt.UTC()},
	}
	var update bson.D
	if m.ECTitle != "" {
		set = append(set, bson.E{Key: "ecTitle", Value: m.ECTitle})
		update = bson.D{{Key: "$set", Value: set}}
	} else {
		update = bson.D{
			{Key: "$set", Value: set},
			{Key: "$unset", Value: bson.D{{Key: "ecTitle", Value: ""}}},
		}
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	oid, err := id.ObjectID()
	if err != nil {
		return memberrepo.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	oid, err := id.ObjectID()
	if err != nil {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	var doc memberDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return memberrepo.Member{}, memberrepo.ErrNotFound
		}
		return memberrepo.Member{}, err
	}
	return fromDoc(doc), nil
}

func (r *Repo) List(ctx context.Context) ([]memberrepo.Member, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "memberType", Value: -1},
		{Key: "name", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]memberrepo.Member, 0)
	for cur.Next(ctx) {
		var doc memberDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, fromDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func toDoc(oid primitive.ObjectID, m memberrepo.Member) memberDoc {
	return memberDoc{
		ID:         oid,
		Name:       m.Name,
		Batch:      m.Batch,
		Faculty:    m.Faculty,
		MemberType: string(m.Type),
		ECTitle:    m.ECTitle,
		ImageURL:   m.ImageURL,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func fromDoc(d memberDoc) memberrepo.Member {
	return memberrepo.Member{
		ID:        domain.MemberID(d.ID.Hex()),
		Name:      d.Name,
		Batch:     d.Batch,
		Faculty:   d.Faculty,
		Type:      domain.MemberType(d.MemberType),
		ECTitle:   d.ECTitle,
		ImageURL:  d.ImageURL,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
